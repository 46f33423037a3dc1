package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"noodle_backend/cache"
	"noodle_backend/core"
	"noodle_backend/imagegen"
	"noodle_backend/logging"
	"noodle_backend/service"
)

func TestServerServesStoredImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "abc123.png"), []byte("png bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	orchestrator, err := service.NewOrchestrator(
		cache.NewMemoryIndex(), &stubStore{}, &stubGenerator{}, logging.NewNop(), imagegen.Options{})
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	srv := NewServer(core.DefaultConfig(), logging.NewNop(), NewHandlers(orchestrator, nil), dir)

	req := httptest.NewRequest(http.MethodGet, "/images/abc123.png", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "png bytes" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestServerRejectsOversizedBody(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	big := `{"prompt": "` + strings.Repeat("x", 2<<20) + `"}`
	rr := postJSON(t, srv, big)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a body over the limit", rr.Code)
	}
}

func TestServerAddr(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9123

	orchestrator, err := service.NewOrchestrator(
		cache.NewMemoryIndex(), &stubStore{}, &stubGenerator{}, logging.NewNop(), imagegen.Options{})
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	srv := NewServer(cfg, logging.NewNop(), NewHandlers(orchestrator, nil), t.TempDir())

	if srv.Addr() != "127.0.0.1:9123" {
		t.Errorf("Addr() = %q", srv.Addr())
	}
}
