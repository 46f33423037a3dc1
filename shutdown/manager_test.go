package shutdown

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestManagerShutdownRunsHandlers(t *testing.T) {
	m := NewManager(nil, WithTimeout(time.Second))
	var order []string

	m.Register("index", 10, func(ctx context.Context) error {
		order = append(order, "index")
		return nil
	})
	m.Register("server", 0, func(ctx context.Context) error {
		order = append(order, "server")
		return nil
	})

	if err := m.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if len(order) != 2 || order[0] != "server" || order[1] != "index" {
		t.Errorf("order = %v, want [server index]", order)
	}
}

func TestManagerShutdownIsIdempotent(t *testing.T) {
	m := NewManager(nil)
	calls := 0
	m.Register("once", 1, func(ctx context.Context) error {
		calls++
		return nil
	})

	if err := m.Shutdown(); err != nil {
		t.Fatalf("first Shutdown() error = %v", err)
	}
	if err := m.Shutdown(); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestManagerShutdownReportsFailures(t *testing.T) {
	m := NewManager(nil)
	m.Register("broken", 1, func(ctx context.Context) error {
		return errors.New("boom")
	})

	if err := m.Shutdown(); err == nil {
		t.Error("Shutdown() should report cleanup failures")
	}
}

func TestManagerTriggerCancelsContext(t *testing.T) {
	m := NewManager(nil)

	select {
	case <-m.Context().Done():
		t.Fatal("context cancelled before Trigger")
	default:
	}

	m.Trigger()

	select {
	case <-m.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after Trigger")
	}
}

func TestManagerSecondSignalForcesExit(t *testing.T) {
	m := NewManager(nil)
	exited := make(chan int, 1)
	m.exit = func(code int) { exited <- code }
	m.Start()

	m.sigChan <- os.Interrupt
	select {
	case <-m.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("first signal did not cancel context")
	}

	m.sigChan <- os.Interrupt
	select {
	case code := <-exited:
		if code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
	case <-time.After(time.Second):
		t.Fatal("second signal did not force exit")
	}
}
