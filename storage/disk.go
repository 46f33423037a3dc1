package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// extensions maps content types to object-name extensions.
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// DiskStore persists artifacts as files under a single directory and
// resolves public references against a base URL (typically the service's
// own /images route, or a CDN in front of the same directory).
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the artifacts directory if needed and returns a
// store rooted there. baseURL must not be empty.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: artifacts directory is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("storage: public base URL is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("storage: failed to create artifacts directory: %w", err)
	}

	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the artifacts directory, for serving it over HTTP.
func (s *DiskStore) Dir() string {
	return s.dir
}

// objectName returns the file name for an artifact id. The extension is
// derived from the content type recorded at upload; references resolve by
// id alone, so the default entry must match Upload's default.
func objectName(id, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".png"
	}
	return id + ext
}

// Upload writes the artifact to disk. The write goes through a temp file
// and rename so a crash mid-write never leaves a partial object that a
// reference could resolve to.
func (s *DiskStore) Upload(ctx context.Context, id string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("storage: artifact id is required")
	}
	if len(data) == 0 {
		return "", ErrEmptyArtifact
	}

	name := objectName(id, contentType)
	finalPath := filepath.Join(s.dir, name)
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("storage: failed to write artifact: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("storage: failed to finalize artifact: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

// ResolveReference returns the public URL for an artifact id, assuming the
// default PNG content type used by the generation providers.
func (s *DiskStore) ResolveReference(id string) string {
	return s.baseURL + "/" + objectName(id, "image/png")
}

// Delete removes the artifact file. Removing an already-absent artifact is
// not an error; compensation may race with maintenance sweeps.
func (s *DiskStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, id+".*"))
	if err != nil {
		return fmt.Errorf("storage: failed to locate artifact: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("storage: failed to delete artifact: %w", err)
		}
	}
	return nil
}

// List returns the object names currently stored. Used by maintenance and
// tests to verify the no-orphans invariant.
func (s *DiskStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to list artifacts: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && !strings.HasSuffix(entry.Name(), ".tmp") {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

var _ Store = (*DiskStore)(nil)
