package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// publicPrefix is the URL path under which local images are served.
const publicPrefix = "images"

// LocalService stores images on the local filesystem under a single directory.
// Stored paths look like "images/<name>" and are served statically.
type LocalService struct {
	dir string
}

func NewLocalService(dir string) (*LocalService, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("images dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &LocalService{dir: filepath.Clean(dir)}, nil
}

func (s *LocalService) Put(_ context.Context, name, _ string, r io.Reader) (string, error) {
	name = path.Base(name)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("invalid image name")
	}

	dst := filepath.Join(s.dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close image file: %w", err)
	}

	return path.Join(publicPrefix, name), nil
}

func (s *LocalService) Remove(_ context.Context, storagePath string) error {
	name := path.Base(strings.TrimPrefix(storagePath, publicPrefix+"/"))
	if name == "" || name == "." || name == "/" {
		return fmt.Errorf("invalid image path %q", storagePath)
	}

	target := filepath.Join(s.dir, name)
	if rel, err := filepath.Rel(s.dir, target); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("image path %q escapes images dir", storagePath)
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image %s: %w", target, err)
	}
	return nil
}
