package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/rigctl/internal/rigs/fileops"
)

// FileEffector serves file operations confined to a root directory.
// Absolute paths and escapes past the root are rejected.
type FileEffector struct {
	root string
}

func NewFileEffector(root string) *FileEffector {
	resolved := strings.TrimSpace(root)
	if resolved == "" {
		resolved = filepath.Join("local", "dir")
	}
	return &FileEffector{root: resolved}
}

func (e *FileEffector) Read(ctx context.Context, path string) ([]byte, error) {
	p, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (e *FileEffector) Write(ctx context.Context, path string, content []byte) error {
	p, err := e.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, content, 0o644)
}

func (e *FileEffector) List(ctx context.Context, path string) ([]fileops.Entry, error) {
	dir, err := e.resolveDir(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]fileops.Entry, 0, len(entries))
	for _, entry := range entries {
		rel := filepath.ToSlash(filepath.Join(strings.TrimSpace(path), entry.Name()))
		item := fileops.Entry{Path: rel, IsDir: entry.IsDir()}
		if info, err := entry.Info(); err == nil {
			item.Size = info.Size()
			item.ModTime = info.ModTime().UTC().Format(time.RFC3339)
		}
		out = append(out, item)
	}
	return out, nil
}

// Delete removes path; a missing file is not an error.
func (e *FileEffector) Delete(ctx context.Context, path string) error {
	p, err := e.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (e *FileEffector) Stat(ctx context.Context, path string) (fileops.Entry, error) {
	p, err := e.resolve(path)
	if err != nil {
		return fileops.Entry{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return fileops.Entry{}, err
	}
	return fileops.Entry{
		Path:    filepath.ToSlash(strings.TrimSpace(path)),
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime().UTC().Format(time.RFC3339),
	}, nil
}

func (e *FileEffector) resolve(path string) (string, error) {
	rel := strings.TrimSpace(path)
	if rel == "" {
		return "", fmt.Errorf("local: missing path")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("local: absolute path not allowed")
	}
	root, err := filepath.Abs(e.root)
	if err != nil {
		return "", err
	}
	p := filepath.Clean(filepath.Join(root, rel))
	if !isWithin(p, root) {
		return "", fmt.Errorf("local: path escapes root")
	}
	return p, nil
}

// resolveDir treats an empty path as the root itself.
func (e *FileEffector) resolveDir(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return filepath.Abs(e.root)
	}
	return e.resolve(path)
}

func isWithin(path string, root string) bool {
	p := filepath.Clean(path)
	r := filepath.Clean(root)
	if p == r {
		return true
	}
	return strings.HasPrefix(p, r+string(os.PathSeparator))
}
