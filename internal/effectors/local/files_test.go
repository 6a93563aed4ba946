package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/rigctl/internal/testutil/testlog"
)

func TestFileEffectorRoundTrip(t *testing.T) {
	testlog.Start(t)
	eff := NewFileEffector(t.TempDir())
	ctx := context.Background()

	if err := eff.Write(ctx, "notes/today.txt", []byte("rig notes")); err != nil {
		t.Fatalf("write: %v", err)
	}
	content, err := eff.Read(ctx, "notes/today.txt")
	if err != nil || string(content) != "rig notes" {
		t.Fatalf("read: content=%q err=%v", content, err)
	}

	entries, err := eff.List(ctx, "notes")
	if err != nil || len(entries) != 1 {
		t.Fatalf("list: entries=%v err=%v", entries, err)
	}
	if entries[0].Path != "notes/today.txt" || entries[0].Size != 9 {
		t.Fatalf("entry: %+v", entries[0])
	}

	stat, err := eff.Stat(ctx, "notes/today.txt")
	if err != nil || stat.IsDir || stat.ModTime == "" {
		t.Fatalf("stat: %+v err=%v", stat, err)
	}

	if err := eff.Delete(ctx, "notes/today.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := eff.Read(ctx, "notes/today.txt"); err == nil {
		t.Fatalf("deleted file must not read back")
	}
	if err := eff.Delete(ctx, "notes/today.txt"); err != nil {
		t.Fatalf("repeat delete must stay quiet: %v", err)
	}
}

func TestFileEffectorConfinement(t *testing.T) {
	testlog.Start(t)
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "outside.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o600); err != nil {
		t.Fatalf("seed outside file: %v", err)
	}
	eff := NewFileEffector(root)
	ctx := context.Background()

	tests := []struct {
		name string
		path string
	}{
		{name: "parent escape", path: "../outside.txt"},
		{name: "nested escape", path: "notes/../../outside.txt"},
		{name: "absolute path", path: outside},
		{name: "empty path", path: "   "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := eff.Read(ctx, tc.path); err == nil {
				t.Fatalf("path %q must be rejected", tc.path)
			}
			if err := eff.Write(ctx, tc.path, []byte("x")); err == nil {
				t.Fatalf("write to %q must be rejected", tc.path)
			}
		})
	}
}

func TestFileEffectorListRootDefault(t *testing.T) {
	testlog.Start(t)
	eff := NewFileEffector(t.TempDir())
	ctx := context.Background()
	if err := eff.Write(ctx, "a.txt", []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := eff.List(ctx, "")
	if err != nil || len(entries) != 1 || entries[0].Path != "a.txt" {
		t.Fatalf("root list: %v err=%v", entries, err)
	}
}
