package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTemplateRoundTrip(t *testing.T) {
	for _, kind := range []string{"server", "dev"} {
		t.Run(kind, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := WriteTemplate(path, kind, false); err != nil {
				t.Fatalf("write template: %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat template: %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0o600 {
				t.Fatalf("template permissions: got %o want 600", perm)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("template must load cleanly: %v", err)
			}
			if cfg.Addr == "" || len(cfg.Rigs) == 0 {
				t.Fatalf("template missing core fields: %+v", cfg)
			}
		})
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	if _, err := Template("mainframe"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteTemplate(path, "server", false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteTemplate(path, "server", false); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	if err := WriteTemplate(path, "dev", true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read forced template: %v", err)
	}
	if !strings.Contains(string(raw), "dev-token.json") {
		t.Fatalf("forced write did not replace contents")
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	tests := []struct {
		name string
		cfg  File
	}{
		{name: "addr without port", cfg: File{Addr: "localhost"}},
		{name: "negative limit", cfg: File{ThrottleLimit: -1}},
		{name: "negative window", cfg: File{ThrottleWindowSeconds: -5}},
		{name: "negative grace", cfg: File{ShutdownGraceSeconds: -1}},
		{name: "unknown rig", cfg: File{Rigs: []string{"file", "warp"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.cfg); err == nil {
				t.Fatalf("expected validation error for %+v", tc.cfg)
			}
		})
	}
}

func TestValidateToleratesBlankRigEntries(t *testing.T) {
	if err := Validate(File{Rigs: []string{"file", "", "  "}}); err != nil {
		t.Fatalf("blank rig entries must pass: %v", err)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("addr = [broken"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected load failure for missing file")
	}
}
