// Package config owns the rigctl TOML file schema: the shipped templates,
// the loader, and the validation configgen runs against operator files.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// KnownRigs lists every rig name cmd/rigctl can construct.
var KnownRigs = []string{"clipboard", "file", "keyboard", "mouse", "process", "window"}

// File mirrors the config.toml keys accepted by cmd/rigctl. Unset keys
// fall back to the daemon's compiled defaults.
type File struct {
	Addr                  string   `toml:"addr"`
	TokenPath             string   `toml:"token_path"`
	CorsOrigins           []string `toml:"cors_origins"`
	ThrottleLimit         int      `toml:"throttle_limit"`
	ThrottleWindowSeconds int      `toml:"throttle_window_seconds"`
	Rigs                  []string `toml:"rigs"`
	FileRoot              string   `toml:"file_root"`
	ShutdownGraceSeconds  int      `toml:"shutdown_grace_seconds"`
}

// Load reads and validates a rigctl config file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	var cfg File
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return File{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return File{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate checks field sanity. Empty fields are acceptable; the daemon
// fills them from its defaults.
func Validate(cfg File) error {
	if addr := strings.TrimSpace(cfg.Addr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("addr must be host:port: %w", err)
		}
	}
	if cfg.ThrottleLimit < 0 {
		return fmt.Errorf("throttle_limit must not be negative")
	}
	if cfg.ThrottleWindowSeconds < 0 {
		return fmt.Errorf("throttle_window_seconds must not be negative")
	}
	if cfg.ShutdownGraceSeconds < 0 {
		return fmt.Errorf("shutdown_grace_seconds must not be negative")
	}
	for _, name := range cfg.Rigs {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if !knownRig(trimmed) {
			return fmt.Errorf("unknown rig %q (known: %s)", trimmed, strings.Join(KnownRigs, ", "))
		}
	}
	return nil
}

func knownRig(name string) bool {
	for _, known := range KnownRigs {
		if known == name {
			return true
		}
	}
	return false
}
