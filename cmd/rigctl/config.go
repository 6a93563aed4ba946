package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/danmuck/rigctl/internal/server"
)

// rigctl config.toml key mapping onto server runtime settings.
type fileConfig struct {
	Addr                  string   `toml:"addr"`
	TokenPath             string   `toml:"token_path"`
	CorsOrigins           []string `toml:"cors_origins"`
	ThrottleLimit         int      `toml:"throttle_limit"`
	ThrottleWindowSeconds int      `toml:"throttle_window_seconds"`
	Rigs                  []string `toml:"rigs"`
	FileRoot              string   `toml:"file_root"`
	ShutdownGraceSeconds  int      `toml:"shutdown_grace_seconds"`
}

// envConfig carries RIGCTL_* overrides, applied after the file.
type envConfig struct {
	Addr                  string   `env:"RIGCTL_ADDR"`
	TokenPath             string   `env:"RIGCTL_TOKEN_PATH"`
	CorsOrigins           []string `env:"RIGCTL_CORS_ORIGINS"`
	ThrottleLimit         int      `env:"RIGCTL_THROTTLE_LIMIT"`
	ThrottleWindowSeconds int      `env:"RIGCTL_THROTTLE_WINDOW_SECONDS"`
	Rigs                  []string `env:"RIGCTL_RIGS"`
	FileRoot              string   `env:"RIGCTL_FILE_ROOT"`
	ShutdownGraceSeconds  int      `env:"RIGCTL_SHUTDOWN_GRACE_SECONDS"`
}

// loadServerConfig layers compiled defaults, the optional TOML file, and
// RIGCTL_* environment variables, later layers winning.
func loadServerConfig(path string) (server.Config, error) {
	cfg := server.DefaultConfig()

	if strings.TrimSpace(path) != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return server.Config{}, fmt.Errorf("load rigctl config: %w", err)
		}
		if meta.IsDefined("addr") {
			cfg.Addr = strings.TrimSpace(raw.Addr)
		}
		if meta.IsDefined("token_path") {
			cfg.TokenPath = strings.TrimSpace(raw.TokenPath)
		}
		if meta.IsDefined("cors_origins") {
			cfg.CORSOrigins = normalizeList(raw.CorsOrigins)
		}
		if meta.IsDefined("throttle_limit") {
			cfg.ThrottleLimit = raw.ThrottleLimit
		}
		if meta.IsDefined("throttle_window_seconds") {
			cfg.ThrottleWindow = time.Duration(raw.ThrottleWindowSeconds) * time.Second
		}
		if meta.IsDefined("rigs") {
			cfg.Rigs = normalizeList(raw.Rigs)
		}
		if meta.IsDefined("file_root") {
			cfg.FileRoot = strings.TrimSpace(raw.FileRoot)
		}
		if meta.IsDefined("shutdown_grace_seconds") {
			cfg.ShutdownGrace = time.Duration(raw.ShutdownGraceSeconds) * time.Second
		}
	}

	var overrides envConfig
	if err := env.Parse(&overrides); err != nil {
		return server.Config{}, fmt.Errorf("parse rigctl env: %w", err)
	}
	if v := strings.TrimSpace(overrides.Addr); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(overrides.TokenPath); v != "" {
		cfg.TokenPath = v
	}
	if len(overrides.CorsOrigins) > 0 {
		cfg.CORSOrigins = normalizeList(overrides.CorsOrigins)
	}
	if overrides.ThrottleLimit > 0 {
		cfg.ThrottleLimit = overrides.ThrottleLimit
	}
	if overrides.ThrottleWindowSeconds > 0 {
		cfg.ThrottleWindow = time.Duration(overrides.ThrottleWindowSeconds) * time.Second
	}
	if len(overrides.Rigs) > 0 {
		cfg.Rigs = normalizeList(overrides.Rigs)
	}
	if v := strings.TrimSpace(overrides.FileRoot); v != "" {
		cfg.FileRoot = v
	}
	if overrides.ShutdownGraceSeconds > 0 {
		cfg.ShutdownGrace = time.Duration(overrides.ShutdownGraceSeconds) * time.Second
	}

	return cfg, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
