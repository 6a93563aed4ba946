package config

import (
	"fmt"
	"os"
	"strings"
)

// Template returns the shipped config text for a kind.
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "dev":
		return devTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

// WriteTemplate writes a template to path with 0600, refusing to clobber
// an existing file unless overwrite is set.
func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `# rigctl daemon configuration.
# Unset keys fall back to compiled defaults; RIGCTL_* environment
# variables override both.

addr = "127.0.0.1:7700"
token_path = "local/token.json"
cors_origins = ["http://localhost:3000"]
throttle_limit = 120
throttle_window_seconds = 60
rigs = ["window", "keyboard", "mouse", "process", "clipboard", "file"]
file_root = "local/dir"
shutdown_grace_seconds = 10
`

const devTemplate = `# Loopback development profile: only the rigs with local effectors,
# a generous request budget, and fast shutdown.

addr = "127.0.0.1:7700"
token_path = "local/dev-token.json"
cors_origins = ["http://localhost:3000", "http://localhost:5173"]
throttle_limit = 600
throttle_window_seconds = 60
rigs = ["process", "file"]
file_root = "local/dir"
shutdown_grace_seconds = 2
`
