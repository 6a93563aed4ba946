package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const tokenBytes = 32

// tokenRecord is the on-disk shape of the shared secret.
type tokenRecord struct {
	Token     string `json:"token"`
	CreatedAt string `json:"created_at"`
}

// Authority owns the single shared secret: it loads or mints the token at
// startup, answers equality checks in constant time, and rotates on demand.
type Authority struct {
	path string
	log  zerolog.Logger

	mu    sync.RWMutex
	token string
}

// NewAuthority builds an authority persisting its record at path.
func NewAuthority(path string, logger zerolog.Logger) *Authority {
	return &Authority{path: strings.TrimSpace(path), log: logger}
}

// Initialize loads the persisted token record, minting and persisting a
// fresh secret when the record is missing, unreadable, or empty. The full
// secret never reaches the logs.
func (a *Authority) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.path == "" {
		return fmt.Errorf("auth: token record path is empty")
	}

	token, err := a.load()
	if err == nil && token != "" {
		a.token = token
		a.log.Info().Str("fingerprint", fingerprint(token)).Str("path", a.path).Msg("token_loaded")
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		a.log.Warn().Err(err).Str("path", a.path).Msg("token_record_unusable")
	}

	token, err = a.mint()
	if err != nil {
		return err
	}
	a.token = token
	a.log.Info().Str("fingerprint", fingerprint(token)).Str("path", a.path).Msg("token_generated")
	return nil
}

// Validate reports whether candidate equals the current secret, comparing
// in constant time. Implements Validator.
func (a *Authority) Validate(candidate string) error {
	a.mu.RLock()
	token := a.token
	a.mu.RUnlock()

	if token == "" || candidate == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(candidate)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Rotate mints a fresh secret, persists it, and swaps it in. The previous
// value fails validation as soon as Rotate returns.
func (a *Authority) Rotate() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	token, err := a.mint()
	if err != nil {
		return "", err
	}
	a.token = token
	a.log.Info().Str("fingerprint", fingerprint(token)).Msg("token_rotated")
	return token, nil
}

// Fingerprint returns the loggable prefix of the current secret.
func (a *Authority) Fingerprint() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return fingerprint(a.token)
}

func (a *Authority) load() (string, error) {
	raw, err := os.ReadFile(a.path)
	if err != nil {
		return "", err
	}
	var rec tokenRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", fmt.Errorf("auth: decode token record: %w", err)
	}
	return strings.TrimSpace(rec.Token), nil
}

// mint generates and persists a new secret; callers hold the write lock.
func (a *Authority) mint() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	rec := tokenRecord{Token: token, CreatedAt: time.Now().UTC().Format(time.RFC3339)}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("auth: encode token record: %w", err)
	}
	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("auth: create token dir: %w", err)
		}
	}
	if err := os.WriteFile(a.path, raw, 0o600); err != nil {
		return "", fmt.Errorf("auth: persist token record: %w", err)
	}
	return token, nil
}

func fingerprint(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "…"
}
