package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danmuck/rigctl/internal/testutil/testlog"
)

func newTestAuthority(t *testing.T) (*Authority, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.json")
	return NewAuthority(path, zerolog.Nop()), path
}

func readRecordToken(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read token record: %v", err)
	}
	var rec tokenRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("decode token record: %v", err)
	}
	return rec.Token
}

func TestInitializeGeneratesAndPersists(t *testing.T) {
	testlog.Start(t)
	a, path := newTestAuthority(t)

	if err := a.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("token record not persisted: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("token record permissions: got %o want 600", perm)
	}
	token := readRecordToken(t, path)
	if len(token) != tokenBytes*2 {
		t.Fatalf("token length: got %d want %d", len(token), tokenBytes*2)
	}
	if err := a.Validate(token); err != nil {
		t.Fatalf("persisted token must validate: %v", err)
	}
}

func TestInitializeLoadsExistingRecord(t *testing.T) {
	testlog.Start(t)
	a, path := newTestAuthority(t)
	const known = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	raw, _ := json.Marshal(tokenRecord{Token: known, CreatedAt: "2026-01-01T00:00:00Z"})
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	if err := a.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := a.Validate(known); err != nil {
		t.Fatalf("known token must validate after load: %v", err)
	}
}

func TestInitializeRecoversFromCorruptRecord(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		content string
	}{
		{name: "garbage json", content: "{not-json"},
		{name: "empty token", content: `{"token":"","created_at":"2026-01-01T00:00:00Z"}`},
		{name: "whitespace token", content: `{"token":"   "}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, path := newTestAuthority(t)
			if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
				t.Fatalf("seed record: %v", err)
			}
			if err := a.Initialize(); err != nil {
				t.Fatalf("initialize must recover: %v", err)
			}
			token := readRecordToken(t, path)
			if len(token) != tokenBytes*2 {
				t.Fatalf("recovered record carries no fresh token: %q", token)
			}
			if err := a.Validate(token); err != nil {
				t.Fatalf("fresh token must validate: %v", err)
			}
		})
	}
}

func TestValidateRequiresExactMatch(t *testing.T) {
	testlog.Start(t)
	a, path := newTestAuthority(t)
	if err := a.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	secret := readRecordToken(t, path)
	flipped := secret[:len(secret)-1] + flipHexDigit(secret[len(secret)-1])

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{name: "exact secret", candidate: secret, want: true},
		{name: "empty candidate", candidate: "", want: false},
		{name: "last character differs", candidate: flipped, want: false},
		{name: "truncated by one", candidate: secret[:len(secret)-1], want: false},
		{name: "trailing byte appended", candidate: secret + "0", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := a.Validate(tc.candidate)
			if tc.want && err != nil {
				t.Fatalf("candidate must validate: %v", err)
			}
			if !tc.want && !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("candidate must be denied, got %v", err)
			}
		})
	}
}

// flipHexDigit returns a hex digit different from b, keeping the candidate
// the same length as the secret.
func flipHexDigit(b byte) string {
	if b == '0' {
		return "1"
	}
	return "0"
}

func TestValidateBeforeInitializeDenied(t *testing.T) {
	testlog.Start(t)
	a, _ := newTestAuthority(t)
	if err := a.Validate("anything"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("uninitialized authority must deny, got %v", err)
	}
}

func TestRotateInvalidatesPreviousToken(t *testing.T) {
	testlog.Start(t)
	a, path := newTestAuthority(t)
	if err := a.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	old := readRecordToken(t, path)

	fresh, err := a.Rotate()
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if fresh == old {
		t.Fatalf("rotate returned the previous secret")
	}
	if err := a.Validate(old); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old token must fail after rotate, got %v", err)
	}
	if err := a.Validate(fresh); err != nil {
		t.Fatalf("fresh token must validate: %v", err)
	}
	if persisted := readRecordToken(t, path); persisted != fresh {
		t.Fatalf("rotate must persist the new secret")
	}
}

func TestFingerprintRedacts(t *testing.T) {
	testlog.Start(t)
	a, _ := newTestAuthority(t)
	if err := a.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	fp := a.Fingerprint()
	if len(fp) >= tokenBytes*2 {
		t.Fatalf("fingerprint leaks the secret: %q", fp)
	}
	if fp == "" {
		t.Fatalf("fingerprint empty after initialize")
	}
}
