package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/oauth2"
)

var (
	// ErrNoToken is returned when no credential has been persisted yet.
	ErrNoToken = errors.New("no stored Google OAuth token")
	// ErrLockTimeout is returned when the token file lock cannot be acquired.
	ErrLockTimeout = errors.New("timeout acquiring token file lock")
)

const (
	lockPollInterval   = 10 * time.Millisecond
	defaultLockTimeout = 5 * time.Second
)

// TokenStore persists a single oauth2.Token as JSON. Writes are atomic and
// serialized across processes by an OS file lock next to the token file.
type TokenStore struct {
	path        string
	lockTimeout time.Duration
}

// NewTokenStore creates a store for the token file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path, lockTimeout: defaultLockTimeout}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Exists reports whether a token file is present.
func (s *TokenStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the stored token. It returns ErrNoToken if there is none.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds no token", s.path)
	}
	return &tok, nil
}

// Save writes tok with 0600 permissions, replacing any previous token.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	if tok == nil {
		return fmt.Errorf("token is required")
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	return s.withLock(func() error {
		tmp, err := os.CreateTemp(dir, ".token-*")
		if err != nil {
			return fmt.Errorf("failed to create temp token file: %w", err)
		}
		tmpName := tmp.Name()
		defer func() { _ = os.Remove(tmpName) }()

		if err := tmp.Chmod(0600); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to set token file permissions: %w", err)
		}
		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to write token file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("failed to write token file: %w", err)
		}
		if err := os.Rename(tmpName, s.path); err != nil {
			return fmt.Errorf("failed to replace token file: %w", err)
		}
		return nil
	})
}

// Delete removes the stored token. It returns ErrNoToken if there is none.
func (s *TokenStore) Delete() error {
	if !s.Exists() {
		return ErrNoToken
	}
	return s.withLock(func() error {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete token file: %w", err)
		}
		return nil
	})
}

func (s *TokenStore) withLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrLockTimeout
		}
		return fmt.Errorf("failed to lock token file %s: %w", s.path, err)
	}
	if !locked {
		return ErrLockTimeout
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}
