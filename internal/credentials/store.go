// Package credentials holds the user-supplied Gemini API key.
//
// A stored key overrides the environment-provided default until it is
// cleared. Key format is never validated locally; the provider decides.
package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Persister saves the single credential string somewhere durable.
// Load returns "" when nothing is stored.
type Persister interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, key string) error
	Delete(ctx context.Context) error
}

// Store is the process-wide credential with an environment fallback.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	stored    string
	fallback  func() string
}

// NewStore loads any persisted key. fallback is consulted on every APIKey
// call when no key is stored; it may be nil.
func NewStore(ctx context.Context, persister Persister, fallback func() string) (*Store, error) {
	if fallback == nil {
		fallback = func() string { return "" }
	}
	s := &Store{persister: persister, fallback: fallback}
	if persister == nil {
		return s, nil
	}

	key, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored credential: %w", err)
	}
	s.stored = strings.TrimSpace(key)
	return s, nil
}

// Set persists key and makes it the active credential. An empty key clears.
func (s *Store) Set(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.Clear(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persister != nil {
		if err := s.persister.Save(ctx, key); err != nil {
			return fmt.Errorf("save credential: %w", err)
		}
	}
	s.stored = key
	slog.Info("Stored user API key")
	return nil
}

// APIKey returns the active credential: the stored key, else the fallback.
func (s *Store) APIKey() string {
	s.mu.RLock()
	stored := s.stored
	s.mu.RUnlock()
	if stored != "" {
		return stored
	}
	return s.fallback()
}

// Clear removes the stored key and reverts to the fallback.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persister != nil {
		if err := s.persister.Delete(ctx); err != nil {
			return fmt.Errorf("delete credential: %w", err)
		}
	}
	s.stored = ""
	slog.Info("Cleared user API key")
	return nil
}

// HasStored reports whether a user key is currently persisted.
func (s *Store) HasStored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stored != ""
}
