// Package confirm manages one-shot send confirmation tokens.
//
// A token is issued before a send, bound to the conversation and the exact
// draft content it confirms, and can be claimed once. Claiming removes it,
// so a replayed token or a token issued for since-edited content never
// authorizes a send.
package confirm

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTokenInvalid is returned for unknown, expired, or already-claimed tokens.
var ErrTokenInvalid = errors.New("confirm token invalid or expired")

// Binding ties a token to what it confirms.
type Binding struct {
	ConversationID string `json:"conversation_id"`
	ContentHash    string `json:"content_hash"`
}

// Store persists confirmation tokens with a TTL.
type Store interface {
	// Put stores a token binding for ttl.
	Put(ctx context.Context, token string, b Binding, ttl time.Duration) error

	// Claim returns and removes the binding for token. One-shot: a second
	// claim of the same token fails with ErrTokenInvalid.
	Claim(ctx context.Context, token string) (Binding, error)
}

type memoryEntry struct {
	binding   Binding
	expiresAt time.Time
}

// MemoryStore is an in-process token store with lazy expiry. It is the
// default when no Redis address is configured.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty in-process token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, token string, b Binding, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[token] = memoryEntry{binding: b, expiresAt: s.now().Add(ttl)}
	return nil
}

// Claim implements Store.
func (s *MemoryStore) Claim(ctx context.Context, token string) (Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return Binding{}, ErrTokenInvalid
	}
	delete(s.entries, token)
	if s.now().After(entry.expiresAt) {
		return Binding{}, ErrTokenInvalid
	}
	return entry.binding, nil
}
