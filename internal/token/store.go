// Package token holds the bearer token that gates every authenticated call.
package token

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Slot is the durable single-value storage behind a Store.
type Slot interface {
	Load() (string, error)
	Save(string) error
	Clear() error
}

// MemorySlot is a Slot that lives only as long as the process.
type MemorySlot struct {
	mu    sync.Mutex
	value string
}

func (m *MemorySlot) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *MemorySlot) Save(v string) error {
	m.mu.Lock()
	m.value = v
	m.mu.Unlock()
	return nil
}

func (m *MemorySlot) Clear() error {
	return m.Save("")
}

// Store keeps the current token in memory and mirrors it to a Slot.
// A non-empty token means the session is authenticated pending server confirmation.
type Store struct {
	mu    sync.RWMutex
	slot  Slot
	token string
}

// NewStore returns a Store backed by slot. A nil slot keeps the token in memory only.
func NewStore(slot Slot) *Store {
	if slot == nil {
		slot = &MemorySlot{}
	}
	return &Store{slot: slot}
}

// Restore loads the persisted token into memory and returns it.
func (s *Store) Restore() (string, error) {
	tok, err := s.slot.Load()
	if err != nil {
		return "", fmt.Errorf("restoring token: %w", err)
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	return tok, nil
}

// Token returns the in-memory token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Set replaces the token and persists it. A failing durable save is logged,
// never returned: the token still holds for the life of the process.
func (s *Store) Set(tok string) {
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	if err := s.slot.Save(tok); err != nil {
		log.Warn().Err(err).Str("component", "token").Msg("persisting token")
	}
}

// Clear forgets the token. A failing durable clear is logged, never returned:
// the in-memory token is gone either way.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	s.clearSlot()
}

// ClearIf clears the token only if it still equals tok, and reports whether it did.
func (s *Store) ClearIf(tok string) bool {
	s.mu.Lock()
	if tok == "" || s.token != tok {
		s.mu.Unlock()
		return false
	}
	s.token = ""
	s.mu.Unlock()
	s.clearSlot()
	return true
}

func (s *Store) clearSlot() {
	if err := s.slot.Clear(); err != nil {
		log.Warn().Err(err).Str("component", "token").Msg("clearing persisted token")
	}
}
