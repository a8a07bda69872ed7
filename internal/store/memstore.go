// Package store provides persistence for reflectin conversation entries.
// This file contains the interface and in-memory implementation for testing.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Storer defines the conversation store contract.
// This allows swapping between MemStore (testing) and SQLiteStore (production).
//
// The store is append-only for conversational content: entries are never
// deleted, and the only mutation after insert is the conditional
// notification-state update.
type Storer interface {
	// Insert stores a new entry, assigns its ID and returns it.
	// CreatedAt is stamped with the current time when zero.
	Insert(entry *Entry) (string, error)

	// FindByUser returns all entries for a user. Iteration order is
	// unspecified; callers must treat it as arbitrary.
	FindByUser(userID string) ([]*Entry, error)

	// FindMostRecentWithReply returns the newest entry carrying a reply
	// whose CreatedAt is at or after since, or nil when there is none.
	FindMostRecentWithReply(since time.Time) (*Entry, error)

	// UpdateNotificationState advances NotificationsSent from
	// expectedPrior to newCount, setting FirstNotificationAt when firstAt
	// is non-nil. The update only applies if the stored counter still
	// equals expectedPrior; the bool reports whether it did.
	UpdateNotificationState(id string, expectedPrior, newCount int, firstAt *time.Time) (bool, error)

	// Lifecycle
	Close() error
}

// MemStore is an in-memory implementation of Storer for testing.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		entries: make(map[string]*Entry),
	}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

// Insert stores a deep copy of the entry under a fresh ID.
func (s *MemStore) Insert(entry *Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newEntryID()
	entry.ID = id
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.entries[id] = entry.Clone()
	return id, nil
}

// FindByUser returns copies of all entries for the user.
// Map iteration makes the order arbitrary, which matches the contract.
func (s *MemStore) FindByUser(userID string) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Entry
	for _, e := range s.entries {
		if e.UserID == userID {
			result = append(result, e.Clone())
		}
	}
	return result, nil
}

// FindMostRecentWithReply returns the newest replied-to entry since the cutoff.
func (s *MemStore) FindMostRecentWithReply(since time.Time) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *Entry
	for _, e := range s.entries {
		if e.ReplyText == "" || e.CreatedAt.Before(since) {
			continue
		}
		if best == nil || e.CreatedAt.After(best.CreatedAt) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.Clone(), nil
}

// UpdateNotificationState performs the conditional counter advance.
func (s *MemStore) UpdateNotificationState(id string, expectedPrior, newCount int, firstAt *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	if e.NotificationsSent != expectedPrior {
		return false, nil
	}

	e.NotificationsSent = newCount
	if firstAt != nil {
		t := firstAt.UTC()
		e.FirstNotificationAt = &t
	}
	return true, nil
}

// newEntryID generates a random opaque entry identifier.
func newEntryID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}

// Compile-time interface check
var _ Storer = (*MemStore)(nil)
