package otp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	code      string
	expiresAt time.Time
	used      bool
}

// MemoryStore is an in-process Store for tests and deployments without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID]*memoryEntry), now: time.Now}
}

// Issue generates and remembers a fresh code for the record.
func (s *MemoryStore) Issue(_ context.Context, recordID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[recordID] = &memoryEntry{code: code, expiresAt: s.now().Add(ttl)}
	return code, nil
}

// Verify checks and consumes the code for the record.
func (s *MemoryStore) Verify(_ context.Context, recordID uuid.UUID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[recordID]
	if !ok {
		return ErrNotGenerated
	}
	if entry.used {
		return ErrAlreadyVerified
	}
	if s.now().After(entry.expiresAt) {
		return ErrExpired
	}
	if entry.code != code {
		return ErrInvalid
	}
	entry.used = true
	return nil
}

// SetCode pins a known code for a record, used by tests.
func (s *MemoryStore) SetCode(recordID uuid.UUID, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[recordID] = &memoryEntry{code: code, expiresAt: expiresAt}
}
