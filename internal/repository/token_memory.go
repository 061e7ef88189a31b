package repository

import (
	"context"
	"sync"
	"time"
)

type memoryToken struct {
	userID    string
	expiresAt time.Time
}

// MemoryTokenStore is a process-local token store with the same upsert
// semantics as the Postgres table.
type MemoryTokenStore struct {
	mu     sync.Mutex
	byHash map[string]memoryToken
	byUser map[string]string
	now    func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		byHash: make(map[string]memoryToken),
		byUser: make(map[string]string),
		now:    time.Now,
	}
}

// WithClock overrides the time source used for expiry filtering.
func (s *MemoryTokenStore) WithClock(now func() time.Time) *MemoryTokenStore {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

func (s *MemoryTokenStore) Upsert(_ context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.byUser[userID]; ok {
		delete(s.byHash, previous)
	}
	s.byUser[userID] = tokenHash
	s.byHash[tokenHash] = memoryToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *MemoryTokenStore) Exists(_ context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.byHash[tokenHash]
	return ok && tok.expiresAt.After(s.now()), nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.byHash[tokenHash]
	if !ok {
		return nil
	}
	delete(s.byHash, tokenHash)
	if s.byUser[tok.userID] == tokenHash {
		delete(s.byUser, tok.userID)
	}
	return nil
}

func (s *MemoryTokenStore) CleanExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for hash, tok := range s.byHash {
		if tok.expiresAt.After(now) {
			continue
		}
		delete(s.byHash, hash)
		if s.byUser[tok.userID] == hash {
			delete(s.byUser, tok.userID)
		}
		removed++
	}
	return removed, nil
}

// Len reports the number of stored hashes.
func (s *MemoryTokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byHash)
}
