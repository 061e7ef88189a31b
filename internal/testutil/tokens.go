package testutil

import (
	"context"
	"time"

	"lumiere/internal/repository"
)

// FlakyTokenStore wraps the in-memory store and can inject failures per
// operation.
type FlakyTokenStore struct {
	*repository.MemoryTokenStore
	UpsertErr error
	ExistsErr error
	DeleteErr error
	Deleted   []string
}

func NewFlakyTokenStore() *FlakyTokenStore {
	return &FlakyTokenStore{MemoryTokenStore: repository.NewMemoryTokenStore()}
}

func (s *FlakyTokenStore) Upsert(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	return s.MemoryTokenStore.Upsert(ctx, userID, tokenHash, expiresAt)
}

func (s *FlakyTokenStore) Exists(ctx context.Context, tokenHash string) (bool, error) {
	if s.ExistsErr != nil {
		return false, s.ExistsErr
	}
	return s.MemoryTokenStore.Exists(ctx, tokenHash)
}

func (s *FlakyTokenStore) Delete(ctx context.Context, tokenHash string) error {
	s.Deleted = append(s.Deleted, tokenHash)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	return s.MemoryTokenStore.Delete(ctx, tokenHash)
}
