// Package testutil holds in-memory stores for service and handler tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"

	"lumiere/internal/model"
)

type UserStore struct {
	mu        sync.Mutex
	byID      map[string]model.User
	FailWith  error
	CreateErr error
}

func NewUserStore() *UserStore {
	return &UserStore{byID: make(map[string]model.User)}
}

func (s *UserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return model.User{}, s.FailWith
	}
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return model.User{}, s.FailWith
	}
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *UserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return model.ErrEmailTaken
		}
	}
	s.byID[u.ID] = u
	return nil
}

func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// GalleryStore mimics the Postgres repository, including the owner email
// join when the owner exists in Users.
type GalleryStore struct {
	mu        sync.Mutex
	items     map[string]model.Gallery
	Users     *UserStore
	CreateErr error
}

func NewGalleryStore(users *UserStore) *GalleryStore {
	return &GalleryStore{items: make(map[string]model.Gallery), Users: users}
}

func (s *GalleryStore) List(ctx context.Context) ([]model.Gallery, error) {
	return s.filter(ctx, func(model.Gallery) bool { return true }), nil
}

func (s *GalleryStore) ListByOwner(ctx context.Context, userID string) ([]model.Gallery, error) {
	return s.filter(ctx, func(g model.Gallery) bool { return g.UserID == userID }), nil
}

func (s *GalleryStore) FindByID(ctx context.Context, id string) (model.Gallery, error) {
	s.mu.Lock()
	g, ok := s.items[id]
	s.mu.Unlock()

	if !ok {
		return model.Gallery{}, model.ErrGalleryNotFound
	}
	return s.withEmail(ctx, g), nil
}

func (s *GalleryStore) Create(_ context.Context, g model.Gallery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.items[g.ID] = g
	return nil
}

func (s *GalleryStore) Update(_ context.Context, id string, userID string, title string, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.items[id]
	if !ok || g.UserID != userID {
		return model.ErrGalleryNotFound
	}
	g.Title = title
	g.Category = category
	s.items[id] = g
	return nil
}

func (s *GalleryStore) Delete(_ context.Context, id string, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.items[id]
	if !ok || g.UserID != userID {
		return model.ErrGalleryNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *GalleryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *GalleryStore) filter(ctx context.Context, keep func(model.Gallery) bool) []model.Gallery {
	s.mu.Lock()
	out := make([]model.Gallery, 0, len(s.items))
	for _, g := range s.items {
		if keep(g) {
			out = append(out, g)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	for i := range out {
		out[i] = s.withEmail(ctx, out[i])
	}
	return out
}

func (s *GalleryStore) withEmail(ctx context.Context, g model.Gallery) model.Gallery {
	if s.Users == nil {
		return g
	}
	if u, err := s.Users.FindByID(ctx, g.UserID); err == nil {
		g.OwnerEmail = u.Email
	}
	return g
}

// AuditStore records entries in memory.
type AuditStore struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (s *AuditStore) Log(_ context.Context, entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *AuditStore) RecentByActor(_ context.Context, actorID string, limit int) ([]model.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.AuditEntry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].ActorID == actorID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *AuditStore) Entries() []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditEntry(nil), s.entries...)
}
