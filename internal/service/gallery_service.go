package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"lumiere/internal/event"
	"lumiere/internal/model"
	"lumiere/internal/util"
	"lumiere/pkg/apierror"
)

const DefaultPresignTTL = time.Hour

type GalleryStore interface {
	List(ctx context.Context) ([]model.Gallery, error)
	ListByOwner(ctx context.Context, userID string) ([]model.Gallery, error)
	FindByID(ctx context.Context, id string) (model.Gallery, error)
	Create(ctx context.Context, g model.Gallery) error
	Update(ctx context.Context, id string, userID string, title string, category string) error
	Delete(ctx context.Context, id string, userID string) error
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type GalleryService struct {
	galleries  GalleryStore
	objects    ObjectStore
	bus        event.Bus
	presignTTL time.Duration
	now        func() time.Time
}

func NewGalleryService(galleries GalleryStore, objects ObjectStore, bus event.Bus, presignTTL time.Duration) *GalleryService {
	if presignTTL <= 0 {
		presignTTL = DefaultPresignTTL
	}
	return &GalleryService{
		galleries:  galleries,
		objects:    objects,
		bus:        bus,
		presignTTL: presignTTL,
		now:        time.Now,
	}
}

func (s *GalleryService) List(ctx context.Context) (model.GalleryList, error) {
	items, err := s.galleries.List(ctx)
	if err != nil {
		return model.GalleryList{}, err
	}
	return s.withURLs(ctx, items), nil
}

func (s *GalleryService) ListMine(ctx context.Context, userID string) (model.GalleryList, error) {
	items, err := s.galleries.ListByOwner(ctx, userID)
	if err != nil {
		return model.GalleryList{}, err
	}
	return s.withURLs(ctx, items), nil
}

func (s *GalleryService) Get(ctx context.Context, id string) (model.GalleryItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.GalleryItem{}, model.ErrGalleryNotFound
	}

	g, err := s.galleries.FindByID(ctx, id)
	if err != nil {
		return model.GalleryItem{}, err
	}
	return model.GalleryItem{Gallery: g, PresignedURL: s.presign(ctx, g.ObjectKey)}, nil
}

// Create validates the upload as an image, stores the object, then inserts
// the row. The object is removed again when the insert fails.
func (s *GalleryService) Create(ctx context.Context, in model.CreateGalleryInput) (model.GalleryItem, error) {
	if !declaredAsImage(in.Filename, in.ContentType) {
		return model.GalleryItem{}, apierror.Validation(map[string]string{"file": "File must be a valid image"})
	}

	info, err := util.InspectImage(in.Content)
	if err != nil {
		return model.GalleryItem{}, apierror.Validation(map[string]string{"file": "File must be a valid image"})
	}

	now := s.now().UTC()
	g := model.Gallery{
		ID:        uuid.NewString(),
		UserID:    in.OwnerID,
		ObjectKey: ObjectKey(in.OwnerID, info.Extension, now),
		Category:  strings.TrimSpace(in.Category),
		Title:     strings.TrimSpace(in.Title),
		CreatedAt: now,
	}

	if err := s.objects.Put(ctx, g.ObjectKey, in.Content, info.ContentType); err != nil {
		return model.GalleryItem{}, fmt.Errorf("upload gallery image: %w", err)
	}

	if err := s.galleries.Create(ctx, g); err != nil {
		if delErr := s.objects.Delete(ctx, g.ObjectKey); delErr != nil {
			slog.Warn("orphaned gallery object", "key", g.ObjectKey, "error", delErr)
		}
		return model.GalleryItem{}, err
	}

	s.publish(event.TypeGalleryCreated, in.OwnerID, g.ID, map[string]any{"s3_key": g.ObjectKey, "title": g.Title})

	return model.GalleryItem{Gallery: g, PresignedURL: s.presign(ctx, g.ObjectKey)}, nil
}

// Update changes title and category. Items not owned by userID are reported
// as not found.
func (s *GalleryService) Update(ctx context.Context, userID string, id string, req model.UpdateGalleryRequest) (model.GalleryItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.GalleryItem{}, model.ErrGalleryNotFound
	}

	title := strings.TrimSpace(req.Title)
	category := strings.TrimSpace(req.Category)
	if err := s.galleries.Update(ctx, id, userID, title, category); err != nil {
		return model.GalleryItem{}, err
	}

	s.publish(event.TypeGalleryUpdated, userID, id, map[string]any{"title": title, "category": category})

	return s.Get(ctx, id)
}

// Delete removes the stored object first, then the row.
func (s *GalleryService) Delete(ctx context.Context, userID string, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.ErrGalleryNotFound
	}

	g, err := s.galleries.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if g.UserID != userID {
		return model.ErrGalleryNotFound
	}

	if g.ObjectKey != "" {
		if err := s.objects.Delete(ctx, g.ObjectKey); err != nil {
			return fmt.Errorf("delete gallery image: %w", err)
		}
	}

	if err := s.galleries.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.publish(event.TypeGalleryDeleted, userID, id, map[string]any{"s3_key": g.ObjectKey})
	return nil
}

func (s *GalleryService) withURLs(ctx context.Context, items []model.Gallery) model.GalleryList {
	out := make([]model.GalleryItem, 0, len(items))
	for _, g := range items {
		out = append(out, model.GalleryItem{Gallery: g, PresignedURL: s.presign(ctx, g.ObjectKey)})
	}
	return model.GalleryList{Galleries: out, Count: len(out)}
}

// presign returns nil when the key is empty or signing fails.
func (s *GalleryService) presign(ctx context.Context, key string) *string {
	if key == "" {
		return nil
	}
	url, err := s.objects.PresignedGet(ctx, key, s.presignTTL)
	if err != nil {
		slog.Warn("presign gallery object", "key", key, "error", err)
		return nil
	}
	return &url
}

func (s *GalleryService) publish(typ event.Type, actorID string, galleryID string, payload map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{Type: typ, ActorID: actorID, Resource: "gallery:" + galleryID, Payload: payload})
}

// declaredAsImage checks what the client claims about an upload. A generic
// octet-stream type is allowed since many clients send nothing better.
func declaredAsImage(filename, contentType string) bool {
	if !util.IsImageExtension(util.FileExtension(filename)) {
		return false
	}

	declared := strings.ToLower(strings.TrimSpace(contentType))
	if declared == "" || strings.HasPrefix(declared, "application/octet-stream") {
		return true
	}
	return util.IsImageMIME(declared)
}

// ObjectKey places uploads under galleries/{user}/ with a time-ordered name.
func ObjectKey(userID string, extension string, at time.Time) string {
	return fmt.Sprintf("galleries/%s/%s.%s", userID, ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()), extension)
}
