package service

import (
	"context"
	"log/slog"
	"time"

	"lumiere/internal/event"
	"lumiere/internal/model"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	RecentByActor(ctx context.Context, actorID string, limit int) ([]model.AuditEntry, error)
}

// AuditService persists bus events as audit entries.
type AuditService struct {
	store AuditStore
	bus   event.Bus
}

func NewAuditService(store AuditStore, bus event.Bus) *AuditService {
	return &AuditService{store: store, bus: bus}
}

// Run consumes events until ctx is done.
func (s *AuditService) Run(ctx context.Context) {
	events, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.record(ctx, e)
		}
	}
}

// Recent lists the caller's own audit trail. limit is clamped to 1..200.
func (s *AuditService) Recent(ctx context.Context, actorID string, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	return s.store.RecentByActor(ctx, actorID, limit)
}

func (s *AuditService) record(ctx context.Context, e event.Event) {
	occurred, err := time.Parse(time.RFC3339, e.OccurredAt)
	if err != nil {
		occurred = time.Now().UTC()
	}

	entry := model.AuditEntry{
		Action:     string(e.Type),
		OccurredAt: occurred,
		ActorID:    e.ActorID,
		Resource:   e.Resource,
	}
	if len(e.Payload) > 0 {
		entry.Details = e.Payload
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.store.Log(writeCtx, entry); err != nil {
		slog.Error("audit write failed", "action", entry.Action, "actor_id", entry.ActorID, "error", err)
	}
}
