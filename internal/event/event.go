package event

type Type string

const (
	TypeUserRegistered Type = "user.registered"
	TypeSessionIssued  Type = "session.issued"
	TypeSessionRevoked Type = "session.revoked"
	TypeGalleryCreated Type = "gallery.created"
	TypeGalleryUpdated Type = "gallery.updated"
	TypeGalleryDeleted Type = "gallery.deleted"
)

type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	ActorID    string         `json:"actor_id,omitempty"`
	Resource   string         `json:"resource,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}

// Bus fans events out to subscribers. Publish never blocks the caller.
type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
