package model

import "time"

type AuditEntry struct {
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    string    `json:"actor_id,omitempty"`
	Resource   string    `json:"resource,omitempty"`
	Details    any       `json:"details,omitempty"`
}
