package testutil

import (
	"fmt"

	"github.com/google/uuid"
)

// UniqueEmail returns an address that will not collide across tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}
