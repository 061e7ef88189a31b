package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed migrations/001_initial.up.sql
var initialSchemaSQL string

var requiredTables = []string{
	"users",
	"access_tokens",
	"galleries",
	"audit_entries",
}

// EnsureSchema applies the initial schema when any required table is absent.
// The statements are idempotent so a partially created schema is completed.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	present, err := db.countRequiredTables(ctx)
	if err != nil {
		return fmt.Errorf("check existing tables: %w", err)
	}

	if present == len(requiredTables) {
		slog.Debug("database schema up to date")
		return nil
	}

	slog.Info("applying initial schema", "present_tables", present, "required_tables", len(requiredTables))
	if _, err := db.Pool.Exec(ctx, initialSchemaSQL); err != nil {
		return fmt.Errorf("apply initial schema: %w", err)
	}

	present, err = db.countRequiredTables(ctx)
	if err != nil {
		return fmt.Errorf("re-check tables after migration: %w", err)
	}
	if present != len(requiredTables) {
		return fmt.Errorf("schema initialization incomplete: %d of %d tables present", present, len(requiredTables))
	}

	slog.Info("database schema ensured")
	return nil
}

func (db *DB) countRequiredTables(ctx context.Context) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_name = ANY($1)
	`, requiredTables).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
