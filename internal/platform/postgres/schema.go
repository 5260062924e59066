package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent; it is applied at boot instead of a migration tool.
// movements has no foreign key to residents: the ledger outlives directory
// deletions.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS residents (
		id               BIGSERIAL PRIMARY KEY,
		register_no      TEXT NOT NULL UNIQUE,
		name             TEXT NOT NULL,
		room_no          TEXT NOT NULL DEFAULT '',
		course           TEXT NOT NULL DEFAULT '',
		current_status   TEXT NOT NULL DEFAULT 'IN_FACILITY'
		                 CHECK (current_status IN ('IN_FACILITY', 'OUTSIDE')),
		last_movement_id BIGINT,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE SEQUENCE IF NOT EXISTS movement_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS movements (
		id          BIGINT PRIMARY KEY,
		resident_id BIGINT NOT NULL,
		kind        TEXT NOT NULL CHECK (kind IN ('ENTER', 'EXIT')),
		occurred_at TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL,
		remarks     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS movements_resident_idx ON movements (resident_id, id)`,
	`CREATE INDEX IF NOT EXISTS movements_occurred_at_idx ON movements (occurred_at)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id          UUID PRIMARY KEY,
		category    TEXT NOT NULL,
		action      TEXT NOT NULL,
		resident_id BIGINT,
		movement_id BIGINT,
		kind        TEXT NOT NULL DEFAULT '',
		decision    TEXT NOT NULL DEFAULT '',
		reason      TEXT NOT NULL DEFAULT '',
		actor_id    TEXT NOT NULL DEFAULT '',
		request_id  TEXT NOT NULL DEFAULT '',
		device      TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_events_resident_idx ON audit_events (resident_id, occurred_at)`,
	`CREATE TABLE IF NOT EXISTS token_revocations (
		jti        TEXT PRIMARY KEY,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the tables the stores need.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
