package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one ordered schema change applied exactly once per database.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations holds the embedded schema history. Entries are append-only;
// released versions are never edited.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create_users",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				id           TEXT PRIMARY KEY,
				display_name TEXT NOT NULL,
				theme        TEXT NOT NULL DEFAULT '',
				created_at   TEXT NOT NULL,
				updated_at   TEXT NOT NULL
			);
		`,
	},
	{
		Version: 2,
		Name:    "create_rooms",
		SQL: `
			CREATE TABLE IF NOT EXISTS rooms (
				id           TEXT PRIMARY KEY,
				display_name TEXT NOT NULL,
				url          TEXT NOT NULL DEFAULT '',
				broadcast    TEXT NOT NULL DEFAULT '',
				created_at   TEXT NOT NULL,
				updated_at   TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS room_members (
				room_id TEXT NOT NULL REFERENCES rooms(id),
				user_id TEXT NOT NULL REFERENCES users(id),
				PRIMARY KEY (room_id, user_id)
			);
		`,
	},
	{
		Version: 3,
		Name:    "create_entries",
		SQL: `
			CREATE TABLE IF NOT EXISTS entries (
				year       INTEGER NOT NULL,
				month      INTEGER NOT NULL,
				day        INTEGER NOT NULL,
				room_id    TEXT NOT NULL,
				user_id    TEXT NOT NULL,
				amount     INTEGER,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (year, month, day, room_id, user_id),
				CHECK (amount IS NULL OR amount >= 0)
			);

			CREATE INDEX IF NOT EXISTS idx_entries_room_date
				ON entries (room_id, year, month, day);
		`,
	},
	{
		Version: 4,
		Name:    "create_entry_commits",
		SQL: `
			CREATE TABLE IF NOT EXISTS entry_commits (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				committed_at TEXT NOT NULL,
				year         INTEGER NOT NULL,
				month        INTEGER NOT NULL,
				day          INTEGER NOT NULL,
				room_id      TEXT NOT NULL,
				user_id      TEXT NOT NULL,
				amount       INTEGER
			);
		`,
	},
}

// Migrate applies all pending migrations in version order. Each applied
// version is recorded in schema_migrations so reruns are no-ops.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		if err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.SQL); err != nil {
				return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
			}
			if _, err := tx.Exec(
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
				m.Version, m.Name,
			); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
			}
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}

func appliedVersions(ctx context.Context, pool *ConnectionPool) (map[int]struct{}, error) {
	rows, err := pool.DB().QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]struct{})
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan schema_migrations: %w", err)
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}
