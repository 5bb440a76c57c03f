package db

import (
	"context"
	"fmt"
)

// Timestamps are unix milliseconds so both dialects scan them the same way.
// due_date is a calendar date (DATE in PostgreSQL, ISO text in SQLite).

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         SERIAL PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id          SERIAL PRIMARY KEY,
		user_id     INTEGER NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'ENTRADA',
		priority    TEXT NOT NULL DEFAULT 'media',
		due_date    DATE,
		created_at  BIGINT NOT NULL,
		updated_at  BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_due ON tasks(user_id, due_date)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS user_vocabulary (
		user_id INTEGER NOT NULL,
		phrase  TEXT NOT NULL,
		meaning TEXT NOT NULL,
		PRIMARY KEY (user_id, phrase)
	)`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		id               BIGSERIAL PRIMARY KEY,
		event_name       TEXT NOT NULL,
		event_time       BIGINT NOT NULL,
		user_id          INTEGER NOT NULL,
		session_id       TEXT,
		platform         TEXT,
		app_version      TEXT,
		device_locale    TEXT,
		ip_country       TEXT,
		source_event_key TEXT UNIQUE,
		properties       JSONB
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'ENTRADA',
		priority    TEXT NOT NULL DEFAULT 'media',
		due_date    TEXT,
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_due ON tasks(user_id, due_date)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS user_vocabulary (
		user_id INTEGER NOT NULL,
		phrase  TEXT NOT NULL,
		meaning TEXT NOT NULL,
		PRIMARY KEY (user_id, phrase)
	)`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		event_name       TEXT NOT NULL,
		event_time       INTEGER NOT NULL,
		user_id          INTEGER NOT NULL,
		session_id       TEXT,
		platform         TEXT,
		app_version      TEXT,
		device_locale    TEXT,
		ip_country       TEXT,
		source_event_key TEXT UNIQUE,
		properties       TEXT
	)`,
}

// Migrate creates any missing tables. Every statement is idempotent.
func Migrate(ctx context.Context, d *DB) error {
	schema := postgresSchema
	if d.Dialect == SQLite {
		schema = sqliteSchema
	}
	for i, stmt := range schema {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}
