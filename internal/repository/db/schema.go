package db

import (
	"database/sql"
	"fmt"
)

const schemaDeviceStatus = `
CREATE TABLE IF NOT EXISTS device_status (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    device_id TEXT NOT NULL,
    latest TEXT,
    buffer_count INTEGER NOT NULL,
    buffer_capacity INTEGER NOT NULL,
    buffer_overflow BOOLEAN NOT NULL,
    active_alerts TEXT,
    alert_summary TEXT NOT NULL,
    buffer_summary TEXT NOT NULL,
    last_publish_ok BOOLEAN NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaDeviceEvents = `
CREATE TABLE IF NOT EXISTS device_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
CREATE INDEX IF NOT EXISTS idx_device_events_occurred_at ON device_events (occurred_at);
`

const schemaBufferedSnapshots = `
CREATE TABLE IF NOT EXISTS buffered_snapshots (
    seq INTEGER PRIMARY KEY,
    payload TEXT NOT NULL
);
`

const schemaBufferMeta = `
CREATE TABLE IF NOT EXISTS buffer_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    overflow BOOLEAN NOT NULL
);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

var schema = []string{
	schemaDeviceStatus,
	schemaDeviceEvents,
	schemaBufferedSnapshots,
	schemaBufferMeta,
	schemaUsers,
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
