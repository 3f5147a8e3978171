package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"heatpump_monitor/internal/models"
)

type BufferSQLite struct {
	db *sql.DB
}

func NewBufferSQLite(db *sql.DB) *BufferSQLite {
	return &BufferSQLite{db: db}
}

const (
	bufferMetaRowID = 1

	deleteBufferedSQL = `DELETE FROM buffered_snapshots`
	insertBufferedSQL = `INSERT INTO buffered_snapshots (seq, payload) VALUES (?, ?)`
	selectBufferedSQL = `SELECT payload FROM buffered_snapshots ORDER BY seq ASC`

	upsertBufferMetaSQL = `
		INSERT INTO buffer_meta (id, overflow) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET overflow=excluded.overflow
	`
	selectBufferMetaSQL = `SELECT overflow FROM buffer_meta WHERE id=?`
)

// SaveAll replaces the stored ring contents in one transaction.
func (r *BufferSQLite) SaveAll(ctx context.Context, entries []models.Snapshot, overflow bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin buffer save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteBufferedSQL); err != nil {
		return fmt.Errorf("clear buffered snapshots: %w", err)
	}
	for i, snap := range entries {
		b, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode buffered snapshot %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, insertBufferedSQL, i, string(b)); err != nil {
			return fmt.Errorf("insert buffered snapshot %d: %w", i, err)
		}
	}
	if _, err := tx.ExecContext(ctx, upsertBufferMetaSQL, bufferMetaRowID, overflow); err != nil {
		return fmt.Errorf("save buffer overflow flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit buffer save: %w", err)
	}
	return nil
}

// LoadAll returns stored snapshots oldest first and the overflow flag.
func (r *BufferSQLite) LoadAll(ctx context.Context) ([]models.Snapshot, bool, error) {
	var overflow bool
	err := r.db.QueryRowContext(ctx, selectBufferMetaSQL, bufferMetaRowID).Scan(&overflow)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("load buffer overflow flag: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectBufferedSQL)
	if err != nil {
		return nil, false, fmt.Errorf("query buffered snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, false, fmt.Errorf("scan buffered snapshot: %w", err)
		}
		var snap models.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, false, fmt.Errorf("decode buffered snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return out, overflow, nil
}
