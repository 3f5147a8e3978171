package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"heatpump_monitor/internal/models"

	"github.com/google/uuid"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const (
	insertEventSQL = `INSERT INTO device_events (id, occurred_at, type, message, meta) VALUES (?, ?, ?, ?, ?)`
	selectEventSQL = `SELECT id, occurred_at, type, message, meta FROM device_events`

	sqliteTimestampLayout = "2006-01-02 15:04:05"
)

// Append inserts an event, filling in a missing ID or timestamp.
func (r *EventSQLite) Append(ctx context.Context, e models.DeviceEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var meta sql.NullString
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode event metadata: %w", err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt.UTC().Format(sqliteTimestampLayout),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		meta,
	)
	if err != nil {
		return fmt.Errorf("append %s event: %w", e.Type, err)
	}
	return nil
}

// List returns events in [from, to] (zero bounds are open), optionally of one type, oldest first.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimestampLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimestampLayout))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := selectEventSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]models.DeviceEvent, 0, 32)
	for rows.Next() {
		var (
			ev   models.DeviceEvent
			meta sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Description, &meta); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		if meta.Valid && meta.String != "" {
			var v any
			if err := json.Unmarshal([]byte(meta.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = meta.String
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
