package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"heatpump_monitor/internal/models"
)

type StatusSQLite struct {
	db *sql.DB
}

func NewStatusSQLite(db *sql.DB) *StatusSQLite {
	return &StatusSQLite{db: db}
}

const (
	deviceStatusRowID = 1

	upsertStatusSQL = `
		INSERT INTO device_status (id, device_id, latest, buffer_count, buffer_capacity, buffer_overflow,
			active_alerts, alert_summary, buffer_summary, last_publish_ok, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			device_id=excluded.device_id,
			latest=excluded.latest,
			buffer_count=excluded.buffer_count,
			buffer_capacity=excluded.buffer_capacity,
			buffer_overflow=excluded.buffer_overflow,
			active_alerts=excluded.active_alerts,
			alert_summary=excluded.alert_summary,
			buffer_summary=excluded.buffer_summary,
			last_publish_ok=excluded.last_publish_ok,
			updated_at=excluded.updated_at
	`

	selectStatusSQL = `
		SELECT id, device_id, latest, buffer_count, buffer_capacity, buffer_overflow,
			active_alerts, alert_summary, buffer_summary, last_publish_ok, updated_at
		FROM device_status WHERE id=?
	`
)

func marshalNullable(v any, isNil bool) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// Save upserts the device_status row (id always 1).
func (r *StatusSQLite) Save(ctx context.Context, s models.DeviceStatus) error {
	latest, err := marshalNullable(s.Latest, s.Latest == nil)
	if err != nil {
		return fmt.Errorf("encode latest snapshot: %w", err)
	}
	alerts, err := marshalNullable(s.ActiveAlerts, len(s.ActiveAlerts) == 0)
	if err != nil {
		return fmt.Errorf("encode active alerts: %w", err)
	}

	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = r.db.ExecContext(ctx, upsertStatusSQL,
		deviceStatusRowID,
		s.DeviceID,
		latest,
		s.BufferCount,
		s.BufferCapacity,
		s.BufferOverflow,
		alerts,
		s.AlertSummary,
		s.BufferSummary,
		s.LastPublishOK,
		ts.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save device status: %w", err)
	}
	return nil
}

// Load returns the persisted status, or a zero DeviceStatus (ID 0) if none was written yet.
func (r *StatusSQLite) Load(ctx context.Context) (models.DeviceStatus, error) {
	var (
		s              models.DeviceStatus
		latest, alerts sql.NullString
	)
	err := r.db.QueryRowContext(ctx, selectStatusSQL, deviceStatusRowID).Scan(
		&s.ID,
		&s.DeviceID,
		&latest,
		&s.BufferCount,
		&s.BufferCapacity,
		&s.BufferOverflow,
		&alerts,
		&s.AlertSummary,
		&s.BufferSummary,
		&s.LastPublishOK,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DeviceStatus{}, nil
		}
		return models.DeviceStatus{}, fmt.Errorf("load device status: %w", err)
	}

	if latest.Valid && latest.String != "" {
		var snap models.Snapshot
		if err := json.Unmarshal([]byte(latest.String), &snap); err != nil {
			return models.DeviceStatus{}, fmt.Errorf("decode latest snapshot: %w", err)
		}
		s.Latest = &snap
	}
	if alerts.Valid && alerts.String != "" {
		if err := json.Unmarshal([]byte(alerts.String), &s.ActiveAlerts); err != nil {
			return models.DeviceStatus{}, fmt.Errorf("decode active alerts: %w", err)
		}
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
