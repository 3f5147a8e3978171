package repository_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"heatpump_monitor/internal/models"
	"heatpump_monitor/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

type argFunc func(driver.Value) bool

func (f argFunc) Match(v driver.Value) bool { return f(v) }

var statusColumns = []string{
	"id", "device_id", "latest", "buffer_count", "buffer_capacity", "buffer_overflow",
	"active_alerts", "alert_summary", "buffer_summary", "last_publish_ok", "updated_at",
}

func TestStatusSQLite_Save_EncodesJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewStatusSQLite(db)

	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600))
	status := models.DeviceStatus{
		DeviceID:       "site1",
		Latest:         &models.Snapshot{Power: 1955, ReadingTime: 1000},
		BufferCount:    3,
		BufferCapacity: 100,
		ActiveAlerts:   []string{"HIGH VOLTAGE"},
		AlertSummary:   "Active alerts: HIGH VOLTAGE",
		BufferSummary:  "Buffer: 3/100",
		LastPublishOK:  false,
		UpdatedAt:      at,
	}

	isLatestJSON := argFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		return ok && regexp.MustCompile(`"reading_time":1000`).MatchString(s)
	})
	isUTC := argFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		return ok && tm.Equal(at) && tm.Location() == time.UTC
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_status")).
		WithArgs(1, "site1", isLatestJSON, 3, 100, false, `["HIGH VOLTAGE"]`,
			"Active alerts: HIGH VOLTAGE", "Buffer: 3/100", false, isUTC).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), status); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStatusSQLite_Save_NilLatestWritesNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewStatusSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_status")).
		WithArgs(1, "site1", nil, 0, 100, false, nil, "No active alerts", "Buffer: 0/100", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Save(context.Background(), models.DeviceStatus{
		DeviceID:       "site1",
		BufferCapacity: 100,
		AlertSummary:   "No active alerts",
		BufferSummary:  "Buffer: 0/100",
		LastPublishOK:  true,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStatusSQLite_Load(t *testing.T) {
	updated := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		wantErr bool
		check   func(t *testing.T, s models.DeviceStatus)
	}{
		{
			name: "no row yet",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id, device_id").WithArgs(1).
					WillReturnRows(sqlmock.NewRows(statusColumns))
			},
			check: func(t *testing.T, s models.DeviceStatus) {
				if s.ID != 0 || s.Latest != nil {
					t.Fatalf("expected zero status, got %+v", s)
				}
			},
		},
		{
			name: "decodes snapshot and alerts",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id, device_id").WithArgs(1).
					WillReturnRows(sqlmock.NewRows(statusColumns).AddRow(
						1, "site1", `{"voltage":{"value":231.5,"valid":true,"timestamp":5,"alert_level":"OK"},"reading_time":5}`,
						2, 100, true, `["OVERCURRENT"]`, "Active alerts: OVERCURRENT", "Buffer: 2/100 (OVERFLOW)", false, updated,
					))
			},
			check: func(t *testing.T, s models.DeviceStatus) {
				if s.Latest == nil || s.Latest.Voltage.Value != 231.5 || s.Latest.ReadingTime != 5 {
					t.Fatalf("latest not decoded: %+v", s.Latest)
				}
				if len(s.ActiveAlerts) != 1 || s.ActiveAlerts[0] != "OVERCURRENT" {
					t.Fatalf("alerts not decoded: %v", s.ActiveAlerts)
				}
				if !s.BufferOverflow || s.BufferCount != 2 {
					t.Fatalf("buffer fields wrong: %+v", s)
				}
				if !s.UpdatedAt.Equal(updated) {
					t.Fatalf("updated_at = %v", s.UpdatedAt)
				}
			},
		},
		{
			name: "query error",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id, device_id").WithArgs(1).WillReturnError(errors.New("locked"))
			},
			wantErr: true,
		},
		{
			name: "corrupt snapshot",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id, device_id").WithArgs(1).
					WillReturnRows(sqlmock.NewRows(statusColumns).AddRow(
						1, "site1", `{broken`, 0, 100, false, nil, "", "", true, updated,
					))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock.New(): %v", err)
			}
			defer db.Close()

			tt.setup(mock)
			got, err := repository.NewStatusSQLite(db).Load(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.check(t, got)
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}
