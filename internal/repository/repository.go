package repository

import (
	"context"
	"database/sql"
	"time"

	"heatpump_monitor/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// StatusRepo holds the single latest DeviceStatus row written by the control loop.
type StatusRepo interface {
	Save(ctx context.Context, s models.DeviceStatus) error
	Load(ctx context.Context) (models.DeviceStatus, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error)
}

// BufferRepo persists the store-and-forward ring across restarts.
// Entries are stored oldest first.
type BufferRepo interface {
	SaveAll(ctx context.Context, entries []models.Snapshot, overflow bool) error
	LoadAll(ctx context.Context) ([]models.Snapshot, bool, error)
}

type Repository struct {
	StatusRepo StatusRepo
	EventRepo  EventRepo
	BufferRepo BufferRepo
	Auth       Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StatusRepo: NewStatusSQLite(db),
		EventRepo:  NewEventSQLite(db),
		BufferRepo: NewBufferSQLite(db),
		Auth:       NewUserRepository(db),
	}
}
