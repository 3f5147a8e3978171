package service

import (
	"context"
	"time"

	"heatpump_monitor/internal/models"
	"heatpump_monitor/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Monitoring exposes the status last written by the control loop.
type Monitoring interface {
	GetStatus(ctx context.Context) (models.DeviceStatus, error)
}

type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Runner is the background control loop; stop it by cancelling ctx.
type Runner interface {
	Run(ctx context.Context, interval time.Duration)
}

// Service aggregates everything the HTTP layer and main need.
type Service struct {
	Controller
	Monitoring
	EventLog
	Runner
	Authorization
}

// AuthConfig carries the token settings for NewService.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

func NewService(repos *repository.Repository, pipeline *Pipeline, deviceID string, bufferCapacity int, auth AuthConfig) *Service {
	return &Service{
		Controller:    pipeline,
		Monitoring:    NewMonitoringService(repos.StatusRepo, deviceID, bufferCapacity),
		EventLog:      NewEventLogService(repos.EventRepo),
		Runner:        pipeline,
		Authorization: NewAuthService(repos.Auth, auth.SigningKey, auth.TokenTTL),
	}
}
