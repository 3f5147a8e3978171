package service

import (
	"context"
	"fmt"
	"time"

	"heatpump_monitor/internal/models"
	"heatpump_monitor/internal/repository"
)

type MonitoringService struct {
	statusRepo     repository.StatusRepo
	deviceID       string
	bufferCapacity int
}

func NewMonitoringService(statusRepo repository.StatusRepo, deviceID string, bufferCapacity int) *MonitoringService {
	return &MonitoringService{statusRepo: statusRepo, deviceID: deviceID, bufferCapacity: bufferCapacity}
}

// GetStatus returns the status last written by the control loop, or an idle
// baseline if the loop has not completed a step yet.
func (s *MonitoringService) GetStatus(ctx context.Context) (models.DeviceStatus, error) {
	st, err := s.statusRepo.Load(ctx)
	if err != nil {
		return models.DeviceStatus{}, err
	}
	if st.ID == 0 {
		return s.baselineStatus(), nil
	}
	st.UpdatedAt = toUTC(st.UpdatedAt)
	return st, nil
}

func (s *MonitoringService) baselineStatus() models.DeviceStatus {
	return models.DeviceStatus{
		ID:             1,
		DeviceID:       s.deviceID,
		BufferCapacity: s.bufferCapacity,
		AlertSummary:   "No active alerts",
		BufferSummary:  fmt.Sprintf("Buffer: 0/%d", s.bufferCapacity),
		LastPublishOK:  true,
		UpdatedAt:      time.Now().UTC(),
	}
}

func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
