package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"heatpump_monitor/internal/models"
	"heatpump_monitor/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errUnknownEventType = errors.New("unknown event type")
)

var knownEventTypes = map[string]struct{}{
	models.EventAlertSent:      {},
	models.EventAlertFailed:    {},
	models.EventAlertCleared:   {},
	models.EventBufferOverflow: {},
	models.EventBufferCleared:  {},
	models.EventPublishFailed:  {},
	models.EventBufferDrained:  {},
}

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	typ := normalizeEventType(f.Type)
	if typ != "" {
		if _, ok := knownEventTypes[typ]; !ok {
			return time.Time{}, time.Time{}, "", fmt.Errorf("%w: %q", errUnknownEventType, f.Type)
		}
	}
	return from, to, typ, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}

// IsFilterError reports whether err came from an invalid LogFilter.
func IsFilterError(err error) bool {
	return errors.Is(err, errInvalidTimeRange) || errors.Is(err, errUnknownEventType)
}
