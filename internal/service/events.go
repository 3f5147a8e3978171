package service

import (
	"fmt"
	"time"

	"heatpump_monitor/internal/models"

	"github.com/google/uuid"
)

func newEvent(typ, description string, meta map[string]any) models.DeviceEvent {
	return models.DeviceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: description,
		Metadata:    meta,
	}
}

func eventForAlert(o AlertOutcome) models.DeviceEvent {
	meta := map[string]any{"type": o.Type.Key(), "level": o.Level.String(), "value": o.Value}
	switch {
	case o.Cleared:
		return newEvent(models.EventAlertCleared, o.Type.String()+" cleared", meta)
	case o.Err != nil:
		meta["error"] = o.Err.Error()
		return newEvent(models.EventAlertFailed, o.Type.String()+" notification failed", meta)
	default:
		meta["message"] = o.Message
		return newEvent(models.EventAlertSent, o.Type.String()+" notification sent", meta)
	}
}

func eventBufferOverflow(capacity int) models.DeviceEvent {
	return newEvent(models.EventBufferOverflow,
		fmt.Sprintf("buffer full at %d snapshots, oldest overwritten", capacity),
		map[string]any{"capacity": capacity})
}

func eventBufferCleared(dropped int) models.DeviceEvent {
	return newEvent(models.EventBufferCleared,
		fmt.Sprintf("buffer cleared, %d snapshots dropped", dropped),
		map[string]any{"dropped": dropped})
}

func eventBufferDrained(published, failed int) models.DeviceEvent {
	return newEvent(models.EventBufferDrained,
		fmt.Sprintf("published %d buffered snapshots", published),
		map[string]any{"published": published, "failed": failed})
}

func eventPublishFailed(err error) models.DeviceEvent {
	return newEvent(models.EventPublishFailed, "transmission failed, buffering",
		map[string]any{"error": err.Error()})
}
