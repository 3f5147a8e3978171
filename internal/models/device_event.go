package models

import "time"

// Event types written to the device event log.
const (
	EventAlertSent      = "ALERT_SENT"
	EventAlertFailed    = "ALERT_FAILED"
	EventAlertCleared   = "ALERT_CLEARED"
	EventBufferOverflow = "BUFFER_OVERFLOW"
	EventBufferCleared  = "BUFFER_CLEARED"
	EventPublishFailed  = "PUBLISH_FAILED"
	EventBufferDrained  = "BUFFER_DRAINED"
)

// DeviceEvent is a single log entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
