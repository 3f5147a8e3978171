package models

import "time"

// DeviceStatus is what the control loop exposes to readers outside it.
type DeviceStatus struct {
	ID             int       `json:"id"`
	DeviceID       string    `json:"device_id"`
	Latest         *Snapshot `json:"latest,omitempty"`
	BufferCount    int       `json:"buffer_count"`
	BufferCapacity int       `json:"buffer_capacity"`
	BufferOverflow bool      `json:"buffer_overflow"`
	ActiveAlerts   []string  `json:"active_alerts,omitempty"`
	AlertSummary   string    `json:"alert_summary"`
	BufferSummary  string    `json:"buffer_summary"`
	LastPublishOK  bool      `json:"last_publish_ok"`
	UpdatedAt      time.Time `json:"updated_at"`
}
