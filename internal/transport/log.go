package transport

import (
	"context"

	"heatpump_monitor/internal/logger"
	"heatpump_monitor/internal/models"
)

// LogNotifier writes notifications to the log instead of a delivery channel.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, destination, text string) error {
	n.log.Warnw("alert_notification", "destination", destination, "text", text)
	return nil
}

// LogPublisher accepts every snapshot and logs it at debug level.
// Used when no transport is configured.
type LogPublisher struct {
	log      *logger.Logger
	deviceID string
	version  string
}

func NewLogPublisher(log *logger.Logger, deviceID, version string) *LogPublisher {
	return &LogPublisher{log: log, deviceID: deviceID, version: version}
}

func (p *LogPublisher) Publish(_ context.Context, s models.Snapshot) error {
	body, err := Encode(s, p.deviceID, p.version)
	if err != nil {
		return err
	}
	p.log.Debugw("snapshot_published", "reading_time", s.ReadingTime, "payload", string(body))
	return nil
}
