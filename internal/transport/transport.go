// Package transport delivers snapshots and alert notifications to the configured backend.
package transport

import (
	"context"
	"errors"
	"fmt"

	"heatpump_monitor/internal/config"
	"heatpump_monitor/internal/logger"
	"heatpump_monitor/internal/service"
)

// Sinks is the publisher/notifier pair selected by transport.kind.
type Sinks struct {
	Publisher service.Publisher
	Notifier  service.Notifier

	closers []func(context.Context) error
}

// Open builds the sinks for cfg. Backends without a notification channel
// fall back to the log notifier.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Sinks, error) {
	deviceID, version := cfg.Device.ID, cfg.Device.FirmwareVersion
	logNotifier := NewLogNotifier(log)

	switch cfg.Transport.Kind {
	case config.TransportNATS:
		sink, err := DialNATS(ctx, cfg.Transport.NATS, deviceID, version, log)
		if err != nil {
			return nil, err
		}
		return &Sinks{Publisher: sink, Notifier: sink, closers: []func(context.Context) error{sink.Close}}, nil

	case config.TransportS3:
		pub, err := NewS3Publisher(ctx, cfg.Transport.S3, deviceID, version)
		if err != nil {
			return nil, err
		}
		return &Sinks{Publisher: pub, Notifier: logNotifier}, nil

	case config.TransportMongo:
		sink, err := DialMongo(ctx, cfg.Transport.Mongo, deviceID, version)
		if err != nil {
			return nil, err
		}
		return &Sinks{Publisher: sink, Notifier: sink, closers: []func(context.Context) error{sink.Close}}, nil

	case config.TransportNone, "":
		return &Sinks{Publisher: NewLogPublisher(log, deviceID, version), Notifier: logNotifier}, nil

	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Transport.Kind)
	}
}

// Close releases backend connections.
func (s *Sinks) Close(ctx context.Context) error {
	var errs []error
	for _, c := range s.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
