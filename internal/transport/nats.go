package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"heatpump_monitor/internal/config"
	"heatpump_monitor/internal/logger"
	"heatpump_monitor/internal/models"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const defaultNATSTimeout = 5 * time.Second

// streamPublisher is the part of jetstream.JetStream the sink needs.
type streamPublisher interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSSink publishes snapshots and alert notifications to JetStream and
// announces device presence on a plain subject.
type NATSSink struct {
	conn    *nats.Conn
	js      streamPublisher
	log     *logger.Logger
	timeout time.Duration

	stream        string
	root          string
	dataSubject   string
	alertSubject  string
	onlineSubject string

	deviceID string
	version  string

	mu          sync.Mutex
	streamReady bool
}

type alertMessage struct {
	Device      string `json:"device"`
	Destination string `json:"destination"`
	Text        string `json:"text"`
	SentAt      int64  `json:"sent_at"`
}

// DialNATS connects to the broker. The connection retries in the background,
// so an unreachable broker at start only makes publishes fail.
func DialNATS(ctx context.Context, cfg config.NATSConfig, deviceID, version string, log *logger.Logger) (*NATSSink, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultNATSTimeout
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("heatpump_monitor/"+deviceID),
		nats.Timeout(timeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warnw("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infow("nats_reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("init jetstream: %w", err)
	}

	s := newNATSSink(js, cfg, deviceID, version, log)
	s.conn = conn
	if err := s.ensureStream(ctx); err != nil {
		log.Warnw("nats_stream_unavailable", "stream", s.stream, "error", err)
	}
	s.announce(true)
	return s, nil
}

func newNATSSink(js streamPublisher, cfg config.NATSConfig, deviceID, version string, log *logger.Logger) *NATSSink {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultNATSTimeout
	}
	root := cfg.Subject
	if root == "" {
		root = "heatpump"
	}
	base := root + "." + subjectToken(deviceID)
	return &NATSSink{
		js:            js,
		log:           log,
		timeout:       timeout,
		stream:        cfg.Stream,
		root:          root,
		dataSubject:   base + ".data",
		alertSubject:  base + ".alerts",
		onlineSubject: base + ".status.online",
		deviceID:      deviceID,
		version:       version,
	}
}

// Publish sends one snapshot and waits for the stream ack.
func (s *NATSSink) Publish(ctx context.Context, snap models.Snapshot) error {
	body, err := Encode(snap, s.deviceID, s.version)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.publish(ctx, s.dataSubject, body)
}

// Notify publishes an alert text for the given destination.
func (s *NATSSink) Notify(ctx context.Context, destination, text string) error {
	body, err := json.Marshal(alertMessage{
		Device:      s.deviceID,
		Destination: destination,
		Text:        text,
		SentAt:      time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	return s.publish(ctx, s.alertSubject, body)
}

func (s *NATSSink) publish(ctx context.Context, subject string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.ensureStream(ctx); err != nil {
		return err
	}
	if _, err := s.js.Publish(ctx, subject, body); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// ensureStream creates the stream once; a failed attempt is retried on the next publish.
func (s *NATSSink) ensureStream(ctx context.Context) error {
	if s.stream == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamReady {
		return nil
	}
	_, err := s.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     s.stream,
		Subjects: []string{s.root + ".>"},
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", s.stream, err)
	}
	s.streamReady = true
	return nil
}

func (s *NATSSink) announce(online bool) {
	if s.conn == nil {
		return
	}
	payload := []byte("false")
	if online {
		payload = []byte("true")
	}
	if err := s.conn.Publish(s.onlineSubject, payload); err != nil {
		s.log.Debugw("nats_presence_failed", "error", err)
	}
}

// Close announces the device offline and drains the connection.
func (s *NATSSink) Close(context.Context) error {
	if s.conn == nil {
		return nil
	}
	s.announce(false)
	if err := s.conn.FlushTimeout(s.timeout); err != nil {
		s.log.Debugw("nats_flush_failed", "error", err)
	}
	return s.conn.Drain()
}

// subjectToken makes a device id safe to use as a single subject token.
func subjectToken(id string) string {
	return strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(id)
}
