package transport

import (
	"context"
	"fmt"
	"time"

	"heatpump_monitor/internal/config"
	"heatpump_monitor/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultMongoTimeout = 10 * time.Second

type documentInserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// snapshotDocument is the stored form of a Payload.
type snapshotDocument struct {
	Payload    `bson:",inline"`
	ReceivedAt time.Time `bson:"received_at"`
}

type alertDocument struct {
	Device      string    `bson:"device"`
	Destination string    `bson:"destination"`
	Text        string    `bson:"text"`
	SentAt      time.Time `bson:"sent_at"`
}

// MongoSink stores snapshots and alert notifications in two collections.
type MongoSink struct {
	client    *mongo.Client
	snapshots documentInserter
	alerts    documentInserter
	timeout   time.Duration
	deviceID  string
	version   string
	now       func() time.Time
}

// DialMongo connects and pings the primary before returning.
func DialMongo(ctx context.Context, cfg config.MongoConfig, deviceID, version string) (*MongoSink, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultMongoTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	s := newMongoSink(db.Collection(cfg.Collection), db.Collection(cfg.AlertsCollection), timeout, deviceID, version)
	s.client = client
	return s, nil
}

func newMongoSink(snapshots, alerts documentInserter, timeout time.Duration, deviceID, version string) *MongoSink {
	return &MongoSink{
		snapshots: snapshots,
		alerts:    alerts,
		timeout:   timeout,
		deviceID:  deviceID,
		version:   version,
		now:       time.Now,
	}
}

func (s *MongoSink) Publish(ctx context.Context, snap models.Snapshot) error {
	doc := snapshotDocument{
		Payload:    NewPayload(snap, s.deviceID, s.version),
		ReceivedAt: s.now().UTC(),
	}
	return s.insert(ctx, s.snapshots, doc)
}

func (s *MongoSink) Notify(ctx context.Context, destination, text string) error {
	return s.insert(ctx, s.alerts, alertDocument{
		Device:      s.deviceID,
		Destination: destination,
		Text:        text,
		SentAt:      s.now().UTC(),
	})
}

func (s *MongoSink) insert(ctx context.Context, coll documentInserter, doc interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *MongoSink) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
