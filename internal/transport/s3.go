package transport

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"heatpump_monitor/internal/config"
	"heatpump_monitor/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher archives each snapshot as one JSON object.
type S3Publisher struct {
	client   objectPutter
	bucket   string
	prefix   string
	deviceID string
	version  string
	boot     string

	mu  sync.Mutex
	seq uint64
}

// NewS3Publisher builds a client from the default AWS credential chain.
func NewS3Publisher(ctx context.Context, cfg config.S3Config, deviceID, version string) (*S3Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Publisher(client, cfg, deviceID, version, bootID(time.Now())), nil
}

func newS3Publisher(client objectPutter, cfg config.S3Config, deviceID, version, boot string) *S3Publisher {
	return &S3Publisher{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		deviceID: deviceID,
		version:  version,
		boot:     boot,
	}
}

// bootID names one process run: its UTC start time plus a random suffix.
func bootID(start time.Time) string {
	return start.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
}

// ObjectKey is <prefix>/<device>/<boot>/<seq>-<reading time>.json, zero padded so
// keys list in upload order. ReadingTime restarts with the process and buffered
// snapshots keep the time of the run that took them, so neither is unique alone.
func (p *S3Publisher) ObjectKey(seq uint64, s models.Snapshot) string {
	return path.Join(p.prefix, p.deviceID, p.boot, fmt.Sprintf("%010d-%020d.json", seq, s.ReadingTime))
}

// Publish uploads s under the next sequence number. A failed upload does not
// consume the number, so a retry of the same snapshot reuses its key.
func (p *S3Publisher) Publish(ctx context.Context, s models.Snapshot) error {
	body, err := Encode(s, p.deviceID, p.version)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.ObjectKey(p.seq, s)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3 object %q: %w", key, err)
	}
	p.seq++
	return nil
}
