// Package backup exports the upload history and fingerprint ledger to an
// S3-compatible bucket.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nuanxinpro/wallpaper-studio/internal/clockx"
	"github.com/nuanxinpro/wallpaper-studio/internal/logging"
	"github.com/nuanxinpro/wallpaper-studio/internal/models"
	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/history"
)

// Config holds the bucket coordinates. BaseEndpoint supports
// MinIO-compatible deployments.
type Config struct {
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// ObjectPutter is the S3 surface the exporter needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Exporter snapshots the history into timestamped JSON objects.
type Exporter struct {
	client  ObjectPutter
	bucket  string
	history history.Repository
	clock   clockx.Clock
	log     logging.Logger
}

// ExporterOption customizes an Exporter.
type ExporterOption func(*Exporter)

func WithClock(clock clockx.Clock) ExporterOption { return func(e *Exporter) { e.clock = clock } }
func WithLogger(log logging.Logger) ExporterOption {
	return func(e *Exporter) { e.log = log }
}

// WithClient overrides the S3 client, for tests.
func WithClient(c ObjectPutter) ExporterOption { return func(e *Exporter) { e.client = c } }

// NewExporter builds the S3 client from cfg and returns an Exporter.
func NewExporter(ctx context.Context, cfg Config, hist history.Repository, opts ...ExporterOption) (*Exporter, error) {
	e := &Exporter{
		bucket:  cfg.Bucket,
		history: hist,
		clock:   clockx.Real(),
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)))
		if err != nil {
			return nil, err
		}
		e.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.BaseEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			}
		})
	}

	return e, nil
}

type snapshot struct {
	ExportedAt time.Time              `json:"exportedAt"`
	Records    []models.HistoryRecord `json:"records"`
}

// ExportHistory uploads the full history as one JSON object and returns its
// key.
func (e *Exporter) ExportHistory(ctx context.Context) (string, error) {
	records, err := e.history.List(ctx, 0)
	if err != nil {
		return "", fmt.Errorf("failed to read history: %w", err)
	}

	now := e.clock.Now().UTC()
	body, err := json.MarshalIndent(snapshot{ExportedAt: now, Records: records}, "", "  ")
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("backups/history-%s.json", now.Format("20060102-150405"))
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload backup: %w", err)
	}

	e.log.Info(ctx, "history exported", "key", key, "records", len(records))
	return key, nil
}
