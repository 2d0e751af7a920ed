// Package events fetches telemetry from heterogeneous sources and normalizes
// it into NormalizedEvent records.
package events

import (
	"context"
	"fmt"
	"log/slog"

	"screensync/internal/config"
	"screensync/internal/model"
)

// Query is the one source-agnostic fetch shape. The time window is inclusive
// on both ends. Sources interpret the fields however fits their backend; an
// empty result is never an error.
type Query struct {
	TimeStartMS int64
	TimeEndMS   int64
	DeviceKey   string
	SessionKey  string
	Limit       int
}

// Adapter reads events from one source. One implementation per backend, no
// shared mutable state.
type Adapter interface {
	Fetch(ctx context.Context, q Query) ([]model.NormalizedEvent, error)
}

// NewAdapter builds the configured telemetry source.
func NewAdapter(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger) (Adapter, error) {
	switch cfg.Adapter {
	case "file":
		return &FileAdapter{Path: cfg.File.Path, Logger: logger}, nil
	case "s3":
		return NewS3Adapter(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Region, logger)
	case "opensearch":
		return NewOpenSearchAdapter(cfg.OpenSearch, logger), nil
	case "postgres":
		return NewPostgresAdapter(cfg.Postgres.DSN, cfg.Postgres.Table)
	case "kafka":
		return NewKafkaAdapter(cfg.Kafka, logger), nil
	default:
		return nil, fmt.Errorf("unknown telemetry adapter: %q", cfg.Adapter)
	}
}

// matchesQuery applies the window and identity filters shared by all sources.
func matchesQuery(e model.NormalizedEvent, q Query) bool {
	if e.TEventMS < q.TimeStartMS || e.TEventMS > q.TimeEndMS {
		return false
	}
	if q.DeviceKey != "" && e.DeviceKey != "" && e.DeviceKey != q.DeviceKey {
		return false
	}
	if q.SessionKey != "" && e.SessionKey != q.SessionKey {
		return false
	}
	return true
}
