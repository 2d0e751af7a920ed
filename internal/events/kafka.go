package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"screensync/internal/config"
	"screensync/internal/model"
)

const kafkaDrainIdle = 5 * time.Second

// KafkaAdapter drains a topic from the first offset and keeps the messages
// that decode into events inside the query window. Unlike a live consumer it
// stops once the topic stays idle or the limit is hit; a telemetry topic for a
// finished session is a finite collection.
type KafkaAdapter struct {
	cfg    config.KafkaConfig
	logger *slog.Logger

	// newReader is swappable for tests.
	newReader func() messageReader
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func NewKafkaAdapter(cfg config.KafkaConfig, logger *slog.Logger) *KafkaAdapter {
	a := &KafkaAdapter{cfg: cfg, logger: logger}
	a.newReader = func() messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       cfg.Topic,
			GroupID:     cfg.GroupID,
			StartOffset: kafka.FirstOffset,
			MinBytes:    1e3,
			MaxBytes:    10e6,
		})
	}
	return a
}

func (a *KafkaAdapter) Fetch(ctx context.Context, q Query) ([]model.NormalizedEvent, error) {
	reader := a.newReader()
	defer reader.Close()

	limit := q.Limit
	if limit <= 0 && a.cfg.Limit > 0 {
		limit = a.cfg.Limit
	}

	out := make([]model.NormalizedEvent, 0)
	for {
		readCtx, cancel := context.WithTimeout(ctx, kafkaDrainIdle)
		m, err := reader.ReadMessage(readCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				// Topic drained.
				return out, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("kafka read: %w", err)
		}
		ev, err := FromJSONLine(m.Value)
		if err != nil {
			if a.logger != nil {
				a.logger.Warn("skipping kafka message", "topic", a.cfg.Topic, "offset", m.Offset, "err", err)
			}
			continue
		}
		if !matchesQuery(ev, q) {
			continue
		}
		if ev.Metadata == nil {
			ev.Metadata = map[string]any{}
		}
		ev.Metadata["source"] = "kafka"
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			return out, nil
		}
	}
}
