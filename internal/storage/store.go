package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"screensync/internal/config"
	"screensync/internal/model"
)

// Store persists run artifacts for later querying. A nil Store (storage
// disabled) is valid; callers skip persistence.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveObservations(ctx context.Context, runID string, observations []model.Observation) error
	SaveMatches(ctx context.Context, runID string, matches []model.Match) error
	SaveFindings(ctx context.Context, runID string, findings []model.Finding) error
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func encodeJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

func nullableMS(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
