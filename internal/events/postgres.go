package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"screensync/internal/model"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresAdapter reads events from a SQL table with the columns
// (ts_ms BIGINT, kind TEXT, session_key TEXT, device_key TEXT,
// metadata JSONB, raw JSONB).
type PostgresAdapter struct {
	db    *sql.DB
	table string
}

func NewPostgresAdapter(dsn, table string) (*PostgresAdapter, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid events table name: %q", table)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresAdapter{db: db, table: table}, nil
}

func (a *PostgresAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *PostgresAdapter) Fetch(ctx context.Context, q Query) ([]model.NormalizedEvent, error) {
	query := fmt.Sprintf(
		`SELECT ts_ms, kind, COALESCE(session_key, ''), COALESCE(device_key, ''), metadata, raw
		FROM %s WHERE ts_ms >= $1 AND ts_ms <= $2`, a.table)
	args := []any{q.TimeStartMS, q.TimeEndMS}
	if q.DeviceKey != "" {
		args = append(args, q.DeviceKey)
		query += fmt.Sprintf(" AND device_key = $%d", len(args))
	}
	if q.SessionKey != "" {
		args = append(args, q.SessionKey)
		query += fmt.Sprintf(" AND session_key = $%d", len(args))
	}
	query += " ORDER BY ts_ms"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]model.NormalizedEvent, 0)
	for rows.Next() {
		var (
			ev            model.NormalizedEvent
			metadataBytes []byte
			rawBytes      []byte
		)
		if err := rows.Scan(&ev.TEventMS, &ev.Kind, &ev.SessionKey, &ev.DeviceKey, &metadataBytes, &rawBytes); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if len(metadataBytes) > 0 {
			_ = json.Unmarshal(metadataBytes, &ev.Metadata)
		}
		if len(rawBytes) > 0 {
			_ = json.Unmarshal(rawBytes, &ev.Raw)
		}
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("invalid event row: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read event rows: %w", err)
	}
	return out, nil
}
