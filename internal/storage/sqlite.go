package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"screensync/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:screensync.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			t_video_ms INTEGER NOT NULL,
			state TEXT NOT NULL,
			confidence REAL NOT NULL,
			signals_json TEXT,
			ocr_text TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_run ON observations(run_id, t_video_ms)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			event_kind TEXT NOT NULL,
			event_time_ms INTEGER NOT NULL,
			video_time_est_ms INTEGER NOT NULL,
			obs_time_ms INTEGER NOT NULL,
			obs_state TEXT NOT NULL,
			expected_state TEXT NOT NULL,
			delta_ms INTEGER NOT NULL,
			matched INTEGER NOT NULL,
			session_key TEXT,
			device_key TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_run ON matches(run_id)`,
		`CREATE TABLE IF NOT EXISTS findings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			severity TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			t_video_ms INTEGER,
			t_event_ms INTEGER,
			details_json TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SaveObservations(ctx context.Context, runID string, observations []model.Observation) error {
	if s.db == nil || runID == "" || len(observations) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (run_id, t_video_ms, state, confidence, signals_json, ocr_text)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, obs := range observations {
		if _, err := stmt.ExecContext(ctx,
			runID,
			obs.TVideoMS,
			string(obs.State),
			obs.Confidence,
			encodeJSON(obs.Signals),
			obs.OCRText,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) SaveMatches(ctx context.Context, runID string, matches []model.Match) error {
	if s.db == nil || runID == "" || len(matches) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO matches (run_id, event_kind, event_time_ms, video_time_est_ms, obs_time_ms, obs_state, expected_state, delta_ms, matched, session_key, device_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, m := range matches {
		if _, err := stmt.ExecContext(ctx,
			runID,
			m.EventKind,
			m.EventTimeMS,
			m.VideoTimeEstMS,
			m.ObsTimeMS,
			string(m.ObsState),
			string(m.ExpectedState),
			m.DeltaMS,
			m.Match,
			m.SessionKey,
			m.DeviceKey,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) SaveFindings(ctx context.Context, runID string, findings []model.Finding) error {
	if s.db == nil || runID == "" || len(findings) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (run_id, severity, title, description, t_video_ms, t_event_ms, details_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, f := range findings {
		if _, err := stmt.ExecContext(ctx,
			runID,
			string(f.Severity),
			f.Title,
			f.Description,
			nullableMS(f.TVideoMS),
			nullableMS(f.TEventMS),
			encodeJSON(f.Details),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
