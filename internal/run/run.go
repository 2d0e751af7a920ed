// Package run wires the correlation pipeline end to end: observe, gate,
// fetch, align, match, derive findings, resolve session, persist.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"screensync/internal/align"
	"screensync/internal/artifacts"
	"screensync/internal/config"
	"screensync/internal/correlate"
	"screensync/internal/events"
	"screensync/internal/model"
	"screensync/internal/report"
	"screensync/internal/session"
	"screensync/internal/storage"
	"screensync/internal/vision"
)

type Runner struct {
	Config *config.Config
	Logger *slog.Logger

	// Frames produces observations through the vision pipeline. Replay
	// bypasses it with a precomputed observation list.
	Frames vision.FrameSource
	Replay []model.Observation

	Adapter  events.Adapter
	Store    storage.Store
	Exporter report.EvidenceExporter

	// OCR extracts text from frames. Only consulted when video.enable_ocr is
	// set; a nil extractor leaves text-based classification off.
	OCR vision.TextExtractor

	VideoPath string
}

type Result struct {
	RunID        string
	OutDir       string
	Observations []model.Observation
	Events       []model.NormalizedEvent
	Alignment    model.Alignment
	Matches      []model.Match
	Findings     []model.Finding
	Resolution   *model.ResolutionResult
}

func (r *Runner) Execute(ctx context.Context) (*Result, error) {
	if r.Config == nil {
		return nil, errors.New("runner requires a config")
	}
	cfg := r.Config

	runID := fmt.Sprintf("%s-%s", cfg.Run.RunID, uuid.NewString()[:8])
	outDir := filepath.Join(cfg.Run.OutDir, time.Now().UTC().Format("20060102_150405")+"_"+runID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	if r.Logger != nil {
		r.Logger.Info("run started", "run_id", runID, "out_dir", outDir)
	}

	observations, err := r.observe()
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, errors.New("no observations produced; nothing to correlate")
	}
	if err := artifacts.WriteJSONL(filepath.Join(outDir, "observations.jsonl"), observations); err != nil {
		return nil, err
	}

	appOpenVideoMS := r.gate(observations)
	if err := artifacts.WriteJSON(filepath.Join(outDir, "gate.json"), map[string]any{
		"app_open_video_ms": appOpenVideoMS,
	}); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:        runID,
		OutDir:       outDir,
		Observations: observations,
		Alignment:    model.Alignment{Anchors: []model.AlignmentAnchor{}},
	}

	if r.Adapter != nil {
		evs, err := r.Adapter.Fetch(ctx, events.Query{
			TimeStartMS: appOpenVideoMS,
			TimeEndMS:   appOpenVideoMS + cfg.Run.EventLookaheadMS,
			DeviceKey:   cfg.Run.DeviceKey,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch events: %w", err)
		}
		result.Events = evs
		if err := artifacts.WriteJSONL(filepath.Join(outDir, "events.jsonl"), evs); err != nil {
			return nil, err
		}
		if r.Logger != nil {
			r.Logger.Info("events fetched", "count", len(evs))
		}
	}

	if len(result.Events) > 0 {
		result.Alignment = align.EstimateOffset(appOpenVideoMS, result.Events, align.Config{
			AnchorWindowMS: cfg.Correlate.AnchorWindowMS,
		})
		result.Matches = correlate.MatchEvents(observations, result.Events, result.Alignment, r.matchConfig())
		result.Findings = correlate.FindingsFromMatches(result.Matches)

		resolution := session.Infer(result.Events, appOpenVideoMS, result.Alignment, session.Config{
			TopK:     cfg.Session.TopK,
			WindowMS: cfg.Session.WindowMS,
		})
		result.Resolution = &resolution

		r.exportEvidence(result.Findings, outDir)

		if err := artifacts.WriteJSON(filepath.Join(outDir, "alignment.json"), result.Alignment); err != nil {
			return nil, err
		}
		if err := artifacts.WriteJSONL(filepath.Join(outDir, "matches.jsonl"), result.Matches); err != nil {
			return nil, err
		}
		if err := artifacts.WriteJSONL(filepath.Join(outDir, "findings.jsonl"), result.Findings); err != nil {
			return nil, err
		}
		if err := artifacts.WriteJSON(filepath.Join(outDir, "resolution.json"), resolution); err != nil {
			return nil, err
		}
	}

	if err := report.WriteMarkdown(filepath.Join(outDir, "report.md"), report.Input{
		RunID:      runID,
		VideoPath:  r.VideoPath,
		Alignment:  result.Alignment,
		Findings:   result.Findings,
		Resolution: result.Resolution,
	}); err != nil {
		return nil, err
	}

	if r.Store != nil {
		if err := r.persist(ctx, runID, result); err != nil {
			return nil, err
		}
	}

	if r.Logger != nil {
		r.Logger.Info("run finished",
			"run_id", runID,
			"observations", len(result.Observations),
			"events", len(result.Events),
			"matches", len(result.Matches),
			"findings", len(result.Findings),
		)
	}
	return result, nil
}

func (r *Runner) observe() ([]model.Observation, error) {
	if len(r.Replay) > 0 {
		return r.Replay, nil
	}
	if r.Frames == nil {
		return nil, errors.New("no frame source or replay configured")
	}
	defer r.Frames.Close()
	cfg := r.Config
	var roi *vision.ROI
	if c := cfg.Video.OCRROI; c != nil {
		roi = &vision.ROI{X1: c.X1, Y1: c.Y1, X2: c.X2, Y2: c.Y2}
	}
	var ocr vision.TextExtractor
	if cfg.Video.EnableOCR {
		ocr = r.OCR
	}
	pipeline := vision.NewPipeline(vision.Config{
		SampleFPS: cfg.Video.SampleFPS,
		Classifier: vision.ClassifierConfig{
			PlaybackMotionMin: cfg.Video.PlaybackMotionMin,
			PausedMotionMax:   cfg.Video.PausedMotionMax,
		},
		OCR:             ocr,
		OCRROI:          roi,
		MotionDownscale: cfg.Video.MotionDownscale,
		MaxFrames:       cfg.Video.MaxFrames,
	}, r.Logger)
	return pipeline.Run(r.Frames)
}

func (r *Runner) gate(observations []model.Observation) int64 {
	if r.Config.Run.AppOpenVideoMS >= 0 {
		return r.Config.Run.AppOpenVideoMS
	}
	if t, ok := session.FindAppOpenTimeMS(observations); ok {
		return t
	}
	return observations[0].TVideoMS
}

func (r *Runner) matchConfig() correlate.MatchConfig {
	cfg := correlate.DefaultMatchConfig()
	if r.Config.Correlate.MaxDeltaMS > 0 {
		cfg.MaxDeltaMS = r.Config.Correlate.MaxDeltaMS
	}
	if len(r.Config.Correlate.KindToState) > 0 {
		cfg.KindToState = make(map[string]model.UXState, len(r.Config.Correlate.KindToState))
		for kind, state := range r.Config.Correlate.KindToState {
			cfg.KindToState[kind] = model.UXState(state)
		}
	}
	return cfg
}

func (r *Runner) exportEvidence(findings []model.Finding, outDir string) {
	if r.Exporter == nil || r.VideoPath == "" {
		return
	}
	evidenceDir := filepath.Join(outDir, "evidence")
	if err := os.MkdirAll(evidenceDir, 0o755); err != nil {
		if r.Logger != nil {
			r.Logger.Warn("evidence dir create failed", "err", err)
		}
		return
	}
	for i := range findings {
		f := &findings[i]
		if f.TVideoMS == nil || *f.TVideoMS <= 0 {
			continue
		}
		ref, err := r.Exporter.ExportFrame(r.VideoPath, *f.TVideoMS, evidenceDir)
		if err != nil {
			if r.Logger != nil {
				r.Logger.Warn("evidence export failed", "t_video_ms", *f.TVideoMS, "err", err)
			}
			continue
		}
		f.EvidenceFrames = append(f.EvidenceFrames, ref)
	}
}

func (r *Runner) persist(ctx context.Context, runID string, result *Result) error {
	if err := r.Store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	if err := r.Store.SaveObservations(ctx, runID, result.Observations); err != nil {
		return fmt.Errorf("save observations: %w", err)
	}
	if err := r.Store.SaveMatches(ctx, runID, result.Matches); err != nil {
		return fmt.Errorf("save matches: %w", err)
	}
	if err := r.Store.SaveFindings(ctx, runID, result.Findings); err != nil {
		return fmt.Errorf("save findings: %w", err)
	}
	return nil
}
