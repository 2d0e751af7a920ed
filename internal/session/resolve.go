// Package session infers the most plausible session identity from a pool of
// telemetry events and an app-open reference time.
package session

import (
	"sort"

	"screensync/internal/model"
)

type Config struct {
	TopK int
	// WindowMS normalizes candidate scores. Independent of the alignment
	// estimator's anchor window.
	WindowMS int64
}

func DefaultConfig() Config {
	return Config{TopK: 3, WindowMS: 30_000}
}

// FindAppOpenTimeMS returns the first APP_OPEN observation's timestamp.
func FindAppOpenTimeMS(observations []model.Observation) (int64, bool) {
	for _, obs := range observations {
		if obs.State == model.StateAppOpen {
			return obs.TVideoMS, true
		}
	}
	return 0, false
}

// Infer partitions events by session key and scores each group by how close
// its nearest session_start sits to the estimated app-open event time. Events
// without a session key are never candidates; groups without a session_start
// are dropped entirely. Zero qualifying groups is a reportable outcome, not an
// error.
func Infer(events []model.NormalizedEvent, appOpenVideoMS int64, alignment model.Alignment, cfg Config) model.ResolutionResult {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	if cfg.WindowMS <= 0 {
		cfg.WindowMS = DefaultConfig().WindowMS
	}

	appOpenEventMS := appOpenVideoMS + alignment.OffsetMS

	bySession := make(map[string][]model.NormalizedEvent)
	for _, e := range events {
		if e.SessionKey == "" {
			continue
		}
		bySession[e.SessionKey] = append(bySession[e.SessionKey], e)
	}

	candidates := make([]model.SessionCandidate, 0, len(bySession))
	for sk, group := range bySession {
		var nearest *model.NormalizedEvent
		var nearestDelta int64
		for i := range group {
			if group[i].Kind != "session_start" {
				continue
			}
			delta := group[i].TEventMS - appOpenEventMS
			if delta < 0 {
				delta = -delta
			}
			if nearest == nil || delta < nearestDelta {
				nearest = &group[i]
				nearestDelta = delta
			}
		}
		if nearest == nil {
			continue
		}
		score := 1.0 - float64(nearestDelta)/float64(cfg.WindowMS)
		if score < 0 {
			score = 0
		}
		candidates = append(candidates, model.SessionCandidate{
			Score:      score,
			SessionKey: sk,
			DeviceKey:  nearest.DeviceKey,
			DeltaMS:    nearestDelta,
		})
	}

	// Score descending; session key ascending keeps the ranking byte-stable
	// across runs.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].SessionKey < candidates[j].SessionKey
	})

	top := candidates
	if len(top) > cfg.TopK {
		top = top[:cfg.TopK]
	}

	if len(candidates) == 0 {
		return model.ResolutionResult{
			Rationale: map[string]any{
				"reason": "no_session_start_found",
				"note":   "Ensure the adapter maps the session's first event to kind='session_start'.",
			},
			Candidates: []model.SessionCandidate{},
		}
	}

	best := candidates[0]
	return model.ResolutionResult{
		SessionKey: best.SessionKey,
		DeviceKey:  best.DeviceKey,
		Rationale: map[string]any{
			"method":                "log_inference",
			"app_open_video_ms":     appOpenVideoMS,
			"app_open_event_ms_est": appOpenEventMS,
			"best_delta_ms":         best.DeltaMS,
			"score":                 best.Score,
		},
		Candidates: top,
	}
}
