// Package correlate pairs telemetry events with screen observations and turns
// the pairings into findings.
package correlate

import (
	"screensync/internal/model"
)

type MatchConfig struct {
	// MaxDeltaMS is the inclusive proximity tolerance.
	MaxDeltaMS int64
	// KindToState maps event kinds to the screen state they imply. Events
	// whose kind has no entry are skipped silently.
	KindToState map[string]model.UXState
}

func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		MaxDeltaMS: 5_000,
		KindToState: map[string]model.UXState{
			"playback":  model.StatePlayback,
			"buffering": model.StateBuffering,
			"ad":        model.StateAd,
			"pause":     model.StatePaused,
			"error":     model.StateError,
		},
	}
}

// nearestObservation scans linearly for the observation closest to tVideoMS.
// Ties keep the first-encountered observation.
func nearestObservation(observations []model.Observation, tVideoMS int64) (int, int64) {
	best := -1
	var bestDelta int64
	for i := range observations {
		delta := observations[i].TVideoMS - tVideoMS
		if delta < 0 {
			delta = -delta
		}
		if best == -1 || delta < bestDelta {
			best = i
			bestDelta = delta
		}
	}
	return best, bestDelta
}

// MatchEvents maps each expected-state event to its nearest observation in
// estimated video time. A pairing matches only when it is both within the
// tolerance and showing the expected state; proximity alone never suffices.
// Several events may claim the same observation. Pure function: identical
// inputs produce identical output.
func MatchEvents(observations []model.Observation, events []model.NormalizedEvent, alignment model.Alignment, cfg MatchConfig) []model.Match {
	if cfg.KindToState == nil {
		cfg = DefaultMatchConfig()
	}
	matches := make([]model.Match, 0, len(events))
	for _, e := range events {
		expected, ok := cfg.KindToState[e.Kind]
		if !ok {
			continue
		}
		tVideoEst := e.TEventMS - alignment.OffsetMS
		idx, delta := nearestObservation(observations, tVideoEst)
		if idx < 0 {
			// No observations, nothing to pair against.
			continue
		}
		obs := observations[idx]
		matched := delta <= cfg.MaxDeltaMS && obs.State == expected
		matches = append(matches, model.Match{
			EventKind:      e.Kind,
			EventTimeMS:    e.TEventMS,
			VideoTimeEstMS: tVideoEst,
			ObsTimeMS:      obs.TVideoMS,
			ObsState:       obs.State,
			ExpectedState:  expected,
			DeltaMS:        delta,
			Match:          matched,
			SessionKey:     e.SessionKey,
			DeviceKey:      e.DeviceKey,
		})
	}
	return matches
}
