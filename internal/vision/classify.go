package vision

import (
	"strings"

	"screensync/internal/model"
)

type ClassifierConfig struct {
	PlaybackMotionMin float64
	PausedMotionMax   float64
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		PlaybackMotionMin: 0.03,
		PausedMotionMax:   0.01,
	}
}

// Rule is one entry in the classification cascade. Text is already lower-cased
// when Applies runs; a frame without a motion signal carries motion == 0.
type Rule struct {
	Name    string
	State   model.UXState
	Applies func(text string, motion float64, cfg ClassifierConfig) bool
}

// Rules returns the cascade in priority order. First match wins.
func Rules() []Rule {
	return []Rule{
		{
			Name:  "error_text",
			State: model.StateError,
			Applies: func(text string, _ float64, _ ClassifierConfig) bool {
				return strings.Contains(text, "error") || strings.Contains(text, "try again")
			},
		},
		{
			Name:  "buffering_text",
			State: model.StateBuffering,
			Applies: func(text string, _ float64, _ ClassifierConfig) bool {
				return strings.Contains(text, "loading") || strings.Contains(text, "buffer")
			},
		},
		{
			Name:  "ad_text",
			State: model.StateAd,
			Applies: func(text string, _ float64, _ ClassifierConfig) bool {
				return strings.Contains(text, "skip") && strings.Contains(text, "ad")
			},
		},
		{
			Name:  "playback_motion",
			State: model.StatePlayback,
			Applies: func(_ string, motion float64, cfg ClassifierConfig) bool {
				return motion >= cfg.PlaybackMotionMin
			},
		},
		{
			Name:  "paused_motion",
			State: model.StatePaused,
			Applies: func(_ string, motion float64, cfg ClassifierConfig) bool {
				return motion <= cfg.PausedMotionMax
			},
		},
	}
}

// Classify runs the cascade over the frame signals. Missing motion is read as
// zero, so a cold-start frame with no matching text lands in the paused branch.
func Classify(text string, motion float64, cfg ClassifierConfig) model.UXState {
	lower := strings.ToLower(text)
	for _, r := range Rules() {
		if r.Applies(lower, motion, cfg) {
			return r.State
		}
	}
	return model.StateUnknown
}
