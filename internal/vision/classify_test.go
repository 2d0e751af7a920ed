package vision

import (
	"testing"

	"screensync/internal/model"
)

func TestClassifyErrorText(t *testing.T) {
	cfg := DefaultClassifierConfig()
	if got := Classify("Error: something broke", 0.5, cfg); got != model.StateError {
		t.Fatalf("expected error, got %s", got)
	}
	if got := Classify("Please TRY AGAIN later", 0.5, cfg); got != model.StateError {
		t.Fatalf("expected error for try again, got %s", got)
	}
}

func TestClassifyBufferingText(t *testing.T) {
	cfg := DefaultClassifierConfig()
	if got := Classify("Loading...", 0.5, cfg); got != model.StateBuffering {
		t.Fatalf("expected buffering, got %s", got)
	}
	if got := Classify("rebuffering", 0.5, cfg); got != model.StateBuffering {
		t.Fatalf("expected buffering for buffer token, got %s", got)
	}
}

func TestClassifyAdText(t *testing.T) {
	cfg := DefaultClassifierConfig()
	if got := Classify("Skip Ad in 5", 0.0, cfg); got != model.StateAd {
		t.Fatalf("expected ad, got %s", got)
	}
	// Both tokens are required.
	if got := Classify("skip intro", 0.5, cfg); got == model.StateAd {
		t.Fatalf("skip without ad must not classify as ad")
	}
}

func TestClassifyMotionThresholds(t *testing.T) {
	cfg := DefaultClassifierConfig()
	if got := Classify("", 0.03, cfg); got != model.StatePlayback {
		t.Fatalf("motion at playback threshold: got %s", got)
	}
	if got := Classify("", 0.01, cfg); got != model.StatePaused {
		t.Fatalf("motion at paused threshold: got %s", got)
	}
	if got := Classify("", 0.02, cfg); got != model.StateUnknown {
		t.Fatalf("motion between thresholds: got %s", got)
	}
}

func TestClassifyTextBeatsMotion(t *testing.T) {
	cfg := DefaultClassifierConfig()
	// Text cues outrank motion in the cascade.
	if got := Classify("loading", 0.9, cfg); got != model.StateBuffering {
		t.Fatalf("expected buffering despite high motion, got %s", got)
	}
}

func TestClassifyColdStartIsPaused(t *testing.T) {
	cfg := DefaultClassifierConfig()
	// A frame with no motion signal carries motion == 0, which lands in the
	// paused branch when no text matched.
	if got := Classify("", 0, cfg); got != model.StatePaused {
		t.Fatalf("cold-start frame: got %s, want %s", got, model.StatePaused)
	}
}

func TestRuleOrder(t *testing.T) {
	rules := Rules()
	wantOrder := []model.UXState{
		model.StateError,
		model.StateBuffering,
		model.StateAd,
		model.StatePlayback,
		model.StatePaused,
	}
	if len(rules) != len(wantOrder) {
		t.Fatalf("rule count: got %d, want %d", len(rules), len(wantOrder))
	}
	for i, r := range rules {
		if r.State != wantOrder[i] {
			t.Fatalf("rule %d: got %s, want %s", i, r.State, wantOrder[i])
		}
	}
}
