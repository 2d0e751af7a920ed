package align

import (
	"testing"

	"screensync/internal/model"
)

func event(t int64, kind string) model.NormalizedEvent {
	return model.NormalizedEvent{TEventMS: t, Kind: kind}
}

func TestEstimateOffsetHappyPath(t *testing.T) {
	events := []model.NormalizedEvent{
		event(1000, "session_start"),
		event(9000, "playback"),
	}
	a := EstimateOffset(0, events, DefaultConfig())
	if a.OffsetMS != 1000 {
		t.Fatalf("offset: got %d, want 1000", a.OffsetMS)
	}
	if a.Score != 1.0 {
		t.Fatalf("score: got %v, want 1.0", a.Score)
	}
	if a.DriftPPM != 0 {
		t.Fatalf("drift must stay 0, got %v", a.DriftPPM)
	}
	if len(a.Anchors) != 1 {
		t.Fatalf("anchor count: %d", len(a.Anchors))
	}
	anchor := a.Anchors[0]
	if anchor.Kind != "session_start" || anchor.TVideoMS != 0 || anchor.TEventMS != 1000 {
		t.Fatalf("anchor record: %+v", anchor)
	}
}

func TestEstimateOffsetExactSubtraction(t *testing.T) {
	events := []model.NormalizedEvent{event(123_456, "session_start")}
	a := EstimateOffset(7_890, events, DefaultConfig())
	if a.OffsetMS != 123_456-7_890 {
		t.Fatalf("offset: got %d", a.OffsetMS)
	}
	// The score delta is zero by construction, so any anchor scores 1.0.
	if a.Score != 1.0 {
		t.Fatalf("score: got %v", a.Score)
	}
}

func TestEstimateOffsetEarliestAnchorWins(t *testing.T) {
	events := []model.NormalizedEvent{
		event(5000, "session_start"),
		event(2000, "session_start"),
		event(8000, "session_start"),
	}
	a := EstimateOffset(0, events, DefaultConfig())
	if a.OffsetMS != 2000 {
		t.Fatalf("earliest anchor: got offset %d", a.OffsetMS)
	}
}

func TestEstimateOffsetTieKeepsFirstInInputOrder(t *testing.T) {
	events := []model.NormalizedEvent{
		{TEventMS: 2000, Kind: "session_start", SessionKey: "first"},
		{TEventMS: 2000, Kind: "session_start", SessionKey: "second"},
	}
	a := EstimateOffset(0, events, DefaultConfig())
	b := EstimateOffset(0, events, DefaultConfig())
	if a.OffsetMS != 2000 || b.OffsetMS != 2000 {
		t.Fatalf("tie offsets: %d, %d", a.OffsetMS, b.OffsetMS)
	}
	if a.Anchors[0] != b.Anchors[0] {
		t.Fatalf("tie-break must be reproducible: %+v vs %+v", a.Anchors[0], b.Anchors[0])
	}
}

func TestEstimateOffsetNoAnchorIsNeutral(t *testing.T) {
	events := []model.NormalizedEvent{
		event(1000, "playback"),
		event(2000, "heartbeat"),
	}
	a := EstimateOffset(500, events, DefaultConfig())
	if a.OffsetMS != 0 || a.DriftPPM != 0 || a.Score != 0 {
		t.Fatalf("neutral alignment expected, got %+v", a)
	}
	if a.Anchors == nil || len(a.Anchors) != 0 {
		t.Fatalf("neutral alignment carries an empty anchor list, got %v", a.Anchors)
	}
}

func TestEstimateOffsetEmptyEvents(t *testing.T) {
	a := EstimateOffset(0, nil, DefaultConfig())
	if a.OffsetMS != 0 || a.Score != 0 || len(a.Anchors) != 0 {
		t.Fatalf("neutral alignment expected, got %+v", a)
	}
}
