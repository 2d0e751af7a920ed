package session

import (
	"testing"

	"screensync/internal/model"
)

func ev(t int64, kind, sessionKey, deviceKey string) model.NormalizedEvent {
	return model.NormalizedEvent{
		TEventMS:   t,
		Kind:       kind,
		SessionKey: sessionKey,
		DeviceKey:  deviceKey,
	}
}

func TestFindAppOpenTime(t *testing.T) {
	observations := []model.Observation{
		{TVideoMS: 0, State: model.StateHome},
		{TVideoMS: 1500, State: model.StateAppOpen},
		{TVideoMS: 2000, State: model.StateAppOpen},
	}
	got, ok := FindAppOpenTimeMS(observations)
	if !ok || got != 1500 {
		t.Fatalf("app open: got %d, ok=%v", got, ok)
	}
	if _, ok := FindAppOpenTimeMS(nil); ok {
		t.Fatalf("no observations must report not found")
	}
}

func TestInferPicksNearestSession(t *testing.T) {
	// Scenario: app open at video 0ms with zero offset; session A starts at
	// 1s, session B at 50s.
	events := []model.NormalizedEvent{
		ev(1000, "session_start", "A", "device-1"),
		ev(50_000, "session_start", "B", "device-2"),
		ev(2000, "playback", "A", "device-1"),
	}
	res := Infer(events, 0, model.Alignment{OffsetMS: 0}, DefaultConfig())
	if res.SessionKey != "A" {
		t.Fatalf("chosen session: %q", res.SessionKey)
	}
	if res.DeviceKey != "device-1" {
		t.Fatalf("device key: %q", res.DeviceKey)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("candidate count: %d", len(res.Candidates))
	}
	scoreA := res.Candidates[0].Score
	scoreB := res.Candidates[1].Score
	if scoreA <= scoreB {
		t.Fatalf("ranking: A=%v B=%v", scoreA, scoreB)
	}
	// score_A = 1 - 1000/30000 ~= 0.967; score_B clamps to 0.
	if diff := scoreA - (1.0 - 1000.0/30_000.0); diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("score A: %v", scoreA)
	}
	if scoreB != 0 {
		t.Fatalf("score B must clamp to 0, got %v", scoreB)
	}
}

func TestInferUsesAlignmentOffset(t *testing.T) {
	events := []model.NormalizedEvent{
		ev(11_000, "session_start", "A", ""),
	}
	res := Infer(events, 1000, model.Alignment{OffsetMS: 10_000}, DefaultConfig())
	if res.SessionKey != "A" {
		t.Fatalf("session: %q", res.SessionKey)
	}
	if res.Candidates[0].DeltaMS != 0 {
		t.Fatalf("delta with offset applied: %d", res.Candidates[0].DeltaMS)
	}
}

func TestInferIgnoresEventsWithoutSessionKey(t *testing.T) {
	events := []model.NormalizedEvent{
		ev(1000, "session_start", "", "device-1"),
	}
	res := Infer(events, 0, model.Alignment{}, DefaultConfig())
	if res.SessionKey != "" {
		t.Fatalf("keyless events must never be candidates, got %q", res.SessionKey)
	}
	if res.Rationale["reason"] != "no_session_start_found" {
		t.Fatalf("rationale: %v", res.Rationale)
	}
}

func TestInferDropsGroupsWithoutSessionStart(t *testing.T) {
	events := []model.NormalizedEvent{
		ev(1000, "playback", "A", ""),
		ev(2000, "heartbeat", "A", ""),
		ev(3000, "session_start", "B", ""),
	}
	res := Infer(events, 0, model.Alignment{}, DefaultConfig())
	if res.SessionKey != "B" {
		t.Fatalf("group without session_start must be dropped, got %q", res.SessionKey)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("candidate count: %d", len(res.Candidates))
	}
}

func TestInferNoQualifyingGroups(t *testing.T) {
	events := []model.NormalizedEvent{
		ev(1000, "playback", "A", ""),
	}
	res := Infer(events, 0, model.Alignment{}, DefaultConfig())
	if res.SessionKey != "" || res.DeviceKey != "" {
		t.Fatalf("expected null result, got %+v", res)
	}
	if res.Rationale["reason"] != "no_session_start_found" {
		t.Fatalf("rationale: %v", res.Rationale)
	}
	if res.Candidates == nil || len(res.Candidates) != 0 {
		t.Fatalf("candidates must be empty, got %v", res.Candidates)
	}
}

func TestInferTopKLimit(t *testing.T) {
	events := []model.NormalizedEvent{
		ev(1000, "session_start", "A", ""),
		ev(2000, "session_start", "B", ""),
		ev(3000, "session_start", "C", ""),
		ev(4000, "session_start", "D", ""),
	}
	res := Infer(events, 0, model.Alignment{}, Config{TopK: 2, WindowMS: 30_000})
	if len(res.Candidates) != 2 {
		t.Fatalf("top-k: got %d candidates", len(res.Candidates))
	}
	if res.SessionKey != "A" {
		t.Fatalf("best: %q", res.SessionKey)
	}
}

func TestInferDeterministicOrderOnEqualScores(t *testing.T) {
	events := []model.NormalizedEvent{
		ev(5000, "session_start", "zulu", ""),
		ev(5000, "session_start", "alpha", ""),
	}
	for i := 0; i < 10; i++ {
		res := Infer(events, 0, model.Alignment{}, DefaultConfig())
		if res.SessionKey != "alpha" {
			t.Fatalf("equal scores must rank by session key, got %q", res.SessionKey)
		}
		if res.Candidates[0].SessionKey != "alpha" || res.Candidates[1].SessionKey != "zulu" {
			t.Fatalf("candidate order: %+v", res.Candidates)
		}
	}
}

func TestInferNearestStartWithinGroup(t *testing.T) {
	events := []model.NormalizedEvent{
		ev(40_000, "session_start", "A", "far"),
		ev(2000, "session_start", "A", "near"),
	}
	res := Infer(events, 0, model.Alignment{}, DefaultConfig())
	if res.DeviceKey != "near" {
		t.Fatalf("nearest session_start within the group must win, got %q", res.DeviceKey)
	}
	if res.Candidates[0].DeltaMS != 2000 {
		t.Fatalf("delta: %d", res.Candidates[0].DeltaMS)
	}
}
