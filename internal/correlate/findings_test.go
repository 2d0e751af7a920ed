package correlate

import (
	"strings"
	"testing"

	"screensync/internal/model"
)

func mismatch(kind string, expected, observed model.UXState, delta int64) model.Match {
	return model.Match{
		EventKind:     kind,
		EventTimeMS:   9000,
		ObsTimeMS:     8000,
		ObsState:      observed,
		ExpectedState: expected,
		DeltaMS:       delta,
		Match:         false,
	}
}

func matched(kind string) model.Match {
	return model.Match{EventKind: kind, Match: true}
}

func TestMismatchesProduceWarnFindings(t *testing.T) {
	matches := []model.Match{
		mismatch("buffering", model.StateBuffering, model.StatePlayback, 200),
		matched("playback"),
		mismatch("ad", model.StateAd, model.StateUnknown, 6000),
	}
	findings := FindingsFromMatches(matches)

	warns := 0
	for _, f := range findings {
		if f.Severity == model.SeverityWarn {
			warns++
		}
	}
	if warns != 2 {
		t.Fatalf("warn count: got %d, want one per failed match", warns)
	}
	if findings[0].Title != "Mismatch: buffering" {
		t.Fatalf("title: %q", findings[0].Title)
	}
	if !strings.Contains(findings[0].Description, "Delta=200ms") {
		t.Fatalf("description: %q", findings[0].Description)
	}
	if findings[0].Details["expected_state"] != "buffering" || findings[0].Details["obs_state"] != "playback" {
		t.Fatalf("details: %v", findings[0].Details)
	}
}

func TestCorrectMatchProducesNoFinding(t *testing.T) {
	findings := FindingsFromMatches([]model.Match{matched("playback")})
	// A correct playback match suppresses the coverage note too.
	if len(findings) != 0 {
		t.Fatalf("correct matches must produce no findings, got %d", len(findings))
	}
}

func TestCoverageNoteWhenNoPlaybackMatches(t *testing.T) {
	findings := FindingsFromMatches([]model.Match{matched("buffering")})
	if len(findings) != 1 {
		t.Fatalf("finding count: %d", len(findings))
	}
	f := findings[0]
	if f.Severity != model.SeverityInfo {
		t.Fatalf("coverage note severity: %s", f.Severity)
	}
	if f.Title != "No playback events matched" {
		t.Fatalf("coverage note title: %q", f.Title)
	}
}

func TestCoverageNoteCountsFailedPlaybackMatches(t *testing.T) {
	// A playback match record exists even though it failed, so the coverage
	// note stays out.
	findings := FindingsFromMatches([]model.Match{
		mismatch("playback", model.StatePlayback, model.StatePaused, 100),
	})
	for _, f := range findings {
		if f.Severity == model.SeverityInfo {
			t.Fatalf("coverage note must not appear when playback records exist")
		}
	}
}

func TestEmptyMatchesYieldOnlyCoverageNote(t *testing.T) {
	findings := FindingsFromMatches(nil)
	if len(findings) != 1 || findings[0].Severity != model.SeverityInfo {
		t.Fatalf("empty matches: %+v", findings)
	}
}

func TestFindingOrderIsEncounterThenSummary(t *testing.T) {
	matches := []model.Match{
		mismatch("ad", model.StateAd, model.StateUnknown, 1),
		mismatch("buffering", model.StateBuffering, model.StatePlayback, 2),
	}
	findings := FindingsFromMatches(matches)
	if len(findings) != 3 {
		t.Fatalf("finding count: %d", len(findings))
	}
	if findings[0].Title != "Mismatch: ad" || findings[1].Title != "Mismatch: buffering" {
		t.Fatalf("mismatch order: %q, %q", findings[0].Title, findings[1].Title)
	}
	if findings[2].Severity != model.SeverityInfo {
		t.Fatalf("summary finding must come last")
	}
}

func TestFindingDetailsExcludeRawPayload(t *testing.T) {
	m := mismatch("error", model.StateError, model.StateHome, 10)
	findings := FindingsFromMatches([]model.Match{m})
	if _, ok := findings[0].Details["raw"]; ok {
		t.Fatalf("raw payload must not leak into finding details")
	}
}
