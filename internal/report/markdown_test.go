package report

import (
	"strings"
	"testing"

	"screensync/internal/model"
)

func TestRenderMarkdownCleanRun(t *testing.T) {
	out := RenderMarkdown(Input{
		RunID: "nightly-1a2b3c4d",
		Alignment: model.Alignment{
			OffsetMS: 1000,
			Score:    1.0,
			Anchors: []model.AlignmentAnchor{
				{Kind: "session_start", TVideoMS: 0, TEventMS: 1000},
			},
		},
		Resolution: &model.ResolutionResult{
			SessionKey: "A",
			Candidates: []model.SessionCandidate{{SessionKey: "A", Score: 1.0}},
		},
	})
	for _, want := range []string{
		"# Correlation report: nightly-1a2b3c4d",
		"- offset_ms: 1000",
		"anchor: session_start video=0ms event=1000ms",
		"session_key: `A`",
		"No findings. Everything correlated.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderMarkdownFindingsTable(t *testing.T) {
	tv := int64(8000)
	te := int64(9000)
	out := RenderMarkdown(Input{
		RunID: "r",
		Findings: []model.Finding{
			{
				Severity:    model.SeverityWarn,
				Title:       "Mismatch: playback",
				Description: "Expected screen state `playback` but saw `paused`. Delta=1200ms",
				TVideoMS:    &tv,
				TEventMS:    &te,
				EvidenceFrames: []model.FrameRef{
					{Path: "evidence/8000.png", TVideoMS: 8000},
				},
			},
			{Severity: model.SeverityInfo, Title: "Coverage note", Description: "No playback events matched"},
		},
	})
	for _, want := range []string{
		"| WARN | Mismatch: playback | 8000 | 9000 |",
		"| INFO | Coverage note | - | - |",
		"Evidence for \"Mismatch: playback\": `evidence/8000.png` (t=8000ms)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderMarkdownNeutralAlignment(t *testing.T) {
	out := RenderMarkdown(Input{
		RunID:     "r",
		Alignment: model.Alignment{Anchors: []model.AlignmentAnchor{}},
	})
	if !strings.Contains(out, "anchors: none (neutral alignment)") {
		t.Fatalf("neutral alignment note missing:\n%s", out)
	}
}
