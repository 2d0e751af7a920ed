package correlate

import (
	"fmt"

	"screensync/internal/model"
)

// FindingsFromMatches derives findings from match records. Each failed match
// yields one WARN finding in encounter order; a correct match yields nothing.
// Summary findings are appended after all mismatches.
func FindingsFromMatches(matches []model.Match) []model.Finding {
	findings := make([]model.Finding, 0)
	playbackSeen := 0

	for _, m := range matches {
		if m.EventKind == "playback" {
			playbackSeen++
		}
		if m.Match {
			continue
		}
		tVideo := m.ObsTimeMS
		tEvent := m.EventTimeMS
		findings = append(findings, model.Finding{
			Severity: model.SeverityWarn,
			Title:    fmt.Sprintf("Mismatch: %s", m.EventKind),
			Description: fmt.Sprintf("Expected screen state `%s` but saw `%s`. Delta=%dms",
				m.ExpectedState, m.ObsState, m.DeltaMS),
			TVideoMS: &tVideo,
			TEventMS: &tEvent,
			Details:  matchDetails(m),
		})
	}

	if playbackSeen == 0 {
		findings = append(findings, model.Finding{
			Severity:    model.SeverityInfo,
			Title:       "No playback events matched",
			Description: "No events of kind 'playback' were matched to screen playback state. This may be expected if your adapter does not emit that kind yet.",
		})
	}

	return findings
}

// matchDetails flattens a match record for the finding payload. Raw event
// payloads are excluded from findings.
func matchDetails(m model.Match) map[string]any {
	return map[string]any{
		"event_kind":        m.EventKind,
		"event_time_ms":     m.EventTimeMS,
		"video_time_est_ms": m.VideoTimeEstMS,
		"obs_time_ms":       m.ObsTimeMS,
		"obs_state":         string(m.ObsState),
		"expected_state":    string(m.ExpectedState),
		"delta_ms":          m.DeltaMS,
		"match":             m.Match,
		"session_key":       m.SessionKey,
		"device_key":        m.DeviceKey,
	}
}
