package model

import (
	"errors"
	"fmt"
)

// UXState is the coarse classification of on-screen behavior at a point in time.
type UXState string

const (
	StateUnknown   UXState = "unknown"
	StateHome      UXState = "home"
	StateAppOpen   UXState = "app_open"
	StateBrowse    UXState = "browse"
	StatePlayback  UXState = "playback"
	StateBuffering UXState = "buffering"
	StateAd        UXState = "ad"
	StatePaused    UXState = "paused"
	StateError     UXState = "error"
)

// FrameRef points at a frame exported from the recording.
type FrameRef struct {
	Path     string `json:"path"`
	TVideoMS int64  `json:"t_video_ms"`
}

// Observation is one timestamped, classified snapshot of screen state derived
// from a sampled video frame.
type Observation struct {
	TVideoMS   int64          `json:"t_video_ms"`
	State      UXState        `json:"state"`
	Confidence float64        `json:"confidence"`
	Signals    map[string]any `json:"signals,omitempty"`
	OCRText    string         `json:"ocr_text,omitempty"`
	Frame      *FrameRef      `json:"frame,omitempty"`
}

// NormalizedEvent is a vendor-agnostic telemetry event. Adapters keep the raw
// payload intact and expose safe-to-share fields in Metadata.
type NormalizedEvent struct {
	TEventMS   int64          `json:"t_event_ms"`
	Kind       string         `json:"kind"`
	SessionKey string         `json:"session_key,omitempty"`
	DeviceKey  string         `json:"device_key,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// Validate rejects structurally invalid events at construction time.
func (e NormalizedEvent) Validate() error {
	if e.TEventMS < 0 {
		return fmt.Errorf("negative event timestamp: %d", e.TEventMS)
	}
	if e.Kind == "" {
		return errors.New("event kind is required")
	}
	return nil
}

// AlignmentAnchor records the evidence behind an offset estimate.
type AlignmentAnchor struct {
	Kind     string `json:"kind"`
	TVideoMS int64  `json:"t_video_ms"`
	TEventMS int64  `json:"t_event_ms"`
}

// Alignment maps video time to event time for one session.
// Convention: event_ms ~= video_ms + OffsetMS. Drift is never modeled.
type Alignment struct {
	OffsetMS int64             `json:"offset_ms"`
	DriftPPM float64           `json:"drift_ppm"`
	Anchors  []AlignmentAnchor `json:"anchors"`
	Score    float64           `json:"score"`
}

// Match pairs one telemetry event with its nearest-in-time observation plus a
// correctness verdict.
type Match struct {
	EventKind      string  `json:"event_kind"`
	EventTimeMS    int64   `json:"event_time_ms"`
	VideoTimeEstMS int64   `json:"video_time_est_ms"`
	ObsTimeMS      int64   `json:"obs_time_ms"`
	ObsState       UXState `json:"obs_state"`
	ExpectedState  UXState `json:"expected_state"`
	DeltaMS        int64   `json:"delta_ms"`
	Match          bool    `json:"match"`
	SessionKey     string  `json:"session_key,omitempty"`
	DeviceKey      string  `json:"device_key,omitempty"`
}

type FindingSeverity string

const (
	SeverityInfo  FindingSeverity = "info"
	SeverityWarn  FindingSeverity = "warn"
	SeverityError FindingSeverity = "error"
)

// Finding is a human-readable correlation discrepancy or coverage gap.
type Finding struct {
	Severity       FindingSeverity   `json:"severity"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	TVideoMS       *int64            `json:"t_video_ms,omitempty"`
	TEventMS       *int64            `json:"t_event_ms,omitempty"`
	EvidenceFrames []FrameRef        `json:"evidence_frames,omitempty"`
	RelatedEvents  []NormalizedEvent `json:"related_events,omitempty"`
	Details        map[string]any    `json:"details,omitempty"`
}

// SessionCandidate is one scored session group considered by the resolver.
type SessionCandidate struct {
	Score      float64 `json:"score"`
	SessionKey string  `json:"session_key"`
	DeviceKey  string  `json:"device_key,omitempty"`
	DeltaMS    int64   `json:"delta_ms"`
}

// ResolutionResult is the outcome of session identity inference. A zero
// SessionKey with a populated Rationale is a reportable outcome, not an error.
type ResolutionResult struct {
	SessionKey string             `json:"session_key,omitempty"`
	DeviceKey  string             `json:"device_key,omitempty"`
	Rationale  map[string]any     `json:"rationale"`
	Candidates []SessionCandidate `json:"candidates"`
}

// Command is a remote-control key press.
type Command string

const (
	CommandHome      Command = "HOME"
	CommandBack      Command = "BACK"
	CommandUp        Command = "UP"
	CommandDown      Command = "DOWN"
	CommandLeft      Command = "LEFT"
	CommandRight     Command = "RIGHT"
	CommandSelect    Command = "SELECT"
	CommandPlayPause Command = "PLAY_PAUSE"
)

// Action is a remote-control command send and its verification result.
type Action struct {
	TWallMS      int64          `json:"t_wall_ms"`
	Command      Command        `json:"command"`
	Attempt      int            `json:"attempt"`
	Verified     bool           `json:"verified"`
	Verification map[string]any `json:"verification,omitempty"`
}
