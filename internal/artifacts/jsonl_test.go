package artifacts

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"screensync/internal/model"
)

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.jsonl")
	in := []model.Match{
		{
			EventKind:      "playback",
			EventTimeMS:    9000,
			VideoTimeEstMS: 8000,
			ObsTimeMS:      8000,
			ObsState:       model.StatePlayback,
			ExpectedState:  model.StatePlayback,
			DeltaMS:        0,
			Match:          true,
			SessionKey:     "A",
		},
		{
			EventKind:      "pause",
			EventTimeMS:    15000,
			VideoTimeEstMS: 14000,
			ObsTimeMS:      12000,
			ObsState:       model.StatePlayback,
			ExpectedState:  model.StatePaused,
			DeltaMS:        2000,
			Match:          false,
		},
	}
	if err := WriteJSONL(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := ReadJSONL[model.Match](path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip changed records:\n in=%+v\nout=%+v", in, out)
	}
}

func TestReadJSONLSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.jsonl")
	raw := `{"t_video_ms": 0, "state": "app_open", "confidence": 0.85}

{"t_video_ms": 100, "state": "playback", "confidence": 0.85}
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	obs, err := ReadJSONL[model.Observation](path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("record count: %d", len(obs))
	}
	if obs[1].State != model.StatePlayback {
		t.Fatalf("state: %q", obs[1].State)
	}
}

func TestReadJSONLRejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if _, err := ReadJSONL[model.Observation](path); err == nil {
		t.Fatalf("malformed artifact line must fail the read")
	}
}

func TestWriteJSONEndsWithNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alignment.json")
	if err := WriteJSON(path, map[string]int64{"offset_ms": 1000}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Fatalf("file must end with a newline")
	}
}
