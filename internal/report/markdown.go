// Package report renders run results for humans.
package report

import (
	"fmt"
	"os"
	"strings"

	"screensync/internal/model"
)

// EvidenceExporter extracts the frame nearest a video timestamp into a file.
// Frame re-decoding lives outside this module; a nil exporter skips evidence.
type EvidenceExporter interface {
	ExportFrame(videoPath string, tVideoMS int64, outDir string) (model.FrameRef, error)
}

type Input struct {
	RunID      string
	VideoPath  string
	Alignment  model.Alignment
	Findings   []model.Finding
	Resolution *model.ResolutionResult
	Notes      string
}

func RenderMarkdown(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Correlation report: %s\n\n", in.RunID)
	if in.VideoPath != "" {
		fmt.Fprintf(&b, "Video: `%s`\n\n", in.VideoPath)
	}

	b.WriteString("## Alignment\n\n")
	fmt.Fprintf(&b, "- offset_ms: %d\n", in.Alignment.OffsetMS)
	fmt.Fprintf(&b, "- drift_ppm: %g\n", in.Alignment.DriftPPM)
	fmt.Fprintf(&b, "- score: %.3f\n", in.Alignment.Score)
	if len(in.Alignment.Anchors) == 0 {
		b.WriteString("- anchors: none (neutral alignment)\n")
	}
	for _, a := range in.Alignment.Anchors {
		fmt.Fprintf(&b, "- anchor: %s video=%dms event=%dms\n", a.Kind, a.TVideoMS, a.TEventMS)
	}
	b.WriteString("\n")

	if in.Resolution != nil {
		b.WriteString("## Session resolution\n\n")
		if in.Resolution.SessionKey == "" {
			b.WriteString("No session resolved.\n")
		} else {
			fmt.Fprintf(&b, "- session_key: `%s`\n", in.Resolution.SessionKey)
			if in.Resolution.DeviceKey != "" {
				fmt.Fprintf(&b, "- device_key: `%s`\n", in.Resolution.DeviceKey)
			}
		}
		for _, c := range in.Resolution.Candidates {
			fmt.Fprintf(&b, "- candidate `%s` score=%.3f delta=%dms\n", c.SessionKey, c.Score, c.DeltaMS)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Findings\n\n")
	if len(in.Findings) == 0 {
		b.WriteString("No findings. Everything correlated.\n\n")
	} else {
		b.WriteString("| Severity | Title | Video (ms) | Event (ms) | Description |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, f := range in.Findings {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				strings.ToUpper(string(f.Severity)),
				f.Title,
				formatMS(f.TVideoMS),
				formatMS(f.TEventMS),
				strings.ReplaceAll(f.Description, "|", "\\|"),
			)
		}
		b.WriteString("\n")
		for _, f := range in.Findings {
			for _, fr := range f.EvidenceFrames {
				fmt.Fprintf(&b, "Evidence for %q: `%s` (t=%dms)\n\n", f.Title, fr.Path, fr.TVideoMS)
			}
		}
	}

	if in.Notes != "" {
		b.WriteString("## Notes\n\n")
		b.WriteString(in.Notes)
		b.WriteString("\n")
	}
	return b.String()
}

func WriteMarkdown(path string, in Input) error {
	return os.WriteFile(path, []byte(RenderMarkdown(in)), 0o644)
}

func formatMS(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
