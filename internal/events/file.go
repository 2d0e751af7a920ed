package events

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"screensync/internal/model"
)

// FileAdapter reads NormalizedEvent records from a JSONL file. Lines that fail
// to decode are skipped with a warning; an unreadable file is an error.
type FileAdapter struct {
	Path   string
	Logger *slog.Logger
}

func (a *FileAdapter) Fetch(ctx context.Context, q Query) ([]model.NormalizedEvent, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	out := make([]model.NormalizedEvent, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev, err := FromJSONLine([]byte(line))
		if err != nil {
			if a.Logger != nil {
				a.Logger.Warn("skipping event line", "path", a.Path, "line", lineNo, "err", err)
			}
			continue
		}
		if !matchesQuery(ev, q) {
			continue
		}
		out = append(out, ev)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	return out, nil
}
