package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"screensync/internal/config"
	"screensync/internal/model"
)

// OpenSearchAdapter queries an index over the REST _search API. Hits are
// mapped through the tolerant field mapping; hits that fail it are skipped.
type OpenSearchAdapter struct {
	host     string
	index    string
	username string
	password string
	client   *http.Client
	logger   *slog.Logger
}

func NewOpenSearchAdapter(cfg config.OpenSearchConfig, logger *slog.Logger) *OpenSearchAdapter {
	return &OpenSearchAdapter{
		host:     strings.TrimRight(cfg.Host, "/"),
		index:    cfg.Index,
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (a *OpenSearchAdapter) Fetch(ctx context.Context, q Query) ([]model.NormalizedEvent, error) {
	size := q.Limit
	if size <= 0 {
		size = 10_000
	}
	body := map[string]any{
		"size": size,
		"sort": []any{map[string]any{"t_event_ms": map[string]any{"order": "asc"}}},
		"query": map[string]any{
			"range": map[string]any{
				"t_event_ms": map[string]any{"gte": q.TimeStartMS, "lte": q.TimeEndMS},
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_search", a.host, a.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.username != "" {
		req.SetBasicAuth(a.username, a.password)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, snippet)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]model.NormalizedEvent, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		ev, err := FromMap(hit.Source)
		if err != nil {
			if a.logger != nil {
				a.logger.Warn("skipping search hit", "index", a.index, "err", err)
			}
			continue
		}
		if !matchesQuery(ev, q) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
