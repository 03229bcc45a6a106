// Package predictiontracker fetches and parses the plain-text model
// prediction tables published at thepredictiontracker.com.
package predictiontracker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

const (
	defaultTimeout = 20 * time.Second

	// The site serves an error page to clients without a browser UA.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Config carries the per-sport page URLs and HTTP settings.
type Config struct {
	// Sources maps a sport key to the prediction page URL.
	Sources map[string]string
	Timeout time.Duration
}

// Client downloads prediction pages over HTTP.
type Client struct {
	sources    map[string]string
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a Client. A zero timeout falls back to the default.
func New(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		sources:    cfg.Sources,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "predictiontracker")),
	}
}

// Fetch downloads and parses the prediction page for one sport. Parsed
// records are stamped with the fetch time; lines that looked like data
// but failed validation come back as diagnostics.
func (c *Client) Fetch(ctx context.Context, sportKey string) ([]domain.ModelPredictionRecord, []domain.Diagnostic, error) {
	url, ok := c.sources[sportKey]
	if !ok {
		return nil, nil, fmt.Errorf("predictiontracker: no prediction source for sport %q: %w", sportKey, domain.ErrNotFound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("predictiontracker: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("predictiontracker: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("predictiontracker: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("predictiontracker: fetch %s: HTTP %d", url, resp.StatusCode)
	}

	records, diags := ParsePage(sportKey, string(body))
	fetchedAt := time.Now().UTC()
	for i := range records {
		records[i].FetchedAt = fetchedAt
	}

	c.logger.InfoContext(ctx, "predictions fetched",
		slog.String("sport", sportKey),
		slog.Int("records", len(records)),
		slog.Int("skipped_lines", len(diags)),
	)
	return records, diags, nil
}
