// Package oddsapi is the REST client for The Odds API v4, the source of
// bookmaker odds and final scores.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

const limiterKey = "oddsapi"

// Config holds client parameters. Zero values fall back to the API
// defaults used throughout.
type Config struct {
	BaseURL    string
	APIKey     string
	Regions    string
	WindowDays int
	Timeout    time.Duration
	RateLimit  int
	RateWindow time.Duration
}

// Client fetches odds and scores. Every response's quota headers are
// recorded through the quota cache; the rate limiter gates each call.
// Both collaborators may be nil, which disables that behavior.
type Client struct {
	baseURL    string
	apiKey     string
	regions    string
	windowDays int
	rateLimit  int
	rateWindow time.Duration
	httpClient *http.Client
	limiter    domain.RateLimiter
	quota      domain.QuotaCache
	logger     *slog.Logger
}

// New creates an Odds API client.
func New(cfg Config, limiter domain.RateLimiter, quota domain.QuotaCache, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.the-odds-api.com/v4"
	}
	if cfg.Regions == "" {
		cfg.Regions = "us"
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 7
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		regions:    cfg.Regions,
		windowDays: cfg.WindowDays,
		rateLimit:  cfg.RateLimit,
		rateWindow: cfg.RateWindow,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		quota:      quota,
		logger:     logger.With(slog.String("component", "oddsapi")),
	}
}

// Odds fetches upcoming games with moneyline and spread quotes for one
// sport. Games commencing outside the configured window are dropped.
func (c *Client) Odds(ctx context.Context, sportKey string) ([]domain.GameOddsRecord, error) {
	if err := c.admit(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.regions)
	params.Set("markets", "h2h,spreads")
	params.Set("oddsFormat", "american")
	params.Set("dateFormat", "iso")

	body, err := c.doGet(ctx, "/sports/"+url.PathEscape(sportKey)+"/odds", params)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: fetch odds %s: %w", sportKey, err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("oddsapi: decode odds: %w", err)
	}

	fetched := len(events)
	events = filterWindow(events, time.Now().UTC(), c.windowDays)

	records := make([]domain.GameOddsRecord, 0, len(events))
	for i := range events {
		records = append(records, events[i].ToOddsRecord())
	}

	c.logger.InfoContext(ctx, "odds fetched",
		slog.String("sport", sportKey),
		slog.Int("games", len(records)),
		slog.Int("outside_window", fetched-len(events)),
	)
	return records, nil
}

// Scores fetches recent and upcoming game results for one sport.
// daysFrom controls how far back completed games are included (the API
// accepts 1 to 3).
func (c *Client) Scores(ctx context.Context, sportKey string, daysFrom int) ([]domain.GameResult, error) {
	if err := c.admit(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	if daysFrom > 0 {
		params.Set("daysFrom", strconv.Itoa(daysFrom))
	}
	params.Set("dateFormat", "iso")

	body, err := c.doGet(ctx, "/sports/"+url.PathEscape(sportKey)+"/scores", params)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: fetch scores %s: %w", sportKey, err)
	}

	var events []APIScoreEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("oddsapi: decode scores: %w", err)
	}

	results := make([]domain.GameResult, 0, len(events))
	for i := range events {
		res, ok := events[i].ToGameResult()
		if !ok {
			c.logger.WarnContext(ctx, "score event missing parseable scores",
				slog.String("home", events[i].HomeTeam),
				slog.String("away", events[i].AwayTeam),
			)
			continue
		}
		results = append(results, res)
	}

	c.logger.InfoContext(ctx, "scores fetched",
		slog.String("sport", sportKey),
		slog.Int("games", len(results)),
	)
	return results, nil
}

// admit consults the rate limiter before an outbound call.
func (c *Client) admit(ctx context.Context) error {
	if c.limiter == nil || c.rateLimit <= 0 {
		return nil
	}
	ok, err := c.limiter.Allow(ctx, limiterKey, c.rateLimit, c.rateWindow)
	if err != nil {
		return fmt.Errorf("oddsapi: rate limiter: %w", err)
	}
	if !ok {
		return fmt.Errorf("oddsapi: outbound call budget exhausted: %w", domain.ErrRateLimited)
	}
	return nil
}

// doGet sends a GET request and returns the response body. Quota
// headers are recorded even on error responses, which still carry them.
func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.recordQuota(ctx, resp.Header)

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// recordQuota parses the x-requests-remaining / x-requests-used headers
// and stores them through the quota cache.
func (c *Client) recordQuota(ctx context.Context, h http.Header) {
	if c.quota == nil {
		return
	}
	remaining, errR := strconv.Atoi(h.Get("x-requests-remaining"))
	used, errU := strconv.Atoi(h.Get("x-requests-used"))
	if errR != nil && errU != nil {
		return
	}
	limits := domain.RateLimits{
		RequestsRemaining: remaining,
		RequestsUsed:      used,
		ObservedAt:        time.Now().UTC(),
	}
	if err := c.quota.SetQuota(ctx, limits); err != nil {
		c.logger.WarnContext(ctx, "failed to record quota", slog.String("error", err.Error()))
	}
}

// checkStatus maps non-2xx status codes to appropriate domain errors.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200]
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
