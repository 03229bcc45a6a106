package oddsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubLimiter struct {
	allow bool
	err   error
}

func (s *stubLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return s.allow, s.err
}

type stubQuota struct {
	last domain.RateLimits
	set  bool
}

func (s *stubQuota) SetQuota(_ context.Context, l domain.RateLimits) error {
	s.last = l
	s.set = true
	return nil
}

func (s *stubQuota) GetQuota(context.Context) (domain.RateLimits, error) {
	return s.last, nil
}

func fptr(f float64) *float64 { return &f }

func TestEventToOddsRecord(t *testing.T) {
	ev := APIEvent{
		ID:           "evt1",
		SportKey:     "americanfootball_ncaaf",
		HomeTeam:     "Ohio State Buckeyes",
		AwayTeam:     "Michigan Wolverines",
		CommenceTime: time.Date(2025, 11, 29, 17, 0, 0, 0, time.UTC),
		Bookmakers: []APIBookmaker{
			{
				Key:   "draftkings",
				Title: "DraftKings",
				Markets: []APIMarket{
					{Key: "h2h", Outcomes: []APIOutcome{
						{Name: "Ohio State Buckeyes", Price: -150},
						{Name: "Michigan Wolverines", Price: 130},
						{Name: "Draw", Price: 2000},
					}},
					{Key: "spreads", Outcomes: []APIOutcome{
						{Name: "Ohio State Buckeyes", Price: -110, Point: fptr(-6.5)},
						{Name: "Michigan Wolverines", Price: -110, Point: fptr(6.5)},
					}},
					{Key: "totals", Outcomes: []APIOutcome{
						{Name: "Over", Price: -110, Point: fptr(48.5)},
					}},
				},
			},
		},
	}

	rec := ev.ToOddsRecord()
	if rec.HomeTeam != "Ohio State Buckeyes" || rec.SportKey != "americanfootball_ncaaf" {
		t.Fatalf("record identity = %s / %s", rec.SportKey, rec.HomeTeam)
	}
	// Draw outcome and totals market are dropped.
	if len(rec.Quotes) != 4 {
		t.Fatalf("quotes = %d, want 4", len(rec.Quotes))
	}
	q := rec.Quotes[0]
	if q.Bookmaker != "DraftKings" || q.Market != domain.MarketMoneyline || q.Side != domain.SideHome || q.Odds != -150 {
		t.Errorf("first quote = %+v", q)
	}
	spread := rec.Quotes[2]
	if spread.Market != domain.MarketSpread || spread.Side != domain.SideHome || spread.Line != -6.5 {
		t.Errorf("home spread quote = %+v", spread)
	}
	if rec.Quotes[3].Line != 6.5 {
		t.Errorf("away spread line = %v, want 6.5", rec.Quotes[3].Line)
	}
}

func TestEventToOddsRecordDropsSpreadWithoutPoint(t *testing.T) {
	ev := APIEvent{
		HomeTeam: "Duke Blue Devils",
		AwayTeam: "North Carolina Tar Heels",
		Bookmakers: []APIBookmaker{
			{Title: "FanDuel", Markets: []APIMarket{
				{Key: "spreads", Outcomes: []APIOutcome{
					{Name: "Duke Blue Devils", Price: -110},
				}},
			}},
		},
	}
	if got := len(ev.ToOddsRecord().Quotes); got != 0 {
		t.Fatalf("quotes = %d, want 0 (spread outcome without point)", got)
	}
}

func TestFilterWindow(t *testing.T) {
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	mk := func(offset time.Duration) APIEvent {
		return APIEvent{CommenceTime: now.Add(offset)}
	}
	events := []APIEvent{
		mk(-time.Hour),        // already started
		mk(0),                 // exactly now
		mk(time.Hour),         // kept
		mk(6 * 24 * time.Hour),  // kept
		mk(7 * 24 * time.Hour),  // kept, boundary inclusive
		mk(8 * 24 * time.Hour),  // beyond window
	}
	got := filterWindow(events, now, 7)
	if len(got) != 3 {
		t.Fatalf("kept %d events, want 3", len(got))
	}
	if got[0].CommenceTime != now.Add(time.Hour) {
		t.Errorf("first kept = %v", got[0].CommenceTime)
	}
}

func TestScoreEventToGameResult(t *testing.T) {
	base := APIScoreEvent{
		SportKey: "americanfootball_ncaaf",
		HomeTeam: "Georgia Bulldogs",
		AwayTeam: "Alabama Crimson Tide",
	}

	t.Run("completed", func(t *testing.T) {
		ev := base
		ev.Completed = true
		ev.Scores = []APIScore{
			{Name: "Georgia Bulldogs", Score: "27"},
			{Name: "Alabama Crimson Tide", Score: "24"},
		}
		res, ok := ev.ToGameResult()
		if !ok {
			t.Fatal("conversion rejected a well-formed score event")
		}
		if res.HomeScore != 27 || res.AwayScore != 24 || !res.Completed {
			t.Errorf("result = %+v", res)
		}
		if res.HomeMargin() != 3 {
			t.Errorf("margin = %d, want 3", res.HomeMargin())
		}
	})

	t.Run("in progress", func(t *testing.T) {
		res, ok := base.ToGameResult()
		if !ok || res.Completed {
			t.Fatalf("in-progress event: ok=%v completed=%v", ok, res.Completed)
		}
	})

	t.Run("completed without scores", func(t *testing.T) {
		ev := base
		ev.Completed = true
		if _, ok := ev.ToGameResult(); ok {
			t.Fatal("completed event without scores should be rejected")
		}
	})

	t.Run("unparseable score", func(t *testing.T) {
		ev := base
		ev.Completed = true
		ev.Scores = []APIScore{
			{Name: "Georgia Bulldogs", Score: "n/a"},
			{Name: "Alabama Crimson Tide", Score: "24"},
		}
		if _, ok := ev.ToGameResult(); ok {
			t.Fatal("unparseable score should be rejected")
		}
	})
}

func TestOddsFetch(t *testing.T) {
	commence := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)
	payload := fmt.Sprintf(`[{
		"id": "evt1",
		"sport_key": "americanfootball_ncaaf",
		"commence_time": %q,
		"home_team": "Ohio State Buckeyes",
		"away_team": "Michigan Wolverines",
		"bookmakers": [{
			"key": "draftkings",
			"title": "DraftKings",
			"markets": [
				{"key": "h2h", "outcomes": [
					{"name": "Ohio State Buckeyes", "price": -150},
					{"name": "Michigan Wolverines", "price": 130}
				]},
				{"key": "spreads", "outcomes": [
					{"name": "Ohio State Buckeyes", "price": -110, "point": -6.5},
					{"name": "Michigan Wolverines", "price": -110, "point": 6.5}
				]}
			]
		}]
	}]`, commence)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apiKey") != "test-key" {
			t.Errorf("apiKey = %q", q.Get("apiKey"))
		}
		if q.Get("markets") != "h2h,spreads" {
			t.Errorf("markets = %q", q.Get("markets"))
		}
		if q.Get("oddsFormat") != "american" {
			t.Errorf("oddsFormat = %q", q.Get("oddsFormat"))
		}
		w.Header().Set("x-requests-remaining", "480")
		w.Header().Set("x-requests-used", "20")
		fmt.Fprint(w, payload)
	}))
	defer srv.Close()

	quota := &stubQuota{}
	c := New(Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		RateLimit:  10,
		RateWindow: time.Minute,
	}, &stubLimiter{allow: true}, quota, testLogger())

	records, err := c.Odds(context.Background(), "americanfootball_ncaaf")
	if err != nil {
		t.Fatalf("Odds: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if len(records[0].Quotes) != 4 {
		t.Errorf("quotes = %d, want 4", len(records[0].Quotes))
	}
	if !quota.set || quota.last.RequestsRemaining != 480 || quota.last.RequestsUsed != 20 {
		t.Errorf("quota recorded = %+v", quota.last)
	}
}

func TestOddsRateLimited(t *testing.T) {
	c := New(Config{
		BaseURL:    "http://unreachable.invalid",
		APIKey:     "k",
		RateLimit:  1,
		RateWindow: time.Minute,
	}, &stubLimiter{allow: false}, nil, testLogger())

	_, err := c.Odds(context.Background(), "americanfootball_ncaaf")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		want error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, domain.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"not found", http.StatusNotFound, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(tt.code, []byte("nope"))
			if !errors.Is(err, tt.want) {
				t.Fatalf("checkStatus(%d) = %v, want %v", tt.code, err, tt.want)
			}
		})
	}

	if err := checkStatus(http.StatusOK, nil); err != nil {
		t.Errorf("200 mapped to error: %v", err)
	}
	if err := checkStatus(http.StatusInternalServerError, []byte("boom")); err == nil {
		t.Error("500 not mapped to error")
	}
}
