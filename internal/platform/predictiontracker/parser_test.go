package predictiontracker

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmeltzer/linesight/internal/domain"
)

const fixturePage = `<html><body>
<h1>College Football Predictions</h1>
<pre>
Home            Visitor           Line   Lineopen  Lineavg  Linemedian  Linestd  Linemin  Linemax  Probwin  Probcover
Ohio St          Michigan          21.5   20.9      21.1     21.0        1.9      18.0     24.5     0.921    0.607
Duke             North Carolina    -3.5   -3.3      -3.4     -3.4        0.8      -5.0     -2.0     0.391    0.512
St. John's       Texas A&amp;M     7.0    6.5       6.8      6.9         1.1      5.0      9.0      0.702    0.544
Updated 11/3 at 9:00am
Bad Prob U       Nowhere St        2.5    2.0       2.2      2.1         0.5      1.0      3.5      1.250    0.500
Short Row U      Tiny Col          1.5    1.0       0.4
</pre>
<p>Line: consensus Las Vegas line in terms of the home team.</p>
</body></html>`

func TestParsePage(t *testing.T) {
	records, diags := ParsePage("americanfootball_ncaaf", fixturePage)

	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	want := []struct {
		home, away   string
		margin, prob float64
	}{
		{"Ohio St", "Michigan", 20.9, 0.921},
		{"Duke", "North Carolina", -3.3, 0.391},
		{"St John's", "Texas A&M", 6.5, 0.702},
	}
	for i, w := range want {
		rec := records[i]
		if rec.SportKey != "americanfootball_ncaaf" {
			t.Errorf("records[%d].SportKey = %q", i, rec.SportKey)
		}
		if rec.HomeTeam != w.home || rec.AwayTeam != w.away {
			t.Errorf("records[%d] teams = %q/%q, want %q/%q", i, rec.HomeTeam, rec.AwayTeam, w.home, w.away)
		}
		if math.Abs(rec.PredictedMargin-w.margin) > 1e-9 {
			t.Errorf("records[%d].PredictedMargin = %v, want %v", i, rec.PredictedMargin, w.margin)
		}
		if math.Abs(rec.HomeWinProb-w.prob) > 1e-9 {
			t.Errorf("records[%d].HomeWinProb = %v, want %v", i, rec.HomeWinProb, w.prob)
		}
	}

	// The updated-at stamp, the out-of-range probability, and the short
	// row each produce a diagnostic; headers and prose do not.
	if len(diags) != 3 {
		t.Fatalf("diagnostics = %d, want 3: %+v", len(diags), diags)
	}
	for _, d := range diags {
		if d.Kind != domain.DiagSkippedPrediction {
			t.Errorf("diagnostic kind = %q, want %q", d.Kind, domain.DiagSkippedPrediction)
		}
	}
	if !strings.Contains(diags[1].Detail, "outside (0,1)") {
		t.Errorf("out-of-range diagnostic detail = %q", diags[1].Detail)
	}
	if diags[1].HomeTeam != "Bad Prob U" || diags[1].AwayTeam != "Nowhere St" {
		t.Errorf("out-of-range diagnostic teams = %q/%q", diags[1].HomeTeam, diags[1].AwayTeam)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantDiag bool
		home     string
		away     string
		margin   float64
		prob     float64
	}{
		{
			name:   "home favorite",
			line:   "Alabama          Auburn            7.5    7.0       7.2      7.1         0.9      6.0      9.0      0.741    0.551",
			wantOK: true,
			home:   "Alabama", away: "Auburn", margin: 7.0, prob: 0.741,
		},
		{
			name:   "away favorite with leading minus",
			line:   "Vanderbilt       Georgia           -24.5  -25.0     -24.8    -24.5       1.2      -27.0    -22.0    0.051    0.498",
			wantOK: true,
			home:   "Vanderbilt", away: "Georgia", margin: -25.0, prob: 0.051,
		},
		{
			name: "header skipped silently",
			line: "Home            Visitor           Line   Lineopen",
		},
		{
			name: "blank skipped silently",
			line: "                    ",
		},
		{
			name: "prose without digits skipped silently",
			line: "All lines are in terms of points scored by the home team.",
		},
		{
			name:     "digits without two teams",
			line:     "Updated 11/3 at 9:00am",
			wantDiag: true,
		},
		{
			name:     "too few numeric columns",
			line:     "Rice             Tulsa             3.5    3.0",
			wantDiag: true,
		},
		{
			name:     "probability at one rejected",
			line:     "Sure Thing U     Longshot St       30.5   31.0      30.8     30.6        1.0      29.0     33.0     1.000    0.600",
			wantDiag: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, ok, diag := parseLine(tc.line)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v (diag %+v)", ok, tc.wantOK, diag)
			}
			if (diag != nil) != tc.wantDiag {
				t.Fatalf("diag = %+v, wantDiag %v", diag, tc.wantDiag)
			}
			if !tc.wantOK {
				return
			}
			if rec.HomeTeam != tc.home || rec.AwayTeam != tc.away {
				t.Errorf("teams = %q/%q, want %q/%q", rec.HomeTeam, rec.AwayTeam, tc.home, tc.away)
			}
			if math.Abs(rec.PredictedMargin-tc.margin) > 1e-9 {
				t.Errorf("margin = %v, want %v", rec.PredictedMargin, tc.margin)
			}
			if math.Abs(rec.HomeWinProb-tc.prob) > 1e-9 {
				t.Errorf("prob = %v, want %v", rec.HomeWinProb, tc.prob)
			}
		})
	}
}

func TestExtractPre(t *testing.T) {
	page := `<div><PRE class="tbl">first &amp; block</PRE><p>between</p><pre>second</pre></div>`
	blocks := extractPre(page)
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if blocks[0] != "first & block" {
		t.Errorf("blocks[0] = %q", blocks[0])
	}
	if blocks[1] != "second" {
		t.Errorf("blocks[1] = %q", blocks[1])
	}
}

func TestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		io.WriteString(w, fixturePage)
	}))
	defer srv.Close()

	client := New(Config{
		Sources: map[string]string{"basketball_ncaab": srv.URL},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	records, diags, err := client.Fetch(context.Background(), "basketball_ncaab")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotUA == "" || !strings.Contains(gotUA, "Mozilla") {
		t.Errorf("User-Agent = %q, want browser UA", gotUA)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if len(diags) != 3 {
		t.Errorf("diagnostics = %d, want 3", len(diags))
	}
	for i, rec := range records {
		if rec.SportKey != "basketball_ncaab" {
			t.Errorf("records[%d].SportKey = %q", i, rec.SportKey)
		}
		if rec.FetchedAt.IsZero() {
			t.Errorf("records[%d].FetchedAt is zero", i)
		}
	}
}

func TestFetchUnknownSport(t *testing.T) {
	client := New(Config{Sources: map[string]string{}}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, _, err := client.Fetch(context.Background(), "hockey_nhl"); err == nil {
		t.Fatal("expected error for unconfigured sport")
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(Config{
		Sources: map[string]string{"americanfootball_ncaaf": srv.URL},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, _, err := client.Fetch(context.Background(), "americanfootball_ncaaf"); err == nil {
		t.Fatal("expected error for HTTP 503")
	} else if !strings.Contains(err.Error(), "503") {
		t.Errorf("error = %v, want HTTP 503 mention", err)
	}
}
