// Package export writes evaluation output as CSV files, one bets file
// and one arbitrage file per day, optionally mirrored to blob storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

var betsHeader = []string{
	"Sport", "Market", "Home Team", "Away Team", "Bet Team", "Side",
	"Line", "Odds", "Bookmaker",
	"Expected Value (%)", "Edge (%)", "Model Probability (%)", "Implied Probability (%)",
	"Commence Time",
}

var arbsHeader = []string{
	"Sport", "Market", "Home Team", "Away Team",
	"Home Bookmaker", "Home Odds", "Home Line", "Home Stake (%)",
	"Away Bookmaker", "Away Odds", "Away Line", "Away Stake (%)",
	"Profit (%)", "Commence Time",
}

// Exporter renders recommendations and arbitrage opportunities to CSV.
type Exporter struct {
	dir    string
	writer domain.BlobWriter
	logger *slog.Logger
}

// New creates an Exporter writing into dir. A non-nil writer mirrors
// each file to blob storage under exports/.
func New(dir string, writer domain.BlobWriter, logger *slog.Logger) *Exporter {
	return &Exporter{
		dir:    dir,
		writer: writer,
		logger: logger.With(slog.String("component", "export")),
	}
}

// WriteBets writes the day's recommendations to ev_bets_YYYYMMDD.csv
// and returns the file path.
func (e *Exporter) WriteBets(ctx context.Context, recs []domain.BetRecommendation, day time.Time) (string, error) {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, []string{
			rec.SportKey,
			string(rec.Market),
			rec.HomeTeam,
			rec.AwayTeam,
			rec.Team(),
			string(rec.Side),
			strconv.FormatFloat(rec.Line, 'f', 1, 64),
			strconv.Itoa(rec.Odds),
			rec.Bookmaker,
			pct2(rec.EV),
			pct2(rec.Edge),
			pct1(rec.ModelProb),
			pct1(rec.ImpliedProb),
			rec.CommenceTime.UTC().Format(time.RFC3339),
		})
	}
	return e.writeFile(ctx, fmt.Sprintf("ev_bets_%s.csv", day.UTC().Format("20060102")), betsHeader, rows)
}

// WriteArbs writes the day's arbitrage opportunities to
// arbs_YYYYMMDD.csv and returns the file path.
func (e *Exporter) WriteArbs(ctx context.Context, opps []domain.ArbitrageOpportunity, day time.Time) (string, error) {
	rows := make([][]string, 0, len(opps))
	for _, opp := range opps {
		rows = append(rows, []string{
			opp.SportKey,
			string(opp.Market),
			opp.HomeTeam,
			opp.AwayTeam,
			opp.Home.Bookmaker,
			strconv.Itoa(opp.Home.Odds),
			strconv.FormatFloat(opp.Home.Line, 'f', 1, 64),
			pct2(opp.Home.Stake),
			opp.Away.Bookmaker,
			strconv.Itoa(opp.Away.Odds),
			strconv.FormatFloat(opp.Away.Line, 'f', 1, 64),
			pct2(opp.Away.Stake),
			pct2(opp.Profit),
			opp.CommenceTime.UTC().Format(time.RFC3339),
		})
	}
	return e.writeFile(ctx, fmt.Sprintf("arbs_%s.csv", day.UTC().Format("20060102")), arbsHeader, rows)
}

// writeFile renders header+rows, writes the local file, and mirrors it
// to blob storage when a writer is configured.
func (e *Exporter) writeFile(ctx context.Context, name string, header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("export: write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("export: write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: flush: %w", err)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir %s: %w", e.dir, err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}

	if e.writer != nil {
		key := "exports/" + name
		if err := e.writer.Put(ctx, key, bytes.NewReader(buf.Bytes()), "text/csv"); err != nil {
			return path, fmt.Errorf("export: upload %s: %w", key, err)
		}
	}

	e.logger.InfoContext(ctx, "export written",
		slog.String("path", path),
		slog.Int("rows", len(rows)),
		slog.Bool("uploaded", e.writer != nil),
	)
	return path, nil
}

func pct2(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 2, 64)
}

func pct1(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64)
}
