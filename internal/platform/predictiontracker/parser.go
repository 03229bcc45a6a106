package predictiontracker

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/dmeltzer/linesight/internal/domain"
)

// The prediction pages publish fixed-width text tables inside <pre>
// blocks. Each data line carries two team names followed by numeric
// columns; the second numeric column is the predicted home margin
// (positive = home favored) and the second-to-last is the model home
// win probability.

// ParsePage extracts every <pre> block and parses its data lines.
// Structurally recognizable lines that fail validation surface as
// diagnostics; headers, prose, and blank lines are skipped silently.
func ParsePage(sportKey, page string) ([]domain.ModelPredictionRecord, []domain.Diagnostic) {
	var records []domain.ModelPredictionRecord
	var diags []domain.Diagnostic
	for _, block := range extractPre(page) {
		for _, line := range strings.Split(block, "\n") {
			rec, ok, diag := parseLine(line)
			if diag != nil {
				diags = append(diags, *diag)
			}
			if !ok {
				continue
			}
			rec.SportKey = sportKey
			records = append(records, rec)
		}
	}
	return records, diags
}

// extractPre returns the unescaped text content of every <pre> element.
func extractPre(page string) []string {
	var blocks []string
	lower := strings.ToLower(page)
	pos := 0
	for {
		open := strings.Index(lower[pos:], "<pre")
		if open < 0 {
			break
		}
		open += pos
		start := strings.Index(lower[open:], ">")
		if start < 0 {
			break
		}
		start += open + 1
		end := strings.Index(lower[start:], "</pre")
		if end < 0 {
			break
		}
		end += start
		blocks = append(blocks, html.UnescapeString(page[start:end]))
		pos = end
	}
	return blocks
}

// parseLine parses one table line. The bool reports whether a record
// was produced; a non-nil diagnostic marks a line that looked like data
// but failed validation.
func parseLine(line string) (domain.ModelPredictionRecord, bool, *domain.Diagnostic) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.Contains(line, "Home") || strings.Contains(line, "Visitor") {
		return domain.ModelPredictionRecord{}, false, nil
	}

	numStart := numericStart(line)
	if numStart < 0 {
		// No numeric section at all: prose, not a data row.
		return domain.ModelPredictionRecord{}, false, nil
	}

	teams := splitTeams(line[:numStart])
	if len(teams) < 2 {
		return domain.ModelPredictionRecord{}, false, skipDiag("", "", "line has no separable team names: "+snippet(trimmed))
	}
	home, away := teams[0], teams[1]

	fields := strings.Fields(line[numStart:])
	if len(fields) < 6 {
		return domain.ModelPredictionRecord{}, false, skipDiag(home, away, fmt.Sprintf("only %d numeric columns", len(fields)))
	}

	margin, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.IsNaN(margin) || math.IsInf(margin, 0) {
		return domain.ModelPredictionRecord{}, false, skipDiag(home, away, "margin column "+fields[1]+" is not a finite number")
	}
	prob, err := strconv.ParseFloat(fields[len(fields)-2], 64)
	if err != nil {
		return domain.ModelPredictionRecord{}, false, skipDiag(home, away, "win probability column "+fields[len(fields)-2]+" did not parse")
	}
	if !(prob > 0 && prob < 1) {
		return domain.ModelPredictionRecord{}, false, skipDiag(home, away, fmt.Sprintf("win probability %v outside (0,1)", prob))
	}

	return domain.ModelPredictionRecord{
		HomeTeam:        home,
		AwayTeam:        away,
		PredictedMargin: margin,
		HomeWinProb:     prob,
	}, true, nil
}

// numericStart finds where the numeric columns begin: the first digit,
// or the minus sign directly preceding one.
func numericStart(line string) int {
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c >= '0' && c <= '9' {
			return i
		}
		if c == '-' && i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
			return i
		}
	}
	return -1
}

// splitTeams breaks the team-name section on runs of two or more
// spaces, the column separator of the fixed-width table. Periods are
// dropped so "St. John's" and "St Johns" read the same downstream.
func splitTeams(s string) []string {
	parts := strings.Split(strings.TrimRight(s, " \t-"), "  ")
	teams := make([]string, 0, 2)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		teams = append(teams, strings.ReplaceAll(p, ".", ""))
	}
	return teams
}

func skipDiag(home, away, detail string) *domain.Diagnostic {
	return &domain.Diagnostic{
		Kind:     domain.DiagSkippedPrediction,
		HomeTeam: home,
		AwayTeam: away,
		Detail:   detail,
	}
}

func snippet(s string) string {
	if len(s) > 60 {
		return s[:60]
	}
	return s
}
