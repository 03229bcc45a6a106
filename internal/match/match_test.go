package match

import (
	"reflect"
	"testing"

	"github.com/dmeltzer/linesight/internal/domain"
)

func TestSameTeam(t *testing.T) {
	m := New(nil, PolicyFirst)
	tests := []struct {
		a    string
		b    string
		want bool
	}{
		{"Ohio State", "Ohio St", true},
		{"Iowa Hawkeyes", "Iowa", true},
		{"UCF Knights", "Central Florida", true},
		{"UConn Huskies", "Connecticut", true},
		{"Ole Miss Rebels", "Mississippi", true},
		{"Kent State Golden Flashes", "Kent", true},
		{"Texas A&M Aggies", "Texas A&M", true},
		{"Alabama", "Auburn", false},
		{"Georgia", "Florida", false},
		{"Ohio St", "Oklahoma St", false},
		{"", "Alabama", false},
	}
	for _, tt := range tests {
		if got := m.SameTeam(tt.a, tt.b); got != tt.want {
			t.Errorf("SameTeam(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if fwd, rev := m.SameTeam(tt.a, tt.b), m.SameTeam(tt.b, tt.a); fwd != rev {
			t.Errorf("SameTeam(%q, %q) = %v but reversed = %v", tt.a, tt.b, fwd, rev)
		}
	}
}

func TestSameTeamExtraAliases(t *testing.T) {
	m := New(map[string]string{"Florida Intl": "FIU"}, PolicyFirst)
	if !m.SameTeam("Florida Intl", "FIU Panthers") {
		t.Error("configured alias did not bridge the spellings")
	}
}

func mkOdds(home, away string) domain.GameOddsRecord {
	return domain.GameOddsRecord{
		SportKey: "americanfootball_ncaaf",
		HomeTeam: home,
		AwayTeam: away,
		Quotes: []domain.Quote{
			{Bookmaker: "draftkings", Market: domain.MarketMoneyline, Side: domain.SideHome, Odds: -150},
			{Bookmaker: "draftkings", Market: domain.MarketMoneyline, Side: domain.SideAway, Odds: 130},
		},
	}
}

func mkPred(home, away string, margin, prob float64) domain.ModelPredictionRecord {
	return domain.ModelPredictionRecord{
		SportKey:        "americanfootball_ncaaf",
		HomeTeam:        home,
		AwayTeam:        away,
		PredictedMargin: margin,
		HomeWinProb:     prob,
	}
}

func TestMatchGames(t *testing.T) {
	m := New(nil, PolicyFirst)

	odds := []domain.GameOddsRecord{
		mkOdds("Ohio State Buckeyes", "Michigan Wolverines"),
		mkOdds("Troy Trojans", "South Alabama Jaguars"),
	}
	preds := []domain.ModelPredictionRecord{
		mkPred("Ohio St", "Michigan", 7.5, 0.72),
		mkPred("Alabama", "Auburn", 10.0, 0.80),
	}

	matched, diags := m.MatchGames(odds, preds)
	if len(matched) != 2 {
		t.Fatalf("got %d matched games, want 2", len(matched))
	}
	if !matched[0].HasModel() {
		t.Error("first game should carry the prediction")
	} else if matched[0].Prediction.PredictedMargin != 7.5 {
		t.Errorf("first game margin = %v, want 7.5", matched[0].Prediction.PredictedMargin)
	}
	if matched[1].HasModel() {
		t.Error("second game matched nothing and should be odds-only")
	}

	var oddsOnly, predOnly int
	for _, d := range diags {
		switch d.Kind {
		case domain.DiagOddsOnly:
			oddsOnly++
		case domain.DiagPredictionOnly:
			predOnly++
		}
	}
	if oddsOnly != 1 {
		t.Errorf("got %d odds-only diagnostics, want 1", oddsOnly)
	}
	if predOnly != 1 {
		t.Errorf("got %d prediction-only diagnostics, want 1", predOnly)
	}
}

func TestMatchGamesAmbiguous(t *testing.T) {
	odds := []domain.GameOddsRecord{mkOdds("Texas Longhorns", "Oklahoma Sooners")}
	preds := []domain.ModelPredictionRecord{
		mkPred("Texas", "Oklahoma", 3.0, 0.60),
		mkPred("Texas", "Oklahoma", 4.5, 0.64),
	}

	t.Run("first policy keeps input order", func(t *testing.T) {
		m := New(nil, PolicyFirst)
		matched, diags := m.MatchGames(odds, preds)
		if !matched[0].HasModel() {
			t.Fatal("expected the first duplicate to be kept")
		}
		if matched[0].Prediction.PredictedMargin != 3.0 {
			t.Errorf("kept margin = %v, want 3.0 (first in input order)", matched[0].Prediction.PredictedMargin)
		}
		if !hasDiag(diags, domain.DiagAmbiguousMatch) {
			t.Error("ambiguity was not reported")
		}
	})

	t.Run("reject policy drops the pairing", func(t *testing.T) {
		m := New(nil, PolicyReject)
		matched, diags := m.MatchGames(odds, preds)
		if matched[0].HasModel() {
			t.Error("reject policy should leave the game odds-only")
		}
		if !hasDiag(diags, domain.DiagAmbiguousMatch) {
			t.Error("ambiguity was not reported")
		}
	})
}

func TestMatchGamesDeterministic(t *testing.T) {
	m := New(nil, PolicyFirst)
	odds := []domain.GameOddsRecord{
		mkOdds("Ohio State Buckeyes", "Michigan Wolverines"),
		mkOdds("Iowa Hawkeyes", "Nebraska Cornhuskers"),
		mkOdds("Troy Trojans", "South Alabama Jaguars"),
	}
	preds := []domain.ModelPredictionRecord{
		mkPred("Iowa", "Nebraska", -2.5, 0.42),
		mkPred("Ohio St", "Michigan", 7.5, 0.72),
	}

	m1, d1 := m.MatchGames(odds, preds)
	m2, d2 := m.MatchGames(odds, preds)
	if !reflect.DeepEqual(m1, m2) {
		t.Error("matched games differ between identical runs")
	}
	if !reflect.DeepEqual(d1, d2) {
		t.Error("diagnostics differ between identical runs")
	}
}

func hasDiag(diags []domain.Diagnostic, kind domain.DiagnosticKind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
