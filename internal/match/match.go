package match

import (
	"fmt"
	"strings"

	"github.com/dmeltzer/linesight/internal/domain"
)

// Policy controls how an odds record that matches more than one
// prediction resolves.
type Policy string

const (
	// PolicyFirst keeps the first matching prediction in input order.
	PolicyFirst Policy = "first"
	// PolicyReject drops the pairing and keeps the game odds-only.
	PolicyReject Policy = "reject"
)

// Cross-source spellings that normalization alone cannot reconcile.
// Keys and values are normalized forms; the value is the spelling the
// other source's tokens can reach.
var defaultAliases = map[string]string{
	"central florida":    "ucf",
	"texas san antonio":  "utsa",
	"connecticut":        "uconn",
	"kent":               "kent st",
	"southern miss":      "southern mississippi",
	"mississippi":        "ole miss",
	"brigham young":      "byu",
	"southern methodist": "smu",
	"texas christian":    "tcu",
	"louisiana st":       "lsu",
	"texas el paso":      "utep",
	"nevada las vegas":   "unlv",
}

// Matcher pairs odds records with prediction records.
type Matcher struct {
	aliases map[string]string
	policy  Policy
}

// New builds a Matcher. Extra aliases overlay the built-in table;
// an empty policy defaults to PolicyFirst.
func New(extraAliases map[string]string, policy Policy) *Matcher {
	aliases := make(map[string]string, len(defaultAliases)+len(extraAliases))
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	for k, v := range extraAliases {
		aliases[Normalize(k)] = Normalize(v)
	}
	if policy == "" {
		policy = PolicyFirst
	}
	return &Matcher{aliases: aliases, policy: policy}
}

// SameTeam reports whether two names refer to the same team. The test
// is symmetric: canonical forms equal, or either token set contains
// the other.
func (m *Matcher) SameTeam(a, b string) bool {
	ca := m.canonical(a)
	cb := m.canonical(b)
	if ca == "" || cb == "" {
		return false
	}
	if ca == cb {
		return true
	}
	return tokenSuperset(ca, cb) || tokenSuperset(cb, ca)
}

func (m *Matcher) canonical(name string) string {
	n := Normalize(name)
	if c, ok := m.aliases[n]; ok {
		return c
	}
	return n
}

func tokenSuperset(super, sub string) bool {
	superToks := strings.Fields(super)
	subToks := strings.Fields(sub)
	if len(subToks) == 0 || len(subToks) > len(superToks) {
		return false
	}
	set := make(map[string]struct{}, len(superToks))
	for _, t := range superToks {
		set[t] = struct{}{}
	}
	for _, t := range subToks {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// MatchGames pairs every odds record with at most one prediction. A
// record with no matching prediction stays odds-only; a record with
// several resolves per the matcher's policy. Both conditions surface
// as diagnostics, as do predictions no odds record claimed. Output
// order follows input order so repeated runs are identical.
func (m *Matcher) MatchGames(odds []domain.GameOddsRecord, preds []domain.ModelPredictionRecord) ([]domain.MatchedGame, []domain.Diagnostic) {
	matched := make([]domain.MatchedGame, 0, len(odds))
	var diags []domain.Diagnostic
	claimed := make([]bool, len(preds))

	for _, rec := range odds {
		first := -1
		hits := 0
		for i := range preds {
			if m.SameTeam(rec.HomeTeam, preds[i].HomeTeam) && m.SameTeam(rec.AwayTeam, preds[i].AwayTeam) {
				if first < 0 {
					first = i
				}
				hits++
				claimed[i] = true
			}
		}

		switch {
		case hits == 0:
			matched = append(matched, domain.MatchedGame{Odds: rec})
			diags = append(diags, domain.Diagnostic{
				Kind:     domain.DiagOddsOnly,
				HomeTeam: rec.HomeTeam,
				AwayTeam: rec.AwayTeam,
				Detail:   "no prediction matched; arbitrage scan only",
			})
		case hits > 1 && m.policy == PolicyReject:
			matched = append(matched, domain.MatchedGame{Odds: rec})
			diags = append(diags, domain.Diagnostic{
				Kind:     domain.DiagAmbiguousMatch,
				HomeTeam: rec.HomeTeam,
				AwayTeam: rec.AwayTeam,
				Detail:   fmt.Sprintf("%d predictions matched; pairing rejected", hits),
			})
		default:
			p := preds[first]
			matched = append(matched, domain.MatchedGame{Odds: rec, Prediction: &p})
			if hits > 1 {
				diags = append(diags, domain.Diagnostic{
					Kind:     domain.DiagAmbiguousMatch,
					HomeTeam: rec.HomeTeam,
					AwayTeam: rec.AwayTeam,
					Detail:   fmt.Sprintf("%d predictions matched; kept first in input order", hits),
				})
			}
		}
	}

	for i := range preds {
		if !claimed[i] {
			diags = append(diags, domain.Diagnostic{
				Kind:     domain.DiagPredictionOnly,
				HomeTeam: preds[i].HomeTeam,
				AwayTeam: preds[i].AwayTeam,
				Detail:   "no odds record matched",
			})
		}
	}
	return matched, diags
}
