package engine

import (
	"sort"

	"github.com/dmeltzer/linesight/internal/domain"
)

// TopBets stably sorts recommendations descending by EV and truncates
// to n (n <= 0 keeps everything). Stability preserves input order on
// ties so identical inputs always rank identically.
func TopBets(recs []domain.BetRecommendation, n int) []domain.BetRecommendation {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].EV > recs[j].EV })
	if n > 0 && len(recs) > n {
		recs = recs[:n]
	}
	return recs
}

// TopArbs stably sorts opportunities descending by profit fraction and
// truncates to n.
func TopArbs(opps []domain.ArbitrageOpportunity, n int) []domain.ArbitrageOpportunity {
	sort.SliceStable(opps, func(i, j int) bool { return opps[i].Profit > opps[j].Profit })
	if n > 0 && len(opps) > n {
		opps = opps[:n]
	}
	return opps
}
