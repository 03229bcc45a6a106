package oddsmath

import (
	"fmt"
	"math"

	"github.com/dmeltzer/linesight/internal/domain"
)

// DefaultSigma is the standard deviation of the scoring-margin model.
const DefaultSigma = 12.0

// CoverProbability returns the probability that the home side covers
// its posted line, modeling the final margin as
// Normal(predictedMargin, sigma). Lines follow sportsbook convention,
// favorite negative: home covers line L when margin > -L, so the
// result is Phi((predictedMargin + line) / sigma). Pushes are treated
// as zero-probability events under the continuous model.
//
// For the away side, call with the negated predicted margin and the
// away quote's own posted line.
func CoverProbability(predictedMargin, line, sigma float64) (float64, error) {
	if sigma <= 0 || math.IsNaN(sigma) {
		return 0, fmt.Errorf("oddsmath: sigma %v: %w", sigma, domain.ErrInvalidInput)
	}
	if math.IsNaN(predictedMargin) || math.IsInf(predictedMargin, 0) {
		return 0, fmt.Errorf("oddsmath: predicted margin %v: %w", predictedMargin, domain.ErrInvalidInput)
	}
	if math.IsNaN(line) || math.IsInf(line, 0) {
		return 0, fmt.Errorf("oddsmath: line %v: %w", line, domain.ErrInvalidInput)
	}
	return NormalCDF((predictedMargin + line) / sigma), nil
}
