package oddsmath

import (
	"fmt"
	"math"

	"github.com/dmeltzer/linesight/internal/domain"
)

// ExpectedValue returns the expected profit per unit stake of backing
// a side with win probability modelProb at the given American odds:
// modelProb * payout - (1 - modelProb).
func ExpectedValue(modelProb float64, odds int) (float64, error) {
	if modelProb <= 0 || modelProb >= 1 || math.IsNaN(modelProb) {
		return 0, fmt.Errorf("oddsmath: model probability %v: %w", modelProb, domain.ErrInvalidInput)
	}
	payout, err := PayoutMultiplier(odds)
	if err != nil {
		return 0, err
	}
	return modelProb*payout - (1 - modelProb), nil
}

// Edge returns model probability minus implied probability.
func Edge(modelProb, impliedProb float64) float64 {
	return modelProb - impliedProb
}
