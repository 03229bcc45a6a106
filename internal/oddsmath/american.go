// Package oddsmath holds the pure probability transforms the engine is
// built on: American-odds conversions, the normal margin model, and
// expected value. Every function is deterministic and side-effect free.
package oddsmath

import (
	"fmt"

	"github.com/dmeltzer/linesight/internal/domain"
)

// ImpliedProbability converts American odds to the break-even win
// probability the price encodes, ignoring vig.
//
// Positive odds (underdog pricing): 100 / (odds + 100).
// Negative odds (favorite pricing): -odds / (-odds + 100).
func ImpliedProbability(odds int) (float64, error) {
	if err := validOdds(odds); err != nil {
		return 0, err
	}
	if odds > 0 {
		return 100.0 / (float64(odds) + 100.0), nil
	}
	return float64(-odds) / (float64(-odds) + 100.0), nil
}

// PayoutMultiplier returns profit per unit stake on a win: odds/100 for
// positive odds, 100/-odds for negative odds.
func PayoutMultiplier(odds int) (float64, error) {
	if err := validOdds(odds); err != nil {
		return 0, err
	}
	if odds > 0 {
		return float64(odds) / 100.0, nil
	}
	return 100.0 / float64(-odds), nil
}

// American odds magnitudes below 100 are not valid encodings.
func validOdds(odds int) error {
	if odds > -100 && odds < 100 {
		return fmt.Errorf("oddsmath: odds %d: %w", odds, domain.ErrInvalidOdds)
	}
	return nil
}
