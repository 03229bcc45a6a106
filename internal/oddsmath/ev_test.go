package oddsmath

import (
	"errors"
	"math"
	"testing"

	"github.com/dmeltzer/linesight/internal/domain"
)

func TestExpectedValue(t *testing.T) {
	tests := []struct {
		name      string
		modelProb float64
		odds      int
		want      float64
	}{
		{"strong edge on an underdog", 0.6, 150, 0.5},
		{"coin flip at even odds", 0.5, 100, 0.0},
		{"thin favorite", 0.55, -120, 0.55*(100.0/120.0) - 0.45},
		{"model below the price", 0.3, 150, 0.3*1.5 - 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpectedValue(tt.modelProb, tt.odds)
			if err != nil {
				t.Fatalf("ExpectedValue(%v, %d): %v", tt.modelProb, tt.odds, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ExpectedValue(%v, %d) = %v, want %v", tt.modelProb, tt.odds, got, tt.want)
			}
		})
	}
}

func TestExpectedValueBreakEven(t *testing.T) {
	// When the model agrees with the price exactly, EV is zero.
	for _, odds := range []int{-110, -150, 100, 135, 240} {
		implied, err := ImpliedProbability(odds)
		if err != nil {
			t.Fatalf("ImpliedProbability(%d): %v", odds, err)
		}
		ev, err := ExpectedValue(implied, odds)
		if err != nil {
			t.Fatalf("ExpectedValue(%v, %d): %v", implied, odds, err)
		}
		if math.Abs(ev) > 1e-12 {
			t.Errorf("ExpectedValue at implied probability for %d = %v, want 0", odds, ev)
		}
	}
}

func TestExpectedValueInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		modelProb float64
		odds      int
		sentinel  error
	}{
		{"zero probability", 0, 150, domain.ErrInvalidInput},
		{"certain probability", 1, 150, domain.ErrInvalidInput},
		{"above one", 1.2, 150, domain.ErrInvalidInput},
		{"nan probability", math.NaN(), 150, domain.ErrInvalidInput},
		{"malformed odds", 0.6, 50, domain.ErrInvalidOdds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExpectedValue(tt.modelProb, tt.odds); !errors.Is(err, tt.sentinel) {
				t.Errorf("ExpectedValue(%v, %d) error = %v, want %v", tt.modelProb, tt.odds, err, tt.sentinel)
			}
		})
	}
}

func TestEdge(t *testing.T) {
	if got := Edge(0.6, 0.5238095238); math.Abs(got-0.0761904762) > 1e-9 {
		t.Errorf("Edge(0.6, 0.5238...) = %v, want 0.0761904762", got)
	}
	if got := Edge(0.4, 0.5); got >= 0 {
		t.Errorf("Edge(0.4, 0.5) = %v, want negative", got)
	}
}
