package oddsmath

import (
	"errors"
	"math"
	"testing"

	"github.com/dmeltzer/linesight/internal/domain"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name    string
		odds    int
		want    float64
		wantErr bool
	}{
		{"underdog +150", 150, 0.4, false},
		{"favorite -150", -150, 0.6, false},
		{"standard vig -110", -110, 0.5238095238, false},
		{"even +100", 100, 0.5, false},
		{"even -100", -100, 0.5, false},
		{"long shot +250", 250, 0.2857142857, false},
		{"heavy favorite -400", -400, 0.8, false},
		{"zero odds", 0, 0, true},
		{"positive below convention", 50, 0, true},
		{"negative below convention", -50, 0, true},
		{"just under +100", 99, 0, true},
		{"just under -100", -99, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImpliedProbability(tt.odds)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidOdds) {
					t.Fatalf("ImpliedProbability(%d) error = %v, want ErrInvalidOdds", tt.odds, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ImpliedProbability(%d) unexpected error: %v", tt.odds, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ImpliedProbability(%d) = %v, want %v", tt.odds, got, tt.want)
			}
			if got <= 0 || got >= 1 {
				t.Errorf("ImpliedProbability(%d) = %v, outside (0,1)", tt.odds, got)
			}
		})
	}
}

func TestImpliedProbabilityNoVigPair(t *testing.T) {
	// A fair +150/-150 pair carries no vig, so the two sides must sum to 1.
	under, err := ImpliedProbability(150)
	if err != nil {
		t.Fatalf("ImpliedProbability(150): %v", err)
	}
	fav, err := ImpliedProbability(-150)
	if err != nil {
		t.Fatalf("ImpliedProbability(-150): %v", err)
	}
	if sum := under + fav; math.Abs(sum-1.0) > 1e-12 {
		t.Errorf("no-vig pair sums to %v, want 1.0", sum)
	}

	// Real quotes carry vig: both sides of -110 sum above 1.
	side, err := ImpliedProbability(-110)
	if err != nil {
		t.Fatalf("ImpliedProbability(-110): %v", err)
	}
	if sum := side * 2; sum <= 1.0 {
		t.Errorf("vigged pair sums to %v, want > 1.0", sum)
	}
}

func TestPayoutMultiplier(t *testing.T) {
	tests := []struct {
		name    string
		odds    int
		want    float64
		wantErr bool
	}{
		{"underdog +150", 150, 1.5, false},
		{"favorite -150", -150, 0.6666666667, false},
		{"even +100", 100, 1.0, false},
		{"even -100", -100, 1.0, false},
		{"standard vig -110", -110, 0.9090909091, false},
		{"long shot +400", 400, 4.0, false},
		{"zero odds", 0, 0, true},
		{"below convention", 80, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PayoutMultiplier(tt.odds)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidOdds) {
					t.Fatalf("PayoutMultiplier(%d) error = %v, want ErrInvalidOdds", tt.odds, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PayoutMultiplier(%d) unexpected error: %v", tt.odds, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PayoutMultiplier(%d) = %v, want %v", tt.odds, got, tt.want)
			}
		})
	}
}
