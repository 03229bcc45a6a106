package oddsmath

import (
	"errors"
	"math"
	"testing"

	"github.com/dmeltzer/linesight/internal/domain"
)

func TestCoverProbability(t *testing.T) {
	tests := []struct {
		name   string
		margin float64
		line   float64
		sigma  float64
		want   float64
		tol    float64
	}{
		{"pick em", 0, 0, 12, 0.5, 1e-9},
		{"model matches the line", 7, -7, 12, 0.5, 1e-9},
		{"model clears a short line", 7, -3, 12, 0.6306, 1e-4},
		{"model short of the line", 3, -7, 12, 0.3694, 1e-4},
		{"underdog getting points", -4, 6.5, 12, 0.5825, 1e-4},
		{"tighter sigma sharpens", 7, -3, 6, 0.7475, 1e-4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoverProbability(tt.margin, tt.line, tt.sigma)
			if err != nil {
				t.Fatalf("CoverProbability(%v, %v, %v): %v", tt.margin, tt.line, tt.sigma, err)
			}
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("CoverProbability(%v, %v, %v) = %v, want %v", tt.margin, tt.line, tt.sigma, got, tt.want)
			}
		})
	}
}

func TestCoverProbabilitySidesSumToOne(t *testing.T) {
	// Home at its line plus away at the negated line exhausts the
	// outcome space under the continuous model.
	home, err := CoverProbability(7, -7.5, 12)
	if err != nil {
		t.Fatalf("home side: %v", err)
	}
	away, err := CoverProbability(-7, 7.5, 12)
	if err != nil {
		t.Fatalf("away side: %v", err)
	}
	if sum := home + away; math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("home %v + away %v = %v, want 1.0", home, away, sum)
	}
}

func TestCoverProbabilityInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		margin float64
		line   float64
		sigma  float64
	}{
		{"zero sigma", 7, -7, 0},
		{"negative sigma", 7, -7, -3},
		{"nan sigma", 7, -7, math.NaN()},
		{"nan margin", math.NaN(), -7, 12},
		{"infinite margin", math.Inf(1), -7, 12},
		{"nan line", 7, math.NaN(), 12},
		{"infinite line", 7, math.Inf(-1), 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CoverProbability(tt.margin, tt.line, tt.sigma); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("CoverProbability(%v, %v, %v) error = %v, want ErrInvalidInput", tt.margin, tt.line, tt.sigma, err)
			}
		})
	}
}

func TestNormalCDF(t *testing.T) {
	tests := []struct {
		name string
		z    float64
		want float64
		tol  float64
	}{
		{"center", 0, 0.5, 1e-9},
		{"one sigma", 1, 0.8413, 1e-4},
		{"minus one sigma", -1, 0.1587, 1e-4},
		{"two sigma", 1.96, 0.975, 1e-4},
		{"deep tail", 4, 0.99997, 1e-4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalCDF(tt.z); math.Abs(got-tt.want) > tt.tol {
				t.Errorf("NormalCDF(%v) = %v, want %v", tt.z, got, tt.want)
			}
		})
	}

	// Symmetry holds exactly by construction.
	for _, z := range []float64{0.25, 0.5, 1, 2, 3.5} {
		if sum := NormalCDF(z) + NormalCDF(-z); math.Abs(sum-1.0) > 1e-12 {
			t.Errorf("NormalCDF(%v) + NormalCDF(%v) = %v, want 1.0", z, -z, sum)
		}
	}
}
