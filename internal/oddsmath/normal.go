package oddsmath

import "math"

// Abramowitz-Stegun 7.1.26 erf coefficients.
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// NormalCDF evaluates the standard normal CDF at z. It uses the
// Abramowitz-Stegun erf approximation (absolute error < 1.5e-7) so
// results are reproducible bit for bit across runs and platforms.
func NormalCDF(z float64) float64 {
	return 0.5 * (1.0 + erf(z/math.Sqrt2))
}

func erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}
	t := 1.0 / (1.0 + erfP*x)
	y := 1.0 - ((((erfA5*t+erfA4)*t+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)
	return sign * y
}
