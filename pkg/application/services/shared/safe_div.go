package shared

// SafeDiv returns n/d when d is positive and 0 otherwise. Every calculator
// divides through this so that no derived value is ever NaN or Inf.
func SafeDiv(n, d float64) float64 {
	if d > 0 {
		return n / d
	}
	return 0
}
