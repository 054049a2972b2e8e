package utils

import "math"

// Round2 rounds x to 2 decimal places (banking-style simple round).
// Monetary intermediates are computed at full precision and pass through
// here only at the point of storage.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
