package mathutil

import "math"

// LogZero is the log10 value ARPA files use for a zero probability.
const LogZero = -99.0

// CostScale returns the factor that turns a log10 probability into a cost
// scaled by lmScale. With naturalLog the cost is a negated natural log,
// otherwise a negated log10.
func CostScale(naturalLog bool, lmScale float64) float64 {
	if naturalLog {
		return -lmScale * math.Ln10
	}
	return -lmScale
}
