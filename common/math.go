package common

import "math"

// DecimalToFixed rounds num to precision decimal places, half away from
// zero. This is the one rounding used for reported figures (stop ratios go
// through decimal arithmetic instead; see aggregate.StopRatioPercent).
func DecimalToFixed(num float64, precision int) float64 {
	scale := math.Pow10(precision)
	return math.Round(num*scale) / scale
}
