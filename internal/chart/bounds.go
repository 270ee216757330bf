package chart

import (
	"math"

	"FinDesk/internal/model"
)

const (
	lowerPad = 0.99
	upperPad = 1.01
)

// Bounds scans both datasets and returns padded y-axis limits: the minimum
// times 0.99 floored at zero, the maximum times 1.01. ok is false when both
// datasets are empty.
func Bounds(historical, live []model.PricePoint) (lo, hi float64, ok bool) {
	if len(historical) == 0 && len(live) == 0 {
		return 0, 0, false
	}
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, set := range [][]model.PricePoint{historical, live} {
		for _, p := range set {
			if p.Price < lo {
				lo = p.Price
			}
			if p.Price > hi {
				hi = p.Price
			}
		}
	}
	lo = math.Max(lo*lowerPad, 0)
	hi = hi * upperPad
	// negative maxima would invert the axis once min is floored
	if hi < lo {
		hi = lo
	}
	return lo, hi, true
}

// TimeUnitFor picks the x-axis unit for a timeframe from the fixed
// timeframe table; unknown timeframes fall back to day.
func TimeUnitFor(tf model.Timeframe) model.TimeUnit {
	if !tf.Valid() {
		return model.UnitDay
	}
	return tf.Unit()
}
