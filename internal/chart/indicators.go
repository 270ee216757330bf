package chart

import (
	"errors"
	"math"

	"FinDesk/internal/model"
)

// Indicator periods shown next to a series.
const (
	SMAPeriod = 20
	RSIPeriod = 14
)

// Summary condenses a price series for display.
type Summary struct {
	High     float64  `json:"high"`
	Low      float64  `json:"low"`
	Last     float64  `json:"last"`
	Position float64  `json:"position"` // where Last sits between Low and High, 0..1
	SMA      *float64 `json:"sma,omitempty"`
	RSI      *float64 `json:"rsi,omitempty"`
}

// SMA is the simple moving average of the last period prices.
func SMA(points []model.PricePoint, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(points) < period {
		return 0, errors.New("not enough data for SMA")
	}
	sum := 0.0
	for _, p := range points[len(points)-period:] {
		sum += p.Price
	}
	return sum / float64(period), nil
}

// RSI is the Wilder-smoothed relative strength index. It needs period+1
// points.
func RSI(points []model.PricePoint, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(points) < period+1 {
		return 0, errors.New("not enough data for RSI")
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := points[i].Price - points[i-1].Price
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(points); i++ {
		change := points[i].Price - points[i-1].Price
		gain, loss := math.Max(change, 0), math.Max(-change, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		return 100, nil
	}
	return 100 - 100/(1+avgGain/avgLoss), nil
}

// RangePosition places current within [low, high], clamped to 0..1. A flat
// range is 0.5.
func RangePosition(current, low, high float64) float64 {
	if high <= low {
		return 0.5
	}
	return math.Max(0, math.Min(1, (current-low)/(high-low)))
}

// Summarize computes the summary of points. ok is false for an empty series.
func Summarize(points []model.PricePoint) (s Summary, ok bool) {
	if len(points) == 0 {
		return s, false
	}
	s.High, s.Low = math.Inf(-1), math.Inf(1)
	for _, p := range points {
		s.High = math.Max(s.High, p.Price)
		s.Low = math.Min(s.Low, p.Price)
	}
	s.Last = points[len(points)-1].Price
	s.Position = RangePosition(s.Last, s.Low, s.High)
	if v, err := SMA(points, SMAPeriod); err == nil {
		s.SMA = &v
	}
	if v, err := RSI(points, RSIPeriod); err == nil {
		s.RSI = &v
	}
	return s, true
}
