package model

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe selects the lookback window of a historical series and the
// granularity of the chart time axis.
type Timeframe string

const (
	Timeframe1D  Timeframe = "1D"
	Timeframe1W  Timeframe = "1W"
	Timeframe1M  Timeframe = "1M"
	Timeframe3M  Timeframe = "3M"
	Timeframe1Y  Timeframe = "1Y"
	Timeframe5Y  Timeframe = "5Y"
	TimeframeMax Timeframe = "MAX"
)

// TimeUnit is the x-axis unit a chart uses for a timeframe.
type TimeUnit string

const (
	UnitMinute TimeUnit = "minute"
	UnitHour   TimeUnit = "hour"
	UnitDay    TimeUnit = "day"
	UnitMonth  TimeUnit = "month"
	UnitYear   TimeUnit = "year"
)

const day = 24 * time.Hour

type timeframeSpec struct {
	window time.Duration
	points int
	unit   TimeUnit
	period string // mock endpoint period parameter
}

var timeframes = map[Timeframe]timeframeSpec{
	Timeframe1D:  {window: day, points: 48, unit: UnitHour, period: "1w"},
	Timeframe1W:  {window: 7 * day, points: 56, unit: UnitDay, period: "1w"},
	Timeframe1M:  {window: 30 * day, points: 60, unit: UnitDay, period: "1m"},
	Timeframe3M:  {window: 90 * day, points: 90, unit: UnitMonth, period: "3m"},
	Timeframe1Y:  {window: 365 * day, points: 120, unit: UnitMonth, period: "1y"},
	Timeframe5Y:  {window: 5 * 365 * day, points: 120, unit: UnitYear, period: "5y"},
	TimeframeMax: {window: 20 * 365 * day, points: 160, unit: UnitYear, period: "5y"},
}

// Timeframes lists every supported timeframe from shortest to longest.
var Timeframes = []Timeframe{
	Timeframe1D, Timeframe1W, Timeframe1M, Timeframe3M, Timeframe1Y, Timeframe5Y, TimeframeMax,
}

// ParseTimeframe accepts a timeframe case-insensitively.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := timeframes[tf]; !ok {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return tf, nil
}

// Valid reports whether tf is one of the enumerated timeframes.
func (tf Timeframe) Valid() bool {
	_, ok := timeframes[tf]
	return ok
}

// Window is the lookback duration covered by the timeframe.
func (tf Timeframe) Window() time.Duration { return timeframes[tf].window }

// Points is the number of synthetic points generated for the timeframe.
func (tf Timeframe) Points() int { return timeframes[tf].points }

// Unit is the chart x-axis unit for the timeframe.
func (tf Timeframe) Unit() TimeUnit { return timeframes[tf].unit }

// MockPeriod is the period parameter understood by the mock historical endpoint.
func (tf Timeframe) MockPeriod() string { return timeframes[tf].period }

// Intervals are the allowed polling intervals.
var Intervals = []time.Duration{
	5 * time.Second,
	10 * time.Second,
	15 * time.Second,
	30 * time.Second,
	60 * time.Second,
}

// ValidInterval reports whether d is an allowed polling interval.
func ValidInterval(d time.Duration) bool {
	for _, i := range Intervals {
		if i == d {
			return true
		}
	}
	return false
}

// ParseInterval accepts Go durations ("15s") or bare seconds ("15").
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	d, err := time.ParseDuration(s)
	if err != nil {
		var secs int
		if _, serr := fmt.Sscanf(s, "%d", &secs); serr != nil {
			return 0, fmt.Errorf("parse interval %q: %w", s, err)
		}
		d = time.Duration(secs) * time.Second
	}
	if !ValidInterval(d) {
		return 0, fmt.Errorf("interval %s not allowed (5s, 10s, 15s, 30s, 60s)", d)
	}
	return d, nil
}
