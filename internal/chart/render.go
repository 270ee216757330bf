package chart

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"FinDesk/internal/model"
)

// DatasetKind tells the two datasets apart.
type DatasetKind string

const (
	KindHistorical DatasetKind = "historical"
	KindLive       DatasetKind = "live"
)

// Style describes how a dataset line is drawn.
type Style struct {
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Dashed bool    `json:"dashed"`
	Fill   bool    `json:"fill"`
}

var (
	historicalStyle = Style{Color: "#3b82f6", Width: 2, Fill: true}
	liveStyle       = Style{Color: "#f59e0b", Width: 2.5}
	simulatedStyle  = Style{Color: "#9ca3af", Width: 2, Dashed: true}
)

// Dataset is one drawable line.
type Dataset struct {
	Kind      DatasetKind        `json:"kind"`
	Label     string             `json:"label"`
	Points    []model.PricePoint `json:"points"`
	Style     Style              `json:"style"`
	Simulated bool               `json:"simulated"`
}

// Axis is the padded y-axis range with display labels.
type Axis struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	MinLabel string  `json:"minLabel"`
	MaxLabel string  `json:"maxLabel"`
}

// Chart is the render-ready model of a view.
type Chart struct {
	Datasets []Dataset         `json:"datasets"`
	YAxis    Axis              `json:"yAxis"`
	XUnit    model.TimeUnit    `json:"xUnit"`
	Loading  bool              `json:"loading"`
	Latest   *model.PricePoint `json:"latest,omitempty"`
	Label    string            `json:"label,omitempty"`
}

// Render builds the chart for the buffer's current contents. An empty buffer
// renders as Loading with no datasets.
func Render(b *Buffer, symbol string, tf model.Timeframe) Chart {
	c := Chart{XUnit: TimeUnitFor(tf)}
	historical, live := b.Datasets()
	lo, hi, ok := Bounds(historical, live)
	if !ok {
		c.Loading = true
		return c
	}
	c.YAxis = Axis{Min: lo, Max: hi, MinLabel: PriceLabel(lo), MaxLabel: PriceLabel(hi)}

	simulated := b.History() != nil && b.History().Simulated
	hs := historicalStyle
	if simulated {
		hs = simulatedStyle
	}
	c.Datasets = []Dataset{
		{
			Kind:      KindHistorical,
			Label:     fmt.Sprintf("%s %s", symbol, tf),
			Points:    historical,
			Style:     hs,
			Simulated: simulated,
		},
		{
			Kind:   KindLive,
			Label:  "Live",
			Points: live,
			Style:  liveStyle,
		},
	}

	var latest model.PricePoint
	switch {
	case len(live) > 0:
		latest = live[len(live)-1]
	case len(historical) > 0:
		latest = historical[len(historical)-1]
	}
	c.Latest = &latest
	c.Label = fmt.Sprintf("%s %s", strings.ToUpper(symbol), PriceLabel(latest.Price))
	return c
}

// PriceLabel formats a price with thousands separators and two decimals.
func PriceLabel(v float64) string {
	s := humanize.CommafWithDigits(v, 2)
	// CommafWithDigits trims trailing zeros
	if i := strings.IndexByte(s, '.'); i < 0 {
		s += ".00"
	} else if len(s)-i == 2 {
		s += "0"
	}
	return "$" + s
}
