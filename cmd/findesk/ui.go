package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"FinDesk/internal/chart"
	"FinDesk/internal/market"
	"FinDesk/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	upStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
)

const sparkWidth = 60

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline squeezes the prices into width columns scaled between lo and hi.
func sparkline(points []model.PricePoint, lo, hi float64, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}
	if len(points) < width {
		width = len(points)
	}
	var b strings.Builder
	for col := 0; col < width; col++ {
		p := points[col*len(points)/width].Price
		idx := 0
		if hi > lo {
			idx = int((p - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		idx = max(0, min(idx, len(sparkRunes)-1))
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

func changeText(q *model.Quote) string {
	text := fmt.Sprintf("%+.2f (%+.2f%%)", q.Change, q.ChangePercent)
	if q.Change < 0 {
		return downStyle.Render(text)
	}
	return upStyle.Render(text)
}

func renderQuote(q *model.Quote) string {
	line := fmt.Sprintf("%s  %s  %s", q.Symbol, chart.PriceLabel(q.Price), changeText(q))
	if q.Simulated {
		line += "  " + warningStyle.Render("simulated")
	}
	return line + "\n" + mutedStyle.Render(fmt.Sprintf("%s · %s", q.Source, q.Timestamp.Format("2006-01-02 15:04:05")))
}

func renderSeries(s *model.HistoricalSeries) string {
	if s == nil || len(s.Points) == 0 {
		return mutedStyle.Render("no history")
	}
	lo, hi, _ := chart.Bounds(s.Points, nil)
	return fmt.Sprintf("%s\n%s … %s  (%d points)\n%s",
		sparkline(s.Points, lo, hi, sparkWidth), chart.PriceLabel(lo), chart.PriceLabel(hi), len(s.Points),
		renderSummary(s.Points))
}

func renderSummary(points []model.PricePoint) string {
	sum, ok := chart.Summarize(points)
	if !ok {
		return ""
	}
	parts := []string{
		"high " + chart.PriceLabel(sum.High),
		"low " + chart.PriceLabel(sum.Low),
		fmt.Sprintf("range %.0f%%", sum.Position*100),
	}
	if sum.SMA != nil {
		parts = append(parts, fmt.Sprintf("SMA%d %s", chart.SMAPeriod, chart.PriceLabel(*sum.SMA)))
	}
	if sum.RSI != nil {
		parts = append(parts, fmt.Sprintf("RSI%d %.1f", chart.RSIPeriod, *sum.RSI))
	}
	return mutedStyle.Render(strings.Join(parts, " · "))
}

// renderState draws one view snapshot as a terminal panel.
func renderState(st market.ViewState) string {
	var lines []string
	lines = append(lines, titleStyle.Render(fmt.Sprintf("%s · %s · every %s", st.Symbol, st.Timeframe, st.Interval)))

	c := st.Chart
	if c.Loading {
		lines = append(lines, mutedStyle.Render("Loading..."))
	} else {
		var points []model.PricePoint
		for _, ds := range c.Datasets {
			points = append(points, ds.Points...)
		}
		lines = append(lines, sparkline(points, c.YAxis.Min, c.YAxis.Max, sparkWidth))
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%s … %s", c.YAxis.MinLabel, c.YAxis.MaxLabel)))
		lines = append(lines, renderSummary(points))
		if c.Label != "" {
			lines = append(lines, c.Label)
		}
	}
	if st.Quote != nil {
		lines = append(lines, renderQuote(st.Quote))
	}
	if st.Simulated && st.Quote == nil {
		lines = append(lines, warningStyle.Render("simulated data"))
	}
	if st.Error != "" {
		msg := st.Error
		if st.Stale {
			msg = "stale: " + msg
		}
		lines = append(lines, warningStyle.Render(msg))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}
