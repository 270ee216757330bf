package provider

import (
	"sort"
	"time"

	"FinDesk/internal/model"
)

// sortStrict orders points chronologically and drops duplicate timestamps
// and non-positive prices, so the result is strictly increasing in time.
func sortStrict(points []model.PricePoint) []model.PricePoint {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	out := points[:0]
	for _, p := range points {
		if p.Price <= 0 {
			continue
		}
		if n := len(out); n > 0 && !p.Timestamp.After(out[n-1].Timestamp) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// trimWindow keeps points no older than window before the newest point.
func trimWindow(points []model.PricePoint, window time.Duration) []model.PricePoint {
	if len(points) == 0 {
		return points
	}
	cutoff := points[len(points)-1].Timestamp.Add(-window)
	i := sort.Search(len(points), func(i int) bool { return !points[i].Timestamp.Before(cutoff) })
	return points[i:]
}
