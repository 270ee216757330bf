package provider

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"FinDesk/internal/model"
)

// KnownQuotes is the reference price table of the simulated source.
var KnownQuotes = map[string]float64{
	"AAPL":  189.84,
	"MSFT":  415.50,
	"GOOGL": 141.80,
	"AMZN":  178.25,
	"TSLA":  175.34,
	"META":  505.95,
	"NVDA":  880.08,
	"NFLX":  628.20,
	"JPM":   195.12,
	"V":     277.45,
	"SPY":   520.84,
	"QQQ":   444.92,
}

const (
	// jitter is the relative fluctuation applied on every simulated quote.
	jitter = 0.003
	// historyStart is the share of the current price a synthetic series starts at.
	historyStart = 0.70
	// historyNoise bounds the per-point noise relative to the start price.
	historyNoise = 0.05
)

// SyntheticBasePrice derives a deterministic price from the symbol's
// character codes: (sum of codes mod 990) + 10.
func SyntheticBasePrice(symbol string) float64 {
	sum := 0
	for _, r := range symbol {
		sum += int(r)
	}
	return float64(sum%990 + 10)
}

// BasePrice returns the reference price for a symbol and whether it comes
// from the known table.
func BasePrice(symbol string) (float64, bool) {
	if p, ok := KnownQuotes[symbol]; ok {
		return p, true
	}
	return SyntheticBasePrice(symbol), false
}

// Simulator generates plausible prices without any upstream.
type Simulator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	last map[string]time.Time
	Now  func() time.Time
}

// NewSimulator returns a simulator seeded from the wall clock.
func NewSimulator() *Simulator {
	seed := uint64(time.Now().UnixNano())
	return NewSeededSimulator(seed)
}

// NewSeededSimulator returns a simulator with reproducible jitter.
func NewSeededSimulator(seed uint64) *Simulator {
	return &Simulator{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		last: make(map[string]time.Time),
		Now:  time.Now,
	}
}

func (s *Simulator) Name() string { return "simulated" }

// GetQuote perturbs the base price by up to ±0.3%. Symbols outside the known
// table are flagged Simulated.
func (s *Simulator) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(s.Name(), err)
	}
	symbol, err := CleanSymbol(symbol)
	if err != nil {
		return nil, err
	}
	base, known := BasePrice(symbol)

	s.mu.Lock()
	delta := (s.rng.Float64()*2 - 1) * jitter
	volume := 1_000_000 + s.rng.Int64N(9_000_000)
	ts := s.Now()
	// timestamps never go backwards for a symbol
	if prev, ok := s.last[symbol]; ok && ts.Before(prev) {
		ts = prev
	}
	s.last[symbol] = ts
	s.mu.Unlock()

	price := round2(base * (1 + delta))
	change := round2(price - base)
	return &model.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: round2(change / base * 100),
		Volume:        volume,
		Timestamp:     ts,
		Simulated:     !known,
		Source:        s.Name(),
	}, nil
}

// GetHistorical returns a synthetic series ending at the base price.
func (s *Simulator) GetHistorical(ctx context.Context, symbol string, tf model.Timeframe) (*model.HistoricalSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(s.Name(), err)
	}
	symbol, err := CleanSymbol(symbol)
	if err != nil {
		return nil, err
	}
	base, _ := BasePrice(symbol)
	return SyntheticSeries(symbol, tf, base, s.Now()), nil
}

// SyntheticSeries builds a trend-plus-noise series for symbol over tf ending
// at end. Prices are seeded by (symbol, timeframe) so repeated calls agree.
func SyntheticSeries(symbol string, tf model.Timeframe, current float64, end time.Time) *model.HistoricalSeries {
	return &model.HistoricalSeries{
		Symbol:    symbol,
		Timeframe: tf,
		Points:    SyntheticPath(SeriesSeed(symbol, string(tf)), current, end, tf.Window(), tf.Points()),
		Simulated: true,
		Source:    "simulated",
	}
}

// SyntheticPath spreads n points evenly over window ending at end. The trend
// rises linearly from 70% of current to current; each point carries noise
// bounded by ±5% of the start price.
func SyntheticPath(seed uint64, current float64, end time.Time, window time.Duration, n int) []model.PricePoint {
	if n < 2 {
		n = 2
	}
	start := current * historyStart
	rng := rand.New(rand.NewPCG(seed, uint64(n)))

	step := window / time.Duration(n-1)
	begin := end.Add(-step * time.Duration(n-1))
	points := make([]model.PricePoint, n)
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n-1)
		trend := start + (current-start)*frac
		noise := (rng.Float64()*2 - 1) * historyNoise * start
		points[i] = model.PricePoint{
			Timestamp: begin.Add(step * time.Duration(i)),
			Price:     round2(math.Max(trend+noise, 0.01)),
		}
	}
	return points
}

// SeriesSeed derives a stable seed from a symbol and a discriminator.
func SeriesSeed(symbol, key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte{0})
	h.Write([]byte(key))
	return h.Sum64()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
