// Package mockapi serves simulated quote and history endpoints in the shape
// of the upstream mock market-data API.
package mockapi

import (
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"FinDesk/internal/model"
	"FinDesk/internal/provider"
)

// DefaultPeriod is used when the period query parameter is absent.
const DefaultPeriod = "1m"

type period struct {
	days int
	step int // days between points
}

var periods = map[string]period{
	"1w": {days: 7, step: 1},
	"1m": {days: 30, step: 1},
	"3m": {days: 90, step: 1},
	"6m": {days: 180, step: 1},
	"1y": {days: 365, step: 1},
	"5y": {days: 5 * 365, step: 7},
}

// Server answers the mock endpoints from a simulator.
type Server struct {
	sim *provider.Simulator
	Now func() time.Time
}

func NewServer(sim *provider.Simulator) *Server {
	if sim == nil {
		sim = provider.NewSimulator()
	}
	return &Server{sim: sim, Now: time.Now}
}

// RegisterRoutes mounts the endpoints on r.
func (s *Server) RegisterRoutes(r gin.IRoutes) {
	r.GET("/quote/:symbol", s.GetQuote)
	r.GET("/historical/:symbol", s.GetHistorical)
	r.GET("/historical/:symbol/date/:date", s.GetHistoricalDate)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "__mocked": true})
}

func (s *Server) GetQuote(c *gin.Context) {
	q, err := s.sim.GetQuote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		if errors.Is(err, provider.ErrInvalidSymbol) {
			badRequest(c, err.Error())
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "__mocked": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":        q.Symbol,
		"price":         q.Price,
		"change":        q.Change,
		"changePercent": q.ChangePercent,
		"volume":        q.Volume,
		"timestamp":     q.Timestamp.UTC().Format(time.RFC3339Nano),
		"simulated":     q.Simulated,
		"__mocked":      true,
	})
}

func (s *Server) GetHistorical(c *gin.Context) {
	symbol, err := provider.CleanSymbol(c.Param("symbol"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	name := c.DefaultQuery("period", DefaultPeriod)
	p, ok := periods[name]
	if !ok {
		badRequest(c, "invalid period "+name+": use 1w, 1m, 3m, 6m, 1y or 5y")
		return
	}
	base, _ := provider.BasePrice(symbol)
	today := truncateDay(s.Now())
	n := p.days/p.step + 1
	points := provider.SyntheticPath(provider.SeriesSeed(symbol, name), base, today, time.Duration(p.days)*24*time.Hour, n)

	prices := make([]float64, len(points))
	stamps := make([]string, len(points))
	for i, pt := range points {
		prices[i] = pt.Price
		stamps[i] = pt.Timestamp.Format(model.DateLayout)
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":     symbol,
		"prices":     prices,
		"timestamps": stamps,
		"__mocked":   true,
	})
}

func (s *Server) GetHistoricalDate(c *gin.Context) {
	symbol, err := provider.CleanSymbol(c.Param("symbol"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	raw := c.Param("date")
	date, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		badRequest(c, "invalid date "+raw+": use YYYY-MM-DD")
		return
	}
	today := truncateDay(s.Now())
	if date.After(today) {
		badRequest(c, "date "+raw+" is in the future")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":   symbol,
		"date":     raw,
		"price":    priceOn(symbol, date, today),
		"__mocked": true,
	})
}

// priceOn discounts the base price by up to 30% over five years of age and
// adds ±5% noise seeded by (symbol, date).
func priceOn(symbol string, date, today time.Time) float64 {
	base, _ := provider.BasePrice(symbol)
	age := today.Sub(date).Hours() / 24 / (5 * 365)
	age = math.Min(age, 1)
	rng := rand.New(rand.NewPCG(provider.SeriesSeed(symbol, date.Format(model.DateLayout)), 1))
	noise := (rng.Float64()*2 - 1) * 0.05
	price := base * (1 - 0.3*age) * (1 + noise)
	return math.Round(price*100) / 100
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
