// Package api exposes market views, the ledger and news over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"FinDesk/internal/ledger"
	"FinDesk/internal/market"
	"FinDesk/internal/metrics"
	"FinDesk/internal/mockapi"
	"FinDesk/internal/model"
	"FinDesk/internal/news"
	"FinDesk/internal/provider"
	"FinDesk/internal/recorder"
)

// Deps are the services behind the routes. Mock, News and Ledger may be nil
// to leave their routes out.
type Deps struct {
	Provider provider.Provider
	Views    *market.Manager
	Ledger   *ledger.Service
	News     *news.Feed
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Mock     *mockapi.Server
}

// Handler holds the route handlers.
type Handler struct {
	deps Deps
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	h := &Handler{deps: deps}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Metrics))

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		m := v1.Group("/market")
		m.GET("/quote/:symbol", h.GetQuote)
		m.GET("/historical/:symbol", h.GetHistorical)

		views := v1.Group("/views")
		views.POST("", h.CreateView)
		views.GET("/:id", h.GetView)
		views.PATCH("/:id", h.UpdateView)
		views.DELETE("/:id", h.DeleteView)
		views.GET("/:id/stream", h.StreamView)

		v1.GET("/quotes/:symbol/recent", h.RecentQuotes)
		v1.GET("/news", h.GetNews)

		if deps.Ledger != nil {
			registerResource[model.Transaction](v1.Group("/transactions"), deps.Ledger.Transactions)
			registerResource[model.Investment](v1.Group("/investments"), deps.Ledger.Investments)
			registerResource[model.Category](v1.Group("/categories"), deps.Ledger.Categories)
		}
	}

	if deps.Mock != nil {
		deps.Mock.RegisterRoutes(r.Group("/mock"))
	}
	return r
}

// requestLogger logs each request with a request id and records its latency.
func requestLogger(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-ID", reqID)
		c.Set("request_id", reqID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		m.ObserveHTTP(c.Request.Method, route, status, elapsed)

		evt := log.Debug()
		if status >= http.StatusInternalServerError {
			evt = log.Warn()
		}
		evt.Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("http request")
	}
}

func (h *Handler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.deps.Provider != nil {
		body["provider"] = h.deps.Provider.Name()
	}
	if h.deps.Views != nil {
		body["views"] = h.deps.Views.Len()
	}
	c.JSON(http.StatusOK, body)
}

func abortError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
