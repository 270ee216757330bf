package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"FinDesk/internal/market"
	"FinDesk/internal/model"
	"FinDesk/internal/news"
	"FinDesk/internal/provider"
)

const (
	streamBuffer = 16
	pingPeriod   = 30 * time.Second
	readTimeout  = 90 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// marketStatus maps provider errors onto HTTP statuses.
func marketStatus(err error) int {
	switch {
	case errors.Is(err, provider.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, provider.ErrProviderUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) GetQuote(c *gin.Context) {
	symbol, err := provider.CleanSymbol(c.Param("symbol"))
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	q, err := h.deps.Provider.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		abortError(c, marketStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) GetHistorical(c *gin.Context) {
	symbol, err := provider.CleanSymbol(c.Param("symbol"))
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	tf, err := model.ParseTimeframe(c.DefaultQuery("timeframe", string(model.Timeframe1M)))
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	series, err := h.deps.Provider.GetHistorical(c.Request.Context(), symbol, tf)
	if err != nil {
		abortError(c, marketStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *Handler) RecentQuotes(c *gin.Context) {
	symbol, err := provider.CleanSymbol(c.Param("symbol"))
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	quotes, err := h.deps.Recorder.RecentQuotes(symbol, limit)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("read recent quotes")
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	if quotes == nil {
		quotes = []model.Quote{}
	}
	c.JSON(http.StatusOK, quotes)
}

// viewRequest creates or patches a view. Absent fields are left unchanged
// on PATCH.
type viewRequest struct {
	Symbol    *string `json:"symbol"`
	Timeframe *string `json:"timeframe"`
	Interval  *string `json:"interval"`
}

func viewStatus(err error) int {
	switch {
	case errors.Is(err, market.ErrViewNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrTooManyViews):
		return http.StatusTooManyRequests
	case errors.Is(err, market.ErrUnmounted):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func (h *Handler) CreateView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	var opts market.Options
	if req.Symbol != nil {
		opts.Symbol = *req.Symbol
	}
	if req.Timeframe != nil {
		tf, err := model.ParseTimeframe(*req.Timeframe)
		if err != nil {
			abortError(c, http.StatusBadRequest, err)
			return
		}
		opts.Timeframe = tf
	}
	if req.Interval != nil {
		d, err := model.ParseInterval(*req.Interval)
		if err != nil {
			abortError(c, http.StatusBadRequest, err)
			return
		}
		opts.Interval = d
	}
	v, err := h.deps.Views.Create(opts)
	if err != nil {
		abortError(c, viewStatus(err), err)
		return
	}
	c.JSON(http.StatusCreated, v.Snapshot())
}

func (h *Handler) GetView(c *gin.Context) {
	v, err := h.deps.Views.Get(c.Param("id"))
	if err != nil {
		abortError(c, viewStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, v.Snapshot())
}

// UpdateView validates every field of the patch before changing the view,
// so a rejected request leaves it untouched.
func (h *Handler) UpdateView(c *gin.Context) {
	v, err := h.deps.Views.Get(c.Param("id"))
	if err != nil {
		abortError(c, viewStatus(err), err)
		return
	}
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}

	var (
		symbol   string
		tf       model.Timeframe
		interval time.Duration
	)
	if req.Symbol != nil {
		if symbol, err = provider.CleanSymbol(*req.Symbol); err != nil {
			abortError(c, http.StatusBadRequest, err)
			return
		}
	}
	if req.Timeframe != nil {
		if tf, err = model.ParseTimeframe(*req.Timeframe); err != nil {
			abortError(c, http.StatusBadRequest, err)
			return
		}
	}
	if req.Interval != nil {
		if interval, err = model.ParseInterval(*req.Interval); err != nil {
			abortError(c, http.StatusBadRequest, err)
			return
		}
	}

	if symbol != "" {
		err = v.SetSymbol(symbol)
	}
	if err == nil && tf != "" {
		err = v.SetTimeframe(tf)
	}
	if err == nil && interval != 0 {
		err = v.SetInterval(interval)
	}
	if err != nil {
		abortError(c, viewStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, v.Snapshot())
}

func (h *Handler) DeleteView(c *gin.Context) {
	if err := h.deps.Views.Remove(c.Param("id")); err != nil {
		abortError(c, viewStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StreamView pushes every view state over a websocket until the view is
// unmounted or the client goes away.
func (h *Handler) StreamView(c *gin.Context) {
	v, err := h.deps.Views.Get(c.Param("id"))
	if err != nil {
		abortError(c, viewStatus(err), err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("view", v.ID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	states, cancel := v.Subscribe(streamBuffer)
	defer cancel()

	// the read side only watches for close frames and keeps the deadline fresh
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case st, ok := <-states:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "view unmounted"),
					time.Now().Add(writeTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(st); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-gone:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Handler) GetNews(c *gin.Context) {
	category := strings.ToLower(strings.TrimSpace(c.DefaultQuery("category", news.DefaultCategory)))
	if !news.ValidCategory(category) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown news category " + strconv.Quote(category)})
		return
	}
	if h.deps.News == nil {
		c.JSON(http.StatusOK, []news.Article{})
		return
	}
	articles, err := h.deps.News.Latest(c.Request.Context(), category)
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("news fetch failed")
		abortError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}
