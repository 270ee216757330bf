package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinDesk/internal/model"
	"FinDesk/internal/provider"
)

var fixedNow = time.Date(2024, 6, 14, 15, 30, 0, 0, time.UTC)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	s := NewServer(provider.NewSeededSimulator(5))
	s.Now = func() time.Time { return fixedNow }
	s.RegisterRoutes(r)
	return r
}

func get(t *testing.T, r http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestGetQuote(t *testing.T) {
	code, body := get(t, newRouter(), "/quote/aapl")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "AAPL", body["symbol"])
	assert.Equal(t, true, body["__mocked"])
	assert.InDelta(t, 189.84, body["price"].(float64), 189.84*0.003+0.006)
	for _, k := range []string{"change", "changePercent", "volume", "timestamp"} {
		assert.Contains(t, body, k)
	}
	_, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestGetQuote_InvalidSymbol(t *testing.T) {
	code, _ := get(t, newRouter(), "/quote/"+"ABCDEFGHIJKLMNOPQ")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetHistorical_Periods(t *testing.T) {
	r := newRouter()
	tests := []struct {
		query  string
		points int
	}{
		{"", 31},
		{"?period=1w", 8},
		{"?period=3m", 91},
		{"?period=6m", 181},
		{"?period=1y", 366},
		{"?period=5y", 261},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, body := get(t, r, "/historical/MSFT"+tt.query)
			require.Equal(t, http.StatusOK, code)
			prices := body["prices"].([]any)
			stamps := body["timestamps"].([]any)
			require.Len(t, prices, tt.points)
			require.Len(t, stamps, tt.points)
			assert.Equal(t, "2024-06-14", stamps[len(stamps)-1])
			prev := ""
			for _, s := range stamps {
				_, err := time.Parse(model.DateLayout, s.(string))
				require.NoError(t, err)
				assert.Greater(t, s.(string), prev)
				prev = s.(string)
			}
		})
	}
}

func TestGetHistorical_InvalidPeriod(t *testing.T) {
	code, body := get(t, newRouter(), "/historical/MSFT?period=2w")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "invalid period")
}

func TestGetHistoricalDate(t *testing.T) {
	r := newRouter()
	code, body := get(t, r, "/historical/AAPL/date/2024-01-02")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2024-01-02", body["date"])
	assert.Greater(t, body["price"].(float64), 0.0)

	_, again := get(t, r, "/historical/AAPL/date/2024-01-02")
	assert.Equal(t, body["price"], again["price"])

	code, _ = get(t, r, "/historical/AAPL/date/2024-13-40")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = get(t, r, "/historical/AAPL/date/yesterday")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = get(t, r, "/historical/AAPL/date/2024-06-15")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = get(t, r, "/historical/AAPL/date/2024-06-14")
	assert.Equal(t, http.StatusOK, code)
}

func TestMockREST_AgainstServer(t *testing.T) {
	srv := httptest.NewServer(newRouter())
	defer srv.Close()
	client := provider.NewMockREST(srv.URL, "", time.Second)

	q, err := client.GetQuote(t.Context(), "ZZZQ")
	require.NoError(t, err)
	assert.True(t, q.Simulated)
	assert.InDelta(t, 361, q.Price, 361*0.003+0.006)

	h, err := client.GetHistorical(t.Context(), "ZZZQ", model.Timeframe3M)
	require.NoError(t, err)
	assert.True(t, h.Simulated)
	assert.Len(t, h.Points, 91)
}
