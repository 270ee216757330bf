package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinDesk/internal/model"
)

func prices(vs ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(vs))
	for i, v := range vs {
		out[i] = model.PricePoint{Price: v}
	}
	return out
}

func TestSMA(t *testing.T) {
	v, err := SMA(prices(1, 2, 3, 4, 5), 2)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, v, 1e-9)

	_, err = SMA(prices(1), 2)
	assert.Error(t, err)
	_, err = SMA(prices(1), 0)
	assert.Error(t, err)
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(i + 1)
	}
	v, err := RSI(prices(rising...), 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	// equal gains and losses settle at 50
	v, err = RSI(prices(10, 11, 10, 11, 10), 4)
	require.NoError(t, err)
	assert.InDelta(t, 50, v, 1e-9)

	_, err = RSI(prices(1, 2, 3), 14)
	assert.Error(t, err)
}

func TestRangePosition(t *testing.T) {
	assert.Equal(t, 0.5, RangePosition(10, 10, 10))
	assert.Equal(t, 0.0, RangePosition(5, 10, 20))
	assert.Equal(t, 1.0, RangePosition(25, 10, 20))
	assert.InDelta(t, 0.25, RangePosition(12.5, 10, 20), 1e-9)
}

func TestSummarize(t *testing.T) {
	_, ok := Summarize(nil)
	assert.False(t, ok)

	s, ok := Summarize(prices(10, 20, 15))
	require.True(t, ok)
	assert.Equal(t, 20.0, s.High)
	assert.Equal(t, 10.0, s.Low)
	assert.Equal(t, 15.0, s.Last)
	assert.InDelta(t, 0.5, s.Position, 1e-9)
	assert.Nil(t, s.SMA)
	assert.Nil(t, s.RSI)
}
