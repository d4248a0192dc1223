package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastDemandRejectsShortSeries(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
	_, err := ForecastDemand(series, 7)
	assert.Error(t, err)
}

func TestForecastDemandRejectsNonPositiveHorizon(t *testing.T) {
	series := make([]float64, 28)
	_, err := ForecastDemand(series, 0)
	assert.Error(t, err)
}

func TestForecastDemandNonNegative(t *testing.T) {
	// A sharply declining series pushes the linear trend below zero;
	// forecasts must still clamp at zero.
	series := make([]float64, 28)
	for i := range series {
		series[i] = float64(56 - 2*i)
	}

	fc, err := ForecastDemand(series, 14)
	require.NoError(t, err)
	require.Len(t, fc.Values, 14)
	for i, v := range fc.Values {
		assert.GreaterOrEqual(t, v, 0.0, "horizon day %d", i+1)
	}
}

func TestForecastDemandTracksWeeklyPattern(t *testing.T) {
	// Weekends sell triple. Four identical weeks; the forecast should
	// keep the weekend days well above the weekday days.
	week := []float64{2, 2, 2, 2, 2, 6, 6}
	series := make([]float64, 0, 28)
	for i := 0; i < 4; i++ {
		series = append(series, week...)
	}

	fc, err := ForecastDemand(series, 7)
	require.NoError(t, err)

	weekdayAvg := mean(fc.Values[:5])
	weekendAvg := mean(fc.Values[5:])
	assert.Greater(t, weekendAvg, weekdayAvg)
}

func TestForecastVolatility(t *testing.T) {
	flat := make([]float64, 28)
	for i := range flat {
		flat[i] = 3
	}
	fc, err := ForecastDemand(flat, 7)
	require.NoError(t, err)
	assert.Zero(t, fc.Volatility)
}

func TestDetectOutliers(t *testing.T) {
	series := []float64{2, 3, 2, 4, 3, 2, 3, 4, 50, 2, 3, 4}
	flags := DetectOutliers(series, 2.5)
	require.Len(t, flags, len(series))

	assert.True(t, flags[8], "the spike should be flagged")
	for i, f := range flags {
		if i == 8 {
			continue
		}
		assert.False(t, f, "index %d", i)
	}
}

func TestDetectOutliersZeroMAD(t *testing.T) {
	// All-identical series has MAD 0; nothing can be scored.
	series := []float64{4, 4, 4, 4, 4}
	flags := DetectOutliers(series, 2.5)
	for _, f := range flags {
		assert.False(t, f)
	}
}

func TestDetectOutliersEmpty(t *testing.T) {
	assert.Empty(t, DetectOutliers(nil, 2.5))
}
