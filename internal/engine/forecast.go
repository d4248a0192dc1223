package engine

import (
	"fmt"
	"math"
	"sort"
)

const (
	seasonLength = 7
	minSeriesLen = 2 * seasonLength

	smoothingAlpha = 0.3
	smoothingBeta  = 0.1
	smoothingGamma = 0.1
)

// Forecast holds horizon forecasts and a volatility measure for one
// product's daily demand series.
type Forecast struct {
	Values     []float64 `json:"values"`
	Volatility float64   `json:"volatility"`
}

// ForecastDemand runs triple exponential smoothing (Holt-Winters) with
// weekly seasonality over an ordered daily-quantity series and returns
// a non-negative forecast for each horizon day.
//
// The series must contain at least two full weeks of observations;
// shorter series are the caller's problem (the reorder engine falls
// back to the raw recent daily average).
func ForecastDemand(series []float64, horizon int) (*Forecast, error) {
	if len(series) < minSeriesLen {
		return nil, fmt.Errorf("series too short for forecasting: %d observations, need %d", len(series), minSeriesLen)
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("forecast horizon must be positive, got %d", horizon)
	}

	// Initialization: level from the first week, trend from the
	// week-over-week change, seasonal indices from the first week's
	// deviation from the level.
	firstWeek := mean(series[:seasonLength])
	secondWeek := mean(series[seasonLength : 2*seasonLength])

	level := firstWeek
	trend := (secondWeek - firstWeek) / seasonLength

	seasonal := make([]float64, seasonLength)
	for i := 0; i < seasonLength; i++ {
		if level != 0 {
			seasonal[i] = series[i] / level
		} else {
			seasonal[i] = 1
		}
	}

	for t := seasonLength; t < len(series); t++ {
		idx := t % seasonLength
		obs := series[t]

		prevLevel := level
		seasonalIdx := seasonal[idx]
		if seasonalIdx == 0 {
			seasonalIdx = 1
		}

		level = smoothingAlpha*(obs/seasonalIdx) + (1-smoothingAlpha)*(prevLevel+trend)
		trend = smoothingBeta*(level-prevLevel) + (1-smoothingBeta)*trend
		if level != 0 {
			seasonal[idx] = smoothingGamma*(obs/level) + (1-smoothingGamma)*seasonal[idx]
		}
	}

	values := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		idx := (len(series) + h - 1) % seasonLength
		forecast := (level + float64(h)*trend) * seasonal[idx]
		values[h-1] = math.Max(0, forecast)
	}

	return &Forecast{
		Values:     values,
		Volatility: stdDev(series),
	}, nil
}

// DetectOutliers flags observations whose modified Z-score exceeds the
// threshold. Flags are informational; the series is never cleaned
// automatically.
func DetectOutliers(series []float64, threshold float64) []bool {
	flags := make([]bool, len(series))
	if len(series) == 0 {
		return flags
	}
	if threshold <= 0 {
		threshold = 2.5
	}

	med := median(series)

	deviations := make([]float64, len(series))
	for i, v := range series {
		deviations[i] = math.Abs(v - med)
	}
	mad := median(deviations)
	if mad == 0 {
		return flags
	}

	for i, v := range series {
		score := 0.6745 * (v - med) / mad
		flags[i] = math.Abs(score) > threshold
	}
	return flags
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func median(values []float64) float64 {
	c := append([]float64(nil), values...)
	sort.Float64s(c)
	n := len(c)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return c[n/2]
	}
	return (c[n/2-1] + c[n/2]) / 2
}
