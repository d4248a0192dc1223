package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/retailpulse/stocksense/internal/domain"
)

func perf(total, daily float64) domain.PeriodPerformance {
	span := 30
	return domain.PeriodPerformance{
		TotalQuantity: total,
		SpanDays:      span,
		DailyDemand:   daily,
	}
}

func TestClassifyTrendLowVolumeBranches(t *testing.T) {
	tests := []struct {
		name       string
		recent     domain.PeriodPerformance
		historical domain.PeriodPerformance
		wantClass  string
		wantStr    string
	}{
		{"no sales at all", perf(0, 0), perf(0, 0), TrendNewProduct, StrengthLowVolume},
		{"history but nothing recent", perf(0, 0), perf(40, 0.3), TrendNoRecentSales, StrengthLowVolume},
		{"a trickle in both periods", perf(2, 0.07), perf(10, 0.06), TrendLowVolume, StrengthLowVolume},
		{"volume but below daily floor", perf(3, 0.05), perf(20, 0.11), TrendSlowMoving, StrengthWeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTrend(tt.recent, tt.historical)
			assert.Equal(t, tt.wantClass, got.Classification)
			assert.Equal(t, tt.wantStr, got.Strength)
		})
	}
}

func TestClassifyTrendNewSellerBranches(t *testing.T) {
	tests := []struct {
		name      string
		daily     float64
		wantClass string
		wantStr   string
	}{
		{"strong launch", 1.5, TrendNewStrongSeller, StrengthStrong},
		{"moderate launch", 0.6, TrendNewModerateSeller, StrengthModerate},
		{"quiet launch", 0.2, TrendNewProduct, StrengthWeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTrend(perf(tt.daily*30, tt.daily), perf(1, 0.01))
			assert.Equal(t, tt.wantClass, got.Classification)
			assert.Equal(t, tt.wantStr, got.Strength)
		})
	}
}

// Velocity boundaries are strict: exactly 50 must fall through to the
// next branch, and so on down the chain.
func TestClassifyTrendVelocityBoundaries(t *testing.T) {
	// historical daily 1.0 makes velocity == (recentDaily-1)*100.
	hist := perf(180, 1.0)

	tests := []struct {
		name        string
		recentDaily float64
		wantClass   string
		wantStr     string
	}{
		{"just above +50", 1.51, TrendTrendingUp, StrengthStrong},
		{"exactly +50", 1.50, TrendTrendingUp, StrengthModerate},
		{"exactly +20", 1.20, TrendGrowing, StrengthWeak},
		{"exactly +5", 1.05, TrendHotSeller, StrengthStrong},
		{"exactly -5", 0.95, TrendDeclining, StrengthWeak},
		{"exactly -20", 0.80, TrendDeclining, StrengthStrong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recent := perf(tt.recentDaily*30, tt.recentDaily)
			got := ClassifyTrend(recent, hist)
			assert.Equal(t, tt.wantClass, got.Classification, "velocity %.1f", got.VelocityChange)
			assert.Equal(t, tt.wantStr, got.Strength)
		})
	}
}

func TestClassifyTrendStableTiers(t *testing.T) {
	tests := []struct {
		name        string
		recentDaily float64
		wantClass   string
	}{
		{"hot seller", 1.2, TrendHotSeller},
		{"steady seller", 0.7, TrendSteadySeller},
		{"stable", 0.3, TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Matching historical daily keeps velocity at zero.
			recent := perf(tt.recentDaily*30, tt.recentDaily)
			historical := perf(tt.recentDaily*180, tt.recentDaily)
			got := ClassifyTrend(recent, historical)
			assert.Equal(t, tt.wantClass, got.Classification)
		})
	}
}

func TestClassifyTrendVelocityUndefinedWithoutBothRates(t *testing.T) {
	got := ClassifyTrend(perf(30, 1.0), perf(3, 0))
	assert.Zero(t, got.VelocityChange)
}

func TestTrendDirectionHelpers(t *testing.T) {
	assert.True(t, IsUpwardTrend(TrendTrendingUp))
	assert.True(t, IsUpwardTrend(TrendHotSeller))
	assert.True(t, IsUpwardTrend(TrendNewStrongSeller))
	assert.False(t, IsUpwardTrend(TrendStable))

	assert.True(t, IsDecliningTrend(TrendDeclining))
	assert.False(t, IsDecliningTrend(TrendSlowMoving))
}
