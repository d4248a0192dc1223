package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpulse/stocksense/internal/domain"
)

func orderOn(productID string, year int, month time.Month, day int, qty float64) domain.OrderLine {
	return domain.OrderLine{
		ProductID: productID,
		Quantity:  qty,
		OrderedAt: time.Date(year, month, day, 12, 0, 0, 0, time.UTC),
	}
}

func TestAnalyzeSeasonalityNeedsTwoMonths(t *testing.T) {
	lines := []domain.OrderLine{
		orderOn("p1", 2025, time.June, 1, 5),
		orderOn("p1", 2025, time.June, 20, 3),
		orderOn("p2", 2024, time.June, 10, 4),
	}
	assert.Empty(t, AnalyzeSeasonality(lines))
}

func TestAnalyzeSeasonalityMultipliersAverageToOne(t *testing.T) {
	var lines []domain.OrderLine
	for m := time.January; m <= time.December; m++ {
		lines = append(lines, orderOn("p1", 2025, m, 10, float64(m)*10))
	}

	insights := AnalyzeSeasonality(lines)
	require.Len(t, insights, 12)

	var sum float64
	for _, ins := range insights {
		sum += ins.SeasonalMultiplier
	}
	// Multipliers are ratios to the cross-month average, so they must
	// average to exactly one.
	assert.InDelta(t, 12.0, sum, 1e-9)
}

func TestAnalyzeSeasonalityMonthProfile(t *testing.T) {
	lines := []domain.OrderLine{
		orderOn("p1", 2025, time.January, 5, 31), // 1/day over January
		orderOn("p1", 2025, time.July, 5, 93),    // 3/day over July
	}

	insights := AnalyzeSeasonality(lines)
	require.Len(t, insights, 12)

	jan := insights[0]
	jul := insights[6]
	assert.Equal(t, "January", jan.MonthName)
	assert.InDelta(t, 1.0, jan.AvgDailyDemand, 1e-9)
	assert.InDelta(t, 3.0, jul.AvgDailyDemand, 1e-9)
	assert.Greater(t, jul.SeasonalMultiplier, jan.SeasonalMultiplier)
}

func TestPeakProductsCapAndOrdering(t *testing.T) {
	var lines []domain.OrderLine
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("p%d", i)
		lines = append(lines, orderOn(id, 2025, time.March, 3, float64(10+i)))
	}
	lines = append(lines, orderOn("p0", 2025, time.April, 3, 1))

	insights := AnalyzeSeasonality(lines)
	require.Len(t, insights, 12)

	march := insights[2]
	require.Len(t, march.PeakProducts, maxPeakProductsPerMonth)

	// Sorted by quantity descending: p7 (17) first, p3 (13) last.
	assert.Equal(t, "p7", march.PeakProducts[0].ProductID)
	assert.Equal(t, "p3", march.PeakProducts[4].ProductID)
	for i := 1; i < len(march.PeakProducts); i++ {
		assert.GreaterOrEqual(t, march.PeakProducts[i-1].Quantity, march.PeakProducts[i].Quantity)
	}
}

func TestPeakProductElevation(t *testing.T) {
	// p1 sells 62 in January (2/day) and 28 in February (1/day), so its
	// January elevation is 2 / ((2+1)/2) = 4/3.
	lines := []domain.OrderLine{
		orderOn("p1", 2025, time.January, 10, 62),
		orderOn("p1", 2025, time.February, 10, 28),
	}

	insights := AnalyzeSeasonality(lines)
	require.Len(t, insights, 12)

	jan := insights[0]
	require.Len(t, jan.PeakProducts, 1)
	peak := jan.PeakProducts[0]

	assert.Equal(t, "p1", peak.ProductID)
	assert.InDelta(t, 2.0, peak.MonthlyAvgDaily, 1e-9)
	assert.InDelta(t, 1.5, peak.OverallAvgDaily, 1e-9)
	assert.InDelta(t, 4.0/3.0, peak.ElevationRatio, 1e-9)
}
