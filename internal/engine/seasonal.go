package engine

import (
	"sort"
	"time"

	"github.com/retailpulse/stocksense/internal/domain"
)

// Fixed calendar day counts; no leap-year adjustment.
var daysInMonth = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

const maxPeakProductsPerMonth = 5

// AnalyzeSeasonality decomposes a multi-year order history into twelve
// monthly demand profiles. It needs at least two distinct calendar
// months of data; anything less returns an empty list.
func AnalyzeSeasonality(lines []domain.OrderLine) []domain.SeasonalInsight {
	monthlyTotals := make([]float64, 13)
	productMonthly := make(map[string][]float64)
	distinctMonths := make(map[time.Month]struct{})

	for _, line := range lines {
		if line.ProductID == "" || line.OrderedAt.IsZero() {
			continue
		}
		month := line.OrderedAt.Month()
		distinctMonths[month] = struct{}{}
		monthlyTotals[month] += line.Quantity

		totals, ok := productMonthly[line.ProductID]
		if !ok {
			totals = make([]float64, 13)
			productMonthly[line.ProductID] = totals
		}
		totals[month] += line.Quantity
	}

	if len(distinctMonths) < 2 {
		return []domain.SeasonalInsight{}
	}

	monthlyAvgDaily := make([]float64, 13)
	var overallSum float64
	for m := 1; m <= 12; m++ {
		monthlyAvgDaily[m] = monthlyTotals[m] / float64(daysInMonth[m])
		overallSum += monthlyAvgDaily[m]
	}
	overallAvg := overallSum / 12

	insights := make([]domain.SeasonalInsight, 0, 12)
	for m := 1; m <= 12; m++ {
		multiplier := 1.0
		if overallAvg > 0 {
			multiplier = monthlyAvgDaily[m] / overallAvg
		}

		insights = append(insights, domain.SeasonalInsight{
			Month:              m,
			MonthName:          time.Month(m).String(),
			AvgDailyDemand:     monthlyAvgDaily[m],
			SeasonalMultiplier: multiplier,
			PeakProducts:       peakProducts(productMonthly, m),
		})
	}
	return insights
}

// peakProducts picks the month's top sellers by quantity and computes
// each one's elevation: the product's average daily demand in that
// month relative to its own average across all months with sales.
func peakProducts(productMonthly map[string][]float64, month int) []domain.SeasonalPeak {
	type candidate struct {
		productID string
		quantity  float64
	}

	candidates := make([]candidate, 0)
	for id, totals := range productMonthly {
		if totals[month] > 0 {
			candidates = append(candidates, candidate{productID: id, quantity: totals[month]})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].quantity != candidates[j].quantity {
			return candidates[i].quantity > candidates[j].quantity
		}
		return candidates[i].productID < candidates[j].productID
	})

	if len(candidates) > maxPeakProductsPerMonth {
		candidates = candidates[:maxPeakProductsPerMonth]
	}

	peaks := make([]domain.SeasonalPeak, 0, len(candidates))
	for _, c := range candidates {
		totals := productMonthly[c.productID]

		monthlyAvg := c.quantity / float64(daysInMonth[month])

		// Per-product overall average daily demand across months that
		// actually had sales.
		var sum float64
		active := 0
		for m := 1; m <= 12; m++ {
			if totals[m] > 0 {
				sum += totals[m] / float64(daysInMonth[m])
				active++
			}
		}
		overall := 0.0
		if active > 0 {
			overall = sum / float64(active)
		}

		elevation := 1.0
		if overall > 0 {
			elevation = monthlyAvg / overall
		}

		peaks = append(peaks, domain.SeasonalPeak{
			ProductID:       c.productID,
			Quantity:        c.quantity,
			ElevationRatio:  elevation,
			MonthlyAvgDaily: monthlyAvg,
			OverallAvgDaily: overall,
		})
	}
	return peaks
}
