package engine

import (
	"math"
	"sort"
	"time"

	"github.com/retailpulse/stocksense/internal/domain"
)

// ProductPeriods carries a product's identity plus its recent and
// historical period aggregates.
type ProductPeriods struct {
	ProductID   string
	SKU         string
	Description string
	Brand       string
	Recent      domain.PeriodPerformance
	Historical  domain.PeriodPerformance
}

type periodAccumulator struct {
	quantity float64
	revenue  float64
	orders   int
	first    time.Time
	last     time.Time
}

func (a *periodAccumulator) add(line domain.OrderLine) {
	a.quantity += line.Quantity
	a.revenue += line.Quantity * line.UnitPrice
	a.orders++
	if a.first.IsZero() || line.OrderedAt.Before(a.first) {
		a.first = line.OrderedAt
	}
	if a.last.IsZero() || line.OrderedAt.After(a.last) {
		a.last = line.OrderedAt
	}
}

// performance finalizes the accumulator into an immutable snapshot.
// Span is the observed span between first and last sale, at least one
// day, so daily demand never divides by zero.
func (a *periodAccumulator) performance() domain.PeriodPerformance {
	span := 1
	if !a.first.IsZero() {
		span = int(a.last.Sub(a.first).Hours()/24) + 1
		if span < 1 {
			span = 1
		}
	}
	return domain.PeriodPerformance{
		TotalQuantity: a.quantity,
		TotalRevenue:  a.revenue,
		OrderCount:    a.orders,
		SpanDays:      span,
		DailyDemand:   a.quantity / float64(span),
		DailyRevenue:  a.revenue / float64(span),
	}
}

// BuildPeriods groups order lines by product into recent and historical
// PeriodPerformance snapshots. The recent period covers the
// recentDays window ending at ref; the historical period the
// historicalDays window immediately before it. Lines outside both
// windows are ignored.
func BuildPeriods(lines []domain.OrderLine, ref time.Time, recentDays, historicalDays int) []ProductPeriods {
	recentStart := ref.AddDate(0, 0, -recentDays)
	historicalStart := recentStart.AddDate(0, 0, -historicalDays)

	type productAcc struct {
		meta       ProductPeriods
		recent     periodAccumulator
		historical periodAccumulator
	}

	accs := make(map[string]*productAcc)
	order := make([]string, 0)

	for _, line := range lines {
		if line.ProductID == "" || line.OrderedAt.After(ref) || line.OrderedAt.Before(historicalStart) {
			continue
		}

		acc, ok := accs[line.ProductID]
		if !ok {
			acc = &productAcc{meta: ProductPeriods{
				ProductID:   line.ProductID,
				SKU:         line.SKU,
				Description: line.Description,
				Brand:       line.Brand,
			}}
			accs[line.ProductID] = acc
			order = append(order, line.ProductID)
		}

		if line.OrderedAt.After(recentStart) {
			acc.recent.add(line)
		} else {
			acc.historical.add(line)
		}
	}

	sort.Strings(order)

	result := make([]ProductPeriods, 0, len(order))
	for _, id := range order {
		acc := accs[id]
		p := acc.meta
		p.Recent = acc.recent.performance()
		p.Historical = acc.historical.performance()
		result = append(result, p)
	}
	return result
}

// DailySeries builds per-product ordered daily-quantity vectors over
// the trailing window ending at ref, oldest day first. Days without
// sales contribute zeros so the series is evenly spaced for the
// forecaster.
func DailySeries(lines []domain.OrderLine, ref time.Time, days int) map[string][]float64 {
	if days <= 0 {
		return map[string][]float64{}
	}
	start := ref.AddDate(0, 0, -days+1)
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	series := make(map[string][]float64)
	for _, line := range lines {
		if line.ProductID == "" || line.OrderedAt.After(ref) {
			continue
		}
		day := time.Date(line.OrderedAt.Year(), line.OrderedAt.Month(), line.OrderedAt.Day(), 0, 0, 0, 0, time.UTC)
		idx := int(day.Sub(startDay).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		s, ok := series[line.ProductID]
		if !ok {
			s = make([]float64, days)
			series[line.ProductID] = s
		}
		s[idx] += line.Quantity
	}
	return series
}

// InventoryTotals sums on-hand stock per product across locations.
func InventoryTotals(records []domain.InventoryRecord) map[string]float64 {
	totals := make(map[string]float64)
	for _, rec := range records {
		totals[rec.ProductID] += rec.OnHand
	}
	return totals
}

// InventoryByLocation indexes on-hand stock per product per location.
func InventoryByLocation(records []domain.InventoryRecord) map[string]map[string]float64 {
	byLoc := make(map[string]map[string]float64)
	for _, rec := range records {
		locs, ok := byLoc[rec.ProductID]
		if !ok {
			locs = make(map[string]float64)
			byLoc[rec.ProductID] = locs
		}
		locs[rec.Location] += rec.OnHand
	}
	return byLoc
}

// PendingByStyle sums pending-order quantities per style (SKU). The
// engine never needs individual pending records, only the aggregate.
func PendingByStyle(pending []domain.PendingOrder) map[string]float64 {
	totals := make(map[string]float64)
	for _, p := range pending {
		if p.SKU == "" || p.Quantity <= 0 {
			continue
		}
		totals[p.SKU] += p.Quantity
	}
	return totals
}

// LocationDemandRates computes per-product, per-location daily demand
// over the trailing recent window.
func LocationDemandRates(lines []domain.OrderLine, ref time.Time, recentDays int) map[string]map[string]float64 {
	if recentDays <= 0 {
		recentDays = 30
	}
	start := ref.AddDate(0, 0, -recentDays)

	rates := make(map[string]map[string]float64)
	for _, line := range lines {
		if line.ProductID == "" || line.Location == "" {
			continue
		}
		if line.OrderedAt.After(ref) || !line.OrderedAt.After(start) {
			continue
		}
		locs, ok := rates[line.ProductID]
		if !ok {
			locs = make(map[string]float64)
			rates[line.ProductID] = locs
		}
		locs[line.Location] += line.Quantity
	}

	for _, locs := range rates {
		for loc := range locs {
			locs[loc] /= float64(recentDays)
		}
	}
	return rates
}

// BuildVariantDemand produces store-level demand rows for order-sheet
// granularity, scored 0-100 by demand pressure against available stock.
func BuildVariantDemand(lines []domain.OrderLine, inventory []domain.InventoryRecord, ref time.Time, recentDays int) []domain.VariantDemand {
	if recentDays <= 0 {
		recentDays = 30
	}
	start := ref.AddDate(0, 0, -recentDays)

	type variantAcc struct {
		meta   domain.VariantDemand
		demand map[string]float64
		stock  map[string]float64
	}

	accs := make(map[string]*variantAcc)
	keys := make([]string, 0)

	get := func(productID, variantID, sku string) *variantAcc {
		key := productID + "|" + variantID
		acc, ok := accs[key]
		if !ok {
			acc = &variantAcc{
				meta: domain.VariantDemand{
					ProductID: productID,
					VariantID: variantID,
					SKU:       sku,
				},
				demand: make(map[string]float64),
				stock:  make(map[string]float64),
			}
			accs[key] = acc
			keys = append(keys, key)
		}
		return acc
	}

	for _, line := range lines {
		if line.ProductID == "" || line.OrderedAt.After(ref) || !line.OrderedAt.After(start) {
			continue
		}
		acc := get(line.ProductID, line.VariantID, line.SKU)
		acc.demand[line.Location] += line.Quantity
	}

	for _, rec := range inventory {
		if rec.ProductID == "" {
			continue
		}
		acc := get(rec.ProductID, rec.VariantID, rec.SKU)
		acc.stock[rec.Location] += rec.OnHand
	}

	sort.Strings(keys)

	result := make([]domain.VariantDemand, 0, len(keys))
	for _, key := range keys {
		acc := accs[key]

		locations := make(map[string]struct{})
		for loc := range acc.demand {
			locations[loc] = struct{}{}
		}
		for loc := range acc.stock {
			locations[loc] = struct{}{}
		}
		locNames := make([]string, 0, len(locations))
		for loc := range locations {
			locNames = append(locNames, loc)
		}
		sort.Strings(locNames)

		v := acc.meta
		for _, loc := range locNames {
			daily := acc.demand[loc] / float64(recentDays)
			onHand := acc.stock[loc]
			recommended := 0
			if daily > 0 {
				// Cover the window, net of what is already on the shelf.
				recommended = int(math.Max(0, math.Ceil(daily*float64(recentDays)-onHand)))
			}
			v.Locations = append(v.Locations, domain.LocationDemand{
				Location:       loc,
				DailyDemand:    daily,
				CurrentStock:   onHand,
				RecommendedQty: recommended,
			})
			v.TotalDemand += daily
			v.TotalStock += onHand
		}

		// Score: demand pressure scaled by how little cover remains.
		if v.TotalDemand > 0 {
			cover := v.TotalStock / v.TotalDemand
			pressure := 100 * (1 - cover/float64(recentDays))
			v.PriorityScore = math.Max(0, math.Min(100, pressure))
		}

		result = append(result, v)
	}
	return result
}
