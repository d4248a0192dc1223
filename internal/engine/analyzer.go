package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/retailpulse/stocksense/internal/domain"
)

// AnalyzeInput is the full dataset for one analysis run.
type AnalyzeInput struct {
	Orders    []domain.OrderLine
	Inventory []domain.InventoryRecord
	Pending   []domain.PendingOrder
	// Ref is the analysis reference time; zero means time.Now().
	Ref time.Time
}

// Analyzer runs the full product analysis batch: trend classification,
// reorder planning, seasonality and transfer optimization.
type Analyzer struct {
	cfg       Config
	reorder   *ReorderEngine
	transfers *TransferOptimizer
}

func NewAnalyzer(cfg Config) *Analyzer {
	cfg = cfg.normalized()
	return &Analyzer{
		cfg:       cfg,
		reorder:   NewReorderEngine(cfg),
		transfers: NewTransferOptimizer(cfg),
	}
}

// Run analyzes every product in the input and assembles the run result.
// Products are processed concurrently under a bounded semaphore; one
// product's failure never aborts the batch.
func (a *Analyzer) Run(ctx context.Context, in AnalyzeInput) (domain.AnalysisResult, error) {
	ref := in.Ref
	if ref.IsZero() {
		ref = time.Now()
	}

	start := time.Now()
	periods := BuildPeriods(in.Orders, ref, a.cfg.RecentWindowDays, a.cfg.HistoricalWindowDays)
	inventoryTotals := InventoryTotals(in.Inventory)
	pendingByStyle := PendingByStyle(in.Pending)
	dailySeries := DailySeries(in.Orders, ref, a.cfg.RecentWindowDays)

	log.Info().
		Int("products", len(periods)).
		Int("order_lines", len(in.Orders)).
		Int("workers", a.cfg.WorkerCount).
		Msg("starting analysis run")

	insights, err := a.analyzeProducts(ctx, periods, inventoryTotals, pendingByStyle, dailySeries)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	sort.SliceStable(insights, func(i, j int) bool {
		ri := domain.PriorityRank(insights[i].ReorderPriority)
		rj := domain.PriorityRank(insights[j].ReorderPriority)
		if ri != rj {
			return ri > rj
		}
		return insights[i].Recent.DailyDemand > insights[j].Recent.DailyDemand
	})

	seasonal := AnalyzeSeasonality(in.Orders)
	transfers := a.optimizeTransfers(insights, in.Orders, in.Inventory, ref)

	result := domain.AnalysisResult{
		RunAt:     ref,
		Insights:  insights,
		Seasonal:  seasonal,
		Transfers: transfers,
		Summary:   buildSummary(insights),
	}

	log.Info().
		Int("insights", len(insights)).
		Int("transfers", len(transfers)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis run complete")
	return result, nil
}

// analyzeProducts fans the product list out over WorkerCount goroutines.
// Each worker fills a private slot; results merge by concatenation so no
// locking happens on the hot path.
func (a *Analyzer) analyzeProducts(
	ctx context.Context,
	periods []ProductPeriods,
	inventoryTotals map[string]float64,
	pendingByStyle map[string]float64,
	dailySeries map[string][]float64,
) ([]domain.ProductInsight, error) {
	sem := semaphore.NewWeighted(int64(a.cfg.WorkerCount))
	results := make([]domain.ProductInsight, len(periods))

	var wg sync.WaitGroup
	for i, p := range periods {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("acquire analysis slot: %w", err)
		}

		wg.Add(1)
		go func(slot int, p ProductPeriods) {
			defer wg.Done()
			defer sem.Release(1)
			results[slot] = a.analyzeProduct(p, inventoryTotals[p.ProductID], pendingByStyle[p.SKU], dailySeries[p.ProductID])
		}(i, p)
	}
	wg.Wait()

	return results, nil
}

func (a *Analyzer) analyzeProduct(p ProductPeriods, inventory, pending float64, series []float64) domain.ProductInsight {
	trend := ClassifyTrend(p.Recent, p.Historical)

	plan := a.reorder.PlanSafe(ReorderInput{
		ProductID:        p.ProductID,
		Brand:            p.Brand,
		Trend:            trend,
		Recent:           p.Recent,
		Historical:       p.Historical,
		CurrentInventory: inventory,
		PendingInventory: pending,
	})

	reasoning := plan.Reasoning
	outlierDays := 0
	for _, flagged := range DetectOutliers(series, a.cfg.OutlierThreshold) {
		if flagged {
			outlierDays++
		}
	}
	if outlierDays > 0 {
		reasoning += fmt.Sprintf("; demand is volatile (%d outlier days in the recent window)", outlierDays)
	}

	return domain.ProductInsight{
		ProductID:   p.ProductID,
		SKU:         p.SKU,
		Description: p.Description,
		Brand:       p.Brand,

		Recent:     p.Recent,
		Historical: p.Historical,

		TrendClassification: trend.Classification,
		TrendStrength:       trend.Strength,
		VelocityChange:      trend.VelocityChange,

		CurrentInventory:  inventory,
		PendingInventory:  pending,
		DaysUntilStockout: plan.DaysUntilStockout,

		ReorderPriority: plan.Priority,
		RecommendedQty:  plan.RecommendedQty,
		ReorderTiming:   plan.Timing,
		Reasoning:       reasoning,
	}
}

// optimizeTransfers builds per-location positions for every product sold
// or stocked in more than one location and runs the transfer optimizer
// over them.
func (a *Analyzer) optimizeTransfers(
	insights []domain.ProductInsight,
	orders []domain.OrderLine,
	inventory []domain.InventoryRecord,
	ref time.Time,
) []domain.TransferRecommendation {
	demandRates := LocationDemandRates(orders, ref, a.cfg.RecentWindowDays)
	stockByLoc := InventoryByLocation(inventory)

	var all []domain.TransferRecommendation
	for _, insight := range insights {
		locations := locationStates(demandRates[insight.ProductID], stockByLoc[insight.ProductID])
		if len(locations) < 2 {
			continue
		}

		recs := a.transfers.Optimize(TransferInput{
			ProductID:           insight.ProductID,
			SKU:                 insight.SKU,
			Brand:               insight.Brand,
			TrendClassification: insight.TrendClassification,
			Locations:           locations,
		})
		all = append(all, recs...)
	}

	return a.transfers.RankTransfers(all)
}

// locationStates merges demand and stock maps into a deterministic,
// name-sorted slice covering the union of locations.
func locationStates(demand, stock map[string]float64) []LocationState {
	names := make(map[string]struct{}, len(demand)+len(stock))
	for loc := range demand {
		names[loc] = struct{}{}
	}
	for loc := range stock {
		names[loc] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for loc := range names {
		sorted = append(sorted, loc)
	}
	sort.Strings(sorted)

	states := make([]LocationState, 0, len(sorted))
	for _, loc := range sorted {
		states = append(states, LocationState{
			Location:    loc,
			Inventory:   stock[loc],
			DailyDemand: demand[loc],
		})
	}
	return states
}

// buildSummary rolls the insight list up into the run's headline
// numbers.
func buildSummary(insights []domain.ProductInsight) map[string]float64 {
	summary := map[string]float64{
		"products_analyzed":       float64(len(insights)),
		"critical_alerts":         0,
		"high_alerts":             0,
		"trending_up_count":       0,
		"total_recommended_units": 0,
	}

	var recentRevenue, historicalRevenue float64
	var stockoutSum float64
	stockoutCount := 0

	for _, ins := range insights {
		switch ins.ReorderPriority {
		case domain.PriorityCritical:
			summary["critical_alerts"]++
		case domain.PriorityHigh:
			summary["high_alerts"]++
		}
		if IsUpwardTrend(ins.TrendClassification) {
			summary["trending_up_count"]++
		}
		summary["total_recommended_units"] += float64(ins.RecommendedQty)

		recentRevenue += ins.Recent.DailyRevenue
		historicalRevenue += ins.Historical.DailyRevenue

		if ins.DaysUntilStockout < domain.NoStockoutDays {
			stockoutSum += float64(ins.DaysUntilStockout)
			stockoutCount++
		}
	}

	if historicalRevenue > 0 {
		summary["revenue_growth_rate"] = (recentRevenue - historicalRevenue) / historicalRevenue * 100
	}
	if stockoutCount > 0 {
		summary["avg_days_until_stockout"] = stockoutSum / float64(stockoutCount)
	}
	return summary
}
