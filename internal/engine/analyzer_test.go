package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpulse/stocksense/internal/domain"
)

func analyzerFixture() AnalyzeInput {
	ref := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)

	var orders []domain.OrderLine

	// p1 sells 2/day at location B over the recent window and 1/day
	// before that, so it is surging and close to stockout.
	for i := 1; i <= 30; i++ {
		orders = append(orders, domain.OrderLine{
			ProductID: "p1", SKU: "SKU-1", Brand: "Acme",
			Quantity: 2, UnitPrice: 10, Location: "B",
			OrderedAt: ref.AddDate(0, 0, -i),
		})
	}
	for i := 31; i <= 180; i++ {
		orders = append(orders, domain.OrderLine{
			ProductID: "p1", SKU: "SKU-1", Brand: "Acme",
			Quantity: 1, UnitPrice: 10, Location: "B",
			OrderedAt: ref.AddDate(0, 0, -i),
		})
	}

	// p2 sells steadily at location A with a large order already
	// inbound.
	for i := 1; i <= 180; i++ {
		orders = append(orders, domain.OrderLine{
			ProductID: "p2", SKU: "SKU-2", Brand: "Acme",
			Quantity: 1, UnitPrice: 5, Location: "A",
			OrderedAt: ref.AddDate(0, 0, -i),
		})
	}

	// p3 sells like p1 but all its stock sits at the wrong location.
	for i := 1; i <= 30; i++ {
		orders = append(orders, domain.OrderLine{
			ProductID: "p3", SKU: "SKU-3", Brand: "Acme",
			Quantity: 2, UnitPrice: 10, Location: "B",
			OrderedAt: ref.AddDate(0, 0, -i),
		})
	}
	for i := 31; i <= 180; i++ {
		orders = append(orders, domain.OrderLine{
			ProductID: "p3", SKU: "SKU-3", Brand: "Acme",
			Quantity: 1, UnitPrice: 10, Location: "B",
			OrderedAt: ref.AddDate(0, 0, -i),
		})
	}

	inventory := []domain.InventoryRecord{
		{ProductID: "p1", SKU: "SKU-1", Brand: "Acme", Location: "B", OnHand: 10},
		{ProductID: "p2", SKU: "SKU-2", Brand: "Acme", Location: "A", OnHand: 0},
		{ProductID: "p3", SKU: "SKU-3", Brand: "Acme", Location: "A", OnHand: 200},
		{ProductID: "p3", SKU: "SKU-3", Brand: "Acme", Location: "B", OnHand: 5},
	}

	pending := []domain.PendingOrder{
		{SKU: "SKU-2", Quantity: 100, Location: "A", Brand: "Acme"},
	}

	return AnalyzeInput{Orders: orders, Inventory: inventory, Pending: pending, Ref: ref}
}

func TestAnalyzerRun(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	result, err := a.Run(context.Background(), analyzerFixture())
	require.NoError(t, err)

	require.Len(t, result.Insights, 3)

	// Priority sort puts the surging, nearly-stocked-out p1 first.
	p1 := result.Insights[0]
	assert.Equal(t, "p1", p1.ProductID)
	assert.Equal(t, TrendTrendingUp, p1.TrendClassification)
	assert.Equal(t, domain.PriorityCritical, p1.ReorderPriority)
	assert.Equal(t, domain.TimingOrderNow, p1.ReorderTiming)
	assert.Equal(t, 10.0, p1.CurrentInventory)

	// The inbound 100 units cover p2's full lead-time demand.
	p2 := result.Insights[2]
	assert.Equal(t, "p2", p2.ProductID)
	assert.Equal(t, 100.0, p2.PendingInventory)
	assert.Equal(t, domain.PriorityLow, p2.ReorderPriority)
	assert.Equal(t, domain.TimingNoAction, p2.ReorderTiming)
}

func TestAnalyzerRunTransfers(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	result, err := a.Run(context.Background(), analyzerFixture())
	require.NoError(t, err)

	require.NotEmpty(t, result.Transfers)
	rec := result.Transfers[0]
	assert.Equal(t, "p3", rec.ProductID)
	assert.Equal(t, "A", rec.From.Location)
	assert.Equal(t, "B", rec.To.Location)
	assert.Equal(t, domain.UrgencyUrgent, rec.TransferUrgency)
	assert.Greater(t, rec.FinancialImpact, 0.0)
}

func TestAnalyzerRunSeasonal(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	result, err := a.Run(context.Background(), analyzerFixture())
	require.NoError(t, err)

	// Six months of history is enough for the monthly decomposition.
	assert.Len(t, result.Seasonal, 12)
}

func TestAnalyzerRunSummary(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	result, err := a.Run(context.Background(), analyzerFixture())
	require.NoError(t, err)

	assert.Equal(t, 3.0, result.Summary["products_analyzed"])
	assert.Equal(t, 1.0, result.Summary["critical_alerts"])
	assert.GreaterOrEqual(t, result.Summary["trending_up_count"], 1.0)
	assert.Greater(t, result.Summary["total_recommended_units"], 0.0)
	assert.Greater(t, result.Summary["revenue_growth_rate"], 0.0)
}

func TestAnalyzerRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnalyzer(DefaultConfig())
	_, err := a.Run(ctx, analyzerFixture())
	assert.Error(t, err)
}

func TestAnalyzerRunEmptyInput(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	result, err := a.Run(context.Background(), AnalyzeInput{})
	require.NoError(t, err)

	assert.Empty(t, result.Insights)
	assert.Empty(t, result.Transfers)
	assert.Empty(t, result.Seasonal)
	assert.False(t, result.RunAt.IsZero())
}

func steadySellerPeriods() ProductPeriods {
	return ProductPeriods{
		ProductID: "p1", SKU: "SKU-1", Brand: "Acme",
		Recent:     domain.PeriodPerformance{TotalQuantity: 30, OrderCount: 30, SpanDays: 30, DailyDemand: 1, DailyRevenue: 10},
		Historical: domain.PeriodPerformance{TotalQuantity: 180, OrderCount: 180, SpanDays: 180, DailyDemand: 1, DailyRevenue: 10},
	}
}

func TestAnalyzeProductFlatDemandNotFlaggedVolatile(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	series := make([]float64, 30)
	for i := range series {
		series[i] = 1
	}

	insight := a.analyzeProduct(steadySellerPeriods(), 10, 0, series)
	assert.NotContains(t, insight.Reasoning, "volatile")
}

func TestAnalyzeProductCountsOnlyFlaggedOutlierDays(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	// Median 3, MAD 1: only the 50 crosses the modified-Z threshold.
	series := []float64{2, 3, 2, 4, 3, 2, 3, 4, 50, 2, 3, 4}

	insight := a.analyzeProduct(steadySellerPeriods(), 10, 0, series)
	assert.Contains(t, insight.Reasoning, "demand is volatile (1 outlier days in the recent window)")
}
