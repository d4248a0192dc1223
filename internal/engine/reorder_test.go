package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpulse/stocksense/internal/domain"
)

func reorderInput(recentDaily, historicalDaily, inventory, pending float64) ReorderInput {
	recent := perf(recentDaily*30, recentDaily)
	historical := perf(historicalDaily*180, historicalDaily)
	return ReorderInput{
		ProductID:        "prod-1",
		Brand:            "Acme",
		Trend:            ClassifyTrend(recent, historical),
		Recent:           recent,
		Historical:       historical,
		CurrentInventory: inventory,
		PendingInventory: pending,
	}
}

func TestPlanIdempotent(t *testing.T) {
	e := NewReorderEngine(DefaultConfig())
	in := reorderInput(1.5, 1.0, 20, 0)

	first := e.Plan(in)
	for i := 0; i < 5; i++ {
		again := e.Plan(in)
		assert.Equal(t, first, again)
	}
}

func TestPlanNewProductDefaultsToMonitoring(t *testing.T) {
	e := NewReorderEngine(DefaultConfig())
	plan := e.Plan(reorderInput(0, 0, 0, 0))

	assert.Equal(t, domain.PriorityLow, plan.Priority)
	assert.Equal(t, domain.TimingMonitor, plan.Timing)
	assert.GreaterOrEqual(t, plan.RecommendedQty, 0)
	assert.Equal(t, domain.NoStockoutDays, plan.DaysUntilStockout)
}

func TestPlanImminentStockoutIsCritical(t *testing.T) {
	// 10 units at 2/day is 5 days of cover against a 14-day lead time,
	// and the +100% velocity makes the trend strong.
	e := NewReorderEngine(DefaultConfig())
	in := reorderInput(2.0, 1.0, 10, 0)

	require.Equal(t, TrendTrendingUp, in.Trend.Classification)
	require.Equal(t, StrengthStrong, in.Trend.Strength)

	plan := e.Plan(in)
	assert.Equal(t, 5, plan.DaysUntilStockout)
	assert.Equal(t, domain.PriorityCritical, plan.Priority)
	assert.Equal(t, domain.TimingOrderNow, plan.Timing)
	assert.Greater(t, plan.RecommendedQty, 0)
}

func TestPlanPendingCoversLeadTime(t *testing.T) {
	// Nothing on the shelf, but 100 units inbound against 14 units of
	// lead-time demand. The pending stock must defuse the alert.
	e := NewReorderEngine(DefaultConfig())

	without := e.Plan(reorderInput(1.0, 1.0, 0, 0))
	require.Equal(t, domain.PriorityCritical, without.Priority)

	with := e.Plan(reorderInput(1.0, 1.0, 0, 100))
	assert.Equal(t, domain.PriorityLow, with.Priority)
	assert.Equal(t, domain.TimingNoAction, with.Timing)
	assert.Contains(t, with.Reasoning, "already on order")
}

// Adding pending inventory never raises the recommended quantity or the
// priority relative to the same product without pending stock.
func TestPlanPendingNeverEscalates(t *testing.T) {
	e := NewReorderEngine(DefaultConfig())

	cases := []struct {
		recentDaily, historicalDaily, inventory float64
	}{
		{2.0, 1.0, 10},
		{1.0, 1.0, 0},
		{0.6, 0.8, 15},
		{3.0, 0.5, 100},
	}

	for _, c := range cases {
		base := e.Plan(reorderInput(c.recentDaily, c.historicalDaily, c.inventory, 0))
		for _, pending := range []float64{1, 5, 20, 50, 200} {
			got := e.Plan(reorderInput(c.recentDaily, c.historicalDaily, c.inventory, pending))
			assert.LessOrEqual(t, got.RecommendedQty, base.RecommendedQty,
				"daily=%.1f inv=%.0f pending=%.0f", c.recentDaily, c.inventory, pending)
			assert.LessOrEqual(t, domain.PriorityRank(got.Priority), domain.PriorityRank(base.Priority),
				"daily=%.1f inv=%.0f pending=%.0f", c.recentDaily, c.inventory, pending)
		}
	}
}

func TestPlanDecliningStrongSkipsReorder(t *testing.T) {
	// Velocity -60% with plenty of stock lands in the strong-decline
	// branch.
	e := NewReorderEngine(DefaultConfig())
	in := reorderInput(0.4, 1.0, 500, 0)

	require.Equal(t, TrendDeclining, in.Trend.Classification)
	require.Equal(t, StrengthStrong, in.Trend.Strength)

	plan := e.Plan(in)
	assert.Equal(t, domain.PriorityLow, plan.Priority)
	assert.Equal(t, domain.TimingNoAction, plan.Timing)
}

func TestPlanUpwardMultiplierRaisesQuantity(t *testing.T) {
	e := NewReorderEngine(DefaultConfig())

	// Same recent demand, one flat and one surging. The surge boost
	// must outweigh the shared base quantity.
	flat := e.Plan(reorderInput(1.0, 1.0, 500, 0))
	surging := e.Plan(reorderInput(1.0, 0.4, 500, 0))

	assert.Greater(t, surging.RecommendedQty, flat.RecommendedQty)
}

func TestPlanSafeRecoversPanics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PendingDowngrade = func(domain.ReorderPriority) domain.ReorderPriority {
		panic("boom")
	}
	e := NewReorderEngine(cfg)

	// Pending below lead-time demand forces the downgrade path.
	plan := e.PlanSafe(reorderInput(1.0, 1.0, 0, 5))

	assert.Equal(t, domain.PriorityLow, plan.Priority)
	assert.Equal(t, domain.TimingMonitor, plan.Timing)
	assert.Zero(t, plan.RecommendedQty)
	assert.Contains(t, plan.Reasoning, "Analysis failed")
}

func TestStockoutDays(t *testing.T) {
	assert.Equal(t, 5, stockoutDays(10, 2))
	assert.Equal(t, 0, stockoutDays(0, 2))
	assert.Equal(t, domain.NoStockoutDays, stockoutDays(10, 0))
	assert.Equal(t, domain.NoStockoutDays, stockoutDays(1e6, 0.5))
}
