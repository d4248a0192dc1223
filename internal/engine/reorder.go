package engine

import (
	"fmt"
	"math"

	"github.com/retailpulse/stocksense/internal/domain"
	"github.com/rs/zerolog/log"
)

// ReorderInput is everything the reorder engine needs for one product.
type ReorderInput struct {
	ProductID string
	Brand     string

	Trend      TrendResult
	Recent     domain.PeriodPerformance
	Historical domain.PeriodPerformance

	CurrentInventory float64
	// PendingInventory is the quantity already on order for this style,
	// zero when no pending orders exist.
	PendingInventory float64
}

// ReorderPlan is the engine's recommendation tuple for one product.
type ReorderPlan struct {
	Priority          domain.ReorderPriority
	RecommendedQty    int
	Timing            domain.ReorderTiming
	Reasoning         string
	DaysUntilStockout int
	LeadTimeDays      int
}

// ReorderEngine turns trend and stock-level signals into
// priority/quantity/timing recommendations.
type ReorderEngine struct {
	cfg Config
}

func NewReorderEngine(cfg Config) *ReorderEngine {
	return &ReorderEngine{cfg: cfg.normalized()}
}

// PlanSafe wraps Plan so a failure for one product can never abort the
// batch: any panic is recovered into a safe default recommendation.
func (e *ReorderEngine) PlanSafe(in ReorderInput) (plan ReorderPlan) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("product_id", in.ProductID).
				Interface("panic", r).
				Msg("reorder planning failed, using default recommendation")
			plan = ReorderPlan{
				Priority:          domain.PriorityLow,
				RecommendedQty:    0,
				Timing:            domain.TimingMonitor,
				Reasoning:         fmt.Sprintf("Analysis failed (%v); defaulted to monitoring", r),
				DaysUntilStockout: domain.NoStockoutDays,
				LeadTimeDays:      e.cfg.LeadTimeFor(in.Brand),
			}
		}
	}()
	return e.Plan(in)
}

// Plan runs the three-step reorder decision: base quantity from the
// newsvendor optimizer, a trend multiplier overlay, then the ordered
// priority/timing rule chain. Identical inputs always produce
// identical plans.
func (e *ReorderEngine) Plan(in ReorderInput) ReorderPlan {
	leadTime := e.cfg.LeadTimeFor(in.Brand)
	recentDaily := in.Recent.DailyDemand

	daysUntilStockout := stockoutDays(in.CurrentInventory, recentDaily)

	// Step 1: base target quantity.
	base := e.baseQuantity(in, leadTime)

	hasPending := in.PendingInventory > 0
	if hasPending {
		// Part of the need is already inbound.
		base = math.Max(0, base-in.PendingInventory)
	}

	// Step 2: trend/volume multiplier overlay.
	multiplier := reorderMultiplier(in.Trend, in.Recent)
	qty := int(math.Round(base * multiplier))
	if qty < 1 {
		qty = 1
	}

	// Step 3: priority and timing. With pending stock the projected
	// stockout horizon replaces the raw one.
	effectiveDays := daysUntilStockout
	if hasPending {
		effectiveDays = stockoutDays(in.CurrentInventory+in.PendingInventory, recentDaily)
	}

	decision := decidePriority(in, effectiveDays, leadTime)

	if hasPending {
		leadTimeDemand := recentDaily * float64(leadTime)
		if in.PendingInventory >= leadTimeDemand && leadTimeDemand > 0 {
			decision.priority = domain.PriorityLow
			decision.timing = domain.TimingNoAction
			decision.reason = fmt.Sprintf("%.0f units already on order cover the full %d-day lead time", in.PendingInventory, leadTime)
		} else {
			decision.priority = e.cfg.PendingDowngrade(decision.priority)
			decision.reason += fmt.Sprintf("; %.0f units already on order", in.PendingInventory)
		}
	}

	return ReorderPlan{
		Priority:          decision.priority,
		RecommendedQty:    qty,
		Timing:            decision.timing,
		Reasoning:         decision.reason,
		DaysUntilStockout: daysUntilStockout,
		LeadTimeDays:      leadTime,
	}
}

// baseQuantity asks the stock optimizer for a target level, falling
// back to a lead-time heuristic when the optimizer cannot run.
func (e *ReorderEngine) baseQuantity(in ReorderInput, leadTime int) float64 {
	recentDaily := in.Recent.DailyDemand

	// Demand std is approximated from the historical baseline, or from
	// the recent rate with a wider band when no baseline exists.
	demandStd := in.Historical.DailyDemand * 0.3
	if in.Historical.TotalQuantity <= 0 {
		demandStd = recentDaily * 0.5
	}

	level, err := OptimizeStockLevel(
		recentDaily,
		demandStd,
		leadTime,
		e.cfg.HoldingCostPerUnit,
		e.cfg.StockoutCostPerUnit,
		e.cfg.TargetServiceLevel,
	)
	if err != nil {
		log.Debug().Err(err).Str("product_id", in.ProductID).Msg("stock optimizer unavailable, using lead-time fallback")
		return recentDaily * float64(leadTime) * 1.5
	}
	return level.OptimalStock
}

// reorderMultiplier scales the base quantity by trend and volume.
// Guards are ordered; the first match wins.
func reorderMultiplier(trend TrendResult, recent domain.PeriodPerformance) float64 {
	daily := recent.DailyDemand
	velocity := trend.VelocityChange

	switch {
	case recent.TotalQuantity < minRecentTotal:
		return 0.5
	case daily < minDailyDemand:
		return 0.3
	case (trend.Classification == TrendTrendingUp || trend.Classification == TrendHotSeller) && daily >= 0.5:
		// 1.3 at flat velocity up to 1.8 at +100% or more.
		boost := math.Min(math.Max(velocity, 0), 100) / 100 * 0.5
		return 1.3 + boost
	case trend.Classification == TrendDeclining && daily >= 0.2:
		// 0.6 at -0% down to 0.4 at -100%.
		cut := math.Min(math.Abs(math.Min(velocity, 0)), 100) / 100 * 0.2
		return 0.6 - cut
	case trend.Classification == TrendNewStrongSeller || trend.Classification == TrendNewModerateSeller:
		return 1.2
	default:
		return 1.0
	}
}

type priorityDecision struct {
	priority domain.ReorderPriority
	timing   domain.ReorderTiming
	reason   string
}

// decidePriority is the ordered priority/timing rule chain. Branch
// order mirrors severity: imminent stockout first, then near-term,
// then trend-driven watch states.
func decidePriority(in ReorderInput, effectiveDays, leadTime int) priorityDecision {
	recentDaily := in.Recent.DailyDemand
	trend := in.Trend

	switch {
	case in.Recent.TotalQuantity < 2:
		return priorityDecision{
			priority: domain.PriorityLow,
			timing:   domain.TimingMonitor,
			reason:   fmt.Sprintf("Only %.0f recent sales; not enough volume to justify a reorder", in.Recent.TotalQuantity),
		}

	case effectiveDays <= leadTime:
		p := domain.PriorityMedium
		if trend.Strength == StrengthStrong || recentDaily >= 1.0 {
			p = domain.PriorityCritical
		} else if recentDaily >= 0.5 {
			p = domain.PriorityHigh
		}
		return priorityDecision{
			priority: p,
			timing:   domain.TimingOrderNow,
			reason: fmt.Sprintf("Stock covers %d days but replenishment takes %d days (%s, %.1f/day)",
				effectiveDays, leadTime, trend.Classification, recentDaily),
		}

	case effectiveDays <= 2*leadTime:
		p := domain.PriorityLow
		if trend.Strength == StrengthStrong || recentDaily >= 1.0 {
			p = domain.PriorityHigh
		} else if recentDaily >= 0.5 {
			p = domain.PriorityMedium
		}
		return priorityDecision{
			priority: p,
			timing:   domain.TimingThisWeek,
			reason: fmt.Sprintf("Stock covers %d days against a %d-day lead time; order within the week (%s)",
				effectiveDays, leadTime, trend.Classification),
		}

	case IsUpwardTrend(trend.Classification) && trend.Strength == StrengthStrong && recentDaily >= 0.5:
		return priorityDecision{
			priority: domain.PriorityMedium,
			timing:   domain.TimingMonitor,
			reason: fmt.Sprintf("%s with %.0f%% velocity growth; stock is adequate for now",
				trend.Classification, trend.VelocityChange),
		}

	case IsDecliningTrend(trend.Classification) && trend.Strength == StrengthStrong:
		return priorityDecision{
			priority: domain.PriorityLow,
			timing:   domain.TimingNoAction,
			reason: fmt.Sprintf("Demand declining sharply (%.0f%%); existing stock should cover the slowdown",
				trend.VelocityChange),
		}

	default:
		return priorityDecision{
			priority: domain.PriorityLow,
			timing:   domain.TimingMonitor,
			reason: fmt.Sprintf("Stock covers %d days; no action needed (%s)",
				effectiveDays, trend.Classification),
		}
	}
}

// stockoutDays floors inventory over daily demand, with the sentinel
// for zero or negative demand.
func stockoutDays(inventory, dailyDemand float64) int {
	if dailyDemand <= 0 {
		return domain.NoStockoutDays
	}
	days := int(math.Floor(inventory / dailyDemand))
	if days < 0 {
		days = 0
	}
	if days > domain.NoStockoutDays {
		days = domain.NoStockoutDays
	}
	return days
}
