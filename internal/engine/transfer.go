package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/retailpulse/stocksense/internal/domain"
)

const (
	// Simplified newsvendor approximation for location targets: ~95%
	// z-score with an assumed 30% coefficient of variation.
	transferSafetyZ   = 1.65
	transferDemandCV  = 0.3
	transferSourceCap = 0.6
	holdingHorizonDay = 30
)

// LocationState is one location's stock position for a product.
type LocationState struct {
	Location    string
	Inventory   float64
	DailyDemand float64
}

// TransferInput describes one product across its locations.
type TransferInput struct {
	ProductID           string
	VariantID           string
	SKU                 string
	Brand               string
	TrendClassification string
	Locations           []LocationState
}

// TransferOptimizer proposes cross-location rebalancing moves gated by
// an economic benefit test.
type TransferOptimizer struct {
	cfg Config
}

func NewTransferOptimizer(cfg Config) *TransferOptimizer {
	return &TransferOptimizer{cfg: cfg.normalized()}
}

type locationBalance struct {
	LocationState
	target    float64
	imbalance float64
}

// Optimize computes per-location targets and greedily moves surplus
// units toward deficits, largest imbalance first. Any single transfer
// takes at most 60% of the source's surplus, and a transfer is only
// proposed when its net benefit is positive.
func (t *TransferOptimizer) Optimize(in TransferInput) []domain.TransferRecommendation {
	if len(in.Locations) < 2 {
		return nil
	}

	leadTime := float64(t.cfg.LeadTimeFor(in.Brand))
	trendMult := transferTrendMultiplier(in.TrendClassification)

	balances := make([]*locationBalance, 0, len(in.Locations))
	for _, loc := range in.Locations {
		adjusted := loc.DailyDemand * trendMult * leadTime
		safety := transferSafetyZ * math.Sqrt(adjusted*transferDemandCV)
		b := &locationBalance{
			LocationState: loc,
			target:        adjusted + safety,
		}
		b.imbalance = b.Inventory - b.target
		balances = append(balances, b)
	}

	var recommendations []domain.TransferRecommendation

	// Pairs that fail the benefit gate stay rejected: the per-unit
	// margin is route-bound, so shrinking quantities never revive them.
	rejected := make(map[string]bool)

	for len(recommendations) < t.cfg.MaxTransfersPerSKU {
		source, dest := pickPair(balances, t.cfg.ExcessThreshold, t.cfg.ShortageThreshold, rejected)
		if source == nil || dest == nil {
			break
		}
		pair := source.Location + "->" + dest.Location

		excess := source.imbalance
		shortage := -dest.imbalance
		qty := math.Floor(math.Min(math.Min(excess, shortage), transferSourceCap*excess))
		if qty < 1 {
			rejected[pair] = true
			continue
		}

		routeCost := t.cfg.RouteCostFor(source.Location, dest.Location)
		avoidedStockout := qty * t.cfg.StockoutCostPerUnit
		transferCost := qty * routeCost
		extraHolding := qty * t.cfg.HoldingCostPerUnitPerDay * holdingHorizonDay
		netBenefit := avoidedStockout - transferCost - extraHolding
		if netBenefit <= 0 {
			// An expensive route from this source must not starve the
			// destination; another source may still reach it cheaply.
			rejected[pair] = true
			continue
		}

		destDays := daysOfStock(dest.Inventory, dest.DailyDemand)
		recommendations = append(recommendations, domain.TransferRecommendation{
			ProductID: in.ProductID,
			VariantID: in.VariantID,
			SKU:       in.SKU,
			From: domain.TransferEndpoint{
				Location:    source.Location,
				Inventory:   source.Inventory,
				DailyDemand: source.DailyDemand,
				DaysOfStock: daysOfStock(source.Inventory, source.DailyDemand),
			},
			To: domain.TransferEndpoint{
				Location:    dest.Location,
				Inventory:   dest.Inventory,
				DailyDemand: dest.DailyDemand,
				DaysOfStock: destDays,
			},
			Quantity:        int(qty),
			TransferUrgency: transferUrgency(destDays, leadTime),
			FinancialImpact: netBenefit,
			OpportunityCost: transferCost,
			Reasoning: fmt.Sprintf("%s holds %.0f days of stock while %s has %.1f days; moving %d units avoids a stockout",
				source.Location, daysOfStock(source.Inventory, source.DailyDemand), dest.Location, destDays, int(qty)),
		})

		// Settle the move before considering further pairs.
		source.imbalance -= qty
		source.Inventory -= qty
		dest.imbalance += qty
		dest.Inventory += qty
	}

	// Rank by benefit per unit moved.
	sort.SliceStable(recommendations, func(i, j int) bool {
		bi := recommendations[i].FinancialImpact / float64(recommendations[i].Quantity)
		bj := recommendations[j].FinancialImpact / float64(recommendations[j].Quantity)
		return bi > bj
	})
	if len(recommendations) > t.cfg.MaxTransfersPerSKU {
		recommendations = recommendations[:t.cfg.MaxTransfersPerSKU]
	}
	return recommendations
}

// RankTransfers orders the combined result set by urgency tier then
// financial impact, truncated to the configured global cap.
func (t *TransferOptimizer) RankTransfers(all []domain.TransferRecommendation) []domain.TransferRecommendation {
	ranked := append([]domain.TransferRecommendation(nil), all...)
	sort.SliceStable(ranked, func(i, j int) bool {
		ui := domain.UrgencyRank(ranked[i].TransferUrgency)
		uj := domain.UrgencyRank(ranked[j].TransferUrgency)
		if ui != uj {
			return ui > uj
		}
		return ranked[i].FinancialImpact > ranked[j].FinancialImpact
	})
	if len(ranked) > t.cfg.MaxTransfersTotal {
		ranked = ranked[:t.cfg.MaxTransfersTotal]
	}
	return ranked
}

// pickPair selects the largest remaining excess and shortage locations
// among pairs not already rejected, ties broken by iteration order.
func pickPair(balances []*locationBalance, excessThreshold, shortageThreshold float64, rejected map[string]bool) (source, dest *locationBalance) {
	for _, s := range balances {
		if s.imbalance <= excessThreshold {
			continue
		}
		for _, d := range balances {
			if d.imbalance >= shortageThreshold {
				continue
			}
			if rejected[s.Location+"->"+d.Location] {
				continue
			}
			if source == nil ||
				s.imbalance > source.imbalance ||
				(s.imbalance == source.imbalance && d.imbalance < dest.imbalance) {
				source, dest = s, d
			}
		}
	}
	return source, dest
}

func transferTrendMultiplier(classification string) float64 {
	switch {
	case IsUpwardTrend(classification):
		return 1.2
	case IsDecliningTrend(classification):
		return 0.8
	default:
		return 1.0
	}
}

func transferUrgency(destDays, leadTime float64) domain.TransferUrgency {
	switch {
	case destDays <= leadTime:
		return domain.UrgencyUrgent
	case destDays <= 1.5*leadTime:
		return domain.UrgencyHigh
	case destDays <= 2*leadTime:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}

func daysOfStock(inventory, dailyDemand float64) float64 {
	if dailyDemand <= 0 {
		return float64(domain.NoStockoutDays)
	}
	return inventory / dailyDemand
}
