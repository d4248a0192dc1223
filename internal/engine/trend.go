package engine

import "github.com/retailpulse/stocksense/internal/domain"

// Trend classification labels.
const (
	TrendNewProduct        = "New Product"
	TrendNoRecentSales     = "No Recent Sales"
	TrendLowVolume         = "Low Volume"
	TrendSlowMoving        = "Slow Moving"
	TrendNewStrongSeller   = "New Strong Seller"
	TrendNewModerateSeller = "New Moderate Seller"
	TrendTrendingUp        = "Trending Up"
	TrendGrowing           = "Growing"
	TrendHotSeller         = "Hot Seller"
	TrendSteadySeller      = "Steady Seller"
	TrendStable            = "Stable"
	TrendDeclining         = "Declining"
)

// Trend strength labels.
const (
	StrengthStrong    = "Strong"
	StrengthModerate  = "Moderate"
	StrengthWeak      = "Weak"
	StrengthLowVolume = "Low Volume"
	StrengthNone      = "N/A"
)

// Minimum-volume thresholds for trend classification.
const (
	minRecentTotal     = 3.0
	minDailyDemand     = 0.1
	minHistoricalTotal = 2.0
)

// TrendResult is the trend classifier's output for one product.
type TrendResult struct {
	Classification string
	Strength       string
	VelocityChange float64
}

// trendRule pairs a guard with its result. Rules are evaluated top to
// bottom and the first match wins; the ordering is load-bearing.
type trendRule struct {
	match  func(s trendSignals) bool
	result func(s trendSignals) (string, string)
}

type trendSignals struct {
	recentTotal     float64
	historicalTotal float64
	recentDaily     float64
	historicalDaily float64
	velocity        float64
}

var trendRules = []trendRule{
	// Too few recent sales to call a trend.
	{
		match: func(s trendSignals) bool { return s.recentTotal < minRecentTotal },
		result: func(s trendSignals) (string, string) {
			switch {
			case s.historicalTotal == 0:
				return TrendNewProduct, StrengthLowVolume
			case s.recentTotal == 0:
				return TrendNoRecentSales, StrengthLowVolume
			default:
				return TrendLowVolume, StrengthLowVolume
			}
		},
	},
	{
		match:  func(s trendSignals) bool { return s.recentDaily < minDailyDemand },
		result: func(s trendSignals) (string, string) { return TrendSlowMoving, StrengthWeak },
	},
	// Enough recent volume but no historical baseline.
	{
		match: func(s trendSignals) bool { return s.historicalTotal < minHistoricalTotal },
		result: func(s trendSignals) (string, string) {
			switch {
			case s.recentDaily >= 1.0:
				return TrendNewStrongSeller, StrengthStrong
			case s.recentDaily >= 0.5:
				return TrendNewModerateSeller, StrengthModerate
			default:
				return TrendNewProduct, StrengthWeak
			}
		},
	},
	// Sufficient volume in both periods: branch on velocity change.
	{
		match:  func(s trendSignals) bool { return s.velocity > 50 && s.recentDaily >= 0.5 },
		result: func(s trendSignals) (string, string) { return TrendTrendingUp, StrengthStrong },
	},
	{
		match:  func(s trendSignals) bool { return s.velocity > 20 && s.recentDaily >= 0.3 },
		result: func(s trendSignals) (string, string) { return TrendTrendingUp, StrengthModerate },
	},
	{
		match:  func(s trendSignals) bool { return s.velocity > 5 && s.recentDaily >= 0.2 },
		result: func(s trendSignals) (string, string) { return TrendGrowing, StrengthWeak },
	},
	{
		match: func(s trendSignals) bool { return s.velocity > -5 },
		result: func(s trendSignals) (string, string) {
			switch {
			case s.recentDaily >= 1.0:
				return TrendHotSeller, StrengthStrong
			case s.recentDaily >= 0.5:
				return TrendSteadySeller, StrengthModerate
			default:
				return TrendStable, StrengthWeak
			}
		},
	},
	{
		match:  func(s trendSignals) bool { return s.velocity > -20 },
		result: func(s trendSignals) (string, string) { return TrendDeclining, StrengthWeak },
	},
	{
		match:  func(s trendSignals) bool { return true },
		result: func(s trendSignals) (string, string) { return TrendDeclining, StrengthStrong },
	},
}

// ClassifyTrend compares recent against historical performance and
// assigns a trend label, strength and velocity change.
func ClassifyTrend(recent, historical domain.PeriodPerformance) TrendResult {
	s := trendSignals{
		recentTotal:     recent.TotalQuantity,
		historicalTotal: historical.TotalQuantity,
		recentDaily:     recent.DailyDemand,
		historicalDaily: historical.DailyDemand,
	}

	// Velocity is only defined when both daily rates are positive.
	if s.recentDaily > 0 && s.historicalDaily > 0 {
		s.velocity = (s.recentDaily - s.historicalDaily) / s.historicalDaily * 100
	}

	for _, rule := range trendRules {
		if rule.match(s) {
			classification, strength := rule.result(s)
			return TrendResult{
				Classification: classification,
				Strength:       strength,
				VelocityChange: s.velocity,
			}
		}
	}

	// Unreachable: the last rule always matches.
	return TrendResult{Classification: TrendStable, Strength: StrengthNone, VelocityChange: s.velocity}
}

// IsUpwardTrend reports whether a classification counts as trending or
// hot for multiplier and transfer purposes.
func IsUpwardTrend(classification string) bool {
	switch classification {
	case TrendTrendingUp, TrendHotSeller, TrendNewStrongSeller:
		return true
	}
	return false
}

// IsDecliningTrend reports whether a classification counts as declining.
func IsDecliningTrend(classification string) bool {
	return classification == TrendDeclining
}
