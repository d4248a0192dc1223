package engine

import (
	"strings"

	"github.com/retailpulse/stocksense/internal/domain"
)

// Config is the read-only configuration for one Analyzer. It is the
// only state shared across runs.
type Config struct {
	TargetServiceLevel  float64
	HoldingCostPerUnit  float64
	StockoutCostPerUnit float64
	TransferCostPerUnit float64

	// HoldingCostPerUnitPerDay prices the extra inventory a transfer
	// parks at the destination over the 30-day evaluation horizon. Kept
	// separate from the per-cycle HoldingCostPerUnit used by the
	// newsvendor cost ratio.
	HoldingCostPerUnitPerDay float64

	DefaultLeadTimeDays int
	BrandLeadTimes      map[string]int

	// RouteCosts maps "FROM->TO" to a per-unit transfer cost. Missing
	// routes fall back to TransferCostPerUnit.
	RouteCosts map[string]float64

	RecentWindowDays     int
	HistoricalWindowDays int

	OutlierThreshold  float64
	ExcessThreshold   float64
	ShortageThreshold float64

	MaxTransfersPerSKU int
	MaxTransfersTotal  int
	WorkerCount        int

	PendingDowngrade domain.DowngradePolicy
}

// DefaultConfig returns the documented defaults for every option.
func DefaultConfig() Config {
	return Config{
		TargetServiceLevel:       0.975,
		HoldingCostPerUnit:       2.0,
		StockoutCostPerUnit:      50.0,
		TransferCostPerUnit:      5.0,
		HoldingCostPerUnitPerDay: 0.05,
		DefaultLeadTimeDays:      14,
		BrandLeadTimes:           map[string]int{},
		RouteCosts:               map[string]float64{},
		RecentWindowDays:         30,
		HistoricalWindowDays:     180,
		OutlierThreshold:         2.5,
		ExcessThreshold:          2.0,
		ShortageThreshold:        -1.0,
		MaxTransfersPerSKU:       10,
		MaxTransfersTotal:        30,
		WorkerCount:              4,
		PendingDowngrade:         domain.DefaultDowngrade,
	}
}

// LeadTimeFor resolves a brand's lead time, falling back to the default.
func (c Config) LeadTimeFor(brand string) int {
	if days, ok := c.BrandLeadTimes[brand]; ok && days > 0 {
		return days
	}
	if c.DefaultLeadTimeDays > 0 {
		return c.DefaultLeadTimeDays
	}
	return 14
}

// RouteCostFor resolves the per-unit cost of moving stock between two
// locations. The table is directional; configure both directions for
// symmetric routes.
func (c Config) RouteCostFor(from, to string) float64 {
	if cost, ok := c.RouteCosts[routeKey(from, to)]; ok {
		return cost
	}
	return c.TransferCostPerUnit
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.TargetServiceLevel <= 0 || c.TargetServiceLevel >= 1 {
		c.TargetServiceLevel = d.TargetServiceLevel
	}
	if c.HoldingCostPerUnit <= 0 {
		c.HoldingCostPerUnit = d.HoldingCostPerUnit
	}
	if c.StockoutCostPerUnit <= 0 {
		c.StockoutCostPerUnit = d.StockoutCostPerUnit
	}
	if c.TransferCostPerUnit <= 0 {
		c.TransferCostPerUnit = d.TransferCostPerUnit
	}
	if c.HoldingCostPerUnitPerDay <= 0 {
		c.HoldingCostPerUnitPerDay = d.HoldingCostPerUnitPerDay
	}
	if c.DefaultLeadTimeDays <= 0 {
		c.DefaultLeadTimeDays = d.DefaultLeadTimeDays
	}
	if c.RecentWindowDays <= 0 {
		c.RecentWindowDays = d.RecentWindowDays
	}
	if c.HistoricalWindowDays <= 0 {
		c.HistoricalWindowDays = d.HistoricalWindowDays
	}
	if c.OutlierThreshold <= 0 {
		c.OutlierThreshold = d.OutlierThreshold
	}
	if c.ExcessThreshold <= 0 {
		c.ExcessThreshold = d.ExcessThreshold
	}
	if c.ShortageThreshold >= 0 {
		c.ShortageThreshold = d.ShortageThreshold
	}
	if c.MaxTransfersPerSKU <= 0 {
		c.MaxTransfersPerSKU = d.MaxTransfersPerSKU
	}
	if c.MaxTransfersTotal <= 0 {
		c.MaxTransfersTotal = d.MaxTransfersTotal
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.PendingDowngrade == nil {
		c.PendingDowngrade = domain.DefaultDowngrade
	}
	return c
}

func routeKey(from, to string) string {
	return strings.ToUpper(strings.TrimSpace(from)) + "->" + strings.ToUpper(strings.TrimSpace(to))
}
