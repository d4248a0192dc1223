package engine

import (
	"fmt"
	"math"
)

// StockLevel is the output of the newsvendor safety-stock model.
type StockLevel struct {
	OptimalStock float64 `json:"optimal_stock"`
	SafetyStock  float64 `json:"safety_stock"`
	// EconomicServiceLevel is the service level a purely cost-driven
	// newsvendor would imply (Cs / (Cs + Ch)). Reported for comparison
	// against the configured target, never substituted for it.
	EconomicServiceLevel float64 `json:"economic_service_level"`
}

// OptimizeStockLevel computes the target stock for one product over its
// lead time: lead-time demand plus z-scaled safety stock at the target
// service level.
func OptimizeStockLevel(dailyDemand, dailyStd float64, leadTimeDays int, holdingCost, stockoutCost, serviceLevel float64) (*StockLevel, error) {
	if dailyDemand < 0 {
		return nil, fmt.Errorf("daily demand must be non-negative, got %f", dailyDemand)
	}
	if leadTimeDays <= 0 {
		return nil, fmt.Errorf("lead time must be positive, got %d", leadTimeDays)
	}
	if serviceLevel <= 0 || serviceLevel >= 1 {
		return nil, fmt.Errorf("service level must be in (0,1), got %f", serviceLevel)
	}
	if dailyStd < 0 {
		dailyStd = 0
	}

	leadTime := float64(leadTimeDays)
	ltdMean := dailyDemand * leadTime
	ltdStd := dailyStd * math.Sqrt(leadTime)

	z := normInv(serviceLevel)
	safetyStock := z * ltdStd
	if safetyStock < 0 {
		safetyStock = 0
	}

	economic := 0.0
	if stockoutCost+holdingCost > 0 {
		economic = stockoutCost / (stockoutCost + holdingCost)
	}

	return &StockLevel{
		OptimalStock:         ltdMean + safetyStock,
		SafetyStock:          safetyStock,
		EconomicServiceLevel: economic,
	}, nil
}

// normInv approximates the inverse standard normal CDF using Acklam's
// rational approximation (relative error < 1.15e-9 over (0,1)).
func normInv(p float64) float64 {
	a := [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02,
		-2.759285104469687e+02, 1.383577518672690e+02,
		-3.066479806614716e+01, 2.506628277459239e+00,
	}
	b := [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02,
		-1.556989798598866e+02, 6.680131188771972e+01,
		-1.328068155288572e+01,
	}
	c := [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01,
		-2.400758277161838e+00, -2.549732539343734e+00,
		4.374664141464968e+00, 2.938163982698783e+00,
	}
	d := [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01,
		2.445134137142996e+00, 3.754408661907416e+00,
	}

	const (
		pLow  = 0.02425
		pHigh = 1 - pLow
	)

	switch {
	case p <= 0:
		return math.Inf(-1)
	case p >= 1:
		return math.Inf(1)
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p <= pHigh:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	default:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
}
