package domain

import "time"

// OrderLine is a single parsed sales order line item. Parsing from the
// source platform's wire format happens upstream; the engine only
// groups and aggregates these records.
type OrderLine struct {
	ProductID   string    `json:"product_id" db:"product_id"`
	VariantID   string    `json:"variant_id" db:"variant_id"`
	SKU         string    `json:"sku" db:"sku"`
	Description string    `json:"description" db:"description"`
	Brand       string    `json:"brand" db:"brand"`
	Quantity    float64   `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Location    string    `json:"location" db:"location"`
	OrderedAt   time.Time `json:"ordered_at" db:"ordered_at"`
}

// InventoryRecord is a per-variant, per-location on-hand snapshot.
type InventoryRecord struct {
	ProductID   string  `json:"product_id" db:"product_id"`
	VariantID   string  `json:"variant_id" db:"variant_id"`
	SKU         string  `json:"sku" db:"sku"`
	Description string  `json:"description" db:"description"`
	Brand       string  `json:"brand" db:"brand"`
	Location    string  `json:"location" db:"location"`
	OnHand      float64 `json:"on_hand" db:"on_hand"`
}

// PendingOrder is a quantity already ordered for a style/location but
// not yet received. The engine only consumes the aggregate pending
// quantity per (style, location); it never persists these.
type PendingOrder struct {
	SKU        string    `json:"sku" db:"sku"`
	Variant    string    `json:"variant" db:"variant"`
	Quantity   float64   `json:"quantity" db:"quantity"`
	Location   string    `json:"location" db:"location"`
	ExpectedAt time.Time `json:"expected_at" db:"expected_at"`
	Brand      string    `json:"brand" db:"brand"`
}

// PeriodPerformance aggregates a product's sales over one analysis
// period. Immutable once computed; SpanDays is always >= 1.
type PeriodPerformance struct {
	TotalQuantity float64 `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
	OrderCount    int     `json:"order_count"`
	SpanDays      int     `json:"span_days"`
	DailyDemand   float64 `json:"daily_demand"`
	DailyRevenue  float64 `json:"daily_revenue"`
}

// NoStockoutDays is the sentinel for "no meaningful demand, effectively
// never runs out".
const NoStockoutDays = 999

// ProductInsight is the per-product output of one analysis run.
type ProductInsight struct {
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
	Brand       string `json:"brand"`

	Recent     PeriodPerformance `json:"recent"`
	Historical PeriodPerformance `json:"historical"`

	TrendClassification string  `json:"trend_classification"`
	TrendStrength       string  `json:"trend_strength"`
	VelocityChange      float64 `json:"velocity_change"`

	CurrentInventory  float64 `json:"current_inventory"`
	PendingInventory  float64 `json:"pending_inventory"`
	DaysUntilStockout int     `json:"days_until_stockout"`

	ReorderPriority ReorderPriority `json:"reorder_priority"`
	RecommendedQty  int             `json:"recommended_qty"`
	ReorderTiming   ReorderTiming   `json:"reorder_timing"`
	Reasoning       string          `json:"reasoning"`
}

// SeasonalPeak is one elevated product within a month.
type SeasonalPeak struct {
	ProductID       string  `json:"product_id"`
	Quantity        float64 `json:"quantity"`
	ElevationRatio  float64 `json:"elevation_ratio"`
	MonthlyAvgDaily float64 `json:"monthly_avg_daily"`
	OverallAvgDaily float64 `json:"overall_avg_daily"`
}

// SeasonalInsight describes one calendar month's demand profile.
type SeasonalInsight struct {
	Month              int            `json:"month"`
	MonthName          string         `json:"month_name"`
	AvgDailyDemand     float64        `json:"avg_daily_demand"`
	SeasonalMultiplier float64        `json:"seasonal_multiplier"`
	PeakProducts       []SeasonalPeak `json:"peak_products"`
}

// LocationDemand holds a variant's demand and stock at one location.
type LocationDemand struct {
	Location       string  `json:"location"`
	DailyDemand    float64 `json:"daily_demand"`
	CurrentStock   float64 `json:"current_stock"`
	RecommendedQty int     `json:"recommended_qty"`
}

// VariantDemand is the store-level granularity used for order sheets.
type VariantDemand struct {
	ProductID     string           `json:"product_id"`
	VariantID     string           `json:"variant_id"`
	SKU           string           `json:"sku"`
	Locations     []LocationDemand `json:"locations"`
	TotalDemand   float64          `json:"total_demand"`
	TotalStock    float64          `json:"total_stock"`
	PriorityScore float64          `json:"priority_score"`
}

// TransferEndpoint describes one side of a proposed transfer.
type TransferEndpoint struct {
	Location    string  `json:"location"`
	Inventory   float64 `json:"inventory"`
	DailyDemand float64 `json:"daily_demand"`
	DaysOfStock float64 `json:"days_of_stock"`
}

// TransferRecommendation proposes moving units between two locations.
// Ephemeral: recomputed per run, ranked, truncated to a top-N list.
type TransferRecommendation struct {
	ProductID       string           `json:"product_id"`
	VariantID       string           `json:"variant_id"`
	SKU             string           `json:"sku"`
	From            TransferEndpoint `json:"from"`
	To              TransferEndpoint `json:"to"`
	Quantity        int              `json:"quantity"`
	TransferUrgency TransferUrgency  `json:"transfer_urgency"`
	FinancialImpact float64          `json:"financial_impact"`
	OpportunityCost float64          `json:"opportunity_cost"`
	Reasoning       string           `json:"reasoning"`
}

// AnalysisResult bundles the outputs of one analysis run.
type AnalysisResult struct {
	RunAt     time.Time                `json:"run_at"`
	Insights  []ProductInsight         `json:"insights"`
	Seasonal  []SeasonalInsight        `json:"seasonal"`
	Transfers []TransferRecommendation `json:"transfers"`
	Summary   map[string]float64       `json:"summary"`
}

// InsightFilter narrows API insight queries.
type InsightFilter struct {
	Brand    string `json:"brand"`
	Priority string `json:"priority"`
	Trend    string `json:"trend"`
	Limit    int    `json:"limit"`
}
