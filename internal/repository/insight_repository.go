package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/retailpulse/stocksense/internal/domain"
	"github.com/retailpulse/stocksense/internal/repository/postgres"
)

// InsightRepository loads analysis inputs and persists run results.
type InsightRepository interface {
	GetOrderLines(ctx context.Context, since time.Time) ([]domain.OrderLine, error)
	GetInventory(ctx context.Context) ([]domain.InventoryRecord, error)
	GetPendingOrders(ctx context.Context) ([]domain.PendingOrder, error)

	SaveAnalysisRun(ctx context.Context, result *domain.AnalysisResult) error
	GetInsights(ctx context.Context, filter domain.InsightFilter) ([]domain.ProductInsight, error)
	GetLatestRun(ctx context.Context) (*domain.AnalysisResult, error)
	GetLatestRunAt(ctx context.Context) (time.Time, error)

	ReplaceOrderLines(ctx context.Context, lines []domain.OrderLine) error
	ReplaceInventory(ctx context.Context, records []domain.InventoryRecord) error
	ReplacePendingOrders(ctx context.Context, pending []domain.PendingOrder) error
}

type insightRepository struct {
	db *postgres.DB
}

func NewInsightRepository(db *postgres.DB) InsightRepository {
	return &insightRepository{db: db}
}

func (r *insightRepository) GetOrderLines(ctx context.Context, since time.Time) ([]domain.OrderLine, error) {
	query := `
		SELECT product_id, variant_id, sku, description, brand,
		       quantity, unit_price, location, ordered_at
		FROM order_lines
		WHERE ordered_at >= $1
		ORDER BY ordered_at
	`

	var lines []domain.OrderLine
	if err := r.db.SelectContext(ctx, &lines, query, since); err != nil {
		return nil, fmt.Errorf("error getting order lines: %w", err)
	}
	return lines, nil
}

func (r *insightRepository) GetInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	query := `
		SELECT product_id, variant_id, sku, description, brand, location, on_hand
		FROM inventory_snapshot
	`

	var records []domain.InventoryRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("error getting inventory snapshot: %w", err)
	}
	return records, nil
}

func (r *insightRepository) GetPendingOrders(ctx context.Context) ([]domain.PendingOrder, error) {
	query := `
		SELECT sku, variant, quantity, location, expected_at, brand
		FROM pending_orders
	`

	var pending []domain.PendingOrder
	if err := r.db.SelectContext(ctx, &pending, query); err != nil {
		return nil, fmt.Errorf("error getting pending orders: %w", err)
	}
	return pending, nil
}

// insightRow is the flat persistence shape of a ProductInsight.
type insightRow struct {
	RunAt               time.Time `db:"run_at"`
	ProductID           string    `db:"product_id"`
	SKU                 string    `db:"sku"`
	Description         string    `db:"description"`
	Brand               string    `db:"brand"`
	RecentQty           float64   `db:"recent_quantity"`
	RecentRevenue       float64   `db:"recent_revenue"`
	RecentOrders        int       `db:"recent_orders"`
	RecentSpanDays      int       `db:"recent_span_days"`
	RecentDaily         float64   `db:"recent_daily_demand"`
	RecentDailyRevenue  float64   `db:"recent_daily_revenue"`
	HistQty             float64   `db:"historical_quantity"`
	HistRevenue         float64   `db:"historical_revenue"`
	HistOrders          int       `db:"historical_orders"`
	HistSpanDays        int       `db:"historical_span_days"`
	HistDaily           float64   `db:"historical_daily_demand"`
	HistDailyRevenue    float64   `db:"historical_daily_revenue"`
	TrendClassification string    `db:"trend_classification"`
	TrendStrength       string    `db:"trend_strength"`
	VelocityChange      float64   `db:"velocity_change"`
	CurrentInventory    float64   `db:"current_inventory"`
	PendingInventory    float64   `db:"pending_inventory"`
	DaysUntilStockout   int       `db:"days_until_stockout"`
	ReorderPriority     string    `db:"reorder_priority"`
	RecommendedQty      int       `db:"recommended_qty"`
	ReorderTiming       string    `db:"reorder_timing"`
	Reasoning           string    `db:"reasoning"`
}

func toRow(runAt time.Time, ins domain.ProductInsight) insightRow {
	return insightRow{
		RunAt:               runAt,
		ProductID:           ins.ProductID,
		SKU:                 ins.SKU,
		Description:         ins.Description,
		Brand:               ins.Brand,
		RecentQty:           ins.Recent.TotalQuantity,
		RecentRevenue:       ins.Recent.TotalRevenue,
		RecentOrders:        ins.Recent.OrderCount,
		RecentSpanDays:      ins.Recent.SpanDays,
		RecentDaily:         ins.Recent.DailyDemand,
		RecentDailyRevenue:  ins.Recent.DailyRevenue,
		HistQty:             ins.Historical.TotalQuantity,
		HistRevenue:         ins.Historical.TotalRevenue,
		HistOrders:          ins.Historical.OrderCount,
		HistSpanDays:        ins.Historical.SpanDays,
		HistDaily:           ins.Historical.DailyDemand,
		HistDailyRevenue:    ins.Historical.DailyRevenue,
		TrendClassification: ins.TrendClassification,
		TrendStrength:       ins.TrendStrength,
		VelocityChange:      ins.VelocityChange,
		CurrentInventory:    ins.CurrentInventory,
		PendingInventory:    ins.PendingInventory,
		DaysUntilStockout:   ins.DaysUntilStockout,
		ReorderPriority:     string(ins.ReorderPriority),
		RecommendedQty:      ins.RecommendedQty,
		ReorderTiming:       string(ins.ReorderTiming),
		Reasoning:           ins.Reasoning,
	}
}

func (row insightRow) toInsight() domain.ProductInsight {
	return domain.ProductInsight{
		ProductID:   row.ProductID,
		SKU:         row.SKU,
		Description: row.Description,
		Brand:       row.Brand,
		Recent: domain.PeriodPerformance{
			TotalQuantity: row.RecentQty,
			TotalRevenue:  row.RecentRevenue,
			OrderCount:    row.RecentOrders,
			SpanDays:      row.RecentSpanDays,
			DailyDemand:   row.RecentDaily,
			DailyRevenue:  row.RecentDailyRevenue,
		},
		Historical: domain.PeriodPerformance{
			TotalQuantity: row.HistQty,
			TotalRevenue:  row.HistRevenue,
			OrderCount:    row.HistOrders,
			SpanDays:      row.HistSpanDays,
			DailyDemand:   row.HistDaily,
			DailyRevenue:  row.HistDailyRevenue,
		},
		TrendClassification: row.TrendClassification,
		TrendStrength:       row.TrendStrength,
		VelocityChange:      row.VelocityChange,
		CurrentInventory:    row.CurrentInventory,
		PendingInventory:    row.PendingInventory,
		DaysUntilStockout:   row.DaysUntilStockout,
		ReorderPriority:     domain.ReorderPriority(row.ReorderPriority),
		RecommendedQty:      row.RecommendedQty,
		ReorderTiming:       domain.ReorderTiming(row.ReorderTiming),
		Reasoning:           row.Reasoning,
	}
}

// SaveAnalysisRun persists one run header plus its per-product insights
// in a single transaction. Seasonal and transfer outputs are stored as
// JSON documents on the run row since they are only read back whole.
func (r *insightRepository) SaveAnalysisRun(ctx context.Context, result *domain.AnalysisResult) error {
	seasonal, err := json.Marshal(result.Seasonal)
	if err != nil {
		return fmt.Errorf("error encoding seasonal insights: %w", err)
	}
	transfers, err := json.Marshal(result.Transfers)
	if err != nil {
		return fmt.Errorf("error encoding transfers: %w", err)
	}
	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("error encoding summary: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO analysis_runs (run_at, seasonal, transfers, summary)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (run_at) DO UPDATE SET
				seasonal = EXCLUDED.seasonal,
				transfers = EXCLUDED.transfers,
				summary = EXCLUDED.summary
		`, result.RunAt, seasonal, transfers, summary); err != nil {
			return fmt.Errorf("error saving analysis run: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM product_insights WHERE run_at = $1`, result.RunAt); err != nil {
			return fmt.Errorf("error clearing previous insights: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO product_insights (
				run_at, product_id, sku, description, brand,
				recent_quantity, recent_revenue, recent_orders, recent_span_days,
				recent_daily_demand, recent_daily_revenue,
				historical_quantity, historical_revenue, historical_orders, historical_span_days,
				historical_daily_demand, historical_daily_revenue,
				trend_classification, trend_strength, velocity_change,
				current_inventory, pending_inventory, days_until_stockout,
				reorder_priority, recommended_qty, reorder_timing, reasoning
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
			)
		`)
		if err != nil {
			return fmt.Errorf("error preparing insight insert: %w", err)
		}
		defer stmt.Close()

		for _, ins := range result.Insights {
			row := toRow(result.RunAt, ins)
			if _, err := stmt.ExecContext(ctx,
				row.RunAt, row.ProductID, row.SKU, row.Description, row.Brand,
				row.RecentQty, row.RecentRevenue, row.RecentOrders, row.RecentSpanDays,
				row.RecentDaily, row.RecentDailyRevenue,
				row.HistQty, row.HistRevenue, row.HistOrders, row.HistSpanDays,
				row.HistDaily, row.HistDailyRevenue,
				row.TrendClassification, row.TrendStrength, row.VelocityChange,
				row.CurrentInventory, row.PendingInventory, row.DaysUntilStockout,
				row.ReorderPriority, row.RecommendedQty, row.ReorderTiming, row.Reasoning,
			); err != nil {
				return fmt.Errorf("error saving insight for %s: %w", row.ProductID, err)
			}
		}
		return nil
	})
}

func (r *insightRepository) GetInsights(ctx context.Context, filter domain.InsightFilter) ([]domain.ProductInsight, error) {
	query := `
		SELECT run_at, product_id, sku, description, brand,
		       recent_quantity, recent_revenue, recent_orders, recent_span_days,
		       recent_daily_demand, recent_daily_revenue,
		       historical_quantity, historical_revenue, historical_orders, historical_span_days,
		       historical_daily_demand, historical_daily_revenue,
		       trend_classification, trend_strength, velocity_change,
		       current_inventory, pending_inventory, days_until_stockout,
		       reorder_priority, recommended_qty, reorder_timing, reasoning
		FROM product_insights
		WHERE run_at = (SELECT MAX(run_at) FROM analysis_runs)
	`

	var args []interface{}
	var conditions []string
	argCounter := 1

	if filter.Brand != "" {
		conditions = append(conditions, fmt.Sprintf("brand = $%d", argCounter))
		args = append(args, filter.Brand)
		argCounter++
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("reorder_priority = $%d", argCounter))
		args = append(args, strings.ToUpper(filter.Priority))
		argCounter++
	}
	if filter.Trend != "" {
		conditions = append(conditions, fmt.Sprintf("trend_classification = $%d", argCounter))
		args = append(args, filter.Trend)
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += `
		ORDER BY CASE reorder_priority
			WHEN 'CRITICAL' THEN 0
			WHEN 'HIGH' THEN 1
			WHEN 'MEDIUM' THEN 2
			ELSE 3
		END, recent_daily_demand DESC
	`

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCounter)
		args = append(args, filter.Limit)
	}

	var rows []insightRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error getting insights: %w", err)
	}

	insights := make([]domain.ProductInsight, 0, len(rows))
	for _, row := range rows {
		insights = append(insights, row.toInsight())
	}
	return insights, nil
}

// GetLatestRun reassembles the most recent run: header JSON documents
// plus the per-product insight rows.
func (r *insightRepository) GetLatestRun(ctx context.Context) (*domain.AnalysisResult, error) {
	var run struct {
		RunAt     time.Time `db:"run_at"`
		Seasonal  []byte    `db:"seasonal"`
		Transfers []byte    `db:"transfers"`
		Summary   []byte    `db:"summary"`
	}

	err := r.db.GetContext(ctx, &run, `
		SELECT run_at, seasonal, transfers, summary
		FROM analysis_runs
		ORDER BY run_at DESC
		LIMIT 1
	`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting latest run: %w", err)
	}

	result := &domain.AnalysisResult{RunAt: run.RunAt}
	if err := json.Unmarshal(run.Seasonal, &result.Seasonal); err != nil {
		return nil, fmt.Errorf("error decoding seasonal insights: %w", err)
	}
	if err := json.Unmarshal(run.Transfers, &result.Transfers); err != nil {
		return nil, fmt.Errorf("error decoding transfers: %w", err)
	}
	if err := json.Unmarshal(run.Summary, &result.Summary); err != nil {
		return nil, fmt.Errorf("error decoding summary: %w", err)
	}

	result.Insights, err = r.GetInsights(ctx, domain.InsightFilter{})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *insightRepository) GetLatestRunAt(ctx context.Context) (time.Time, error) {
	var runAt sql.NullTime
	err := r.db.GetContext(ctx, &runAt, `SELECT MAX(run_at) FROM analysis_runs`)
	if err != nil {
		return time.Time{}, fmt.Errorf("error getting latest run: %w", err)
	}
	if !runAt.Valid {
		return time.Time{}, nil
	}
	return runAt.Time, nil
}

// ReplaceOrderLines swaps the full order history for a fresh import.
func (r *insightRepository) ReplaceOrderLines(ctx context.Context, lines []domain.OrderLine) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines`); err != nil {
			return fmt.Errorf("error clearing order lines: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO order_lines (
				product_id, variant_id, sku, description, brand,
				quantity, unit_price, location, ordered_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`)
		if err != nil {
			return fmt.Errorf("error preparing order insert: %w", err)
		}
		defer stmt.Close()

		for _, l := range lines {
			if _, err := stmt.ExecContext(ctx,
				l.ProductID, l.VariantID, l.SKU, l.Description, l.Brand,
				l.Quantity, l.UnitPrice, l.Location, l.OrderedAt,
			); err != nil {
				return fmt.Errorf("error inserting order line: %w", err)
			}
		}
		return nil
	})
}

// ReplaceInventory swaps the inventory snapshot for a fresh import.
func (r *insightRepository) ReplaceInventory(ctx context.Context, records []domain.InventoryRecord) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_snapshot`); err != nil {
			return fmt.Errorf("error clearing inventory: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO inventory_snapshot (
				product_id, variant_id, sku, description, brand, location, on_hand
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`)
		if err != nil {
			return fmt.Errorf("error preparing inventory insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx,
				rec.ProductID, rec.VariantID, rec.SKU, rec.Description,
				rec.Brand, rec.Location, rec.OnHand,
			); err != nil {
				return fmt.Errorf("error inserting inventory record: %w", err)
			}
		}
		return nil
	})
}

// ReplacePendingOrders swaps the pending-order set for a fresh import.
func (r *insightRepository) ReplacePendingOrders(ctx context.Context, pending []domain.PendingOrder) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_orders`); err != nil {
			return fmt.Errorf("error clearing pending orders: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO pending_orders (
				sku, variant, quantity, location, expected_at, brand
			) VALUES ($1, $2, $3, $4, $5, $6)
		`)
		if err != nil {
			return fmt.Errorf("error preparing pending insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range pending {
			if _, err := stmt.ExecContext(ctx,
				p.SKU, p.Variant, p.Quantity, p.Location, p.ExpectedAt, p.Brand,
			); err != nil {
				return fmt.Errorf("error inserting pending order: %w", err)
			}
		}
		return nil
	})
}
