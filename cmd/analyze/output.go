package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/retailpulse/stocksense/internal/domain"
)

// writeResultFiles renders one analysis run as plain CSV files plus a
// full JSON snapshot and returns the written paths.
func writeResultFiles(outDir string, result *domain.AnalysisResult) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var paths []string
	writers := []struct {
		name  string
		write func(w *csv.Writer) error
	}{
		{"insights.csv", func(w *csv.Writer) error { return writeInsights(w, result.Insights) }},
		{"transfers.csv", func(w *csv.Writer) error { return writeTransfers(w, result.Transfers) }},
		{"seasonal.csv", func(w *csv.Writer) error { return writeSeasonal(w, result.Seasonal) }},
		{"summary.csv", func(w *csv.Writer) error { return writeSummary(w, result.Summary) }},
	}

	for _, def := range writers {
		path := filepath.Join(outDir, def.name)
		if err := writeCSV(path, def.write); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	snapshotPath := filepath.Join(outDir, "run.json")
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode run snapshot: %w", err)
	}
	if err := os.WriteFile(snapshotPath, payload, 0644); err != nil {
		return nil, fmt.Errorf("failed to write run snapshot: %w", err)
	}
	paths = append(paths, snapshotPath)

	return paths, nil
}

func writeCSV(path string, write func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}

func writeInsights(w *csv.Writer, insights []domain.ProductInsight) error {
	if err := w.Write([]string{
		"product_id", "sku", "description", "brand",
		"trend", "trend_strength", "velocity_change",
		"recent_daily_demand", "historical_daily_demand",
		"current_inventory", "pending_inventory", "days_until_stockout",
		"reorder_priority", "recommended_qty", "reorder_timing", "reasoning",
	}); err != nil {
		return err
	}

	for _, ins := range insights {
		record := []string{
			ins.ProductID,
			ins.SKU,
			ins.Description,
			ins.Brand,
			ins.TrendClassification,
			ins.TrendStrength,
			formatFloat(ins.VelocityChange),
			formatFloat(ins.Recent.DailyDemand),
			formatFloat(ins.Historical.DailyDemand),
			formatFloat(ins.CurrentInventory),
			formatFloat(ins.PendingInventory),
			strconv.Itoa(ins.DaysUntilStockout),
			string(ins.ReorderPriority),
			strconv.Itoa(ins.RecommendedQty),
			string(ins.ReorderTiming),
			ins.Reasoning,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeTransfers(w *csv.Writer, transfers []domain.TransferRecommendation) error {
	if err := w.Write([]string{
		"product_id", "sku", "from_location", "to_location", "quantity",
		"urgency", "financial_impact", "from_days_of_stock", "to_days_of_stock", "reasoning",
	}); err != nil {
		return err
	}

	for _, tr := range transfers {
		record := []string{
			tr.ProductID,
			tr.SKU,
			tr.From.Location,
			tr.To.Location,
			strconv.Itoa(tr.Quantity),
			string(tr.TransferUrgency),
			formatFloat(tr.FinancialImpact),
			formatFloat(tr.From.DaysOfStock),
			formatFloat(tr.To.DaysOfStock),
			tr.Reasoning,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeSeasonal(w *csv.Writer, seasonal []domain.SeasonalInsight) error {
	if err := w.Write([]string{
		"month", "month_name", "avg_daily_demand", "seasonal_multiplier", "peak_products",
	}); err != nil {
		return err
	}

	for _, s := range seasonal {
		peaks := ""
		for i, p := range s.PeakProducts {
			if i > 0 {
				peaks += "; "
			}
			peaks += fmt.Sprintf("%s (%.1fx)", p.ProductID, p.ElevationRatio)
		}
		record := []string{
			strconv.Itoa(s.Month),
			s.MonthName,
			formatFloat(s.AvgDailyDemand),
			formatFloat(s.SeasonalMultiplier),
			peaks,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// writeVariantDemandFile renders the store-level order-sheet rows, one
// line per variant and location.
func writeVariantDemandFile(outDir string, variants []domain.VariantDemand) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(outDir, "variant_demand.csv")
	err := writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{
			"product_id", "variant_id", "sku", "location",
			"daily_demand", "current_stock", "recommended_qty",
			"total_demand", "total_stock", "priority_score",
		}); err != nil {
			return err
		}

		for _, v := range variants {
			for _, loc := range v.Locations {
				record := []string{
					v.ProductID,
					v.VariantID,
					v.SKU,
					loc.Location,
					formatFloat(loc.DailyDemand),
					formatFloat(loc.CurrentStock),
					strconv.Itoa(loc.RecommendedQty),
					formatFloat(v.TotalDemand),
					formatFloat(v.TotalStock),
					formatFloat(v.PriorityScore),
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func writeSummary(w *csv.Writer, summary map[string]float64) error {
	if err := w.Write([]string{"metric", "value"}); err != nil {
		return err
	}

	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := w.Write([]string{k, formatFloat(summary[k])}); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
