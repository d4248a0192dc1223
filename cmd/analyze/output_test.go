package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpulse/stocksense/internal/domain"
)

func TestWriteVariantDemandFile(t *testing.T) {
	variants := []domain.VariantDemand{
		{
			ProductID: "p1", VariantID: "v1", SKU: "SKU-1",
			Locations: []domain.LocationDemand{
				{Location: "A", DailyDemand: 2, CurrentStock: 20, RecommendedQty: 40},
				{Location: "B", DailyDemand: 1, CurrentStock: 5, RecommendedQty: 20},
			},
			TotalDemand: 3, TotalStock: 25, PriorityScore: 50,
		},
	}

	dir := t.TempDir()
	path, err := writeVariantDemandFile(dir, variants)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "variant_demand.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per location")
	assert.Equal(t, []string{
		"product_id", "variant_id", "sku", "location",
		"daily_demand", "current_stock", "recommended_qty",
		"total_demand", "total_stock", "priority_score",
	}, rows[0])
	assert.Equal(t, []string{"p1", "v1", "SKU-1", "A", "2.00", "20.00", "40", "3.00", "25.00", "50.00"}, rows[1])
	assert.Equal(t, "B", rows[2][3])
}

func TestWriteVariantDemandFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path, err := writeVariantDemandFile(dir, nil)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestWriteResultFiles(t *testing.T) {
	result := &domain.AnalysisResult{
		Insights: []domain.ProductInsight{{
			ProductID: "p1", SKU: "SKU-1", Brand: "Acme",
			ReorderPriority: domain.PriorityCritical,
			RecommendedQty:  42,
			ReorderTiming:   domain.TimingOrderNow,
		}},
		Summary: map[string]float64{"products_analyzed": 1},
	}

	dir := t.TempDir()
	paths, err := writeResultFiles(dir, result)
	require.NoError(t, err)
	require.Len(t, paths, 5)

	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}
