package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpulse/stocksense/internal/domain"
	"github.com/retailpulse/stocksense/internal/engine"
	"github.com/retailpulse/stocksense/internal/ingest"
)

type fakeRepo struct {
	orders    []domain.OrderLine
	inventory []domain.InventoryRecord
	pending   []domain.PendingOrder

	savedRun  *domain.AnalysisResult
	latestRun *domain.AnalysisResult
	insights  []domain.ProductInsight

	getInsightsCalls int
}

func (f *fakeRepo) GetOrderLines(ctx context.Context, since time.Time) ([]domain.OrderLine, error) {
	return f.orders, nil
}

func (f *fakeRepo) GetInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	return f.inventory, nil
}

func (f *fakeRepo) GetPendingOrders(ctx context.Context) ([]domain.PendingOrder, error) {
	return f.pending, nil
}

func (f *fakeRepo) SaveAnalysisRun(ctx context.Context, result *domain.AnalysisResult) error {
	f.savedRun = result
	f.latestRun = result
	return nil
}

func (f *fakeRepo) GetInsights(ctx context.Context, filter domain.InsightFilter) ([]domain.ProductInsight, error) {
	f.getInsightsCalls++
	return f.insights, nil
}

func (f *fakeRepo) GetLatestRun(ctx context.Context) (*domain.AnalysisResult, error) {
	return f.latestRun, nil
}

func (f *fakeRepo) GetLatestRunAt(ctx context.Context) (time.Time, error) {
	if f.latestRun == nil {
		return time.Time{}, nil
	}
	return f.latestRun.RunAt, nil
}

func (f *fakeRepo) ReplaceOrderLines(ctx context.Context, lines []domain.OrderLine) error {
	f.orders = lines
	return nil
}

func (f *fakeRepo) ReplaceInventory(ctx context.Context, records []domain.InventoryRecord) error {
	f.inventory = records
	return nil
}

func (f *fakeRepo) ReplacePendingOrders(ctx context.Context, pending []domain.PendingOrder) error {
	f.pending = pending
	return nil
}

// memCache is a trivial in-memory InsightCache for observing hits.
type memCache struct {
	insights map[string][]domain.ProductInsight
	result   *domain.AnalysisResult

	setInsightsCalls int
	setResultCalls   int
	invalidations    int
}

func newMemCache() *memCache {
	return &memCache{insights: map[string][]domain.ProductInsight{}}
}

func (m *memCache) key(filter domain.InsightFilter) string {
	return filter.Brand + "|" + filter.Priority + "|" + filter.Trend
}

func (m *memCache) GetInsights(ctx context.Context, filter domain.InsightFilter) ([]domain.ProductInsight, bool, error) {
	ins, ok := m.insights[m.key(filter)]
	return ins, ok, nil
}

func (m *memCache) SetInsights(ctx context.Context, filter domain.InsightFilter, insights []domain.ProductInsight) error {
	m.setInsightsCalls++
	m.insights[m.key(filter)] = insights
	return nil
}

func (m *memCache) GetResult(ctx context.Context) (*domain.AnalysisResult, bool, error) {
	return m.result, m.result != nil, nil
}

func (m *memCache) SetResult(ctx context.Context, result *domain.AnalysisResult) error {
	m.setResultCalls++
	m.result = result
	return nil
}

func (m *memCache) InvalidateAll(ctx context.Context) error {
	m.invalidations++
	m.insights = map[string][]domain.ProductInsight{}
	m.result = nil
	return nil
}

func serviceFixtureOrders(ref time.Time) []domain.OrderLine {
	var orders []domain.OrderLine
	for day := 1; day <= 60; day++ {
		orders = append(orders, domain.OrderLine{
			ProductID: "p1",
			SKU:       "SKU-1",
			Brand:     "Acme",
			Quantity:  2,
			UnitPrice: 20,
			Location:  "JAKARTA",
			OrderedAt: ref.AddDate(0, 0, -day),
		})
	}
	return orders
}

func TestRunAnalysisPersistsAndPrimesCache(t *testing.T) {
	ref := time.Now()
	repo := &fakeRepo{
		orders: serviceFixtureOrders(ref),
		inventory: []domain.InventoryRecord{
			{ProductID: "p1", SKU: "SKU-1", Brand: "Acme", Location: "JAKARTA", OnHand: 10},
		},
	}
	cache := newMemCache()
	svc := NewInsightService(repo, cache, engine.DefaultConfig())

	result, err := svc.RunAnalysis(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Insights, 1)

	assert.Same(t, result, repo.savedRun)
	assert.Equal(t, 1, cache.invalidations)
	assert.Equal(t, 1, cache.setResultCalls)

	// Reads after a run come straight from the primed cache.
	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, summary["products_analyzed"])
}

func TestGetInsightsCacheFirst(t *testing.T) {
	repo := &fakeRepo{
		insights: []domain.ProductInsight{{ProductID: "p1"}},
	}
	cache := newMemCache()
	svc := NewInsightService(repo, cache, engine.DefaultConfig())

	filter := domain.InsightFilter{Brand: "Acme"}

	first, err := svc.GetInsights(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, repo.getInsightsCalls)
	assert.Equal(t, 1, cache.setInsightsCalls)

	second, err := svc.GetInsights(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.getInsightsCalls, "second read must not hit the repository")
}

func TestReadsBeforeFirstRun(t *testing.T) {
	svc := NewInsightService(&fakeRepo{}, nil, engine.DefaultConfig())

	_, err := svc.GetSummary(context.Background())
	assert.ErrorIs(t, err, ErrNoAnalysisRun)

	_, err = svc.GetSeasonal(context.Background())
	assert.ErrorIs(t, err, ErrNoAnalysisRun)

	_, err = svc.GetTransfers(context.Background())
	assert.ErrorIs(t, err, ErrNoAnalysisRun)
}

func TestLatestResultFallsBackToRepo(t *testing.T) {
	stored := &domain.AnalysisResult{
		RunAt:   time.Now(),
		Summary: map[string]float64{"products_analyzed": 7},
	}
	repo := &fakeRepo{latestRun: stored}
	cache := newMemCache()
	svc := NewInsightService(repo, cache, engine.DefaultConfig())

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.0, summary["products_analyzed"])

	// The repo result gets written back to the cache.
	assert.Equal(t, 1, cache.setResultCalls)
}

func TestImportDatasetReplacesAll(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewInsightService(repo, nil, engine.DefaultConfig())

	ds := &ingest.Dataset{
		Orders:    []domain.OrderLine{{ProductID: "p1", Quantity: 1, OrderedAt: time.Now()}},
		Inventory: []domain.InventoryRecord{{ProductID: "p1", OnHand: 5}},
		Pending:   []domain.PendingOrder{{SKU: "SKU-1", Quantity: 10}},
	}
	require.NoError(t, svc.ImportDataset(context.Background(), ds))

	assert.Len(t, repo.orders, 1)
	assert.Len(t, repo.inventory, 1)
	assert.Len(t, repo.pending, 1)
}

func TestForecastUnknownProduct(t *testing.T) {
	svc := NewInsightService(&fakeRepo{}, nil, engine.DefaultConfig())

	_, err := svc.Forecast(context.Background(), "missing", 14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no order history")
}

func TestForecastFromStoredSeries(t *testing.T) {
	ref := time.Now()
	repo := &fakeRepo{orders: serviceFixtureOrders(ref)}
	svc := NewInsightService(repo, nil, engine.DefaultConfig())

	forecast, err := svc.Forecast(context.Background(), "p1", 7)
	require.NoError(t, err)
	require.Len(t, forecast.Values, 7)
	for _, v := range forecast.Values {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}
