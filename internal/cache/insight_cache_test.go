package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpulse/stocksense/internal/config"
	"github.com/retailpulse/stocksense/internal/domain"
)

func TestNewInsightCacheDisabledReturnsNoop(t *testing.T) {
	c, err := NewInsightCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, c)

	_, ok := c.(*noopInsightCache)
	assert.True(t, ok)
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := NewNoopInsightCache()

	insights, ok, err := c.GetInsights(ctx, domain.InsightFilter{Brand: "Acme"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, insights)

	result, ok, err := c.GetResult(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, result)

	require.NoError(t, c.SetInsights(ctx, domain.InsightFilter{}, []domain.ProductInsight{{ProductID: "p1"}}))
	require.NoError(t, c.SetResult(ctx, &domain.AnalysisResult{}))
	require.NoError(t, c.InvalidateAll(ctx))

	// Writes never become visible.
	_, ok, err = c.GetInsights(ctx, domain.InsightFilter{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsightFilterHashEmptyFilter(t *testing.T) {
	assert.Equal(t, "default", insightFilterHash(domain.InsightFilter{}))
	assert.Equal(t, insightKeyPrefix+":default", buildInsightKey(domain.InsightFilter{}))
}

func TestInsightFilterHashStable(t *testing.T) {
	a := insightFilterHash(domain.InsightFilter{Brand: "Acme", Priority: "critical", Limit: 10})
	b := insightFilterHash(domain.InsightFilter{Brand: "Acme", Priority: "critical", Limit: 10})
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)
}

func TestInsightFilterHashNormalizesCase(t *testing.T) {
	a := insightFilterHash(domain.InsightFilter{Brand: " acme ", Priority: "Critical", Trend: "Trending Up"})
	b := insightFilterHash(domain.InsightFilter{Brand: "ACME", Priority: "CRITICAL", Trend: "trending up"})
	assert.Equal(t, a, b)
}

func TestInsightFilterHashDistinctFilters(t *testing.T) {
	seen := map[string]bool{}
	filters := []domain.InsightFilter{
		{Brand: "Acme"},
		{Brand: "Zenith"},
		{Brand: "Acme", Priority: "HIGH"},
		{Trend: "declining"},
		{Limit: 25},
	}
	for _, f := range filters {
		h := insightFilterHash(f)
		assert.False(t, seen[h], "hash collision for %+v", f)
		seen[h] = true
	}
}
