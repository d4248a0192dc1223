package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retailpulse/stocksense/internal/config"
	"github.com/retailpulse/stocksense/internal/domain"
)

const (
	insightKeyPrefix     = "stocksense:insights"
	resultKey            = "stocksense:result:latest"
	insightScanBatchSize = 100
)

// InsightCache fronts the repository for read-heavy insight queries.
// The noop implementation keeps call sites unconditional when caching
// is disabled or Redis is unreachable.
type InsightCache interface {
	GetInsights(ctx context.Context, filter domain.InsightFilter) ([]domain.ProductInsight, bool, error)
	SetInsights(ctx context.Context, filter domain.InsightFilter, insights []domain.ProductInsight) error

	GetResult(ctx context.Context) (*domain.AnalysisResult, bool, error)
	SetResult(ctx context.Context, result *domain.AnalysisResult) error

	InvalidateAll(ctx context.Context) error
}

type redisInsightCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopInsightCache struct{}

func NewInsightCache(cfg config.CacheConfig) (InsightCache, error) {
	if !cfg.Enabled {
		return &noopInsightCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisInsightCache{client: client, ttl: ttl}, nil
}

func NewNoopInsightCache() InsightCache {
	return &noopInsightCache{}
}

func (c *redisInsightCache) GetInsights(ctx context.Context, filter domain.InsightFilter) ([]domain.ProductInsight, bool, error) {
	payload, err := c.client.Get(ctx, buildInsightKey(filter)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var insights []domain.ProductInsight
	if err := json.Unmarshal(payload, &insights); err != nil {
		return nil, false, fmt.Errorf("decode insight cache: %w", err)
	}
	return insights, true, nil
}

func (c *redisInsightCache) SetInsights(ctx context.Context, filter domain.InsightFilter, insights []domain.ProductInsight) error {
	payload, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("encode insight cache: %w", err)
	}
	if err := c.client.Set(ctx, buildInsightKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisInsightCache) GetResult(ctx context.Context) (*domain.AnalysisResult, bool, error) {
	payload, err := c.client.Get(ctx, resultKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode result cache: %w", err)
	}
	return &result, true, nil
}

func (c *redisInsightCache) SetResult(ctx context.Context, result *domain.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result cache: %w", err)
	}
	if err := c.client.Set(ctx, resultKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisInsightCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, insightKeyPrefix, insightScanBatchSize); err != nil {
		return err
	}
	return c.client.Del(ctx, resultKey).Err()
}

func (n *noopInsightCache) GetInsights(ctx context.Context, filter domain.InsightFilter) ([]domain.ProductInsight, bool, error) {
	return nil, false, nil
}

func (n *noopInsightCache) SetInsights(ctx context.Context, filter domain.InsightFilter, insights []domain.ProductInsight) error {
	return nil
}

func (n *noopInsightCache) GetResult(ctx context.Context) (*domain.AnalysisResult, bool, error) {
	return nil, false, nil
}

func (n *noopInsightCache) SetResult(ctx context.Context, result *domain.AnalysisResult) error {
	return nil
}

func (n *noopInsightCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildInsightKey(filter domain.InsightFilter) string {
	return fmt.Sprintf("%s:%s", insightKeyPrefix, insightFilterHash(filter))
}

func insightFilterHash(filter domain.InsightFilter) string {
	parts := []string{}

	if filter.Brand != "" {
		parts = append(parts, "brand="+strings.ToUpper(strings.TrimSpace(filter.Brand)))
	}
	if filter.Priority != "" {
		parts = append(parts, "priority="+strings.ToUpper(strings.TrimSpace(filter.Priority)))
	}
	if filter.Trend != "" {
		parts = append(parts, "trend="+strings.ToLower(strings.TrimSpace(filter.Trend)))
	}
	if filter.Limit > 0 {
		parts = append(parts, "limit="+strconv.Itoa(filter.Limit))
	}

	if len(parts) == 0 {
		return "default"
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
