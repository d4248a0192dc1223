package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retailpulse/stocksense/internal/cache"
	"github.com/retailpulse/stocksense/internal/config"
	"github.com/retailpulse/stocksense/internal/domain"
	"github.com/retailpulse/stocksense/internal/engine"
	"github.com/retailpulse/stocksense/internal/ingest"
	"github.com/retailpulse/stocksense/internal/repository"
)

// ErrNoAnalysisRun is returned by read operations before the first run.
var ErrNoAnalysisRun = errors.New("no analysis run available")

// forecastSeriesDays is the daily-series window handed to the
// forecaster. Longer than the recent analysis window so the weekly
// seasonality has several cycles to settle.
const forecastSeriesDays = 90

type InsightService struct {
	repo     repository.InsightRepository
	cache    cache.InsightCache
	analyzer *engine.Analyzer
	cfg      engine.Config
}

func NewInsightService(repo repository.InsightRepository, cacheImpl cache.InsightCache, cfg engine.Config) *InsightService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopInsightCache()
	}
	return &InsightService{
		repo:     repo,
		cache:    cacheImpl,
		analyzer: engine.NewAnalyzer(cfg),
		cfg:      cfg,
	}
}

// EngineConfigFromApp maps the loaded application config onto the
// engine's configuration object.
func EngineConfigFromApp(ec config.EngineConfig) engine.Config {
	return engine.Config{
		TargetServiceLevel:       ec.TargetServiceLevel,
		HoldingCostPerUnit:       ec.HoldingCostPerUnit,
		HoldingCostPerUnitPerDay: ec.HoldingCostPerUnitPerDay,
		StockoutCostPerUnit:      ec.StockoutCostPerUnit,
		TransferCostPerUnit:      ec.TransferCostPerUnit,
		DefaultLeadTimeDays:      ec.DefaultLeadTimeDays,
		BrandLeadTimes:           ec.BrandLeadTimes,
		RouteCosts:               ec.RouteCosts,
		RecentWindowDays:         ec.RecentWindowDays,
		HistoricalWindowDays:     ec.HistoricalWindowDays,
		OutlierThreshold:         ec.OutlierThreshold,
		ExcessThreshold:          ec.ExcessThreshold,
		ShortageThreshold:        ec.ShortageThreshold,
		MaxTransfersPerSKU:       ec.MaxTransfersPerSKU,
		MaxTransfersTotal:        ec.MaxTransfersTotal,
		WorkerCount:              ec.WorkerCount,
	}
}

// RunAnalysis loads the stored dataset, runs the full analysis batch,
// persists the result and refreshes the cache.
func (s *InsightService) RunAnalysis(ctx context.Context) (*domain.AnalysisResult, error) {
	ref := time.Now()
	since := ref.AddDate(0, 0, -(s.cfg.RecentWindowDays + s.cfg.HistoricalWindowDays))

	orders, err := s.repo.GetOrderLines(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}
	inventory, err := s.repo.GetInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	pending, err := s.repo.GetPendingOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pending orders: %w", err)
	}

	result, err := s.analyzer.Run(ctx, engine.AnalyzeInput{
		Orders:    orders,
		Inventory: inventory,
		Pending:   pending,
		Ref:       ref,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveAnalysisRun(ctx, &result); err != nil {
		return nil, fmt.Errorf("persist analysis run: %w", err)
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("insights: cache invalidation failed")
	}
	if err := s.cache.SetResult(ctx, &result); err != nil {
		log.Warn().Err(err).Msg("insights: cache set result failed")
	}

	return &result, nil
}

// ImportDataset replaces the stored dataset with freshly loaded files.
func (s *InsightService) ImportDataset(ctx context.Context, ds *ingest.Dataset) error {
	if err := s.repo.ReplaceOrderLines(ctx, ds.Orders); err != nil {
		return fmt.Errorf("import order history: %w", err)
	}
	if err := s.repo.ReplaceInventory(ctx, ds.Inventory); err != nil {
		return fmt.Errorf("import inventory: %w", err)
	}
	if err := s.repo.ReplacePendingOrders(ctx, ds.Pending); err != nil {
		return fmt.Errorf("import pending orders: %w", err)
	}

	log.Info().
		Int("orders", len(ds.Orders)).
		Int("inventory", len(ds.Inventory)).
		Int("pending", len(ds.Pending)).
		Msg("dataset imported")
	return nil
}

func (s *InsightService) GetInsights(ctx context.Context, filter domain.InsightFilter) ([]domain.ProductInsight, error) {
	if insights, ok, err := s.cache.GetInsights(ctx, filter); err == nil && ok {
		return insights, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("insights: cache get failed")
	}

	insights, err := s.repo.GetInsights(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetInsights(ctx, filter, insights); err != nil {
		log.Warn().Err(err).Msg("insights: cache set failed")
	}
	return insights, nil
}

func (s *InsightService) GetSummary(ctx context.Context) (map[string]float64, error) {
	result, err := s.latestResult(ctx)
	if err != nil {
		return nil, err
	}
	return result.Summary, nil
}

func (s *InsightService) GetSeasonal(ctx context.Context) ([]domain.SeasonalInsight, error) {
	result, err := s.latestResult(ctx)
	if err != nil {
		return nil, err
	}
	return result.Seasonal, nil
}

func (s *InsightService) GetTransfers(ctx context.Context) ([]domain.TransferRecommendation, error) {
	result, err := s.latestResult(ctx)
	if err != nil {
		return nil, err
	}
	return result.Transfers, nil
}

// Forecast produces a demand forecast for one product from its stored
// daily order series.
func (s *InsightService) Forecast(ctx context.Context, productID string, horizon int) (*engine.Forecast, error) {
	ref := time.Now()
	orders, err := s.repo.GetOrderLines(ctx, ref.AddDate(0, 0, -forecastSeriesDays))
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}

	series := engine.DailySeries(orders, ref, forecastSeriesDays)[productID]
	if len(series) == 0 {
		return nil, fmt.Errorf("no order history for product %s", productID)
	}
	return engine.ForecastDemand(series, horizon)
}

func (s *InsightService) latestResult(ctx context.Context) (*domain.AnalysisResult, error) {
	if result, ok, err := s.cache.GetResult(ctx); err == nil && ok {
		return result, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("insights: cache get result failed")
	}

	result, err := s.repo.GetLatestRun(ctx)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNoAnalysisRun
	}

	if err := s.cache.SetResult(ctx, result); err != nil {
		log.Warn().Err(err).Msg("insights: cache set result failed")
	}
	return result, nil
}
