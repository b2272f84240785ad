package usecase

import (
	"context"
	"fmt"
	"time"

	drepo "HedgeDesk/internal/domain/repository"
	"HedgeDesk/internal/risk"
	svccache "HedgeDesk/internal/service/cache"

	"HedgeDesk/internal/domain/models"
)

// MarketDataService assembles the price table and volatility snapshot the
// engine consumes. Both derive from the shared price history, so one load is
// cached per evaluation date and reused across tenants until the TTL lapses.
type MarketDataService struct {
	prices      drepo.PriceStore
	estimator   *risk.Estimator
	cache       *svccache.TTLCache
	ttl         time.Duration
	historyDays int
}

type marketData struct {
	table    *risk.PriceTable
	snapshot models.VolatilitySnapshot
}

// NewMarketDataService creates a MarketDataService.
func NewMarketDataService(prices drepo.PriceStore, estimator *risk.Estimator, c *svccache.TTLCache, ttl time.Duration, historyDays int) *MarketDataService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if historyDays <= 0 {
		historyDays = 252
	}
	return &MarketDataService{
		prices:      prices,
		estimator:   estimator,
		cache:       c,
		ttl:         ttl,
		historyDays: historyDays,
	}
}

// Load returns the price table and volatility snapshot as of eval.
func (s *MarketDataService) Load(ctx context.Context, eval time.Time) (*risk.PriceTable, models.VolatilitySnapshot, error) {
	key := "market:" + eval.Format("2006-01-02")
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if md, ok := v.(marketData); ok {
				return md.table, md.snapshot, nil
			}
		}
	}

	commodities, err := s.prices.Commodities(ctx)
	if err != nil {
		return nil, models.VolatilitySnapshot{}, fmt.Errorf("list commodities: %w", err)
	}

	from := eval.AddDate(0, 0, -s.historyDays)
	spot, err := s.prices.SpotHistory(ctx, commodities, from, eval)
	if err != nil {
		return nil, models.VolatilitySnapshot{}, fmt.Errorf("spot history: %w", err)
	}
	forward, err := s.prices.ForwardCurve(ctx, commodities, eval)
	if err != nil {
		return nil, models.VolatilitySnapshot{}, fmt.Errorf("forward curve: %w", err)
	}

	history := make([]models.PriceObservation, 0, len(spot)+len(forward))
	history = append(history, spot...)
	history = append(history, forward...)

	md := marketData{
		table:    risk.NewPriceTable(history),
		snapshot: s.estimator.Snapshot(history, eval),
	}
	if s.cache != nil {
		s.cache.Set(key, md, s.ttl)
	}
	return md.table, md.snapshot, nil
}
