package usecase

import (
	"context"
	"errors"
	"time"

	"HedgeDesk/internal/domain/models"
	drepo "HedgeDesk/internal/domain/repository"
	"HedgeDesk/internal/risk"
)

// TimelineService builds the dual-scenario VaR timeline for a tenant. It
// reads the persisted hedge session for the with-hedge scenario; preview
// instructions never enter here.
type TimelineService struct {
	buckets  drepo.BucketStore
	sessions drepo.HedgeSessionStore
	market   *MarketDataService
	metrics  drepo.Metrics
}

// NewTimelineService creates a TimelineService.
func NewTimelineService(buckets drepo.BucketStore, sessions drepo.HedgeSessionStore, market *MarketDataService, metrics drepo.Metrics) *TimelineService {
	return &TimelineService{buckets: buckets, sessions: sessions, market: market, metrics: metrics}
}

// Build computes the timeline for [start, end] at the given confidence.
func (s *TimelineService) Build(ctx context.Context, tenant string, start, end time.Time, confidence float64) ([]models.TimelinePoint, error) {
	t0 := time.Now()

	buckets, err := s.buckets.ListByTenant(ctx, tenant, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	hedges, err := s.activeHedges(ctx, tenant)
	if err != nil {
		return nil, err
	}

	table, snapshot, err := s.market.Load(ctx, start)
	if err != nil {
		return nil, err
	}

	points, err := risk.BuildTimeline(risk.TimelineInput{
		Start:      start,
		End:        end,
		Confidence: confidence,
		Buckets:    buckets,
		Hedges:     hedges,
		Prices:     table,
		Snapshot:   snapshot,
	})
	if err != nil {
		s.metrics.RecordError("timeline_build")
		return nil, err
	}

	s.recordPortfolioVaR(tenant, points)
	s.metrics.RecordLatency("timeline_build", time.Since(t0).Seconds())
	return points, nil
}

// activeHedges loads the hedge instruction set from the tenant's active
// session. No session means an empty set, not an error.
func (s *TimelineService) activeHedges(ctx context.Context, tenant string) ([]models.HedgeInstruction, error) {
	sess, err := s.sessions.Active(ctx, tenant)
	if errors.Is(err, drepo.ErrNoActiveSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess.Items, nil
}

// recordPortfolioVaR exports the first evaluation point per scenario as the
// tenant's current VaR gauge.
func (s *TimelineService) recordPortfolioVaR(tenant string, points []models.TimelinePoint) {
	seen := make(map[models.Scenario]bool, 2)
	for _, p := range points {
		if seen[p.Scenario] {
			continue
		}
		seen[p.Scenario] = true
		s.metrics.RecordPortfolioVaR(tenant, string(p.Scenario), p.VaR.Portfolio)
	}
}
