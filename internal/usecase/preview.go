package usecase

import (
	"context"
	"errors"
	"time"

	"HedgeDesk/internal/domain/models"
	drepo "HedgeDesk/internal/domain/repository"
	"HedgeDesk/internal/risk"
)

// PreviewService evaluates hypothetical hedge instructions. It only ever
// reads the persisted session; the hypothetical instruction lives in the
// request and dies with it.
type PreviewService struct {
	buckets  drepo.BucketStore
	sessions drepo.HedgeSessionStore
	market   *MarketDataService
	metrics  drepo.Metrics
}

// NewPreviewService creates a PreviewService.
func NewPreviewService(buckets drepo.BucketStore, sessions drepo.HedgeSessionStore, market *MarketDataService, metrics drepo.Metrics) *PreviewService {
	return &PreviewService{buckets: buckets, sessions: sessions, market: market, metrics: metrics}
}

// Preview computes the what-if VaR for one extra instruction as of eval.
func (s *PreviewService) Preview(ctx context.Context, tenant string, eval time.Time, extra models.HedgeInstruction, confidence float64) (*models.PreviewResult, error) {
	t0 := time.Now()

	buckets, err := s.buckets.ListByTenant(ctx, tenant, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	var persisted []models.HedgeInstruction
	sess, err := s.sessions.Active(ctx, tenant)
	if err != nil && !errors.Is(err, drepo.ErrNoActiveSession) {
		return nil, err
	}
	if sess != nil {
		persisted = sess.Items
	}

	table, snapshot, err := s.market.Load(ctx, eval)
	if err != nil {
		return nil, err
	}

	res, err := risk.PreviewHedge(risk.PreviewInput{
		Eval:       eval,
		Confidence: confidence,
		Buckets:    buckets,
		Persisted:  persisted,
		Extra:      extra,
		Prices:     table,
		Snapshot:   snapshot,
	})
	if err != nil {
		s.metrics.RecordError("preview")
		return nil, err
	}

	s.metrics.RecordLatency("preview", time.Since(t0).Seconds())
	return res, nil
}
