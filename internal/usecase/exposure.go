package usecase

import (
	"context"
	"fmt"
	"time"

	"HedgeDesk/internal/domain/models"
	drepo "HedgeDesk/internal/domain/repository"
	"HedgeDesk/internal/risk"
	"HedgeDesk/pkg/cache"
	applogger "HedgeDesk/pkg/logger"
)

// ExposureService owns the commitment-to-bucket derivation. A rebuild always
// replaces the tenant's entire bucket set so the per-commitment sum invariant
// survives partial failures.
type ExposureService struct {
	commitments drepo.CommitmentStore
	buckets     drepo.BucketStore
	publisher   drepo.RebuildPublisher
	cache       cache.Service
	metrics     drepo.Metrics
	l           *applogger.Logger
	lockTTL     time.Duration
}

// NewExposureService creates a new ExposureService.
func NewExposureService(
	commitments drepo.CommitmentStore,
	buckets drepo.BucketStore,
	publisher drepo.RebuildPublisher,
	c cache.Service,
	metrics drepo.Metrics,
	l *applogger.Logger,
	lockTTL time.Duration,
) *ExposureService {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &ExposureService{
		commitments: commitments,
		buckets:     buckets,
		publisher:   publisher,
		cache:       c,
		metrics:     metrics,
		l:           l,
		lockTTL:     lockTTL,
	}
}

const summaryTTL = time.Minute

func rebuildLockKey(tenant string) string {
	return fmt.Sprintf("exposure:rebuild:%s", tenant)
}

func summaryKey(tenant string, from, to time.Time) string {
	return cache.GenerateKeyWithParams("exposure:summary", tenant,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// Ingest appends commitments to the ingest log and rebuilds the tenant's
// buckets.
func (s *ExposureService) Ingest(ctx context.Context, tenant string, cs []*models.PurchaseCommitment) (int, error) {
	for _, c := range cs {
		if c == nil {
			return 0, fmt.Errorf("nil commitment")
		}
		if c.TenantID == "" {
			c.TenantID = tenant
		}
		if c.TenantID != tenant {
			return 0, fmt.Errorf("commitment tenant %q does not match %q", c.TenantID, tenant)
		}
		if c.Quantity <= 0 {
			return 0, fmt.Errorf("commitment %s: non-positive quantity", c.ID)
		}
	}
	if err := s.commitments.Append(ctx, cs); err != nil {
		return 0, err
	}
	return s.Rebuild(ctx, tenant)
}

// Rebuild derives the full bucket set from the tenant's commitment log and
// swaps it in. Returns the number of buckets written. Concurrent rebuilds for
// the same tenant are serialized with a redis lock.
func (s *ExposureService) Rebuild(ctx context.Context, tenant string) (int, error) {
	start := time.Now()

	locked, err := s.cache.TryLock(ctx, rebuildLockKey(tenant), s.lockTTL)
	if err != nil {
		s.metrics.RecordRebuild("lock_error")
		return 0, fmt.Errorf("rebuild lock: %w", err)
	}
	if !locked {
		s.metrics.RecordRebuild("contended")
		return 0, fmt.Errorf("rebuild already in progress for %s", tenant)
	}
	defer func() { _ = s.cache.Unlock(ctx, rebuildLockKey(tenant)) }()

	cs, err := s.commitments.ListByTenant(ctx, tenant)
	if err != nil {
		s.metrics.RecordRebuild("failed")
		return 0, err
	}

	buckets, err := risk.BucketCommitments(cs)
	if err != nil {
		s.metrics.RecordRebuild("failed")
		return 0, fmt.Errorf("bucket commitments: %w", err)
	}

	if err := s.buckets.Replace(ctx, tenant, buckets); err != nil {
		s.metrics.RecordRebuild("failed")
		return 0, err
	}

	_ = s.cache.DeleteByPattern(ctx, cache.BuildPattern(cache.GenerateKey("exposure:summary", tenant)))

	if s.publisher != nil {
		if err := s.publisher.PublishRebuilt(ctx, tenant, len(buckets)); err != nil {
			// The buckets are already durable; a lost event only delays
			// downstream refresh.
			s.metrics.RecordError("rebuild_publish")
			if s.l != nil {
				s.l.Warn("rebuild event publish failed",
					applogger.String("tenant", tenant),
					applogger.Error(err),
				)
			}
		}
	}

	s.metrics.RecordRebuild("ok")
	s.metrics.RecordLatency("exposure_rebuild", time.Since(start).Seconds())
	if s.l != nil {
		s.l.Info("exposure rebuilt",
			applogger.String("tenant", tenant),
			applogger.Int("commitments", len(cs)),
			applogger.Int("buckets", len(buckets)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return len(buckets), nil
}

// Summary rolls buckets up to a per-commodity, per-month exposure grid.
func (s *ExposureService) Summary(ctx context.Context, tenant string, from, to time.Time) (models.ExposureSummary, error) {
	key := summaryKey(tenant, from, to)
	var cached models.ExposureSummary
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	buckets, err := s.buckets.ListByTenant(ctx, tenant, from, to)
	if err != nil {
		return nil, err
	}
	out := make(models.ExposureSummary)
	for _, b := range buckets {
		month := b.Month.Format("2006-01")
		if out[b.Commodity] == nil {
			out[b.Commodity] = make(map[string]float64)
		}
		out[b.Commodity][month] += b.Quantity
	}

	_ = s.cache.Set(ctx, key, out, summaryTTL)
	return out, nil
}
