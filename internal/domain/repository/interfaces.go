package repository

import (
	"context"
	"errors"
	"time"

	"HedgeDesk/internal/domain/models"
)

// ErrNoActiveSession is returned when a tenant has no active hedge session.
var ErrNoActiveSession = errors.New("no active hedge session")

// PriceStream is a live market data feed of price observations.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceObservation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// PriceStore holds the append-only, tenant-shared price history.
type PriceStore interface {
	Append(ctx context.Context, obs []*models.PriceObservation) error
	// SpotHistory returns spot observations per commodity within [from, to],
	// ordered ascending by date.
	SpotHistory(ctx context.Context, commodities []string, from, to time.Time) ([]models.PriceObservation, error)
	// ForwardCurve returns contract-month observations dated at or before
	// asOf, ordered ascending by date.
	ForwardCurve(ctx context.Context, commodities []string, asOf time.Time) ([]models.PriceObservation, error)
	Commodities(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
}

// CommitmentStore holds the immutable purchase commitment ingest log.
type CommitmentStore interface {
	Append(ctx context.Context, cs []*models.PurchaseCommitment) error
	ListByTenant(ctx context.Context, tenant string) ([]models.PurchaseCommitment, error)
}

// BucketStore holds exposure buckets. Replace swaps a tenant's whole bucket
// set in one operation; buckets are never patched incrementally.
type BucketStore interface {
	Replace(ctx context.Context, tenant string, buckets []models.ExposureBucket) error
	ListByTenant(ctx context.Context, tenant string, from, to time.Time) ([]models.ExposureBucket, error)
}

// HedgeSessionStore persists tenant hedge sessions. Preview computations
// only ever call Active; they must never write.
type HedgeSessionStore interface {
	Active(ctx context.Context, tenant string) (*models.HedgeSession, error)
	Save(ctx context.Context, s *models.HedgeSession) error
}

// RebuildPublisher notifies downstream consumers that a tenant's bucket set
// was replaced.
type RebuildPublisher interface {
	PublishRebuilt(ctx context.Context, tenant string, buckets int) error
	Close() error
}

// Metrics is the engine-facing metrics recorder.
type Metrics interface {
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordLastPrice(commodity string, price float64)
	RecordRebuild(outcome string)
	RecordPortfolioVaR(tenant string, scenario string, v float64)
}
