package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"HedgeDesk/internal/domain/models"
	drepo "HedgeDesk/internal/domain/repository"
)

// PriceProcessor batches incoming price observations and flushes them to the
// price store. Observations arrive one at a time from the pipeline; the store
// prefers fewer, larger inserts.
type PriceProcessor struct {
	store   drepo.PriceStore
	metrics drepo.Metrics
	batchSz int
	batchTO time.Duration

	mu      sync.Mutex
	pending []*models.PriceObservation
	lastF   time.Time
}

// NewPriceProcessor creates a new PriceProcessor instance.
func NewPriceProcessor(store drepo.PriceStore, metrics drepo.Metrics, batchSz int, batchTO time.Duration) *PriceProcessor {
	if batchSz <= 0 {
		batchSz = 100
	}
	if batchTO <= 0 {
		batchTO = 2 * time.Second
	}
	return &PriceProcessor{
		store:   store,
		metrics: metrics,
		batchSz: batchSz,
		batchTO: batchTO,
		lastF:   time.Now(),
	}
}

// Process buffers one observation, flushing when the batch is full or stale.
func (p *PriceProcessor) Process(ctx context.Context, obs *models.PriceObservation) error {
	if obs == nil {
		return fmt.Errorf("observation is nil")
	}

	p.mu.Lock()
	p.pending = append(p.pending, obs)
	flush := len(p.pending) >= p.batchSz || time.Since(p.lastF) >= p.batchTO
	var batch []*models.PriceObservation
	if flush {
		batch = p.pending
		p.pending = nil
		p.lastF = time.Now()
	}
	p.mu.Unlock()

	p.metrics.RecordLastPrice(obs.Commodity, obs.Price)

	if !flush {
		return nil
	}
	return p.flush(ctx, batch)
}

// Flush writes out any buffered observations.
func (p *PriceProcessor) Flush(ctx context.Context) error {
	p.mu.Lock()
	batch := p.pending
	p.pending = nil
	p.lastF = time.Now()
	p.mu.Unlock()
	return p.flush(ctx, batch)
}

func (p *PriceProcessor) flush(ctx context.Context, batch []*models.PriceObservation) error {
	if len(batch) == 0 {
		return nil
	}
	start := time.Now()
	if err := p.store.Append(ctx, batch); err != nil {
		p.metrics.RecordError("price_append")
		return fmt.Errorf("append observations: %w", err)
	}
	p.metrics.RecordLatency("price_append", time.Since(start).Seconds())
	return nil
}
