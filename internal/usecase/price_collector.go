package usecase

import (
	"context"
	"time"

	"HedgeDesk/internal/domain/models"
	drepo "HedgeDesk/internal/domain/repository"
	mid "HedgeDesk/internal/middleware"
)

// PriceCollector collects observations from the vendor stream and routes
// them through the pipeline into the price store.
type PriceCollector struct {
	stream  drepo.PriceStream
	proc    *PriceProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewPriceCollector creates a new PriceCollector instance.
func NewPriceCollector(stream drepo.PriceStream, proc *PriceProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *PriceCollector {
	return &PriceCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the vendor stream is connected.
func (c *PriceCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *PriceCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	obsCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, obsCh, errCh)
	go c.flushLoop(ctx)
	return nil
}

func (c *PriceCollector) consume(ctx context.Context, obsCh <-chan *models.PriceObservation, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case obs := <-obsCh:
			if obs == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, obs)
			} else {
				_ = c.proc.Process(ctx, obs)
			}
		}
	}
}

// flushLoop drains the processor's partial batch on a timer so a quiet feed
// still lands in the store.
func (c *PriceCollector) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.proc.Flush(ctx)
		}
	}
}

// Processor returns the underlying PriceProcessor for lifecycle management.
func (c *PriceCollector) Processor() *PriceProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *PriceCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	_ = c.proc.Flush(ctx)
	return c.stream.Close()
}
