package usecase

import (
	"context"
	"fmt"

	drepo "HedgeDesk/internal/domain/repository"
	"HedgeDesk/pkg/queue"
)

// RebuildMessageType is the queue message type for async bucket rebuilds.
const RebuildMessageType = "exposure.rebuild"

// RebuildPayload carries one rebuild request through the queue.
type RebuildPayload struct {
	TenantID string `json:"tenant_id"`
}

// RebuildJob processes queued rebuild requests. Rebuilds triggered by bulk
// commitment ingest are queued rather than executed inline so upload-heavy
// tenants do not stall the API path.
type RebuildJob struct {
	exposure *ExposureService
	metrics  drepo.Metrics
}

// NewRebuildJob creates a queue job wrapping the exposure service.
func NewRebuildJob(exposure *ExposureService, metrics drepo.Metrics) *RebuildJob {
	return &RebuildJob{exposure: exposure, metrics: metrics}
}

func (j *RebuildJob) Name() string { return "exposure-rebuild" }

func (j *RebuildJob) Type() string { return RebuildMessageType }

func (j *RebuildJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RebuildPayload](payload)
	if err != nil {
		j.metrics.RecordError("rebuild_payload")
		return err
	}
	if p.TenantID == "" {
		j.metrics.RecordError("rebuild_payload")
		return fmt.Errorf("rebuild payload without tenant")
	}
	_, err = j.exposure.Rebuild(ctx, p.TenantID)
	return err
}

var _ queue.Job = (*RebuildJob)(nil)
