package usecase

import (
	"context"
	"encoding/json"
	"time"

	"HedgeDesk/internal/domain/models"
	domrepo "HedgeDesk/internal/domain/repository"
	pkgkafka "HedgeDesk/pkg/kafka"
	"HedgeDesk/pkg/queue"
	xutil "HedgeDesk/pkg/util"

	"github.com/google/uuid"
)

// CommitmentsKafkaHandler consumes commitment events from the upload
// collaborator, appends them to the ingest log, and queues a bucket rebuild
// for the tenant.
type CommitmentsKafkaHandler struct {
	topic       string
	commitments domrepo.CommitmentStore
	publisher   queue.QueueService
	metrics     domrepo.Metrics
}

func NewCommitmentsKafkaHandler(topic string, commitments domrepo.CommitmentStore, publisher queue.QueueService, metrics domrepo.Metrics) *CommitmentsKafkaHandler {
	return &CommitmentsKafkaHandler{topic: topic, commitments: commitments, publisher: publisher, metrics: metrics}
}

func (h *CommitmentsKafkaHandler) Topic() string { return h.topic }

// incoming message schema:
// {id, tenant_id, commodity, delivery_start, delivery_end, quantity, unit_price}
func (h *CommitmentsKafkaHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ID            string  `json:"id"`
		TenantID      string  `json:"tenant_id"`
		Commodity     string  `json:"commodity"`
		DeliveryStart string  `json:"delivery_start"`
		DeliveryEnd   string  `json:"delivery_end"`
		Quantity      float64 `json:"quantity"`
		UnitPrice     float64 `json:"unit_price"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	c, err := toCommitment(m.ID, m.TenantID, m.Commodity, m.DeliveryStart, m.DeliveryEnd, m.Quantity, m.UnitPrice)
	if err != nil {
		h.metrics.RecordError("consumer_validate")
		return err
	}

	start := time.Now()
	if err := h.commitments.Append(ctx, []*models.PurchaseCommitment{c}); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("commitment_ingest", time.Since(start).Seconds())

	if err := h.publisher.PublishMessage(ctx, RebuildMessageType, RebuildPayload{TenantID: c.TenantID}); err != nil {
		h.metrics.RecordError("consumer_enqueue")
		return err
	}
	return nil
}

func toCommitment(id, tenant, commodity, start, end string, qty, unitPrice float64) (*models.PurchaseCommitment, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	ds, ok := xutil.ParseDate(start)
	if !ok {
		return nil, &invalidCommitmentError{field: "delivery_start", value: start}
	}
	de, ok := xutil.ParseDate(end)
	if !ok {
		return nil, &invalidCommitmentError{field: "delivery_end", value: end}
	}
	if tenant == "" || commodity == "" {
		return nil, &invalidCommitmentError{field: "tenant_id/commodity", value: ""}
	}
	if qty <= 0 {
		return nil, &invalidCommitmentError{field: "quantity", value: "must be positive"}
	}
	return &models.PurchaseCommitment{
		ID:            parsed,
		TenantID:      tenant,
		Commodity:     commodity,
		DeliveryStart: ds,
		DeliveryEnd:   de,
		Quantity:      qty,
		UnitPrice:     unitPrice,
	}, nil
}

type invalidCommitmentError struct {
	field string
	value string
}

func (e *invalidCommitmentError) Error() string {
	return "invalid commitment field " + e.field + ": " + e.value
}

var _ pkgkafka.MessageHandler = (*CommitmentsKafkaHandler)(nil)
