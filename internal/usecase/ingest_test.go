package usecase

import (
	"context"
	"testing"
	"time"

	"HedgeDesk/internal/domain/models"

	"github.com/google/uuid"
)

func obsAt(commodity string, day int, price float64) *models.PriceObservation {
	return &models.PriceObservation{
		Commodity: commodity,
		Date:      time.Date(2025, 5, day, 0, 0, 0, 0, time.UTC),
		Price:     price,
	}
}

func TestPriceProcessorFlushesFullBatch(t *testing.T) {
	store := &fakePriceStore{}
	proc := NewPriceProcessor(store, newFakeMetrics(), 3, time.Hour)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if err := proc.Process(ctx, obsAt("sugar", i, 100)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if len(store.obs) != 0 {
		t.Fatalf("stored %d observations before batch was full", len(store.obs))
	}

	if err := proc.Process(ctx, obsAt("sugar", 3, 101)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.obs) != 3 {
		t.Fatalf("stored %d observations, want 3", len(store.obs))
	}
}

func TestPriceProcessorFlushDrainsPending(t *testing.T) {
	store := &fakePriceStore{}
	proc := NewPriceProcessor(store, newFakeMetrics(), 100, time.Hour)
	ctx := context.Background()

	if err := proc.Process(ctx, obsAt("sugar", 1, 100)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := proc.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(store.obs) != 1 {
		t.Fatalf("stored %d observations, want 1", len(store.obs))
	}

	// Flushing an empty buffer is a no-op.
	if err := proc.Flush(ctx); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
}

func TestCommitmentsHandlerAppendsAndQueuesRebuild(t *testing.T) {
	commitments := &fakeCommitmentStore{}
	q := &fakeQueue{}
	h := NewCommitmentsKafkaHandler("commitments", commitments, q, newFakeMetrics())

	id := uuid.New()
	msg := []byte(`{
		"id": "` + id.String() + `",
		"tenant_id": "acme",
		"commodity": "sugar",
		"delivery_start": "2025-03-01",
		"delivery_end": "2025-05-31",
		"quantity": 900,
		"unit_price": 512.5
	}`)

	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(commitments.items) != 1 {
		t.Fatalf("appended %d commitments, want 1", len(commitments.items))
	}
	got := commitments.items[0]
	if got.ID != id || got.TenantID != "acme" || got.Quantity != 900 {
		t.Fatalf("unexpected commitment: %+v", got)
	}

	if len(q.messages) != 1 {
		t.Fatalf("queued %d messages, want 1", len(q.messages))
	}
	if q.messages[0].msgType != RebuildMessageType {
		t.Fatalf("msgType = %q, want %q", q.messages[0].msgType, RebuildMessageType)
	}
	payload, ok := q.messages[0].payload.(RebuildPayload)
	if !ok || payload.TenantID != "acme" {
		t.Fatalf("unexpected payload: %+v", q.messages[0].payload)
	}
}

func TestCommitmentsHandlerRejectsBadMessages(t *testing.T) {
	commitments := &fakeCommitmentStore{}
	q := &fakeQueue{}
	h := NewCommitmentsKafkaHandler("commitments", commitments, q, newFakeMetrics())
	ctx := context.Background()

	cases := []struct {
		name string
		msg  string
	}{
		{"malformed json", `{"id": `},
		{"bad id", `{"id":"nope","tenant_id":"acme","commodity":"sugar","delivery_start":"2025-03-01","delivery_end":"2025-03-31","quantity":10}`},
		{"bad date", `{"id":"` + uuid.NewString() + `","tenant_id":"acme","commodity":"sugar","delivery_start":"March","delivery_end":"2025-03-31","quantity":10}`},
		{"zero quantity", `{"id":"` + uuid.NewString() + `","tenant_id":"acme","commodity":"sugar","delivery_start":"2025-03-01","delivery_end":"2025-03-31","quantity":0}`},
		{"missing tenant", `{"id":"` + uuid.NewString() + `","tenant_id":"","commodity":"sugar","delivery_start":"2025-03-01","delivery_end":"2025-03-31","quantity":10}`},
	}
	for _, tc := range cases {
		if err := h.Handle(ctx, []byte(tc.msg)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
	if len(commitments.items) != 0 {
		t.Fatalf("appended %d commitments from bad messages", len(commitments.items))
	}
	if len(q.messages) != 0 {
		t.Fatalf("queued %d messages from bad messages", len(q.messages))
	}
}
