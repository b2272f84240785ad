package usecase

import (
	"context"
	"testing"
	"time"

	"HedgeDesk/internal/domain/models"

	"github.com/google/uuid"
)

func commitment(tenant, commodity string, start, end time.Time, qty float64) *models.PurchaseCommitment {
	return &models.PurchaseCommitment{
		ID:            uuid.New(),
		TenantID:      tenant,
		Commodity:     commodity,
		DeliveryStart: start,
		DeliveryEnd:   end,
		Quantity:      qty,
		UnitPrice:     2.5,
	}
}

func newExposureFixture() (*ExposureService, *fakeCommitmentStore, *fakeBucketStore, *fakePublisher, *fakeCacheService) {
	commitments := &fakeCommitmentStore{}
	buckets := newFakeBucketStore()
	pub := &fakePublisher{}
	cache := newFakeCacheService()
	svc := NewExposureService(commitments, buckets, pub, cache, newFakeMetrics(), nil, time.Minute)
	return svc, commitments, buckets, pub, cache
}

func TestRebuildReplacesWholeBucketSet(t *testing.T) {
	svc, commitments, buckets, pub, _ := newExposureFixture()
	ctx := context.Background()

	c1 := commitment("acme", "sugar",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), 900)
	if err := commitments.Append(ctx, []*models.PurchaseCommitment{c1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	n, err := svc.Rebuild(ctx, "acme")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if n != 3 {
		t.Fatalf("bucket count = %d, want 3", n)
	}
	if buckets.replaceCalls != 1 {
		t.Fatalf("replace calls = %d, want 1", buckets.replaceCalls)
	}

	// A second commitment must produce a full new set, not an increment.
	c2 := commitment("acme", "flour",
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), 100)
	if err := commitments.Append(ctx, []*models.PurchaseCommitment{c2}); err != nil {
		t.Fatalf("append: %v", err)
	}
	n, err = svc.Rebuild(ctx, "acme")
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if n != 4 {
		t.Fatalf("bucket count = %d, want 4", n)
	}
	if buckets.replaceCalls != 2 {
		t.Fatalf("replace calls = %d, want 2", buckets.replaceCalls)
	}

	stored := buckets.byTenant["acme"]
	var total float64
	for _, b := range stored {
		total += b.Quantity
	}
	if total != 1000 {
		t.Fatalf("stored quantity sum = %v, want 1000", total)
	}

	if len(pub.events) != 2 {
		t.Fatalf("rebuilt events = %d, want 2", len(pub.events))
	}
	if pub.events[1].tenant != "acme" || pub.events[1].buckets != 4 {
		t.Fatalf("unexpected event %+v", pub.events[1])
	}
}

func TestRebuildContendedLock(t *testing.T) {
	svc, commitments, buckets, _, cache := newExposureFixture()
	ctx := context.Background()

	c := commitment("acme", "sugar",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), 100)
	if err := commitments.Append(ctx, []*models.PurchaseCommitment{c}); err != nil {
		t.Fatalf("append: %v", err)
	}

	cache.locked = true
	if _, err := svc.Rebuild(ctx, "acme"); err == nil {
		t.Fatal("expected error while rebuild lock is held")
	}
	if buckets.replaceCalls != 0 {
		t.Fatalf("replace calls = %d, want 0 under contention", buckets.replaceCalls)
	}
}

func TestIngestRejectsBadCommitments(t *testing.T) {
	svc, _, _, _, _ := newExposureFixture()
	ctx := context.Background()

	wrongTenant := commitment("other", "sugar",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), 100)
	if _, err := svc.Ingest(ctx, "acme", []*models.PurchaseCommitment{wrongTenant}); err == nil {
		t.Fatal("expected tenant mismatch error")
	}

	zeroQty := commitment("acme", "sugar",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), 0)
	if _, err := svc.Ingest(ctx, "acme", []*models.PurchaseCommitment{zeroQty}); err == nil {
		t.Fatal("expected non-positive quantity error")
	}
}

func TestSummaryRollsUpByCommodityAndMonth(t *testing.T) {
	svc, commitments, _, _, _ := newExposureFixture()
	ctx := context.Background()

	cs := []*models.PurchaseCommitment{
		commitment("acme", "sugar",
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), 100),
		commitment("acme", "sugar",
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), 50),
	}
	if err := commitments.Append(ctx, cs); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := svc.Rebuild(ctx, "acme"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	sum, err := svc.Summary(ctx, "acme", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got := sum["sugar"]["2025-03"]; got != 150 {
		t.Fatalf("sugar 2025-03 = %v, want 150", got)
	}
}
