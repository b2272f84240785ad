package risk

import (
	"math"
	"testing"
	"time"

	"HedgeDesk/internal/domain/models"

	"github.com/google/uuid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func commitment(start, end time.Time, qty float64) models.PurchaseCommitment {
	return models.PurchaseCommitment{
		ID:            uuid.New(),
		TenantID:      "t1",
		Commodity:     "sugar",
		DeliveryStart: start,
		DeliveryEnd:   end,
		Quantity:      qty,
	}
}

func bucketSum(bs []models.ExposureBucket) float64 {
	s := 0.0
	for _, b := range bs {
		s += b.Quantity
	}
	return s
}

func TestBucketSumInvariant(t *testing.T) {
	cases := []struct {
		name   string
		start  time.Time
		end    time.Time
		qty    float64
		months int
	}{
		{"single month", date(2025, 3, 1), date(2025, 3, 31), 1000, 1},
		{"two months mid-start", date(2025, 3, 15), date(2025, 4, 10), 777.7, 2},
		{"three months", date(2025, 1, 10), date(2025, 3, 20), 999, 3},
		{"thirteen months", date(2025, 1, 5), date(2026, 1, 28), 12345.678, 13},
		{"fourteen months mid-both", date(2025, 2, 17), date(2026, 3, 3), 1, 14},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bs, err := BucketCommitment(commitment(tc.start, tc.end, tc.qty))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(bs) != tc.months {
				t.Fatalf("expected %d buckets, got %d", tc.months, len(bs))
			}
			if got := bucketSum(bs); got != tc.qty {
				t.Fatalf("sum invariant broken: want %v, got %v (diff %v)", tc.qty, got, got-tc.qty)
			}
		})
	}
}

func TestBucketSingleDayWindow(t *testing.T) {
	d := date(2025, 6, 15)
	bs, err := BucketCommitment(commitment(d, d, 500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bs) != 1 {
		t.Fatalf("expected one bucket, got %d", len(bs))
	}
	if bs[0].Quantity != 500 {
		t.Fatalf("expected full quantity, got %v", bs[0].Quantity)
	}
	if !bs[0].Month.Equal(date(2025, 6, 1)) {
		t.Fatalf("expected month 2025-06, got %v", bs[0].Month)
	}
}

func TestBucketProRataByDays(t *testing.T) {
	// 2025-03-22 .. 2025-04-10: 10 days in March, 10 in April, 20 total.
	bs, err := BucketCommitment(commitment(date(2025, 3, 22), date(2025, 4, 10), 1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bs) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(bs))
	}
	if math.Abs(bs[0].Quantity-500) > 1e-9 {
		t.Fatalf("march share: want 500, got %v", bs[0].Quantity)
	}
	if math.Abs(bs[1].Quantity-500) > 1e-9 {
		t.Fatalf("april share: want 500, got %v", bs[1].Quantity)
	}
}

func TestBucketProvenance(t *testing.T) {
	c := commitment(date(2025, 1, 1), date(2025, 2, 28), 100)
	bs, err := BucketCommitment(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range bs {
		if b.CommitmentID != c.ID {
			t.Fatalf("bucket lost provenance link")
		}
		if b.TenantID != c.TenantID || b.Commodity != c.Commodity {
			t.Fatalf("bucket lost tenant/commodity")
		}
	}
}

func TestBucketInvalidWindow(t *testing.T) {
	_, err := BucketCommitment(commitment(date(2025, 4, 1), date(2025, 3, 1), 100))
	if err == nil {
		t.Fatalf("expected error for inverted window")
	}
	var ire *InvalidRangeError
	if !asError(err, &ire) {
		t.Fatalf("expected InvalidRangeError, got %T", err)
	}
}

func TestBucketNonPositiveQuantity(t *testing.T) {
	_, err := BucketCommitment(commitment(date(2025, 3, 1), date(2025, 3, 31), 0))
	if err == nil {
		t.Fatalf("expected error for zero quantity")
	}
}
