package risk

import (
	"HedgeDesk/internal/domain/models"
	"HedgeDesk/pkg/util"
)

// BucketCommitment apportions a purchase commitment across the calendar
// months its delivery window spans, pro-rata by the number of window days
// falling in each month. The apportioned quantities sum to the commitment
// quantity exactly: the final bucket absorbs any accumulation residual.
//
// A zero-length window (start == end) is a single-day window entirely inside
// its own month and yields one bucket with the full quantity.
func BucketCommitment(c models.PurchaseCommitment) ([]models.ExposureBucket, error) {
	if c.DeliveryEnd.Before(c.DeliveryStart) {
		return nil, &InvalidRangeError{Reason: "delivery end before delivery start"}
	}
	if c.Quantity <= 0 {
		return nil, &InvalidRangeError{Reason: "commitment quantity must be positive"}
	}

	months := util.MonthsBetween(c.DeliveryStart, c.DeliveryEnd)
	totalDays := util.DaysBetween(c.DeliveryStart, c.DeliveryEnd)

	buckets := make([]models.ExposureBucket, 0, len(months))
	allocated := 0.0
	for i, m := range months {
		qty := 0.0
		if i == len(months)-1 {
			// exact sum invariant
			qty = c.Quantity - allocated
		} else {
			overlapStart := c.DeliveryStart
			if m.After(overlapStart) {
				overlapStart = m
			}
			overlapEnd := util.MonthEnd(m)
			if c.DeliveryEnd.Before(overlapEnd) {
				overlapEnd = c.DeliveryEnd
			}
			days := util.DaysBetween(overlapStart, overlapEnd)
			qty = c.Quantity * float64(days) / float64(totalDays)
			allocated += qty
		}
		buckets = append(buckets, models.ExposureBucket{
			TenantID:     c.TenantID,
			Commodity:    c.Commodity,
			Month:        m,
			Quantity:     qty,
			CommitmentID: c.ID,
		})
	}
	return buckets, nil
}

// BucketCommitments buckets a whole commitment set, failing fast on the
// first invalid commitment.
func BucketCommitments(cs []models.PurchaseCommitment) ([]models.ExposureBucket, error) {
	var out []models.ExposureBucket
	for _, c := range cs {
		bs, err := BucketCommitment(c)
		if err != nil {
			return nil, err
		}
		out = append(out, bs...)
	}
	return out, nil
}
