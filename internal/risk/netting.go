package risk

import (
	"sort"

	"HedgeDesk/internal/domain/models"
)

// NetExposures computes E = Q − H per bucket: physical exposure summed from
// the bucket set minus hedge instructions matching the bucket's commodity
// and contract month. Passing a nil hedge set gives the without-hedge
// scenario (H = 0 everywhere). Hedges against months with no physical bucket
// do not create buckets.
func NetExposures(buckets []models.ExposureBucket, hedges []models.HedgeInstruction) map[models.BucketKey]float64 {
	net := make(map[models.BucketKey]float64, len(buckets))
	for _, b := range buckets {
		k := models.BucketKey{Commodity: b.Commodity, Month: b.Month}
		net[k] += b.Quantity
	}
	for _, h := range hedges {
		k := h.Key()
		if _, ok := net[k]; ok {
			net[k] -= h.Quantity
		}
	}
	return net
}

// PhysicalExposures sums bucket quantities per key, ignoring hedges. Used
// for the hedge-independent expected cost figure.
func PhysicalExposures(buckets []models.ExposureBucket) map[models.BucketKey]float64 {
	return NetExposures(buckets, nil)
}

// WithExtra returns persisted plus one ephemeral instruction as a fresh
// slice. The persisted slice is never aliased or modified, which keeps the
// preview path mechanically free of writes.
func WithExtra(persisted []models.HedgeInstruction, extra models.HedgeInstruction) []models.HedgeInstruction {
	out := make([]models.HedgeInstruction, 0, len(persisted)+1)
	out = append(out, persisted...)
	return append(out, extra)
}

// sortedKeys gives deterministic bucket iteration for reproducible builds.
func sortedKeys(m map[models.BucketKey]float64) []models.BucketKey {
	keys := make([]models.BucketKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Commodity != keys[j].Commodity {
			return keys[i].Commodity < keys[j].Commodity
		}
		return keys[i].Month.Before(keys[j].Month)
	})
	return keys
}
