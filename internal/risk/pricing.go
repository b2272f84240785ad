package risk

import (
	"sort"
	"time"

	"HedgeDesk/internal/domain/models"
)

// PriceTable resolves the price applicable to a bucket month at a given
// evaluation date: the nearest contract-month observation dated at or before
// the evaluation date, falling back to the nearest spot observation when the
// contract has never been quoted. Built once per timeline build from
// already-materialized observations.
type PriceTable struct {
	forward map[models.BucketKey][]models.PriceObservation
	spot    map[string][]models.PriceObservation
}

func NewPriceTable(obs []models.PriceObservation) *PriceTable {
	t := &PriceTable{
		forward: make(map[models.BucketKey][]models.PriceObservation),
		spot:    make(map[string][]models.PriceObservation),
	}
	for _, o := range obs {
		if o.IsSpot() {
			t.spot[o.Commodity] = append(t.spot[o.Commodity], o)
		} else {
			k := models.BucketKey{Commodity: o.Commodity, Month: o.ContractMonth}
			t.forward[k] = append(t.forward[k], o)
		}
	}
	for k := range t.forward {
		s := t.forward[k]
		sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	}
	for c := range t.spot {
		s := t.spot[c]
		sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	}
	return t
}

// Price returns the applicable price for (commodity, contractMonth) as of
// the given date. ok is false when no observation qualifies; the caller
// turns that into a MissingPriceError rather than defaulting to zero.
func (t *PriceTable) Price(commodity string, contractMonth, asOf time.Time) (float64, bool) {
	k := models.BucketKey{Commodity: commodity, Month: contractMonth}
	if p, ok := latestAtOrBefore(t.forward[k], asOf); ok {
		return p, true
	}
	return latestAtOrBefore(t.spot[commodity], asOf)
}

func latestAtOrBefore(obs []models.PriceObservation, asOf time.Time) (float64, bool) {
	// obs sorted ascending by date
	i := sort.Search(len(obs), func(i int) bool { return obs[i].Date.After(asOf) })
	if i == 0 {
		return 0, false
	}
	return obs[i-1].Price, true
}
