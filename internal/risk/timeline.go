package risk

import (
	"time"

	"HedgeDesk/internal/domain/models"
	"HedgeDesk/pkg/util"
)

// TimelineInput carries everything one build needs, already materialized.
// The snapshot is computed once per build and shared by both scenarios so
// that the two series stay comparable.
type TimelineInput struct {
	Start      time.Time
	End        time.Time
	Confidence float64
	Buckets    []models.ExposureBucket
	Hedges     []models.HedgeInstruction // active persisted set
	Prices     *PriceTable
	Snapshot   models.VolatilitySnapshot
}

// BuildTimeline emits the dual-scenario time series: for every calendar
// month in [Start, End], one point per scenario, ascending by date and
// without_hedge before with_hedge within a date. A single missing price
// aborts the whole build; a partial VaR timeline would be worse than an
// explicit failure.
func BuildTimeline(in TimelineInput) ([]models.TimelinePoint, error) {
	if err := validateRange(in.Start, in.End, in.Confidence); err != nil {
		return nil, err
	}

	z := ZScore(in.Confidence)
	points := util.MonthsBetween(in.Start, in.End)
	out := make([]models.TimelinePoint, 0, 2*len(points))

	for _, eval := range points {
		cost, err := expectedCost(in.Buckets, in.Prices, eval)
		if err != nil {
			return nil, err
		}
		for _, sc := range []models.Scenario{models.ScenarioWithoutHedge, models.ScenarioWithHedge} {
			hedges := in.Hedges
			if sc == models.ScenarioWithoutHedge {
				hedges = nil
			}
			v, err := ScenarioVaR(in.Buckets, hedges, in.Prices, in.Snapshot, z, eval)
			if err != nil {
				return nil, err
			}
			out = append(out, models.TimelinePoint{
				Date:         eval,
				Scenario:     sc,
				ExpectedCost: cost,
				VaR:          v,
			})
		}
	}
	return out, nil
}

// ScenarioVaR computes the per-commodity and portfolio VaR breakdown for one
// scenario at one evaluation date.
func ScenarioVaR(buckets []models.ExposureBucket, hedges []models.HedgeInstruction,
	prices *PriceTable, snap models.VolatilitySnapshot, z float64, eval time.Time) (models.MoneyBreakdown, error) {

	net := NetExposures(buckets, hedges)
	bucketVaRs := make(map[string][]float64)
	for _, k := range sortedKeys(net) {
		price, ok := prices.Price(k.Commodity, k.Month, eval)
		if !ok {
			return models.MoneyBreakdown{}, &MissingPriceError{Commodity: k.Commodity, Month: k.Month, AsOf: eval}
		}
		sigma, ok := snap.Volatility[k.Commodity]
		if !ok {
			sigma = snap.Floor
		}
		horizon := util.YearsUntil(eval, k.Month)
		bucketVaRs[k.Commodity] = append(bucketVaRs[k.Commodity],
			BucketVaR(z, sigma, price, net[k], horizon))
	}

	per := make(map[string]float64, len(bucketVaRs))
	for c, vs := range bucketVaRs {
		per[c] = CommodityVaR(vs)
	}
	return models.MoneyBreakdown{
		PerCommodity: per,
		Portfolio:    PortfolioVaR(per, snap.Correlation),
	}, nil
}

// expectedCost is the hedge-independent baseline figure: physical quantity
// times the applicable price, summed per commodity and over the portfolio.
// It shares the VaR price resolution and therefore its missing-price
// semantics.
func expectedCost(buckets []models.ExposureBucket, prices *PriceTable, eval time.Time) (models.MoneyBreakdown, error) {
	phys := PhysicalExposures(buckets)
	per := make(map[string]float64)
	total := 0.0
	for _, k := range sortedKeys(phys) {
		price, ok := prices.Price(k.Commodity, k.Month, eval)
		if !ok {
			return models.MoneyBreakdown{}, &MissingPriceError{Commodity: k.Commodity, Month: k.Month, AsOf: eval}
		}
		cost := phys[k] * price
		per[k.Commodity] += cost
		total += cost
	}
	return models.MoneyBreakdown{PerCommodity: per, Portfolio: total}, nil
}

func validateRange(start, end time.Time, confidence float64) error {
	if start.IsZero() || end.IsZero() {
		return &InvalidRangeError{Reason: "start and end are required"}
	}
	if end.Before(start) {
		return &InvalidRangeError{Reason: "end before start"}
	}
	if confidence <= 0 || confidence >= 1 {
		return &InvalidRangeError{Reason: "confidence level must be in (0, 1)"}
	}
	return nil
}
