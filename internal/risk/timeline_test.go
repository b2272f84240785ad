package risk

import (
	"math"
	"testing"

	"HedgeDesk/internal/domain/models"
)

// fixture: sugar and flour exposure six+ months out, spot history for both,
// forward quotes for sugar.
func timelineFixture() TimelineInput {
	eval := date(2025, 6, 1)
	buckets := []models.ExposureBucket{
		exposure("sugar", 2025, 12, 1000),
		exposure("flour", 2026, 1, 2000),
	}
	var obs []models.PriceObservation
	obs = append(obs, dailySeries("sugar", eval, []float64{1.90, 1.95, 1.93, 1.98, 2.00})...)
	obs = append(obs, dailySeries("flour", eval, []float64{0.50, 0.51, 0.50, 0.52, 0.52})...)
	obs = append(obs, forward("sugar", "2025-05-20", "2025-12-01", 2.00))

	est := NewEstimator(Config{})
	return TimelineInput{
		Start:      eval,
		End:        date(2025, 9, 1),
		Confidence: 0.95,
		Buckets:    buckets,
		Prices:     NewPriceTable(obs),
		Snapshot:   est.Snapshot(obs, eval),
	}
}

func TestBuildTimelineOrdering(t *testing.T) {
	in := timelineFixture()
	points, err := BuildTimeline(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 4 month points x 2 scenarios
	if len(points) != 8 {
		t.Fatalf("expected 8 points, got %d", len(points))
	}
	for i := 0; i < len(points); i += 2 {
		if points[i].Scenario != models.ScenarioWithoutHedge || points[i+1].Scenario != models.ScenarioWithHedge {
			t.Fatalf("scenario order broken at %d: %s then %s", i, points[i].Scenario, points[i+1].Scenario)
		}
		if !points[i].Date.Equal(points[i+1].Date) {
			t.Fatalf("paired scenarios must share a date")
		}
		if i > 0 && !points[i].Date.After(points[i-1].Date) {
			t.Fatalf("dates must ascend")
		}
	}
}

func TestBuildTimelineScenariosShareInputs(t *testing.T) {
	in := timelineFixture()
	// no hedges: the two scenarios must be numerically identical
	points, err := BuildTimeline(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < len(points); i += 2 {
		if points[i].VaR.Portfolio != points[i+1].VaR.Portfolio {
			t.Fatalf("empty hedge set: scenarios must match at %v", points[i].Date)
		}
		if points[i].ExpectedCost.Portfolio != points[i+1].ExpectedCost.Portfolio {
			t.Fatalf("expected cost is hedge-independent")
		}
	}
}

func TestBuildTimelineScenarioMonotonicity(t *testing.T) {
	in := timelineFixture()
	// same-sign hedge, magnitude <= exposure
	in.Hedges = []models.HedgeInstruction{
		hedge("sugar", 2025, 12, 600),
		hedge("flour", 2026, 1, 2000),
	}
	points, err := BuildTimeline(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < len(points); i += 2 {
		without, with := points[i].VaR.Portfolio, points[i+1].VaR.Portfolio
		if with > without+1e-9 {
			t.Fatalf("hedging within exposure must not increase VaR: %v > %v at %v",
				with, without, points[i].Date)
		}
	}
}

func TestBuildTimelineFullHedgeZeroesBucket(t *testing.T) {
	in := timelineFixture()
	in.Buckets = []models.ExposureBucket{exposure("sugar", 2025, 12, 1000)}
	in.Hedges = []models.HedgeInstruction{hedge("sugar", 2025, 12, 1000)}
	points, err := BuildTimeline(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(points); i += 2 {
		if points[i].VaR.Portfolio != 0 {
			t.Fatalf("fully hedged bucket must have zero VaR, got %v", points[i].VaR.Portfolio)
		}
	}
}

func TestBuildTimelineZeroHorizon(t *testing.T) {
	in := timelineFixture()
	// exposure entirely in the past relative to every timeline point
	in.Buckets = []models.ExposureBucket{exposure("sugar", 2025, 1, 5000)}
	points, err := BuildTimeline(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range points {
		if p.VaR.Portfolio != 0 {
			t.Fatalf("realized exposure must carry zero VaR, got %v at %v", p.VaR.Portfolio, p.Date)
		}
	}
}

func TestBuildTimelineMissingPriceAborts(t *testing.T) {
	in := timelineFixture()
	in.Buckets = append(in.Buckets, exposure("rice", 2025, 12, 100)) // no price history at all
	_, err := BuildTimeline(in)
	if err == nil {
		t.Fatalf("expected MissingPriceError, got a timeline")
	}
	var mpe *MissingPriceError
	if !asError(err, &mpe) {
		t.Fatalf("expected MissingPriceError, got %T: %v", err, err)
	}
	if mpe.Commodity != "rice" {
		t.Fatalf("error must identify the commodity, got %q", mpe.Commodity)
	}
}

func TestBuildTimelineInvalidRange(t *testing.T) {
	in := timelineFixture()
	in.End = in.Start.AddDate(0, -2, 0)
	if _, err := BuildTimeline(in); err == nil {
		t.Fatalf("expected error for end before start")
	}

	in = timelineFixture()
	in.Confidence = 1.5
	_, err := BuildTimeline(in)
	var ire *InvalidRangeError
	if !asError(err, &ire) {
		t.Fatalf("expected InvalidRangeError for bad confidence, got %v", err)
	}
}

func TestBuildTimelineWorkedExample(t *testing.T) {
	// single bucket at T=0.5y with pinned vol and forward price:
	// VaR = Z(0.95) x 0.20 x 2.00 x 1000 x sqrt(0.5)
	eval := date(2025, 6, 1)
	in := TimelineInput{
		Start:      eval,
		End:        eval,
		Confidence: 0.95,
		Buckets:    []models.ExposureBucket{exposure("sugar", 2025, 12, 1000)},
		Prices:     NewPriceTable([]models.PriceObservation{forward("sugar", "2025-05-20", "2025-12-01", 2.00)}),
		Snapshot: models.VolatilitySnapshot{
			Volatility:  map[string]float64{"sugar": 0.20},
			Correlation: models.CorrelationMatrix{"sugar": {"sugar": 1}},
		},
	}
	points, err := BuildTimeline(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := points[0].VaR.PerCommodity["sugar"]
	horizon := float64(date(2025, 12, 1).Sub(eval).Hours()) / 24 / 365
	want := ZScore(0.95) * 0.20 * 2.00 * 1000 * math.Sqrt(horizon)
	if !approx(got, want, 1e-9) {
		t.Fatalf("worked example: want %v, got %v", want, got)
	}
	// ~6 months out: magnitude around the hand-computed 465
	if got < 440 || got > 495 {
		t.Fatalf("worked example magnitude off: got %v", got)
	}
	if points[0].VaR.Portfolio != got {
		t.Fatalf("single-commodity portfolio VaR must equal commodity VaR")
	}
}

func TestScenarioVaRFloorsUnobservedCommodity(t *testing.T) {
	// rice has forward quotes but no spot history at all, so the estimator
	// produces no volatility entry for it. The floor must apply the same way
	// it does for a commodity with a single observation.
	eval := date(2025, 6, 1)
	obs := []models.PriceObservation{forward("rice", "2025-05-20", "2025-12-01", 1.50)}
	est := NewEstimator(Config{VolatilityFloor: 0.25})
	snap := est.Snapshot(obs, eval)
	if _, present := snap.Volatility["rice"]; present {
		t.Fatalf("forward-only series must not produce a volatility estimate")
	}

	buckets := []models.ExposureBucket{exposure("rice", 2025, 12, 1000)}
	got, err := ScenarioVaR(buckets, nil, NewPriceTable(obs), snap, ZScore(0.95), eval)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	horizon := float64(date(2025, 12, 1).Sub(eval).Hours()) / 24 / 365
	want := ZScore(0.95) * 0.25 * 1.50 * 1000 * math.Sqrt(horizon)
	if !approx(got.PerCommodity["rice"], want, 1e-9) {
		t.Fatalf("unobserved commodity VaR: want floor-based %v, got %v", want, got.PerCommodity["rice"])
	}
	if got.Portfolio == 0 {
		t.Fatal("portfolio VaR must not be zero for an unhedged unobserved commodity")
	}
}
