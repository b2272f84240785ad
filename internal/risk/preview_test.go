package risk

import (
	"reflect"
	"testing"

	"HedgeDesk/internal/domain/models"
)

func previewFixture() PreviewInput {
	eval := date(2025, 6, 1)
	obs := []models.PriceObservation{forward("sugar", "2025-05-20", "2025-12-01", 2.00)}
	return PreviewInput{
		Eval:       eval,
		Confidence: 0.95,
		Buckets:    []models.ExposureBucket{exposure("sugar", 2025, 12, 1000)},
		Persisted:  []models.HedgeInstruction{hedge("sugar", 2025, 12, 200)},
		Extra:      hedge("sugar", 2025, 12, 300),
		Prices:     NewPriceTable(obs),
		Snapshot: models.VolatilitySnapshot{
			Volatility:  map[string]float64{"sugar": 0.20},
			Correlation: models.CorrelationMatrix{"sugar": {"sugar": 1}},
		},
	}
}

func TestPreviewHedgeDelta(t *testing.T) {
	in := previewFixture()
	res, err := PreviewHedge(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	z := ZScore(0.95)
	current, err := ScenarioVaR(in.Buckets, in.Persisted, in.Prices, in.Snapshot, z, in.Eval)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// net exposure drops from 800 to 500: preview VaR scales by 500/800
	wantPreview := current.Portfolio * 500 / 800
	if !approx(res.PreviewVaR.Portfolio, wantPreview, 1e-9) {
		t.Fatalf("preview VaR: want %v, got %v", wantPreview, res.PreviewVaR.Portfolio)
	}
	if !approx(res.DeltaVaR.Portfolio, wantPreview-current.Portfolio, 1e-9) {
		t.Fatalf("delta must be preview - current (signed)")
	}
	if res.DeltaVaR.Portfolio >= 0 {
		t.Fatalf("reducing exposure must produce a negative delta, got %v", res.DeltaVaR.Portfolio)
	}
	if !approx(res.DeltaVaR.PerCommodity["sugar"], res.DeltaVaR.Portfolio, 1e-9) {
		t.Fatalf("single-commodity delta must match portfolio delta")
	}
}

func TestPreviewHedgeIncreasingExposure(t *testing.T) {
	in := previewFixture()
	in.Extra = hedge("sugar", 2025, 12, -500) // adds to long exposure
	res, err := PreviewHedge(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DeltaVaR.Portfolio <= 0 {
		t.Fatalf("increasing exposure must produce a positive delta, got %v", res.DeltaVaR.Portfolio)
	}
}

// The safety-critical contract: previewing never mutates its inputs, so a
// subsequent build from the same persisted state is byte-for-byte unchanged.
func TestPreviewHedgeNonMutation(t *testing.T) {
	in := previewFixture()
	persistedBefore := make([]models.HedgeInstruction, len(in.Persisted))
	copy(persistedBefore, in.Persisted)
	bucketsBefore := make([]models.ExposureBucket, len(in.Buckets))
	copy(bucketsBefore, in.Buckets)

	baseline, err := ScenarioVaR(in.Buckets, in.Persisted, in.Prices, in.Snapshot, ZScore(0.95), in.Eval)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 50; i++ {
		extra := hedge("sugar", 2025, 12, float64(i*37-400))
		in.Extra = extra
		if _, err := PreviewHedge(in); err != nil {
			t.Fatalf("preview %d failed: %v", i, err)
		}
	}

	if !reflect.DeepEqual(in.Persisted, persistedBefore) {
		t.Fatalf("preview mutated the persisted instruction set")
	}
	if !reflect.DeepEqual(in.Buckets, bucketsBefore) {
		t.Fatalf("preview mutated the bucket set")
	}
	after, err := ScenarioVaR(in.Buckets, in.Persisted, in.Prices, in.Snapshot, ZScore(0.95), in.Eval)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if baseline.Portfolio != after.Portfolio {
		t.Fatalf("current scenario drifted after previews: %v -> %v", baseline.Portfolio, after.Portfolio)
	}
}

func TestPreviewHedgeBadConfidence(t *testing.T) {
	in := previewFixture()
	in.Confidence = 0
	if _, err := PreviewHedge(in); err == nil {
		t.Fatalf("expected InvalidRangeError")
	}
}
