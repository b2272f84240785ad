package risk

import (
	"time"

	"HedgeDesk/internal/domain/models"
)

// PreviewInput is one what-if evaluation: the persisted instruction set plus
// exactly one hypothetical instruction. The persisted slice is read-only
// here; nothing in this file writes anywhere.
type PreviewInput struct {
	Eval       time.Time
	Confidence float64
	Buckets    []models.ExposureBucket
	Persisted  []models.HedgeInstruction
	Extra      models.HedgeInstruction
	Prices     *PriceTable
	Snapshot   models.VolatilitySnapshot
}

// PreviewHedge computes the with-hedge scenario under (persisted +
// hypothetical) instructions, recomputes the current scenario from the
// persisted set alone, and returns both the absolute preview VaR and the
// signed delta (preview − current).
func PreviewHedge(in PreviewInput) (*models.PreviewResult, error) {
	if in.Confidence <= 0 || in.Confidence >= 1 {
		return nil, &InvalidRangeError{Reason: "confidence level must be in (0, 1)"}
	}

	z := ZScore(in.Confidence)
	current, err := ScenarioVaR(in.Buckets, in.Persisted, in.Prices, in.Snapshot, z, in.Eval)
	if err != nil {
		return nil, err
	}
	preview, err := ScenarioVaR(in.Buckets, WithExtra(in.Persisted, in.Extra), in.Prices, in.Snapshot, z, in.Eval)
	if err != nil {
		return nil, err
	}

	delta := models.MoneyBreakdown{
		PerCommodity: make(map[string]float64, len(preview.PerCommodity)),
		Portfolio:    preview.Portfolio - current.Portfolio,
	}
	for c, v := range preview.PerCommodity {
		delta.PerCommodity[c] = v - current.PerCommodity[c]
	}

	return &models.PreviewResult{PreviewVaR: preview, DeltaVaR: delta}, nil
}
