package models

import "time"

// Scenario tags the two parallel computation branches of a timeline build.
type Scenario string

const (
	ScenarioWithoutHedge Scenario = "without_hedge"
	ScenarioWithHedge    Scenario = "with_hedge"
)

// VolatilityEstimate is a per-commodity annualized volatility, recomputed
// from the trailing price window on each build. Derived data, never a source
// of truth.
type VolatilityEstimate struct {
	Commodity  string
	Annualized float64
}

// CorrelationMatrix is a symmetric unit-diagonal matrix over an open set of
// commodity identifiers. Map-based so the N-commodity case needs no code
// changes.
type CorrelationMatrix map[string]map[string]float64

// At returns the correlation for a commodity pair; identical commodities are
// 1 and unknown pairs default to 0.
func (m CorrelationMatrix) At(a, b string) float64 {
	if a == b {
		return 1
	}
	if row, ok := m[a]; ok {
		return row[b]
	}
	return 0
}

// VolatilitySnapshot bundles the volatility and correlation estimates used
// by one timeline build. Both scenarios of a build share the same snapshot.
type VolatilitySnapshot struct {
	Volatility  map[string]float64
	Correlation CorrelationMatrix
	// Floor applies to commodities absent from Volatility, so a commodity
	// with no spot history in the window is treated like one with too few
	// observations rather than as riskless.
	Floor float64
}

// MoneyBreakdown carries a per-commodity decomposition plus the portfolio
// aggregate, for both VaR and expected cost figures.
type MoneyBreakdown struct {
	PerCommodity map[string]float64 `json:"per_commodity"`
	Portfolio    float64            `json:"portfolio"`
}

// TimelinePoint is one (date, scenario) record of the dual-scenario series.
type TimelinePoint struct {
	Date         time.Time      `json:"date"`
	Scenario     Scenario       `json:"scenario"`
	ExpectedCost MoneyBreakdown `json:"expected_cost"`
	VaR          MoneyBreakdown `json:"var"`
}

// PreviewResult is the outcome of a what-if hedge evaluation: the absolute
// VaR under (persisted + hypothetical) instructions and the signed delta
// against the currently persisted with-hedge scenario.
type PreviewResult struct {
	PreviewVaR MoneyBreakdown `json:"preview_var"`
	DeltaVaR   MoneyBreakdown `json:"delta_var"`
}
