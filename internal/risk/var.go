package risk

import (
	"math"
	"sort"

	"HedgeDesk/internal/domain/models"
)

// ZScore returns the inverse standard-normal quantile for a confidence
// level in (0, 1), e.g. 0.95 → 1.6449. Uses Acklam's rational
// approximation, accurate to ~1e-9 over the full range.
func ZScore(confidence float64) float64 {
	p := confidence
	if p <= 0 || p >= 1 {
		return math.NaN()
	}

	a := [6]float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	b := [5]float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01}
	c := [6]float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	d := [4]float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00}

	const plow = 0.02425
	const phigh = 1 - plow

	switch {
	case p < plow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p <= phigh:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	default:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
}

// BucketVaR is the single-bucket parametric VaR:
// Z(α) × σ(i) × P(i,t) × |E(i,t)| × √T(t). A zero horizon yields zero:
// realized exposure carries no forward price risk.
func BucketVaR(z, sigma, price, netExposure, horizonYears float64) float64 {
	if horizonYears <= 0 {
		return 0
	}
	return z * sigma * price * math.Abs(netExposure) * math.Sqrt(horizonYears)
}

// CommodityVaR aggregates bucket VaRs within one commodity via the two-norm,
// treating buckets as independent across time.
func CommodityVaR(bucketVaRs []float64) float64 {
	sum := 0.0
	for _, v := range bucketVaRs {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// PortfolioVaR is √(wᵀ Σ w) with w the commodity VaR vector and Σ the
// correlation matrix. Correlation is used directly as the off-diagonal
// weighting; the commodity VaRs already carry each asset's own variance.
// Downstream consumers validate against this exact formula.
func PortfolioVaR(commodityVaRs map[string]float64, corr models.CorrelationMatrix) float64 {
	commodities := make([]string, 0, len(commodityVaRs))
	for c := range commodityVaRs {
		commodities = append(commodities, c)
	}
	sort.Strings(commodities)

	total := 0.0
	for _, a := range commodities {
		for _, b := range commodities {
			total += commodityVaRs[a] * corr.At(a, b) * commodityVaRs[b]
		}
	}
	if total < 0 {
		total = 0
	}
	return math.Sqrt(total)
}
