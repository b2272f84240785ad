package risk

import (
	"math"
	"sort"
	"time"

	"HedgeDesk/internal/domain/models"
)

// Config holds the estimator and VaR tuning constants. Zero values are
// replaced with defaults by Normalize.
type Config struct {
	HistoryDays           int     `yaml:"history_days"`             // trailing spot window, calendar days
	TradingPeriodsPerYear float64 `yaml:"trading_periods_per_year"` // annualization scaling
	VolatilityFloor       float64 `yaml:"volatility_floor"`         // used when <2 observations in window
}

// Normalize fills defaults. The volatility floor intentionally defaults to
// zero: sparse history yields zero vol, not an error and not a guess.
func (c Config) Normalize() Config {
	if c.HistoryDays <= 0 {
		c.HistoryDays = 252
	}
	if c.TradingPeriodsPerYear <= 0 {
		c.TradingPeriodsPerYear = 252
	}
	return c
}

// Estimator derives annualized volatilities and a cross-commodity
// correlation matrix from trailing spot price history. Pure and stateless.
type Estimator struct {
	cfg Config
}

func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg.Normalize()}
}

// Snapshot computes the volatility/correlation snapshot for one build from
// spot history up to the evaluation date. Commodities with fewer than two
// observations in the window get the configured floor volatility;
// commodity pairs with no overlapping return dates get correlation zero.
func (e *Estimator) Snapshot(history []models.PriceObservation, eval time.Time) models.VolatilitySnapshot {
	from := eval.AddDate(0, 0, -e.cfg.HistoryDays)
	returns := returnsByCommodity(history, from, eval)

	commodities := make([]string, 0, len(returns))
	for c := range returns {
		commodities = append(commodities, c)
	}
	sort.Strings(commodities)

	vols := make(map[string]float64, len(commodities))
	for _, c := range commodities {
		vols[c] = e.annualizedVol(returns[c])
	}

	corr := make(models.CorrelationMatrix, len(commodities))
	for _, a := range commodities {
		corr[a] = make(map[string]float64, len(commodities))
		for _, b := range commodities {
			if a == b {
				corr[a][b] = 1
				continue
			}
			corr[a][b] = pairCorrelation(returns[a], returns[b])
		}
	}

	return models.VolatilitySnapshot{Volatility: vols, Correlation: corr, Floor: e.cfg.VolatilityFloor}
}

// returnsByCommodity computes log returns of consecutive spot observations
// inside the window, keyed by the date of the later observation so that
// correlation can pair same-date returns across commodities.
func returnsByCommodity(history []models.PriceObservation, from, to time.Time) map[string]map[time.Time]float64 {
	series := make(map[string][]models.PriceObservation)
	for _, o := range history {
		if !o.IsSpot() || o.Price <= 0 {
			continue
		}
		if o.Date.Before(from) || o.Date.After(to) {
			continue
		}
		series[o.Commodity] = append(series[o.Commodity], o)
	}

	out := make(map[string]map[time.Time]float64, len(series))
	for c, obs := range series {
		sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
		rets := make(map[time.Time]float64, len(obs))
		for i := 1; i < len(obs); i++ {
			rets[obs[i].Date] = math.Log(obs[i].Price / obs[i-1].Price)
		}
		out[c] = rets
	}
	return out
}

// annualizedVol is the sample standard deviation of returns scaled by the
// square root of trading periods per year. Under two observations (i.e.
// under one return) it falls back to the configured floor.
func (e *Estimator) annualizedVol(rets map[time.Time]float64) float64 {
	if len(rets) < 1 {
		return e.cfg.VolatilityFloor
	}
	if len(rets) == 1 {
		// one return has no sample variance
		return e.cfg.VolatilityFloor
	}
	sum, sum2 := 0.0, 0.0
	for _, r := range rets {
		sum += r
		sum2 += r * r
	}
	n := float64(len(rets))
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * e.cfg.TradingPeriodsPerYear)
}

// pairCorrelation is the Pearson correlation of same-date return pairs,
// clamped to [-1, 1]. Fewer than two overlapping dates yields zero.
func pairCorrelation(a, b map[time.Time]float64) float64 {
	var xs, ys []float64
	for d, ra := range a {
		if rb, ok := b[d]; ok {
			xs = append(xs, ra)
			ys = append(ys, rb)
		}
	}
	if len(xs) < 2 {
		return 0
	}
	n := float64(len(xs))
	var sx, sy, sxx, syy, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		syy += ys[i] * ys[i]
		sxy += xs[i] * ys[i]
	}
	cov := sxy - sx*sy/n
	vx := sxx - sx*sx/n
	vy := syy - sy*sy/n
	if vx <= 0 || vy <= 0 {
		return 0
	}
	r := cov / math.Sqrt(vx*vy)
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r
}
