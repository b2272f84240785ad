package risk

import (
	"math"
	"testing"
	"time"

	"HedgeDesk/internal/domain/models"
)

func spot(commodity string, d time.Time, price float64) models.PriceObservation {
	return models.PriceObservation{Commodity: commodity, Date: d, Price: price}
}

// dailySeries generates n consecutive daily spot prices ending at eval.
func dailySeries(commodity string, eval time.Time, prices []float64) []models.PriceObservation {
	out := make([]models.PriceObservation, 0, len(prices))
	start := eval.AddDate(0, 0, -(len(prices) - 1))
	for i, p := range prices {
		out = append(out, spot(commodity, start.AddDate(0, 0, i), p))
	}
	return out
}

func TestSnapshotVolatilityKnownSeries(t *testing.T) {
	eval := date(2025, 6, 30)
	// alternating +1%/-1% log moves: stddev of returns is deterministic
	prices := []float64{100}
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			prices = append(prices, prices[len(prices)-1]*math.Exp(0.01))
		} else {
			prices = append(prices, prices[len(prices)-1]*math.Exp(-0.01))
		}
	}
	est := NewEstimator(Config{HistoryDays: 252, TradingPeriodsPerYear: 252})
	snap := est.Snapshot(dailySeries("sugar", eval, prices), eval)

	// sample stddev of an alternating ±0.01 series is just over 0.01
	want := 0.01 * math.Sqrt(252)
	got := snap.Volatility["sugar"]
	if !approx(got, want, want*0.05) {
		t.Fatalf("volatility: want ~%v, got %v", want, got)
	}
}

func TestSnapshotVolatilityFloorFallback(t *testing.T) {
	eval := date(2025, 6, 30)
	est := NewEstimator(Config{VolatilityFloor: 0.05})

	// one observation: no return can be computed
	snap := est.Snapshot([]models.PriceObservation{spot("flour", eval, 10)}, eval)
	if got := snap.Volatility["flour"]; got != 0.05 {
		t.Fatalf("single observation: want floor 0.05, got %v", got)
	}

	// two observations: one return, still no sample variance
	snap = est.Snapshot(dailySeries("flour", eval, []float64{10, 11}), eval)
	if got := snap.Volatility["flour"]; got != 0.05 {
		t.Fatalf("single return: want floor 0.05, got %v", got)
	}
}

func TestSnapshotWindowRestriction(t *testing.T) {
	eval := date(2025, 6, 30)
	est := NewEstimator(Config{HistoryDays: 10})
	// stale series entirely outside the trailing window
	stale := dailySeries("sugar", eval.AddDate(0, -6, 0), []float64{100, 101, 99, 102, 98})
	snap := est.Snapshot(stale, eval)
	if got := snap.Volatility["sugar"]; got != 0 {
		t.Fatalf("stale history outside window: want floor 0, got %v", got)
	}
}

func TestSnapshotCorrelationPerfect(t *testing.T) {
	eval := date(2025, 6, 30)
	a := dailySeries("sugar", eval, []float64{100, 101, 103, 101, 104, 102})
	// flour moves in lockstep with sugar, scaled
	b := dailySeries("flour", eval, []float64{50, 50.5, 51.5, 50.5, 52, 51})
	est := NewEstimator(Config{})
	snap := est.Snapshot(append(a, b...), eval)

	got := snap.Correlation.At("sugar", "flour")
	if !approx(got, 1, 1e-9) {
		t.Fatalf("lockstep series: want correlation 1, got %v", got)
	}
	if snap.Correlation.At("sugar", "sugar") != 1 {
		t.Fatalf("diagonal must be 1")
	}
	if got := snap.Correlation.At("flour", "sugar"); !approx(got, snap.Correlation.At("sugar", "flour"), 1e-12) {
		t.Fatalf("matrix must be symmetric")
	}
}

func TestSnapshotCorrelationNoOverlap(t *testing.T) {
	eval := date(2025, 6, 30)
	a := dailySeries("sugar", eval, []float64{100, 101, 99, 102})
	b := dailySeries("flour", eval.AddDate(0, 0, -60), []float64{50, 51, 49, 52})
	est := NewEstimator(Config{HistoryDays: 252})
	snap := est.Snapshot(append(a, b...), eval)

	if got := snap.Correlation.At("sugar", "flour"); got != 0 {
		t.Fatalf("disjoint histories: want correlation 0, got %v", got)
	}
}

func TestSnapshotIgnoresForwardQuotes(t *testing.T) {
	eval := date(2025, 6, 30)
	obs := dailySeries("sugar", eval, []float64{100, 101, 99, 102})
	obs = append(obs, models.PriceObservation{
		Commodity: "sugar", Date: eval, Price: 500, ContractMonth: date(2025, 12, 1),
	})
	est := NewEstimator(Config{})
	withFwd := est.Snapshot(obs, eval)
	withoutFwd := est.Snapshot(obs[:len(obs)-1], eval)
	if withFwd.Volatility["sugar"] != withoutFwd.Volatility["sugar"] {
		t.Fatalf("forward quotes must not enter the spot return series")
	}
}
