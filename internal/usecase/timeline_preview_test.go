package usecase

import (
	"context"
	"reflect"
	"testing"
	"time"

	"HedgeDesk/internal/domain/models"
	"HedgeDesk/internal/risk"
	icache "HedgeDesk/internal/service/cache"

	"github.com/google/uuid"
)

// riskFixture assembles a tenant with one sugar bucket and enough spot
// history to estimate volatility.
type riskFixture struct {
	buckets  *fakeBucketStore
	sessions *fakeSessionStore
	prices   *fakePriceStore
	market   *MarketDataService
}

func newRiskFixture(t *testing.T) *riskFixture {
	t.Helper()

	prices := &fakePriceStore{}
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	price := 2.0
	for i := 0; i < 30; i++ {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price /= 1.01
		}
		prices.obs = append(prices.obs, models.PriceObservation{
			Commodity: "sugar",
			Date:      base.AddDate(0, 0, i),
			Price:     price,
		})
	}

	buckets := newFakeBucketStore()
	buckets.byTenant["acme"] = []models.ExposureBucket{
		{
			TenantID:     "acme",
			Commodity:    "sugar",
			Month:        time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			Quantity:     1000,
			CommitmentID: uuid.New(),
		},
	}

	market := NewMarketDataService(prices, risk.NewEstimator(risk.Config{}), icache.NewTTLCache(), time.Minute, 252)

	return &riskFixture{
		buckets:  buckets,
		sessions: &fakeSessionStore{},
		prices:   prices,
		market:   market,
	}
}

func TestTimelineBuildOrderingAndScenarios(t *testing.T) {
	f := newRiskFixture(t)
	svc := NewTimelineService(f.buckets, f.sessions, f.market, newFakeMetrics())

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	points, err := svc.Build(context.Background(), "acme", start, end, 0.95)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(points) != 6 {
		t.Fatalf("points = %d, want 6 (3 months x 2 scenarios)", len(points))
	}
	for i := 0; i < len(points); i += 2 {
		if points[i].Scenario != models.ScenarioWithoutHedge || points[i+1].Scenario != models.ScenarioWithHedge {
			t.Fatalf("scenario order wrong at %d: %s then %s", i, points[i].Scenario, points[i+1].Scenario)
		}
		if !points[i].Date.Equal(points[i+1].Date) {
			t.Fatalf("paired points differ in date at %d", i)
		}
		// No active session: the scenarios must coincide.
		if points[i].VaR.Portfolio != points[i+1].VaR.Portfolio {
			t.Fatalf("scenarios diverge without hedges: %v vs %v",
				points[i].VaR.Portfolio, points[i+1].VaR.Portfolio)
		}
	}
	if points[0].VaR.Portfolio <= 0 {
		t.Fatalf("portfolio VaR = %v, want > 0 before delivery", points[0].VaR.Portfolio)
	}
}

func TestTimelineBuildUsesActiveHedges(t *testing.T) {
	f := newRiskFixture(t)
	f.sessions.sess = &models.HedgeSession{
		ID:       uuid.New(),
		TenantID: "acme",
		Status:   models.SessionActive,
		Items: []models.HedgeInstruction{
			{
				Commodity:     "sugar",
				ContractMonth: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
				Quantity:      1000,
			},
		},
	}
	svc := NewTimelineService(f.buckets, f.sessions, f.market, newFakeMetrics())

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	points, err := svc.Build(context.Background(), "acme", start, start, 0.95)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].VaR.Portfolio <= 0 {
		t.Fatalf("without_hedge VaR = %v, want > 0", points[0].VaR.Portfolio)
	}
	if points[1].VaR.Portfolio != 0 {
		t.Fatalf("with_hedge VaR = %v, want 0 for a fully hedged bucket", points[1].VaR.Portfolio)
	}
}

func TestPreviewDoesNotWriteSession(t *testing.T) {
	f := newRiskFixture(t)
	persisted := []models.HedgeInstruction{
		{
			Commodity:     "sugar",
			ContractMonth: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			Quantity:      400,
		},
	}
	f.sessions.sess = &models.HedgeSession{
		ID:       uuid.New(),
		TenantID: "acme",
		Status:   models.SessionActive,
		Items:    append([]models.HedgeInstruction(nil), persisted...),
	}
	svc := NewPreviewService(f.buckets, f.sessions, f.market, newFakeMetrics())

	eval := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	extra := models.HedgeInstruction{
		Commodity:     "sugar",
		ContractMonth: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Quantity:      600,
	}

	for i := 0; i < 20; i++ {
		res, err := svc.Preview(context.Background(), "acme", eval, extra, 0.95)
		if err != nil {
			t.Fatalf("preview %d: %v", i, err)
		}
		if res.PreviewVaR.Portfolio != 0 {
			t.Fatalf("preview VaR = %v, want 0 when hedges cover exposure", res.PreviewVaR.Portfolio)
		}
		if res.DeltaVaR.Portfolio >= 0 {
			t.Fatalf("delta VaR = %v, want negative for a risk-reducing hedge", res.DeltaVaR.Portfolio)
		}
	}

	if f.sessions.saves != 0 {
		t.Fatalf("session saves = %d, preview must never write", f.sessions.saves)
	}
	if !reflect.DeepEqual(f.sessions.sess.Items, persisted) {
		t.Fatalf("persisted instructions changed: %+v", f.sessions.sess.Items)
	}
}

func TestMarketDataLoadCachesPerEvalDate(t *testing.T) {
	f := newRiskFixture(t)
	eval := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if _, _, err := f.market.Load(context.Background(), eval); err != nil {
		t.Fatalf("load: %v", err)
	}
	queries := f.prices.queries
	if queries == 0 {
		t.Fatal("expected store queries on first load")
	}

	if _, _, err := f.market.Load(context.Background(), eval); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if f.prices.queries != queries {
		t.Fatalf("store queried again on cached load: %d -> %d", queries, f.prices.queries)
	}
}
