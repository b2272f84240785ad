package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"HedgeDesk/internal/domain/models"
	"HedgeDesk/internal/risk"
	icache "HedgeDesk/internal/service/cache"
	xutil "HedgeDesk/pkg/util"

	"github.com/google/uuid"
)

func hedgeFixture() (*HedgeService, *fakeSessionStore) {
	sessions := &fakeSessionStore{}
	svc := NewHedgeService(sessions, nil, nil, nil, 0.95)
	return svc, sessions
}

func july() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) }

func TestHedgeUpsertCreatesSession(t *testing.T) {
	svc, sessions := hedgeFixture()
	ctx := context.Background()

	sess, err := svc.Upsert(ctx, "acme", models.HedgeInstruction{
		Commodity:     "sugar",
		ContractMonth: july(),
		Quantity:      500,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if sess.Status != models.SessionActive {
		t.Fatalf("status = %q, want active", sess.Status)
	}
	if len(sess.Items) != 1 || sess.Items[0].Quantity != 500 {
		t.Fatalf("unexpected items: %+v", sess.Items)
	}
	if sessions.saves != 1 {
		t.Fatalf("saves = %d, want 1", sessions.saves)
	}
}

func TestHedgeUpsertReplacesSameKey(t *testing.T) {
	svc, _ := hedgeFixture()
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "acme", models.HedgeInstruction{Commodity: "sugar", ContractMonth: july(), Quantity: 500}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	sess, err := svc.Upsert(ctx, "acme", models.HedgeInstruction{Commodity: "sugar", ContractMonth: july(), Quantity: 300})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if len(sess.Items) != 1 {
		t.Fatalf("items = %d, want 1 after same-key upsert", len(sess.Items))
	}
	if sess.Items[0].Quantity != 300 {
		t.Fatalf("quantity = %v, want 300", sess.Items[0].Quantity)
	}
}

func TestHedgeUpsertRejectsInvalid(t *testing.T) {
	svc, _ := hedgeFixture()
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "acme", models.HedgeInstruction{ContractMonth: july(), Quantity: 1}); err == nil {
		t.Fatal("expected error for missing commodity")
	}
	if _, err := svc.Upsert(ctx, "acme", models.HedgeInstruction{Commodity: "sugar", ContractMonth: july()}); err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestHedgeRemove(t *testing.T) {
	svc, _ := hedgeFixture()
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "acme", models.HedgeInstruction{Commodity: "sugar", ContractMonth: july(), Quantity: 500}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	sess, err := svc.Remove(ctx, "acme", models.BucketKey{Commodity: "sugar", Month: july()})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(sess.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(sess.Items))
	}

	// Removing a key that is not there is a no-op.
	if _, err := svc.Remove(ctx, "acme", models.BucketKey{Commodity: "flour", Month: july()}); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
}

func TestHedgeExecute(t *testing.T) {
	svc, sessions := hedgeFixture()
	ctx := context.Background()

	if _, err := svc.Execute(ctx, "acme"); err == nil {
		t.Fatal("expected error executing without a session")
	}

	if _, err := svc.Upsert(ctx, "acme", models.HedgeInstruction{Commodity: "sugar", ContractMonth: july(), Quantity: 500}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sess, err := svc.Execute(ctx, "acme")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if sess.Status != models.SessionExecuted || sess.ExecutedAt == nil {
		t.Fatalf("session not marked executed: %+v", sess)
	}
	if sessions.sess != nil {
		t.Fatal("active slot should be cleared after execute")
	}

	// Next mutation opens a fresh session.
	next, err := svc.Upsert(ctx, "acme", models.HedgeInstruction{Commodity: "flour", ContractMonth: july(), Quantity: 100})
	if err != nil {
		t.Fatalf("upsert after execute: %v", err)
	}
	if next.ID == sess.ID {
		t.Fatal("expected a new session id after execute")
	}
}

func TestHedgeExecuteRecordsFinalVaR(t *testing.T) {
	now := time.Now().UTC()
	month := xutil.MonthStart(now.AddDate(0, 2, 0))

	prices := &fakePriceStore{}
	price := 2.0
	for i := 30; i > 0; i-- {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price /= 1.01
		}
		prices.obs = append(prices.obs, models.PriceObservation{
			Commodity: "sugar",
			Date:      now.AddDate(0, 0, -i),
			Price:     price,
		})
	}

	buckets := newFakeBucketStore()
	buckets.byTenant["acme"] = []models.ExposureBucket{
		{TenantID: "acme", Commodity: "sugar", Month: month, Quantity: 1000, CommitmentID: uuid.New()},
	}
	market := NewMarketDataService(prices, risk.NewEstimator(risk.Config{}), icache.NewTTLCache(), time.Minute, 252)

	sessions := &fakeSessionStore{}
	svc := NewHedgeService(sessions, buckets, market, nil, 0.95)
	ctx := context.Background()

	// Full hedge nets the only bucket to zero.
	if _, err := svc.Upsert(ctx, "acme", models.HedgeInstruction{Commodity: "sugar", ContractMonth: month, Quantity: 1000}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	sess, err := svc.Execute(ctx, "acme")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if sess.FinalVaR == nil {
		t.Fatal("expected final VaR on executed session")
	}
	if sess.FinalVaR.Portfolio != 0 {
		t.Fatalf("portfolio VaR = %v, want 0 for fully hedged book", sess.FinalVaR.Portfolio)
	}
}

func TestHedgeExecuteEmptySession(t *testing.T) {
	svc, sessions := hedgeFixture()
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "acme", models.HedgeInstruction{Commodity: "sugar", ContractMonth: july(), Quantity: 500}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := svc.Remove(ctx, "acme", models.BucketKey{Commodity: "sugar", Month: july()}); err != nil {
		t.Fatalf("remove: %v", err)
	}

	_, err := svc.Execute(ctx, "acme")
	if !errors.Is(err, ErrEmptySession) {
		t.Fatalf("err = %v, want ErrEmptySession", err)
	}
	if sessions.sess == nil {
		t.Fatal("session should stay active after failed execute")
	}
}
