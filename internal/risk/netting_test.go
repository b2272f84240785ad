package risk

import (
	"testing"

	"HedgeDesk/internal/domain/models"
)

func exposure(commodity string, y int, m int, qty float64) models.ExposureBucket {
	return models.ExposureBucket{
		TenantID:  "t1",
		Commodity: commodity,
		Month:     date(y, timeMonth(m), 1),
		Quantity:  qty,
	}
}

func hedge(commodity string, y, m int, qty float64) models.HedgeInstruction {
	return models.HedgeInstruction{Commodity: commodity, ContractMonth: date(y, timeMonth(m), 1), Quantity: qty}
}

func TestNetExposuresWithoutHedge(t *testing.T) {
	buckets := []models.ExposureBucket{
		exposure("sugar", 2025, 7, 600),
		exposure("sugar", 2025, 7, 400), // same bucket, summed
		exposure("flour", 2025, 8, 250),
	}
	net := NetExposures(buckets, nil)
	if len(net) != 2 {
		t.Fatalf("expected 2 bucket keys, got %d", len(net))
	}
	k := models.BucketKey{Commodity: "sugar", Month: date(2025, 7, 1)}
	if net[k] != 1000 {
		t.Fatalf("expected Q=1000, got %v", net[k])
	}
}

func TestNetExposuresWithHedge(t *testing.T) {
	buckets := []models.ExposureBucket{exposure("sugar", 2025, 7, 1000)}
	hedges := []models.HedgeInstruction{
		hedge("sugar", 2025, 7, 300),
		hedge("sugar", 2025, 7, 200),
		hedge("sugar", 2025, 9, 999), // no physical bucket: ignored
		hedge("flour", 2025, 7, 999), // wrong commodity: ignored
	}
	net := NetExposures(buckets, hedges)
	k := models.BucketKey{Commodity: "sugar", Month: date(2025, 7, 1)}
	if net[k] != 500 {
		t.Fatalf("E = Q - H: want 500, got %v", net[k])
	}
	if len(net) != 1 {
		t.Fatalf("hedges without buckets must not create buckets, got %d keys", len(net))
	}
}

func TestWithExtraDoesNotAliasPersisted(t *testing.T) {
	persisted := make([]models.HedgeInstruction, 1, 8) // spare capacity invites aliasing bugs
	persisted[0] = hedge("sugar", 2025, 7, 100)

	out := WithExtra(persisted, hedge("sugar", 2025, 7, 50))
	if len(out) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(out))
	}
	out[0].Quantity = -1
	if persisted[0].Quantity != 100 {
		t.Fatalf("WithExtra must copy, not alias, the persisted set")
	}
	if len(persisted) != 1 {
		t.Fatalf("persisted set length changed")
	}
}
