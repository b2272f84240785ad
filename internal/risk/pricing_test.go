package risk

import (
	"testing"

	"HedgeDesk/internal/domain/models"
)

func forward(commodity string, obsDate, contractMonth string, price float64) models.PriceObservation {
	d, _ := parseDate(obsDate)
	m, _ := parseDate(contractMonth)
	return models.PriceObservation{Commodity: commodity, Date: d, Price: price, ContractMonth: m}
}

func TestPriceTableNearestAtOrBefore(t *testing.T) {
	table := NewPriceTable([]models.PriceObservation{
		forward("sugar", "2025-05-01", "2025-12-01", 2.10),
		forward("sugar", "2025-06-01", "2025-12-01", 2.20),
		forward("sugar", "2025-07-01", "2025-12-01", 2.30),
	})

	p, ok := table.Price("sugar", date(2025, 12, 1), date(2025, 6, 15))
	if !ok || p != 2.20 {
		t.Fatalf("want 2.20 (nearest at-or-before), got %v ok=%v", p, ok)
	}
	// exact-date observation qualifies
	p, ok = table.Price("sugar", date(2025, 12, 1), date(2025, 7, 1))
	if !ok || p != 2.30 {
		t.Fatalf("want 2.30 at exact date, got %v ok=%v", p, ok)
	}
	// nothing observed yet at that date
	if _, ok := table.Price("sugar", date(2025, 12, 1), date(2025, 4, 1)); ok {
		t.Fatalf("expected missing price before first observation")
	}
}

func TestPriceTableSpotFallback(t *testing.T) {
	table := NewPriceTable([]models.PriceObservation{
		spot("flour", date(2025, 6, 10), 0.52),
	})
	p, ok := table.Price("flour", date(2025, 9, 1), date(2025, 6, 15))
	if !ok || p != 0.52 {
		t.Fatalf("unquoted contract must fall back to spot, got %v ok=%v", p, ok)
	}
	if _, ok := table.Price("rice", date(2025, 9, 1), date(2025, 6, 15)); ok {
		t.Fatalf("unknown commodity must be a missing price, not zero")
	}
}
