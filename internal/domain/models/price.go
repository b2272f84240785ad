package models

import "time"

// PriceObservation is a single market price point, shared across tenants and
// append-only. A zero ContractMonth marks a spot observation; otherwise the
// observation quotes the futures contract for that month.
type PriceObservation struct {
	Commodity     string
	Date          time.Time
	Price         float64
	ContractMonth time.Time
}

// IsSpot reports whether the observation is a spot price.
func (p PriceObservation) IsSpot() bool { return p.ContractMonth.IsZero() }
