package models

import (
	"time"

	"github.com/google/uuid"
)

// Hedge session statuses.
const (
	SessionActive   = "active"
	SessionExecuted = "executed"
)

// HedgeInstruction is one futures line item: a signed quantity against a
// contract month. Positive quantity reduces long physical exposure.
type HedgeInstruction struct {
	Commodity     string    `json:"commodity"`
	ContractMonth time.Time `json:"contract_month"`
	Quantity      float64   `json:"quantity"`
	PriceSnapshot float64   `json:"price_snapshot,omitempty"`
}

// Key identifies the exposure bucket this instruction nets against.
func (h HedgeInstruction) Key() BucketKey {
	return BucketKey{Commodity: h.Commodity, Month: h.ContractMonth}
}

// HedgeSession is a tenant-scoped set of hedge instructions. The persisted
// session is mutated only through explicit add/update/remove calls; preview
// computations must never write it.
type HedgeSession struct {
	ID         uuid.UUID          `json:"id"`
	TenantID   string             `json:"tenant_id"`
	Status     string             `json:"status"`
	Items      []HedgeInstruction `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
	ExecutedAt *time.Time         `json:"executed_at,omitempty"`
	FinalVaR   *MoneyBreakdown    `json:"final_var,omitempty"`
}

// BucketKey addresses one commodity/month bucket.
type BucketKey struct {
	Commodity string
	Month     time.Time
}
