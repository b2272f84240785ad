package models

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseCommitment is a physical purchase contract ingested from the upload
// collaborator. Immutable once ingested; Quantity is always positive.
type PurchaseCommitment struct {
	ID            uuid.UUID
	TenantID      string
	Commodity     string
	DeliveryStart time.Time
	DeliveryEnd   time.Time
	Quantity      float64
	UnitPrice     float64
}

// ExposureBucket is one commodity/calendar-month slice of physical exposure.
// Quantity is signed; positive means net long physical exposure.
// Buckets for a tenant are always rebuilt as a full batch, never patched,
// so that the per-commitment sum invariant holds exactly.
type ExposureBucket struct {
	TenantID     string
	Commodity    string
	Month        time.Time // first-of-month, UTC
	Quantity     float64
	CommitmentID uuid.UUID // provenance link to the source commitment
}

// ExposureSummary is the per-commodity, per-month physical exposure rollup
// served to the dashboard grid.
type ExposureSummary map[string]map[string]float64
