package models

// Requests for risk HTTP endpoints. Defined in domain for consistency and reuse.

type TimelineRequest struct {
	Start      string  `query:"start" json:"start"`
	End        string  `query:"end" json:"end"`
	Confidence float64 `query:"confidence" json:"confidence" default:"0.95" validate:"gt=0,lt=1"`
}

type PreviewRequest struct {
	Commodity     string  `json:"commodity" validate:"required"`
	ContractMonth string  `json:"contract_month" validate:"required"`
	Quantity      float64 `json:"quantity" validate:"required"`
	Confidence    float64 `json:"confidence" default:"0.95" validate:"gt=0,lt=1"`
}

type HedgeItemRequest struct {
	Commodity     string  `json:"commodity" validate:"required"`
	ContractMonth string  `json:"contract_month" validate:"required"`
	Quantity      float64 `json:"quantity" validate:"required"`
}

type HedgeItemDeleteRequest struct {
	Commodity     string `query:"commodity" json:"commodity" validate:"required"`
	ContractMonth string `query:"contract_month" json:"contract_month" validate:"required"`
}
