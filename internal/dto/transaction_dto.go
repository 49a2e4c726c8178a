package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RecordTransactionRequest struct {
	Type        string           `json:"type"         validate:"required,oneof=in out"`
	Quantity    int              `json:"quantity"     validate:"required,gt=0"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	ReferenceID *string          `json:"reference_id" validate:"omitempty,uuid"`
	Reason      string           `json:"reason"       validate:"required,min=3"`
	// AllowNegative permits an out transaction to drive the quantity below
	// zero (backorder). Default is to reject.
	AllowNegative bool `json:"allow_negative"`
}

// AdjustQuantityRequest sets an absolute quantity; the signed delta is
// recorded through the ledger so the correction is fully audited.
type AdjustQuantityRequest struct {
	NewQuantity int              `json:"new_quantity" validate:"min=0"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	Reason      string           `json:"reason"       validate:"required,min=3"`
}

type TransactionFilter struct {
	Type          string `form:"type"           validate:"omitempty,oneof=in out"`
	ReferenceType string `form:"reference_type" validate:"omitempty,oneof=manual requisition"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TransactionResponse struct {
	ID                string          `json:"id"`
	TransactionNumber string          `json:"transaction_number"`
	InventoryID       string          `json:"inventory_id"`
	Type              string          `json:"type"`
	Quantity          int             `json:"quantity"`
	PreviousQuantity  int             `json:"previous_quantity"`
	NewQuantity       int             `json:"new_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	ReferenceType     string          `json:"reference_type"`
	ReferenceID       *string         `json:"reference_id"`
	Reason            string          `json:"reason"`
	PerformedBy       string          `json:"performed_by"`
	CreatedAt         string          `json:"created_at"`

	// Item is the post-transaction snapshot of the owning item so the caller
	// can diff and persist its audit record without a second read.
	Item *ItemResponse `json:"item,omitempty"`
}

type TransactionListResponse struct {
	Data       []TransactionResponse `json:"data"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}
