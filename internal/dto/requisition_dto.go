package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateRequisitionRequest struct {
	Title       string  `json:"title"       validate:"required,min=3,max=200"`
	Description *string `json:"description"`
	Purpose     *string `json:"purpose"`
	Department  *string `json:"department"`
	Priority    string  `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	ProgramID   *string `json:"program_id"  validate:"omitempty,uuid"`

	Items []CreateRequisitionItemRequest `json:"items" validate:"dive"`
}

type CreateRequisitionItemRequest struct {
	ItemName          string          `json:"item_name"           validate:"required,min=2,max=150"`
	Description       *string         `json:"description"`
	Quantity          int             `json:"quantity"            validate:"required,gt=0"`
	Unit              string          `json:"unit"`
	EstimatedUnitCost decimal.Decimal `json:"estimated_unit_cost" validate:"min=0"`
	InventoryID       *string         `json:"inventory_id"        validate:"omitempty,uuid"`
	Category          *string         `json:"category"`
	Specifications    *string         `json:"specifications"`
	Notes             *string         `json:"notes"`
}

// UpdateRequisitionRequest patches header fields; allowed only while pending.
type UpdateRequisitionRequest struct {
	Title       *string `json:"title"       validate:"omitempty,min=3,max=200"`
	Description *string `json:"description"`
	Purpose     *string `json:"purpose"`
	Department  *string `json:"department"`
	Priority    *string `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	ProgramID   *string `json:"program_id"  validate:"omitempty,uuid"`
}

// UpdateRequisitionItemRequest patches a line item; allowed while pending or approved.
type UpdateRequisitionItemRequest struct {
	ItemName          *string          `json:"item_name"           validate:"omitempty,min=2,max=150"`
	Description       *string          `json:"description"`
	Quantity          *int             `json:"quantity"            validate:"omitempty,gt=0"`
	Unit              *string          `json:"unit"`
	EstimatedUnitCost *decimal.Decimal `json:"estimated_unit_cost"`
	InventoryID       *string          `json:"inventory_id"        validate:"omitempty,uuid"`
	Category          *string          `json:"category"`
	Specifications    *string          `json:"specifications"`
	Notes             *string          `json:"notes"`
}

type RejectRequisitionRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type OrderRequisitionRequest struct {
	VendorID *string `json:"vendor_id" validate:"omitempty,uuid"`
	PONumber *string `json:"po_number"`
}

// ReceiveRequisitionRequest carries per-line receipt detail. Lines without an
// override are received in full at their estimated unit cost.
type ReceiveRequisitionRequest struct {
	Items []ReceiveItemRequest `json:"items" validate:"dive"`
}

type ReceiveItemRequest struct {
	ItemID           string           `json:"item_id"           validate:"required,uuid"`
	ReceivedQuantity int              `json:"received_quantity" validate:"min=0"`
	ActualUnitCost   *decimal.Decimal `json:"actual_unit_cost"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type RequisitionFilter struct {
	Status   string `form:"status"   validate:"omitempty,oneof=pending approved rejected ordered received cancelled"`
	Priority string `form:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RequisitionItemResponse struct {
	ID                string           `json:"id"`
	ItemName          string           `json:"item_name"`
	Description       *string          `json:"description"`
	Quantity          int              `json:"quantity"`
	Unit              string           `json:"unit"`
	EstimatedUnitCost decimal.Decimal  `json:"estimated_unit_cost"`
	ActualUnitCost    *decimal.Decimal `json:"actual_unit_cost"`
	ReceivedQuantity  *int             `json:"received_quantity"`
	TotalCost         decimal.Decimal  `json:"total_cost"`
	InventoryID       *string          `json:"inventory_id"`
	Category          *string          `json:"category"`
	Specifications    *string          `json:"specifications"`
	Notes             *string          `json:"notes"`
}

type RequisitionResponse struct {
	ID                string          `json:"id"`
	RequisitionNumber string          `json:"requisition_number"`
	Title             string          `json:"title"`
	Description       *string         `json:"description"`
	Purpose           *string         `json:"purpose"`
	Department        *string         `json:"department"`
	VerticalID        *string         `json:"vertical_id"`
	ProgramID         *string         `json:"program_id"`
	RequestedBy       string          `json:"requested_by"`
	Priority          string          `json:"priority"`
	Status            string          `json:"status"`
	EstimatedTotal    decimal.Decimal `json:"estimated_total"`

	ApprovedBy      *string `json:"approved_by"`
	ApprovedDate    *string `json:"approved_date"`
	RejectedBy      *string `json:"rejected_by"`
	RejectedDate    *string `json:"rejected_date"`
	RejectionReason *string `json:"rejection_reason"`
	OrderedBy       *string `json:"ordered_by"`
	OrderedDate     *string `json:"ordered_date"`
	VendorID        *string `json:"vendor_id"`
	PONumber        *string `json:"po_number"`
	ReceivedBy      *string `json:"received_by"`
	ReceivedDate    *string `json:"received_date"`
	CreatedAt       string  `json:"created_at"`

	Items []RequisitionItemResponse `json:"items"`
}

type RequisitionListResponse struct {
	Data       []RequisitionResponse `json:"data"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}

type RequisitionStatsResponse struct {
	Total          int64           `json:"total"`
	Pending        int64           `json:"pending"`
	Approved       int64           `json:"approved"`
	Rejected       int64           `json:"rejected"`
	Ordered        int64           `json:"ordered"`
	Received       int64           `json:"received"`
	Cancelled      int64           `json:"cancelled"`
	EstimatedTotal decimal.Decimal `json:"estimated_total"`
}
