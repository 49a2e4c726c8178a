package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateItemRequest struct {
	Name            string          `json:"name"             validate:"required,min=2,max=150"`
	Description     *string         `json:"description"`
	Category        string          `json:"category"         validate:"required,min=2"`
	Subcategory     *string         `json:"subcategory"`
	Unit            string          `json:"unit"`
	CurrentQuantity int             `json:"current_quantity" validate:"min=0"`
	MinimumQuantity int             `json:"minimum_quantity" validate:"min=0"`
	MaximumQuantity *int            `json:"maximum_quantity" validate:"omitempty,min=0"`
	ReorderQuantity *int            `json:"reorder_quantity" validate:"omitempty,min=0"`
	UnitCost        decimal.Decimal `json:"unit_cost"        validate:"min=0"`
	Location        *string         `json:"location"`
	VendorID        *string         `json:"vendor_id"        validate:"omitempty,uuid"`
}

// UpdateItemRequest is the explicit patch structure for descriptive and
// configuration fields. Quantity is deliberately absent: it changes only
// through the transaction ledger.
type UpdateItemRequest struct {
	Name            *string          `json:"name"             validate:"omitempty,min=2,max=150"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category"         validate:"omitempty,min=2"`
	Subcategory     *string          `json:"subcategory"`
	Unit            *string          `json:"unit"`
	MinimumQuantity *int             `json:"minimum_quantity" validate:"omitempty,min=0"`
	MaximumQuantity *int             `json:"maximum_quantity" validate:"omitempty,min=0"`
	ReorderQuantity *int             `json:"reorder_quantity" validate:"omitempty,min=0"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	Location        *string          `json:"location"`
	VendorID        *string          `json:"vendor_id"        validate:"omitempty,uuid"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ItemFilter struct {
	Code     string `form:"code"`
	Category string `form:"category"`
	Status   string `form:"status"` // "discontinued" | "all" | default: active
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemResponse struct {
	ID                string          `json:"id"`
	ItemCode          string          `json:"item_code"`
	Name              string          `json:"name"`
	Description       *string         `json:"description"`
	Category          string          `json:"category"`
	Subcategory       *string         `json:"subcategory"`
	Unit              string          `json:"unit"`
	CurrentQuantity   int             `json:"current_quantity"`
	MinimumQuantity   int             `json:"minimum_quantity"`
	MaximumQuantity   *int            `json:"maximum_quantity"`
	ReorderQuantity   *int            `json:"reorder_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalValue        decimal.Decimal `json:"total_value"`
	Status            string          `json:"status"`
	Location          *string         `json:"location"`
	VerticalID        *string         `json:"vertical_id"`
	VendorID          *string         `json:"vendor_id"`
	LastRestockedDate *string         `json:"last_restocked_date"`
	LastUsedDate      *string         `json:"last_used_date"`
}

type ItemListResponse struct {
	Data       []ItemResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// AgingBucketResponse groups items by days since last outbound use.
// Buckets: "never_used", "old" (>=180d), "aging" (90-180d), "recent" (<90d).
type AgingBucketResponse struct {
	Bucket string         `json:"bucket"`
	Count  int            `json:"count"`
	Items  []ItemResponse `json:"items"`
}

type InventoryStatsResponse struct {
	TotalItems        int64           `json:"total_items"`
	ActiveItems       int64           `json:"active_items"`
	DiscontinuedItems int64           `json:"discontinued_items"`
	LowStockItems     int64           `json:"low_stock_items"`
	OutOfStockItems   int64           `json:"out_of_stock_items"`
	TotalValue        decimal.Decimal `json:"total_value"`
}

// StockCheckResponse is returned by the public stock check endpoint (no auth required).
type StockCheckResponse struct {
	ItemCode        string `json:"item_code"`
	Name            string `json:"name"`
	CurrentQuantity int    `json:"current_quantity"`
	Unit            string `json:"unit"`
	Status          string `json:"status"`
}
