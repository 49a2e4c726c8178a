package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequisitionItem is one requested product line within a requisition.
// TotalCost = Quantity * EstimatedUnitCost until receipt; once an actual unit
// cost is recorded it is recomputed from that instead.
type RequisitionItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequisitionID uuid.UUID `gorm:"type:uuid;not null;index"`

	ItemName    string `gorm:"not null"`
	Description *string
	Quantity    int             `gorm:"not null"`
	Unit        string          `gorm:"not null;default:'unit'"`

	EstimatedUnitCost decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ActualUnitCost    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ReceivedQuantity  *int
	TotalCost         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`

	// InventoryID links the line to a stock-keeping item; only linked lines
	// post ledger transactions on receipt.
	InventoryID *uuid.UUID `gorm:"type:uuid;index"`

	Category       *string
	Specifications *string
	Notes          *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RequisitionItem) TableName() string { return "requisition_items" }

// LineTotal derives the cost of this line from the authoritative unit cost:
// actual when set (post-receipt), estimated otherwise.
func (i *RequisitionItem) LineTotal() decimal.Decimal {
	cost := i.EstimatedUnitCost
	if i.ActualUnitCost != nil {
		cost = *i.ActualUnitCost
	}
	return cost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
