package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemStatus is a closed lifecycle enum. Items are never hard-deleted:
// discontinuing keeps the row so transaction history stays resolvable.
type ItemStatus string

const (
	ItemStatusActive       ItemStatus = "active"
	ItemStatusDiscontinued ItemStatus = "discontinued"
)

// InventoryItem is a stock-keeping item. CurrentQuantity is owned by the
// ledger: it changes only through a recorded StockTransaction, never via a
// plain field update.
type InventoryItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemCode    string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	Category    string `gorm:"not null;index"`
	Subcategory *string
	Unit        string `gorm:"not null;default:'unit'"`

	CurrentQuantity int `gorm:"not null;default:0"`
	MinimumQuantity int `gorm:"not null;default:0"`
	MaximumQuantity *int
	ReorderQuantity *int

	UnitCost decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// TotalValue = CurrentQuantity * UnitCost, refreshed on every ledger write.
	TotalValue decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`

	Status     ItemStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Location   *string
	VerticalID *uuid.UUID `gorm:"type:uuid;index"`
	VendorID   *uuid.UUID `gorm:"type:uuid;index"`

	LastRestockedDate *time.Time
	LastUsedDate      *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (InventoryItem) TableName() string { return "inventory_items" }
