package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIn  TransactionType = "in"
	TransactionOut TransactionType = "out"
)

// ReferenceType tags what originated a stock transaction.
type ReferenceType string

const (
	ReferenceManual      ReferenceType = "manual"
	ReferenceRequisition ReferenceType = "requisition"
)

// StockTransaction is one append-only ledger entry. Rows are created exactly
// once per quantity change and never updated or deleted; the snapshot pair
// (PreviousQuantity/NewQuantity) makes every row independently auditable.
type StockTransaction struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionNumber string          `gorm:"uniqueIndex;not null"`
	InventoryID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type              TransactionType `gorm:"column:transaction_type;type:varchar(10);not null"`
	// Quantity is an unsigned magnitude; Type carries the sign.
	Quantity         int             `gorm:"not null"`
	PreviousQuantity int             `gorm:"not null"`
	NewQuantity      int             `gorm:"not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ReferenceType    ReferenceType   `gorm:"type:varchar(20);not null;default:'manual';index:idx_stock_txn_reference"`
	ReferenceID      *uuid.UUID      `gorm:"type:uuid;index:idx_stock_txn_reference"`
	Reason           string
	PerformedBy      uuid.UUID  `gorm:"type:uuid;not null"`
	VerticalID       *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt        time.Time

	Item *InventoryItem `gorm:"foreignKey:InventoryID"`
}

func (StockTransaction) TableName() string { return "stock_transactions" }
