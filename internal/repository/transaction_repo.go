package repository

import (
	"context"

	"stocktrack/internal/dto"
	"stocktrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionRepository is the append-only access contract for the stock
// transaction ledger. There is deliberately no update or delete: rows are
// written exactly once per quantity change.
type TransactionRepository interface {
	CreateTx(tx *gorm.DB, txn *model.StockTransaction) error
	ListByItem(ctx context.Context, inventoryID uuid.UUID, filter dto.TransactionFilter) ([]model.StockTransaction, int64, error)

	// ExistsByReferenceTx reports whether a transaction referencing the given
	// origin already exists for the item. The receipt bridge uses this to stay
	// idempotent: a retried receive never double-counts quantities.
	ExistsByReferenceTx(tx *gorm.DB, inventoryID uuid.UUID, refType model.ReferenceType, refID uuid.UUID) (bool, error)
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository { return &transactionRepo{db: db} }

func (r *transactionRepo) CreateTx(tx *gorm.DB, txn *model.StockTransaction) error {
	return tx.Create(txn).Error
}

func (r *transactionRepo) ListByItem(ctx context.Context, inventoryID uuid.UUID, filter dto.TransactionFilter) ([]model.StockTransaction, int64, error) {
	var txns []model.StockTransaction
	var total int64

	q := r.db.WithContext(ctx).Model(&model.StockTransaction{}).
		Where("inventory_id = ?", inventoryID)

	if filter.Type != "" {
		q = q.Where("transaction_type = ?", filter.Type)
	}
	if filter.ReferenceType != "" {
		q = q.Where("reference_type = ?", filter.ReferenceType)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&txns).Error
	return txns, total, err
}

func (r *transactionRepo) ExistsByReferenceTx(tx *gorm.DB, inventoryID uuid.UUID, refType model.ReferenceType, refID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&model.StockTransaction{}).
		Where("inventory_id = ? AND reference_type = ? AND reference_id = ?", inventoryID, refType, refID).
		Count(&count).Error
	return count > 0, err
}
