package repository

import (
	"context"

	"stocktrack/internal/dto"
	"stocktrack/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository defines the data access contract for inventory items.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type InventoryRepository interface {
	CreateTx(tx *gorm.DB, item *model.InventoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	FindByCode(ctx context.Context, code string) (*model.InventoryItem, error)
	List(ctx context.Context, filter dto.ItemFilter) ([]model.InventoryItem, int64, error)
	Update(ctx context.Context, item *model.InventoryItem) error
	Discontinue(ctx context.Context, id uuid.UUID) error

	// LockByIDTx reads the item under a FOR UPDATE row lock. Every quantity
	// mutation goes through this so concurrent ledger writes serialize.
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.InventoryItem, error)
	UpdateTx(tx *gorm.DB, item *model.InventoryItem) error

	// Read projections
	LowStock(ctx context.Context) ([]model.InventoryItem, error)
	OutOfStock(ctx context.Context) ([]model.InventoryItem, error)
	ActiveItems(ctx context.Context) ([]model.InventoryItem, error)
	Stats(ctx context.Context) (*dto.InventoryStatsResponse, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) CreateTx(tx *gorm.DB, item *model.InventoryItem) error {
	return tx.Create(item).Error
}

func (r *inventoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	return &item, err
}

func (r *inventoryRepo) FindByCode(ctx context.Context, code string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).Where("item_code = ?", code).First(&item).Error
	return &item, err
}

func (r *inventoryRepo) List(ctx context.Context, filter dto.ItemFilter) ([]model.InventoryItem, int64, error) {
	var items []model.InventoryItem
	var total int64

	q := r.db.WithContext(ctx).Model(&model.InventoryItem{})

	// Status filter: "discontinued", "all", anything else = active (default)
	switch filter.Status {
	case "discontinued":
		q = q.Where("status = ?", model.ItemStatusDiscontinued)
	case "all":
		// no filter
	default:
		q = q.Where("status = ?", model.ItemStatusActive)
	}

	if filter.Code != "" {
		q = q.Where("item_code = ?", filter.Code)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&items).Error
	return items, total, err
}

func (r *inventoryRepo) Update(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *inventoryRepo) Discontinue(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Where("id = ?", id).
		Update("status", model.ItemStatusDiscontinued)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *inventoryRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error
	return &item, err
}

func (r *inventoryRepo) UpdateTx(tx *gorm.DB, item *model.InventoryItem) error {
	return tx.Save(item).Error
}

func (r *inventoryRepo) LowStock(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("status = ? AND current_quantity <= minimum_quantity", model.ItemStatusActive).
		Order("current_quantity ASC").
		Find(&items).Error
	return items, err
}

func (r *inventoryRepo) OutOfStock(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("status = ? AND current_quantity = 0", model.ItemStatusActive).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *inventoryRepo) ActiveItems(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ItemStatusActive).
		Find(&items).Error
	return items, err
}

func (r *inventoryRepo) Stats(ctx context.Context) (*dto.InventoryStatsResponse, error) {
	stats := &dto.InventoryStatsResponse{TotalValue: decimal.Zero}
	db := r.db.WithContext(ctx).Model(&model.InventoryItem{})

	if err := db.Session(&gorm.Session{}).Count(&stats.TotalItems).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).
		Where("status = ?", model.ItemStatusActive).
		Count(&stats.ActiveItems).Error; err != nil {
		return nil, err
	}
	stats.DiscontinuedItems = stats.TotalItems - stats.ActiveItems

	if err := db.Session(&gorm.Session{}).
		Where("status = ? AND current_quantity <= minimum_quantity", model.ItemStatusActive).
		Count(&stats.LowStockItems).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).
		Where("status = ? AND current_quantity = 0", model.ItemStatusActive).
		Count(&stats.OutOfStockItems).Error; err != nil {
		return nil, err
	}

	var total decimal.NullDecimal
	if err := db.Session(&gorm.Session{}).
		Where("status = ?", model.ItemStatusActive).
		Select("SUM(total_value)").Scan(&total).Error; err != nil {
		return nil, err
	}
	if total.Valid {
		stats.TotalValue = total.Decimal
	}
	return stats, nil
}

func (r *inventoryRepo) DB() *gorm.DB { return r.db }
