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

// RequisitionRepository defines data access for requisitions and their line
// items. Transition guards lock the header row, so all status writes happen
// through the ...Tx variants inside one DB transaction.
type RequisitionRepository interface {
	CreateTx(tx *gorm.DB, req *model.Requisition) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Requisition, error)
	List(ctx context.Context, filter dto.RequisitionFilter) ([]model.Requisition, int64, error)

	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Requisition, error)
	UpdateTx(tx *gorm.DB, req *model.Requisition) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	// Line items
	CreateItemTx(tx *gorm.DB, item *model.RequisitionItem) error
	FindItemTx(tx *gorm.DB, requisitionID, itemID uuid.UUID) (*model.RequisitionItem, error)
	UpdateItemTx(tx *gorm.DB, item *model.RequisitionItem) error
	DeleteItemTx(tx *gorm.DB, requisitionID, itemID uuid.UUID) error
	SumItemTotalsTx(tx *gorm.DB, requisitionID uuid.UUID) (decimal.Decimal, error)

	Stats(ctx context.Context) (*dto.RequisitionStatsResponse, error)

	DB() *gorm.DB
}

type requisitionRepo struct{ db *gorm.DB }

func NewRequisitionRepository(db *gorm.DB) RequisitionRepository { return &requisitionRepo{db: db} }

func (r *requisitionRepo) CreateTx(tx *gorm.DB, req *model.Requisition) error {
	return tx.Create(req).Error
}

func (r *requisitionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Requisition, error) {
	var req model.Requisition
	err := r.db.WithContext(ctx).Preload("Items").First(&req, "id = ?", id).Error
	return &req, err
}

func (r *requisitionRepo) List(ctx context.Context, filter dto.RequisitionFilter) ([]model.Requisition, int64, error) {
	var reqs []model.Requisition
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Requisition{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").
		Order("created_at DESC").Limit(filter.Limit).Offset(offset).
		Find(&reqs).Error
	return reqs, total, err
}

func (r *requisitionRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Requisition, error) {
	var req model.Requisition
	// Lock the header row first, then load items; locking a Preload query
	// would try to lock the joined rows too.
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("requisition_id = ?", id).Order("created_at ASC").Find(&req.Items).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requisitionRepo) UpdateTx(tx *gorm.DB, req *model.Requisition) error {
	return tx.Omit("Items").Save(req).Error
}

func (r *requisitionRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("requisition_id = ?", id).Delete(&model.RequisitionItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Requisition{}, "id = ?", id).Error
}

func (r *requisitionRepo) CreateItemTx(tx *gorm.DB, item *model.RequisitionItem) error {
	return tx.Create(item).Error
}

func (r *requisitionRepo) FindItemTx(tx *gorm.DB, requisitionID, itemID uuid.UUID) (*model.RequisitionItem, error) {
	var item model.RequisitionItem
	err := tx.Where("id = ? AND requisition_id = ?", itemID, requisitionID).First(&item).Error
	return &item, err
}

func (r *requisitionRepo) UpdateItemTx(tx *gorm.DB, item *model.RequisitionItem) error {
	return tx.Save(item).Error
}

func (r *requisitionRepo) DeleteItemTx(tx *gorm.DB, requisitionID, itemID uuid.UUID) error {
	res := tx.Where("id = ? AND requisition_id = ?", itemID, requisitionID).
		Delete(&model.RequisitionItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *requisitionRepo) SumItemTotalsTx(tx *gorm.DB, requisitionID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&model.RequisitionItem{}).
		Where("requisition_id = ?", requisitionID).
		Select("SUM(total_cost)").Scan(&total).Error
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}

func (r *requisitionRepo) Stats(ctx context.Context) (*dto.RequisitionStatsResponse, error) {
	stats := &dto.RequisitionStatsResponse{EstimatedTotal: decimal.Zero}
	db := r.db.WithContext(ctx).Model(&model.Requisition{})

	if err := db.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status model.RequisitionStatus
		Count  int64
	}
	var rows []statusCount
	if err := db.Session(&gorm.Session{}).
		Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		switch row.Status {
		case model.RequisitionPending:
			stats.Pending = row.Count
		case model.RequisitionApproved:
			stats.Approved = row.Count
		case model.RequisitionRejected:
			stats.Rejected = row.Count
		case model.RequisitionOrdered:
			stats.Ordered = row.Count
		case model.RequisitionReceived:
			stats.Received = row.Count
		case model.RequisitionCancelled:
			stats.Cancelled = row.Count
		}
	}

	var total decimal.NullDecimal
	if err := db.Session(&gorm.Session{}).
		Select("SUM(estimated_total)").Scan(&total).Error; err != nil {
		return nil, err
	}
	if total.Valid {
		stats.EstimatedTotal = total.Decimal
	}
	return stats, nil
}

func (r *requisitionRepo) DB() *gorm.DB { return r.db }
