package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stocktrack/internal/apierror"
	"stocktrack/internal/dto"
	"stocktrack/internal/model"
	"stocktrack/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const statsCacheTTL = 60 * time.Second

// RecordTxInput is the internal ledger-write request. It mirrors the HTTP DTO
// but carries resolved types so in-transaction callers (the receipt bridge)
// can post without re-parsing.
type RecordTxInput struct {
	Type          model.TransactionType
	Quantity      int
	UnitCost      *decimal.Decimal
	ReferenceType model.ReferenceType
	ReferenceID   *uuid.UUID
	Reason        string
	AllowNegative bool
	PerformedBy   uuid.UUID
	VerticalID    *uuid.UUID
}

// InventoryService is the ledger: the only path that mutates an item's
// current quantity is RecordTransaction/RecordTransactionTx, so the quantity
// is always derivable from the transaction log.
type InventoryService interface {
	CreateItem(ctx context.Context, req dto.CreateItemRequest, actor Actor) (*dto.ItemResponse, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error)
	GetItem(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error)
	GetItemByCode(ctx context.Context, code string) (*dto.ItemResponse, error)
	ListItems(ctx context.Context, filter dto.ItemFilter) (*dto.ItemListResponse, error)
	DiscontinueItem(ctx context.Context, id uuid.UUID) error

	RecordTransaction(ctx context.Context, inventoryID uuid.UUID, req dto.RecordTransactionRequest, actor Actor) (*dto.TransactionResponse, error)
	AdjustQuantity(ctx context.Context, inventoryID uuid.UUID, req dto.AdjustQuantityRequest, actor Actor) (*dto.ItemResponse, error)
	ListTransactions(ctx context.Context, inventoryID uuid.UUID, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)

	LowStock(ctx context.Context) ([]dto.ItemResponse, error)
	OutOfStock(ctx context.Context) ([]dto.ItemResponse, error)
	AgingReport(ctx context.Context) ([]dto.AgingBucketResponse, error)
	Stats(ctx context.Context) (*dto.InventoryStatsResponse, error)

	// RecordTransactionTx posts a ledger entry inside a caller-owned DB
	// transaction. The receipt bridge uses this so a requisition's receive and
	// its stock transactions commit or roll back as one unit.
	RecordTransactionTx(tx *gorm.DB, inventoryID uuid.UUID, in RecordTxInput) (*model.StockTransaction, *model.InventoryItem, error)
	HasReferenceTx(tx *gorm.DB, inventoryID uuid.UUID, refType model.ReferenceType, refID uuid.UUID) (bool, error)
}

type inventoryService struct {
	repo repository.InventoryRepository
	txns repository.TransactionRepository
	seqs repository.SequenceRepository
	rdb  *redis.Client
}

func NewInventoryService(
	repo repository.InventoryRepository,
	txns repository.TransactionRepository,
	seqs repository.SequenceRepository,
	rdb *redis.Client,
) InventoryService {
	return &inventoryService{repo: repo, txns: txns, seqs: seqs, rdb: rdb}
}

// ── Item CRUD ────────────────────────────────────────────────────────────────

func (s *inventoryService) CreateItem(ctx context.Context, req dto.CreateItemRequest, actor Actor) (*dto.ItemResponse, error) {
	unit := req.Unit
	if unit == "" {
		unit = "unit"
	}

	var item *model.InventoryItem
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		prefix := CategoryPrefix(req.Category)
		seq, err := s.seqs.Next(tx, ItemSequenceName(prefix))
		if err != nil {
			return err
		}

		item = &model.InventoryItem{
			ItemCode:        FormatItemCode(prefix, seq),
			Name:            req.Name,
			Description:     req.Description,
			Category:        req.Category,
			Subcategory:     req.Subcategory,
			Unit:            unit,
			MinimumQuantity: req.MinimumQuantity,
			MaximumQuantity: req.MaximumQuantity,
			ReorderQuantity: req.ReorderQuantity,
			UnitCost:        req.UnitCost,
			TotalValue:      decimal.Zero,
			Status:          model.ItemStatusActive,
			Location:        req.Location,
			VerticalID:      actor.VerticalID,
			VendorID:        parseUUIDPtr(req.VendorID),
		}
		if err := s.createItemWithRetry(tx, item, prefix); err != nil {
			return err
		}

		// An initial quantity enters through the ledger so the reconciliation
		// invariant holds from the very first row.
		if req.CurrentQuantity > 0 {
			cost := req.UnitCost
			_, updated, err := s.RecordTransactionTx(tx, item.ID, RecordTxInput{
				Type:          model.TransactionIn,
				Quantity:      req.CurrentQuantity,
				UnitCost:      &cost,
				ReferenceType: model.ReferenceManual,
				Reason:        "Initial stock entry",
				PerformedBy:   actor.UserID,
				VerticalID:    actor.VerticalID,
			})
			if err != nil {
				return err
			}
			item = updated
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := itemToResponse(item)
	return &resp, nil
}

// createItemWithRetry inserts the item, regenerating the code once if the
// unique index rejects it.
func (s *inventoryService) createItemWithRetry(tx *gorm.DB, item *model.InventoryItem, prefix string) error {
	err := s.repo.CreateTx(tx, item)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	seq, seqErr := s.seqs.Next(tx, ItemSequenceName(prefix))
	if seqErr != nil {
		return seqErr
	}
	item.ItemCode = FormatItemCode(prefix, seq)
	if err := s.repo.CreateTx(tx, item); err != nil {
		return apierror.Conflict("duplicate item code " + item.ItemCode)
	}
	return nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := s.findItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Subcategory != nil {
		item.Subcategory = req.Subcategory
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.MinimumQuantity != nil {
		item.MinimumQuantity = *req.MinimumQuantity
	}
	if req.MaximumQuantity != nil {
		item.MaximumQuantity = req.MaximumQuantity
	}
	if req.ReorderQuantity != nil {
		item.ReorderQuantity = req.ReorderQuantity
	}
	if req.UnitCost != nil {
		item.UnitCost = *req.UnitCost
		item.TotalValue = item.UnitCost.Mul(decimal.NewFromInt(int64(item.CurrentQuantity)))
	}
	if req.Location != nil {
		item.Location = req.Location
	}
	if req.VendorID != nil {
		item.VendorID = parseUUIDPtr(req.VendorID)
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	s.invalidateStatsCache(ctx)

	resp := itemToResponse(item)
	return &resp, nil
}

func (s *inventoryService) GetItem(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.findItem(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *inventoryService) GetItemByCode(ctx context.Context, code string) (*dto.ItemResponse, error) {
	item, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("inventory item", code)
		}
		return nil, err
	}
	resp := itemToResponse(item)
	return &resp, nil
}

// findItem maps a missing row to NotFound; any other repository error is an
// infrastructure failure and surfaces as-is.
func (s *inventoryService) findItem(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("inventory item", id.String())
		}
		return nil, err
	}
	return item, nil
}

func (s *inventoryService) ListItems(ctx context.Context, filter dto.ItemFilter) (*dto.ItemListResponse, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ItemListResponse{
		Data:  make([]dto.ItemResponse, 0, len(items)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range items {
		resp.Data = append(resp.Data, itemToResponse(&items[i]))
	}
	if filter.Limit > 0 {
		resp.TotalPages = int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	}
	return resp, nil
}

func (s *inventoryService) DiscontinueItem(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Discontinue(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("inventory item", id.String())
		}
		return err
	}
	s.invalidateStatsCache(ctx)
	return nil
}

// ── Ledger writes ────────────────────────────────────────────────────────────

func (s *inventoryService) RecordTransaction(ctx context.Context, inventoryID uuid.UUID, req dto.RecordTransactionRequest, actor Actor) (*dto.TransactionResponse, error) {
	in := RecordTxInput{
		Type:          model.TransactionType(req.Type),
		Quantity:      req.Quantity,
		UnitCost:      req.UnitCost,
		ReferenceType: model.ReferenceManual,
		ReferenceID:   parseUUIDPtr(req.ReferenceID),
		Reason:        req.Reason,
		AllowNegative: req.AllowNegative,
		PerformedBy:   actor.UserID,
		VerticalID:    actor.VerticalID,
	}

	var txn *model.StockTransaction
	var item *model.InventoryItem
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		txn, item, err = s.RecordTransactionTx(tx, inventoryID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStatsCache(ctx)

	resp := transactionToResponse(txn)
	itemResp := itemToResponse(item)
	resp.Item = &itemResp
	return &resp, nil
}

func (s *inventoryService) RecordTransactionTx(tx *gorm.DB, inventoryID uuid.UUID, in RecordTxInput) (*model.StockTransaction, *model.InventoryItem, error) {
	item, err := s.lockItem(tx, inventoryID)
	if err != nil {
		return nil, nil, err
	}
	return s.recordOnLocked(tx, item, in)
}

func (s *inventoryService) lockItem(tx *gorm.DB, id uuid.UUID) (*model.InventoryItem, error) {
	item, err := s.repo.LockByIDTx(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("inventory item", id.String())
		}
		return nil, err
	}
	return item, nil
}

// recordOnLocked is the single ledger write path. The caller holds the row
// lock on item; the snapshot read, the transaction insert, and the quantity
// update all commit or roll back together.
func (s *inventoryService) recordOnLocked(tx *gorm.DB, item *model.InventoryItem, in RecordTxInput) (*model.StockTransaction, *model.InventoryItem, error) {
	if in.Quantity <= 0 {
		return nil, nil, apierror.Invalid("transaction quantity must be positive")
	}

	prev := item.CurrentQuantity
	var next int
	switch in.Type {
	case model.TransactionIn:
		next = prev + in.Quantity
	case model.TransactionOut:
		next = prev - in.Quantity
	default:
		return nil, nil, apierror.Invalid("transaction type must be \"in\" or \"out\"")
	}
	if next < 0 && !in.AllowNegative {
		return nil, nil, apierror.Invalid("insufficient stock: transaction would drive quantity below zero")
	}

	cost := item.UnitCost
	if in.UnitCost != nil {
		cost = *in.UnitCost
	}
	refType := in.ReferenceType
	if refType == "" {
		refType = model.ReferenceManual
	}

	now := time.Now().UTC()
	txn := &model.StockTransaction{
		InventoryID:      item.ID,
		Type:             in.Type,
		Quantity:         in.Quantity,
		PreviousQuantity: prev,
		NewQuantity:      next,
		UnitCost:         cost,
		ReferenceType:    refType,
		ReferenceID:      in.ReferenceID,
		Reason:           in.Reason,
		PerformedBy:      in.PerformedBy,
		VerticalID:       in.VerticalID,
		CreatedAt:        now,
	}
	if err := s.createTxnWithRetry(tx, txn, now.Year()); err != nil {
		return nil, nil, err
	}

	item.CurrentQuantity = next
	item.TotalValue = cost.Mul(decimal.NewFromInt(int64(next)))
	item.UnitCost = cost
	if in.Type == model.TransactionIn {
		item.LastRestockedDate = &now
	} else {
		item.LastUsedDate = &now
	}
	if err := s.repo.UpdateTx(tx, item); err != nil {
		return nil, nil, err
	}
	return txn, item, nil
}

// createTxnWithRetry generates the transaction number and inserts, retrying
// once with a fresh sequence on a duplicate before surfacing Conflict.
func (s *inventoryService) createTxnWithRetry(tx *gorm.DB, txn *model.StockTransaction, year int) error {
	for attempt := 0; attempt < 2; attempt++ {
		seq, err := s.seqs.Next(tx, TransactionSequenceName(year))
		if err != nil {
			return err
		}
		txn.TransactionNumber = FormatTransactionNumber(year, seq)

		err = s.txns.CreateTx(tx, txn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return apierror.Conflict("duplicate transaction number " + txn.TransactionNumber)
}

func (s *inventoryService) AdjustQuantity(ctx context.Context, inventoryID uuid.UUID, req dto.AdjustQuantityRequest, actor Actor) (*dto.ItemResponse, error) {
	var item *model.InventoryItem
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		locked, err := s.lockItem(tx, inventoryID)
		if err != nil {
			return err
		}

		delta := req.NewQuantity - locked.CurrentQuantity
		if delta == 0 {
			item = locked
			return nil
		}

		txnType := model.TransactionIn
		if delta < 0 {
			txnType = model.TransactionOut
			delta = -delta
		}
		_, updated, err := s.recordOnLocked(tx, locked, RecordTxInput{
			Type:          txnType,
			Quantity:      delta,
			UnitCost:      req.UnitCost,
			ReferenceType: model.ReferenceManual,
			Reason:        req.Reason,
			AllowNegative: true,
			PerformedBy:   actor.UserID,
			VerticalID:    actor.VerticalID,
		})
		if err != nil {
			return err
		}
		item = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStatsCache(ctx)

	resp := itemToResponse(item)
	return &resp, nil
}

func (s *inventoryService) ListTransactions(ctx context.Context, inventoryID uuid.UUID, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	if _, err := s.findItem(ctx, inventoryID); err != nil {
		return nil, err
	}

	txns, total, err := s.txns.ListByItem(ctx, inventoryID, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.TransactionListResponse{
		Data:  make([]dto.TransactionResponse, 0, len(txns)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range txns {
		resp.Data = append(resp.Data, transactionToResponse(&txns[i]))
	}
	if filter.Limit > 0 {
		resp.TotalPages = int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	}
	return resp, nil
}

func (s *inventoryService) HasReferenceTx(tx *gorm.DB, inventoryID uuid.UUID, refType model.ReferenceType, refID uuid.UUID) (bool, error) {
	return s.txns.ExistsByReferenceTx(tx, inventoryID, refType, refID)
}

// ── Read projections ─────────────────────────────────────────────────────────

func (s *inventoryService) LowStock(ctx context.Context) ([]dto.ItemResponse, error) {
	items, err := s.repo.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	return itemsToResponses(items), nil
}

func (s *inventoryService) OutOfStock(ctx context.Context) ([]dto.ItemResponse, error) {
	items, err := s.repo.OutOfStock(ctx)
	if err != nil {
		return nil, err
	}
	return itemsToResponses(items), nil
}

const (
	agingOldDays   = 180
	agingAgingDays = 90
)

// AgingReport buckets active items by days since their last outbound use.
func (s *inventoryService) AgingReport(ctx context.Context) ([]dto.AgingBucketResponse, error) {
	items, err := s.repo.ActiveItems(ctx)
	if err != nil {
		return nil, err
	}

	buckets := map[string][]dto.ItemResponse{
		"never_used": {},
		"old":        {},
		"aging":      {},
		"recent":     {},
	}
	now := time.Now().UTC()
	for i := range items {
		item := &items[i]
		key := "never_used"
		if item.LastUsedDate != nil {
			days := int(now.Sub(*item.LastUsedDate).Hours() / 24)
			switch {
			case days >= agingOldDays:
				key = "old"
			case days >= agingAgingDays:
				key = "aging"
			default:
				key = "recent"
			}
		}
		buckets[key] = append(buckets[key], itemToResponse(item))
	}

	order := []string{"never_used", "old", "aging", "recent"}
	resp := make([]dto.AgingBucketResponse, 0, len(order))
	for _, key := range order {
		resp = append(resp, dto.AgingBucketResponse{
			Bucket: key,
			Count:  len(buckets[key]),
			Items:  buckets[key],
		})
	}
	return resp, nil
}

const statsCacheKey = "inventory:stats"

func (s *inventoryService) Stats(ctx context.Context) (*dto.InventoryStatsResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var resp dto.InventoryStatsResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if b, jsonErr := json.Marshal(stats); jsonErr == nil {
			_ = s.rdb.Set(ctx, statsCacheKey, b, statsCacheTTL).Err()
		}
	}
	return stats, nil
}

func (s *inventoryService) invalidateStatsCache(ctx context.Context) {
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, statsCacheKey).Err()
	}
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func itemToResponse(m *model.InventoryItem) dto.ItemResponse {
	return dto.ItemResponse{
		ID:                m.ID.String(),
		ItemCode:          m.ItemCode,
		Name:              m.Name,
		Description:       m.Description,
		Category:          m.Category,
		Subcategory:       m.Subcategory,
		Unit:              m.Unit,
		CurrentQuantity:   m.CurrentQuantity,
		MinimumQuantity:   m.MinimumQuantity,
		MaximumQuantity:   m.MaximumQuantity,
		ReorderQuantity:   m.ReorderQuantity,
		UnitCost:          m.UnitCost,
		TotalValue:        m.TotalValue,
		Status:            string(m.Status),
		Location:          m.Location,
		VerticalID:        uuidPtrString(m.VerticalID),
		VendorID:          uuidPtrString(m.VendorID),
		LastRestockedDate: timePtrString(m.LastRestockedDate),
		LastUsedDate:      timePtrString(m.LastUsedDate),
	}
}

func itemsToResponses(items []model.InventoryItem) []dto.ItemResponse {
	out := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, itemToResponse(&items[i]))
	}
	return out
}

func transactionToResponse(t *model.StockTransaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:                t.ID.String(),
		TransactionNumber: t.TransactionNumber,
		InventoryID:       t.InventoryID.String(),
		Type:              string(t.Type),
		Quantity:          t.Quantity,
		PreviousQuantity:  t.PreviousQuantity,
		NewQuantity:       t.NewQuantity,
		UnitCost:          t.UnitCost,
		ReferenceType:     string(t.ReferenceType),
		ReferenceID:       uuidPtrString(t.ReferenceID),
		Reason:            t.Reason,
		PerformedBy:       t.PerformedBy.String(),
		CreatedAt:         t.CreatedAt.Format(time.RFC3339),
	}
}
