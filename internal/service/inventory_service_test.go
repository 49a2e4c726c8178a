package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"stocktrack/internal/apierror"
	"stocktrack/internal/dto"
	"stocktrack/internal/model"
	"stocktrack/internal/repository"
	"stocktrack/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory InventoryRepository stub ───────────────────────────────────────

type stubInventoryRepo struct {
	items map[uuid.UUID]*model.InventoryItem
	dbErr error // when set, lookups fail as if the database were unreachable
}

var _ repository.InventoryRepository = (*stubInventoryRepo)(nil)

func newStubInventoryRepo() *stubInventoryRepo {
	return &stubInventoryRepo{items: make(map[uuid.UUID]*model.InventoryItem)}
}

func (r *stubInventoryRepo) CreateTx(_ *gorm.DB, item *model.InventoryItem) error {
	for _, existing := range r.items {
		if existing.ItemCode == item.ItemCode {
			return gorm.ErrDuplicatedKey
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	return nil
}

func (r *stubInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	if r.dbErr != nil {
		return nil, r.dbErr
	}
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubInventoryRepo) FindByCode(_ context.Context, code string) (*model.InventoryItem, error) {
	for _, item := range r.items {
		if item.ItemCode == code {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInventoryRepo) List(_ context.Context, _ dto.ItemFilter) ([]model.InventoryItem, int64, error) {
	var result []model.InventoryItem
	for _, item := range r.items {
		if item.Status == model.ItemStatusActive {
			result = append(result, *item)
		}
	}
	return result, int64(len(result)), nil
}

func (r *stubInventoryRepo) Update(_ context.Context, item *model.InventoryItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubInventoryRepo) Discontinue(_ context.Context, id uuid.UUID) error {
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Status = model.ItemStatusDiscontinued
	return nil
}

func (r *stubInventoryRepo) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*model.InventoryItem, error) {
	if r.dbErr != nil {
		return nil, r.dbErr
	}
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubInventoryRepo) UpdateTx(_ *gorm.DB, item *model.InventoryItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubInventoryRepo) LowStock(_ context.Context) ([]model.InventoryItem, error) {
	var result []model.InventoryItem
	for _, item := range r.items {
		if item.Status == model.ItemStatusActive && item.CurrentQuantity <= item.MinimumQuantity {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *stubInventoryRepo) OutOfStock(_ context.Context) ([]model.InventoryItem, error) {
	var result []model.InventoryItem
	for _, item := range r.items {
		if item.Status == model.ItemStatusActive && item.CurrentQuantity == 0 {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *stubInventoryRepo) ActiveItems(_ context.Context) ([]model.InventoryItem, error) {
	var result []model.InventoryItem
	for _, item := range r.items {
		if item.Status == model.ItemStatusActive {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *stubInventoryRepo) Stats(_ context.Context) (*dto.InventoryStatsResponse, error) {
	stats := &dto.InventoryStatsResponse{TotalValue: decimal.Zero}
	for _, item := range r.items {
		stats.TotalItems++
		if item.Status == model.ItemStatusActive {
			stats.ActiveItems++
			stats.TotalValue = stats.TotalValue.Add(item.TotalValue)
		} else {
			stats.DiscontinuedItems++
		}
	}
	return stats, nil
}

func (r *stubInventoryRepo) DB() *gorm.DB { return nil }

// ── In-memory TransactionRepository stub ─────────────────────────────────────

type stubTransactionRepo struct {
	txns []*model.StockTransaction
}

var _ repository.TransactionRepository = (*stubTransactionRepo)(nil)

func (r *stubTransactionRepo) CreateTx(_ *gorm.DB, txn *model.StockTransaction) error {
	for _, existing := range r.txns {
		if existing.TransactionNumber == txn.TransactionNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	r.txns = append(r.txns, txn)
	return nil
}

func (r *stubTransactionRepo) ListByItem(_ context.Context, inventoryID uuid.UUID, filter dto.TransactionFilter) ([]model.StockTransaction, int64, error) {
	var result []model.StockTransaction
	for _, txn := range r.txns {
		if txn.InventoryID != inventoryID {
			continue
		}
		if filter.Type != "" && string(txn.Type) != filter.Type {
			continue
		}
		if filter.ReferenceType != "" && string(txn.ReferenceType) != filter.ReferenceType {
			continue
		}
		result = append(result, *txn)
	}
	return result, int64(len(result)), nil
}

func (r *stubTransactionRepo) ExistsByReferenceTx(_ *gorm.DB, inventoryID uuid.UUID, refType model.ReferenceType, refID uuid.UUID) (bool, error) {
	for _, txn := range r.txns {
		if txn.InventoryID == inventoryID && txn.ReferenceType == refType &&
			txn.ReferenceID != nil && *txn.ReferenceID == refID {
			return true, nil
		}
	}
	return false, nil
}

// ── In-memory SequenceRepository stub ────────────────────────────────────────

type stubSequenceRepo struct {
	counters map[string]int64
}

var _ repository.SequenceRepository = (*stubSequenceRepo)(nil)

func newStubSequenceRepo() *stubSequenceRepo {
	return &stubSequenceRepo{counters: make(map[string]int64)}
}

func (r *stubSequenceRepo) Next(_ *gorm.DB, name string) (int64, error) {
	r.counters[name]++
	return r.counters[name], nil
}

// ── Fixtures ─────────────────────────────────────────────────────────────────

type inventoryFixture struct {
	svc   service.InventoryService
	repo  *stubInventoryRepo
	txns  *stubTransactionRepo
	seqs  *stubSequenceRepo
	actor service.Actor
}

func newInventoryFixture() *inventoryFixture {
	repo := newStubInventoryRepo()
	txns := &stubTransactionRepo{}
	seqs := newStubSequenceRepo()
	return &inventoryFixture{
		svc:   service.NewInventoryService(repo, txns, seqs, nil),
		repo:  repo,
		txns:  txns,
		seqs:  seqs,
		actor: service.Actor{UserID: uuid.New()},
	}
}

func seedItem(repo *stubInventoryRepo, code, name string, qty, minQty int) *model.InventoryItem {
	item := &model.InventoryItem{
		ID:              uuid.New(),
		ItemCode:        code,
		Name:            name,
		Category:        "Office Supplies",
		Unit:            "unit",
		CurrentQuantity: qty,
		MinimumQuantity: minQty,
		UnitCost:        decimal.NewFromFloat(2.50),
		TotalValue:      decimal.NewFromFloat(2.50).Mul(decimal.NewFromInt(int64(qty))),
		Status:          model.ItemStatusActive,
	}
	repo.items[item.ID] = item
	return item
}

// ── Item creation ────────────────────────────────────────────────────────────

func TestCreateItem_GeneratesCodeAndPostsInitialEntry(t *testing.T) {
	f := newInventoryFixture()

	resp, err := f.svc.CreateItem(context.Background(), dto.CreateItemRequest{
		Name:            "Printer Paper A4",
		Category:        "Office Supplies",
		CurrentQuantity: 50,
		MinimumQuantity: 10,
		UnitCost:        decimal.NewFromFloat(2.50),
	}, f.actor)
	require.NoError(t, err)

	assert.Equal(t, "OFF-0001", resp.ItemCode)
	assert.Equal(t, 50, resp.CurrentQuantity)
	assert.True(t, resp.TotalValue.Equal(decimal.NewFromInt(125)))
	assert.Equal(t, "active", resp.Status)

	// Initial quantity entered through the ledger
	require.Len(t, f.txns.txns, 1)
	txn := f.txns.txns[0]
	assert.Equal(t, model.TransactionIn, txn.Type)
	assert.Equal(t, 0, txn.PreviousQuantity)
	assert.Equal(t, 50, txn.NewQuantity)
	assert.Equal(t, "Initial stock entry", txn.Reason)
	assert.Equal(t, model.ReferenceManual, txn.ReferenceType)
	assert.Equal(t, f.actor.UserID, txn.PerformedBy)
}

func TestCreateItem_ZeroInitialQuantitySkipsLedger(t *testing.T) {
	f := newInventoryFixture()

	resp, err := f.svc.CreateItem(context.Background(), dto.CreateItemRequest{
		Name:     "Stapler",
		Category: "Office Supplies",
		UnitCost: decimal.NewFromInt(8),
	}, f.actor)
	require.NoError(t, err)

	assert.Equal(t, 0, resp.CurrentQuantity)
	assert.Empty(t, f.txns.txns)
}

func TestCreateItem_SequentialCodesPerCategory(t *testing.T) {
	f := newInventoryFixture()

	for i, want := range []string{"OFF-0001", "OFF-0002"} {
		resp, err := f.svc.CreateItem(context.Background(), dto.CreateItemRequest{
			Name:     fmt.Sprintf("Item %d", i),
			Category: "Office Supplies",
		}, f.actor)
		require.NoError(t, err)
		assert.Equal(t, want, resp.ItemCode)
	}

	// A different category starts its own sequence
	resp, err := f.svc.CreateItem(context.Background(), dto.CreateItemRequest{
		Name:     "USB Cable",
		Category: "Electronics",
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "ELE-0001", resp.ItemCode)
}

// ── Ledger writes ────────────────────────────────────────────────────────────

func TestRecordTransaction_SnapshotPair(t *testing.T) {
	f := newInventoryFixture()
	item := seedItem(f.repo, "OFF-0001", "Printer Paper A4", 20, 10)

	resp, err := f.svc.RecordTransaction(context.Background(), item.ID, dto.RecordTransactionRequest{
		Type:     "in",
		Quantity: 50,
		Reason:   "Restock delivery",
	}, f.actor)
	require.NoError(t, err)

	assert.Equal(t, 20, resp.PreviousQuantity)
	assert.Equal(t, 70, resp.NewQuantity)
	assert.Equal(t, "in", resp.Type)
	year := time.Now().UTC().Year()
	assert.Equal(t, fmt.Sprintf("STX-%d-0001", year), resp.TransactionNumber)

	// The response carries the post-transaction item snapshot
	require.NotNil(t, resp.Item)
	assert.Equal(t, 70, resp.Item.CurrentQuantity)

	assert.Equal(t, 70, f.repo.items[item.ID].CurrentQuantity)
	assert.NotNil(t, f.repo.items[item.ID].LastRestockedDate)
}

func TestRecordTransaction_OutUpdatesLastUsed(t *testing.T) {
	f := newInventoryFixture()
	item := seedItem(f.repo, "OFF-0001", "Printer Paper A4", 20, 5)

	resp, err := f.svc.RecordTransaction(context.Background(), item.ID, dto.RecordTransactionRequest{
		Type:     "out",
		Quantity: 8,
		Reason:   "Office use",
	}, f.actor)
	require.NoError(t, err)

	assert.Equal(t, 12, resp.NewQuantity)
	assert.NotNil(t, f.repo.items[item.ID].LastUsedDate)
	assert.Nil(t, f.repo.items[item.ID].LastRestockedDate)
}

func TestRecordTransaction_RejectsInsufficientStock(t *testing.T) {
	f := newInventoryFixture()
	item := seedItem(f.repo, "OFF-0001", "Printer Paper A4", 5, 2)

	_, err := f.svc.RecordTransaction(context.Background(), item.ID, dto.RecordTransactionRequest{
		Type:     "out",
		Quantity: 10,
		Reason:   "Office use",
	}, f.actor)
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))

	// Nothing written, nothing mutated
	assert.Equal(t, 5, f.repo.items[item.ID].CurrentQuantity)
	assert.Empty(t, f.txns.txns)
}

func TestRecordTransaction_BackorderAllowed(t *testing.T) {
	f := newInventoryFixture()
	item := seedItem(f.repo, "OFF-0001", "Printer Paper A4", 5, 2)

	resp, err := f.svc.RecordTransaction(context.Background(), item.ID, dto.RecordTransactionRequest{
		Type:          "out",
		Quantity:      10,
		Reason:        "Backorder fulfillment",
		AllowNegative: true,
	}, f.actor)
	require.NoError(t, err)

	assert.Equal(t, -5, resp.NewQuantity)
	assert.Equal(t, -5, f.repo.items[item.ID].CurrentQuantity)
}

func TestRecordTransaction_UnknownItem(t *testing.T) {
	f := newInventoryFixture()

	_, err := f.svc.RecordTransaction(context.Background(), uuid.New(), dto.RecordTransactionRequest{
		Type:     "in",
		Quantity: 1,
		Reason:   "Restock",
	}, f.actor)
	assert.True(t, apierror.IsNotFound(err))
}

func TestRecordTransaction_DuplicateNumberRetriesWithFreshSequence(t *testing.T) {
	f := newInventoryFixture()
	item := seedItem(f.repo, "OFF-0001", "Printer Paper A4", 10, 2)

	// Occupy this year's first transaction number so the first attempt collides
	year := time.Now().UTC().Year()
	f.txns.txns = append(f.txns.txns, &model.StockTransaction{
		ID:                uuid.New(),
		TransactionNumber: fmt.Sprintf("STX-%d-0001", year),
		InventoryID:       uuid.New(),
	})

	resp, err := f.svc.RecordTransaction(context.Background(), item.ID, dto.RecordTransactionRequest{
		Type:     "in",
		Quantity: 5,
		Reason:   "Restock",
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("STX-%d-0002", year), resp.TransactionNumber)
}

func TestAdjustQuantity_PostsSignedDelta(t *testing.T) {
	f := newInventoryFixture()
	item := seedItem(f.repo, "OFF-0001", "Printer Paper A4", 10, 2)

	resp, err := f.svc.AdjustQuantity(context.Background(), item.ID, dto.AdjustQuantityRequest{
		NewQuantity: 4,
		Reason:      "Physical count correction",
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.CurrentQuantity)

	require.Len(t, f.txns.txns, 1)
	txn := f.txns.txns[0]
	assert.Equal(t, model.TransactionOut, txn.Type)
	assert.Equal(t, 6, txn.Quantity)
	assert.Equal(t, 10, txn.PreviousQuantity)
	assert.Equal(t, 4, txn.NewQuantity)
}

func TestAdjustQuantity_NoOpWritesNothing(t *testing.T) {
	f := newInventoryFixture()
	item := seedItem(f.repo, "OFF-0001", "Printer Paper A4", 10, 2)

	resp, err := f.svc.AdjustQuantity(context.Background(), item.ID, dto.AdjustQuantityRequest{
		NewQuantity: 10,
		Reason:      "Physical count matches",
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 10, resp.CurrentQuantity)
	assert.Empty(t, f.txns.txns)
}

// ── Reports ──────────────────────────────────────────────────────────────────

func TestLowStock_IncludesItemAtZeroWithMinimumTen(t *testing.T) {
	f := newInventoryFixture()
	depleted := seedItem(f.repo, "OFF-0001", "Printer Paper A4", 0, 10)
	seedItem(f.repo, "OFF-0002", "Stapler", 50, 10)

	low, err := f.svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, depleted.ItemCode, low[0].ItemCode)

	out, err := f.svc.OutOfStock(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, depleted.ItemCode, out[0].ItemCode)
}

func TestAgingReport_Buckets(t *testing.T) {
	f := newInventoryFixture()

	seedItem(f.repo, "OFF-0001", "Never touched", 5, 1)

	old := seedItem(f.repo, "OFF-0002", "Dusty toner", 5, 1)
	oldDate := time.Now().UTC().Add(-200 * 24 * time.Hour)
	old.LastUsedDate = &oldDate

	aging := seedItem(f.repo, "OFF-0003", "Slow mover", 5, 1)
	agingDate := time.Now().UTC().Add(-120 * 24 * time.Hour)
	aging.LastUsedDate = &agingDate

	recent := seedItem(f.repo, "OFF-0004", "Daily use", 5, 1)
	recentDate := time.Now().UTC().Add(-10 * 24 * time.Hour)
	recent.LastUsedDate = &recentDate

	buckets, err := f.svc.AgingReport(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets, 4)

	byName := make(map[string]int, 4)
	for _, b := range buckets {
		byName[b.Bucket] = b.Count
	}
	assert.Equal(t, 1, byName["never_used"])
	assert.Equal(t, 1, byName["old"])
	assert.Equal(t, 1, byName["aging"])
	assert.Equal(t, 1, byName["recent"])
}

func TestDiscontinueItem_KeepsLedgerHistory(t *testing.T) {
	f := newInventoryFixture()
	item := seedItem(f.repo, "OFF-0001", "Printer Paper A4", 20, 5)

	_, err := f.svc.RecordTransaction(context.Background(), item.ID, dto.RecordTransactionRequest{
		Type:     "out",
		Quantity: 5,
		Reason:   "Office use",
	}, f.actor)
	require.NoError(t, err)

	require.NoError(t, f.svc.DiscontinueItem(context.Background(), item.ID))
	assert.Equal(t, model.ItemStatusDiscontinued, f.repo.items[item.ID].Status)

	// History stays resolvable after discontinuation
	list, err := f.svc.ListTransactions(context.Background(), item.ID, dto.TransactionFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, list.Data, 1)
}

func TestDiscontinueItem_NotFound(t *testing.T) {
	f := newInventoryFixture()
	err := f.svc.DiscontinueItem(context.Background(), uuid.New())
	assert.True(t, apierror.IsNotFound(err))
}

func TestRepositoryFailureIsNotMaskedAsNotFound(t *testing.T) {
	f := newInventoryFixture()
	item := seedItem(f.repo, "OFF-0001", "Printer Paper A4", 20, 5)
	f.repo.dbErr = errors.New("connection reset by peer")

	_, err := f.svc.GetItem(context.Background(), item.ID)
	require.Error(t, err)
	assert.False(t, apierror.IsNotFound(err))

	// A failed lock on the write path surfaces the infrastructure error too,
	// and nothing reaches the ledger.
	_, err = f.svc.RecordTransaction(context.Background(), item.ID, dto.RecordTransactionRequest{
		Type: "out", Quantity: 1, Reason: "Issued to maintenance",
	}, f.actor)
	require.Error(t, err)
	assert.False(t, apierror.IsNotFound(err))
	assert.Empty(t, f.txns.txns)
}
