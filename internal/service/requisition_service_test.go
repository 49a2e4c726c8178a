package service_test

import (
	"context"
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

// ── In-memory RequisitionRepository stub ─────────────────────────────────────

type stubRequisitionRepo struct {
	reqs map[uuid.UUID]*model.Requisition
}

var _ repository.RequisitionRepository = (*stubRequisitionRepo)(nil)

func newStubRequisitionRepo() *stubRequisitionRepo {
	return &stubRequisitionRepo{reqs: make(map[uuid.UUID]*model.Requisition)}
}

func (r *stubRequisitionRepo) CreateTx(_ *gorm.DB, req *model.Requisition) error {
	for _, existing := range r.reqs {
		if existing.RequisitionNumber == req.RequisitionNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	for i := range req.Items {
		if req.Items[i].ID == uuid.Nil {
			req.Items[i].ID = uuid.New()
		}
		req.Items[i].RequisitionID = req.ID
	}
	r.reqs[req.ID] = req
	return nil
}

func (r *stubRequisitionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Requisition, error) {
	req, ok := r.reqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return req, nil
}

func (r *stubRequisitionRepo) List(_ context.Context, filter dto.RequisitionFilter) ([]model.Requisition, int64, error) {
	var result []model.Requisition
	for _, req := range r.reqs {
		if filter.Status != "" && string(req.Status) != filter.Status {
			continue
		}
		if filter.Priority != "" && string(req.Priority) != filter.Priority {
			continue
		}
		result = append(result, *req)
	}
	return result, int64(len(result)), nil
}

func (r *stubRequisitionRepo) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Requisition, error) {
	req, ok := r.reqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return req, nil
}

func (r *stubRequisitionRepo) UpdateTx(_ *gorm.DB, req *model.Requisition) error {
	r.reqs[req.ID] = req
	return nil
}

func (r *stubRequisitionRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.reqs, id)
	return nil
}

func (r *stubRequisitionRepo) CreateItemTx(_ *gorm.DB, item *model.RequisitionItem) error {
	req, ok := r.reqs[item.RequisitionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	req.Items = append(req.Items, *item)
	return nil
}

func (r *stubRequisitionRepo) FindItemTx(_ *gorm.DB, requisitionID, itemID uuid.UUID) (*model.RequisitionItem, error) {
	req, ok := r.reqs[requisitionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for i := range req.Items {
		if req.Items[i].ID == itemID {
			item := req.Items[i]
			return &item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRequisitionRepo) UpdateItemTx(_ *gorm.DB, item *model.RequisitionItem) error {
	req, ok := r.reqs[item.RequisitionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range req.Items {
		if req.Items[i].ID == item.ID {
			req.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubRequisitionRepo) DeleteItemTx(_ *gorm.DB, requisitionID, itemID uuid.UUID) error {
	req, ok := r.reqs[requisitionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range req.Items {
		if req.Items[i].ID == itemID {
			req.Items = append(req.Items[:i], req.Items[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubRequisitionRepo) SumItemTotalsTx(_ *gorm.DB, requisitionID uuid.UUID) (decimal.Decimal, error) {
	req, ok := r.reqs[requisitionID]
	if !ok {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	total := decimal.Zero
	for i := range req.Items {
		total = total.Add(req.Items[i].TotalCost)
	}
	return total, nil
}

func (r *stubRequisitionRepo) Stats(_ context.Context) (*dto.RequisitionStatsResponse, error) {
	stats := &dto.RequisitionStatsResponse{EstimatedTotal: decimal.Zero}
	for _, req := range r.reqs {
		stats.Total++
		stats.EstimatedTotal = stats.EstimatedTotal.Add(req.EstimatedTotal)
		switch req.Status {
		case model.RequisitionPending:
			stats.Pending++
		case model.RequisitionApproved:
			stats.Approved++
		case model.RequisitionOrdered:
			stats.Ordered++
		case model.RequisitionReceived:
			stats.Received++
		case model.RequisitionRejected:
			stats.Rejected++
		case model.RequisitionCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (r *stubRequisitionRepo) DB() *gorm.DB { return nil }

// ── Fixtures ─────────────────────────────────────────────────────────────────

type requisitionFixture struct {
	svc   service.RequisitionService
	repo  *stubRequisitionRepo
	inv   *inventoryFixture
	actor service.Actor
}

func newRequisitionFixture() *requisitionFixture {
	repo := newStubRequisitionRepo()
	inv := newInventoryFixture()
	return &requisitionFixture{
		svc:   service.NewRequisitionService(repo, inv.seqs, inv.svc),
		repo:  repo,
		inv:   inv,
		actor: service.Actor{UserID: uuid.New()},
	}
}

func seedRequisition(repo *stubRequisitionRepo, status model.RequisitionStatus, items ...model.RequisitionItem) *model.Requisition {
	req := &model.Requisition{
		ID:                uuid.New(),
		RequisitionNumber: fmt.Sprintf("REQ-2026-%03d", len(repo.reqs)+1),
		Title:             "Quarterly restock",
		RequestedBy:       uuid.New(),
		Priority:          model.PriorityMedium,
		Status:            status,
		EstimatedTotal:    decimal.Zero,
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].RequisitionID = req.ID
		items[i].TotalCost = items[i].LineTotal()
		req.EstimatedTotal = req.EstimatedTotal.Add(items[i].TotalCost)
		req.Items = append(req.Items, items[i])
	}
	repo.reqs[req.ID] = req
	return req
}

func reqLine(name string, qty int, estCost float64) model.RequisitionItem {
	return model.RequisitionItem{
		ItemName:          name,
		Quantity:          qty,
		Unit:              "unit",
		EstimatedUnitCost: decimal.NewFromFloat(estCost),
	}
}

// ── Creation ─────────────────────────────────────────────────────────────────

func TestCreateRequisition_NumberAndEstimatedTotal(t *testing.T) {
	f := newRequisitionFixture()

	resp, err := f.svc.Create(context.Background(), dto.CreateRequisitionRequest{
		Title: "Office restock",
		Items: []dto.CreateRequisitionItemRequest{
			{ItemName: "Printer Paper A4", Quantity: 10, EstimatedUnitCost: decimal.NewFromFloat(2.50)},
			{ItemName: "Toner Cartridge", Quantity: 3, EstimatedUnitCost: decimal.NewFromInt(5)},
		},
	}, f.actor)
	require.NoError(t, err)

	year := time.Now().UTC().Year()
	assert.Equal(t, fmt.Sprintf("REQ-%d-001", year), resp.RequisitionNumber)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "medium", resp.Priority)
	assert.True(t, resp.EstimatedTotal.Equal(decimal.NewFromInt(40)))
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].TotalCost.Equal(decimal.NewFromInt(25)))
	assert.True(t, resp.Items[1].TotalCost.Equal(decimal.NewFromInt(15)))
}

func TestCreateRequisition_InvalidPriority(t *testing.T) {
	f := newRequisitionFixture()

	_, err := f.svc.Create(context.Background(), dto.CreateRequisitionRequest{
		Title:    "Office restock",
		Priority: "critical",
	}, f.actor)
	assert.True(t, apierror.IsValidation(err))
}

// ── Line item mutations ──────────────────────────────────────────────────────

func TestRemoveItem_RecomputesEstimatedTotal(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionPending,
		reqLine("Printer Paper A4", 10, 2.50),
		reqLine("Toner Cartridge", 3, 5.00),
	)
	require.True(t, req.EstimatedTotal.Equal(decimal.NewFromInt(40)))

	resp, err := f.svc.RemoveItem(context.Background(), req.ID, req.Items[1].ID)
	require.NoError(t, err)
	assert.True(t, resp.EstimatedTotal.Equal(decimal.NewFromInt(25)))
	assert.Len(t, resp.Items, 1)
}

func TestAddItem_RecomputesEstimatedTotal(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionPending,
		reqLine("Printer Paper A4", 10, 2.50),
	)

	resp, err := f.svc.AddItem(context.Background(), req.ID, dto.CreateRequisitionItemRequest{
		ItemName:          "Whiteboard Markers",
		Quantity:          4,
		EstimatedUnitCost: decimal.NewFromFloat(1.25),
	})
	require.NoError(t, err)
	assert.True(t, resp.EstimatedTotal.Equal(decimal.NewFromInt(30)))
	assert.Len(t, resp.Items, 2)
}

func TestUpdateItem_QuantityChangeRecomputesTotals(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionPending,
		reqLine("Printer Paper A4", 10, 2.50),
	)

	qty := 20
	resp, err := f.svc.UpdateItem(context.Background(), req.ID, req.Items[0].ID, dto.UpdateRequisitionItemRequest{
		Quantity: &qty,
	})
	require.NoError(t, err)
	assert.True(t, resp.EstimatedTotal.Equal(decimal.NewFromInt(50)))
}

func TestUpdateItem_AllowedWhileApproved(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionApproved,
		reqLine("Printer Paper A4", 10, 2.50),
	)

	qty := 8
	resp, err := f.svc.UpdateItem(context.Background(), req.ID, req.Items[0].ID, dto.UpdateRequisitionItemRequest{
		Quantity: &qty,
	})
	require.NoError(t, err)
	assert.True(t, resp.EstimatedTotal.Equal(decimal.NewFromInt(20)))
}

func TestLineSetFrozenOnceApproved(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionApproved,
		reqLine("Printer Paper A4", 10, 2.50),
	)

	_, err := f.svc.AddItem(context.Background(), req.ID, dto.CreateRequisitionItemRequest{
		ItemName: "Extra", Quantity: 1, EstimatedUnitCost: decimal.NewFromInt(1),
	})
	assert.True(t, apierror.IsInvalidTransition(err))

	_, err = f.svc.RemoveItem(context.Background(), req.ID, req.Items[0].ID)
	assert.True(t, apierror.IsInvalidTransition(err))

	// The approved total is untouched by either rejected mutation.
	stored := f.repo.reqs[req.ID]
	assert.Len(t, stored.Items, 1)
	assert.True(t, stored.EstimatedTotal.Equal(decimal.Zero))
}

func TestLineMutations_BlockedOnceOrdered(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionOrdered,
		reqLine("Printer Paper A4", 10, 2.50),
	)

	_, err := f.svc.AddItem(context.Background(), req.ID, dto.CreateRequisitionItemRequest{
		ItemName: "Extra", Quantity: 1, EstimatedUnitCost: decimal.NewFromInt(1),
	})
	assert.True(t, apierror.IsInvalidTransition(err))

	qty := 2
	_, err = f.svc.UpdateItem(context.Background(), req.ID, req.Items[0].ID, dto.UpdateRequisitionItemRequest{Quantity: &qty})
	assert.True(t, apierror.IsInvalidTransition(err))

	_, err = f.svc.RemoveItem(context.Background(), req.ID, req.Items[0].ID)
	assert.True(t, apierror.IsInvalidTransition(err))
}

// ── Header guards ────────────────────────────────────────────────────────────

func TestUpdate_OnlyWhilePending(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionApproved, reqLine("Paper", 1, 1))

	title := "New title"
	_, err := f.svc.Update(context.Background(), req.ID, dto.UpdateRequisitionRequest{Title: &title})
	assert.True(t, apierror.IsInvalidTransition(err))
}

func TestDelete_AllowedForDeadRequisitions(t *testing.T) {
	f := newRequisitionFixture()

	// Pending, rejected, and cancelled requisitions never entered procurement
	// and may be removed.
	for _, status := range []model.RequisitionStatus{
		model.RequisitionPending,
		model.RequisitionRejected,
		model.RequisitionCancelled,
	} {
		req := seedRequisition(f.repo, status, reqLine("Paper", 1, 1))
		require.NoError(t, f.svc.Delete(context.Background(), req.ID), "status %s", status)
		assert.NotContains(t, f.repo.reqs, req.ID)
	}
}

func TestDelete_BlockedOnceInProcurement(t *testing.T) {
	f := newRequisitionFixture()

	for _, status := range []model.RequisitionStatus{
		model.RequisitionApproved,
		model.RequisitionOrdered,
		model.RequisitionReceived,
	} {
		req := seedRequisition(f.repo, status, reqLine("Paper", 1, 1))
		err := f.svc.Delete(context.Background(), req.ID)
		assert.True(t, apierror.IsInvalidTransition(err), "status %s", status)
		assert.Contains(t, f.repo.reqs, req.ID)
	}
}

// ── Workflow transitions ─────────────────────────────────────────────────────

func TestApprove_SetsActorAndDate(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionPending, reqLine("Paper", 10, 2.50))

	resp, err := f.svc.Approve(context.Background(), req.ID, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Status)
	require.NotNil(t, resp.ApprovedBy)
	assert.Equal(t, f.actor.UserID.String(), *resp.ApprovedBy)
	assert.NotNil(t, resp.ApprovedDate)
}

func TestApprove_RejectsEmptyRequisition(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionPending)

	_, err := f.svc.Approve(context.Background(), req.ID, f.actor)
	assert.True(t, apierror.IsValidation(err))
	assert.Equal(t, model.RequisitionPending, f.repo.reqs[req.ID].Status)
}

func TestReject_StoresReason(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionPending, reqLine("Paper", 1, 1))

	resp, err := f.svc.Reject(context.Background(), req.ID, dto.RejectRequisitionRequest{
		Reason: "Budget exhausted this quarter",
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "rejected", resp.Status)
	require.NotNil(t, resp.RejectionReason)
	assert.Equal(t, "Budget exhausted this quarter", *resp.RejectionReason)
}

func TestOrder_SetsVendorAndPONumber(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionApproved, reqLine("Paper", 1, 1))

	vendorID := uuid.New().String()
	po := "PO-4711"
	resp, err := f.svc.Order(context.Background(), req.ID, dto.OrderRequisitionRequest{
		VendorID: &vendorID,
		PONumber: &po,
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "ordered", resp.Status)
	require.NotNil(t, resp.VendorID)
	assert.Equal(t, vendorID, *resp.VendorID)
	require.NotNil(t, resp.PONumber)
	assert.Equal(t, "PO-4711", *resp.PONumber)
}

func TestWorkflow_InvalidTransitionsRejected(t *testing.T) {
	cases := []struct {
		name string
		from model.RequisitionStatus
		act  func(f *requisitionFixture, id uuid.UUID) error
	}{
		{"approve approved", model.RequisitionApproved, func(f *requisitionFixture, id uuid.UUID) error {
			_, err := f.svc.Approve(context.Background(), id, f.actor)
			return err
		}},
		{"approve received", model.RequisitionReceived, func(f *requisitionFixture, id uuid.UUID) error {
			_, err := f.svc.Approve(context.Background(), id, f.actor)
			return err
		}},
		{"reject ordered", model.RequisitionOrdered, func(f *requisitionFixture, id uuid.UUID) error {
			_, err := f.svc.Reject(context.Background(), id, dto.RejectRequisitionRequest{Reason: "no"}, f.actor)
			return err
		}},
		{"order pending", model.RequisitionPending, func(f *requisitionFixture, id uuid.UUID) error {
			_, err := f.svc.Order(context.Background(), id, dto.OrderRequisitionRequest{}, f.actor)
			return err
		}},
		{"order rejected", model.RequisitionRejected, func(f *requisitionFixture, id uuid.UUID) error {
			_, err := f.svc.Order(context.Background(), id, dto.OrderRequisitionRequest{}, f.actor)
			return err
		}},
		{"receive pending", model.RequisitionPending, func(f *requisitionFixture, id uuid.UUID) error {
			_, err := f.svc.Receive(context.Background(), id, dto.ReceiveRequisitionRequest{}, f.actor)
			return err
		}},
		{"receive approved", model.RequisitionApproved, func(f *requisitionFixture, id uuid.UUID) error {
			_, err := f.svc.Receive(context.Background(), id, dto.ReceiveRequisitionRequest{}, f.actor)
			return err
		}},
		{"cancel received", model.RequisitionReceived, func(f *requisitionFixture, id uuid.UUID) error {
			_, err := f.svc.Cancel(context.Background(), id, f.actor)
			return err
		}},
		{"cancel cancelled", model.RequisitionCancelled, func(f *requisitionFixture, id uuid.UUID) error {
			_, err := f.svc.Cancel(context.Background(), id, f.actor)
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRequisitionFixture()
			req := seedRequisition(f.repo, tc.from, reqLine("Paper", 1, 1))

			err := tc.act(f, req.ID)
			assert.True(t, apierror.IsInvalidTransition(err))
			assert.Equal(t, tc.from, f.repo.reqs[req.ID].Status, "status must not change on a rejected transition")
		})
	}
}

// ── Receipt bridge ───────────────────────────────────────────────────────────

func TestReceive_PostsInboundLedgerTransaction(t *testing.T) {
	f := newRequisitionFixture()
	stock := seedItem(f.inv.repo, "OFF-0001", "Printer Paper A4", 5, 2)

	line := reqLine("Printer Paper A4", 10, 2.50)
	line.InventoryID = &stock.ID
	req := seedRequisition(f.repo, model.RequisitionOrdered, line)

	resp, err := f.svc.Receive(context.Background(), req.ID, dto.ReceiveRequisitionRequest{}, f.actor)
	require.NoError(t, err)

	assert.Equal(t, "received", resp.Status)
	require.NotNil(t, resp.ReceivedBy)
	assert.Equal(t, f.actor.UserID.String(), *resp.ReceivedBy)
	require.NotNil(t, resp.Items[0].ReceivedQuantity)
	assert.Equal(t, 10, *resp.Items[0].ReceivedQuantity)

	// Quantity arrived through the ledger
	assert.Equal(t, 15, f.inv.repo.items[stock.ID].CurrentQuantity)
	require.Len(t, f.inv.txns.txns, 1)
	txn := f.inv.txns.txns[0]
	assert.Equal(t, model.TransactionIn, txn.Type)
	assert.Equal(t, 10, txn.Quantity)
	assert.Equal(t, 5, txn.PreviousQuantity)
	assert.Equal(t, 15, txn.NewQuantity)
	assert.Equal(t, model.ReferenceRequisition, txn.ReferenceType)
	require.NotNil(t, txn.ReferenceID)
	assert.Equal(t, req.ID, *txn.ReferenceID)
	assert.Contains(t, txn.Reason, req.RequisitionNumber)
}

func TestReceive_PartialQuantityWithActualCost(t *testing.T) {
	f := newRequisitionFixture()
	stock := seedItem(f.inv.repo, "OFF-0001", "Printer Paper A4", 0, 10)

	line := reqLine("Printer Paper A4", 10, 2.50)
	line.InventoryID = &stock.ID
	req := seedRequisition(f.repo, model.RequisitionOrdered, line)

	actual := decimal.NewFromInt(3)
	resp, err := f.svc.Receive(context.Background(), req.ID, dto.ReceiveRequisitionRequest{
		Items: []dto.ReceiveItemRequest{
			{ItemID: req.Items[0].ID.String(), ReceivedQuantity: 7, ActualUnitCost: &actual},
		},
	}, f.actor)
	require.NoError(t, err)

	assert.Equal(t, 7, f.inv.repo.items[stock.ID].CurrentQuantity)
	require.Len(t, f.inv.txns.txns, 1)
	assert.Equal(t, 7, f.inv.txns.txns[0].Quantity)
	assert.True(t, f.inv.txns.txns[0].UnitCost.Equal(actual))

	// Line total recomputed from the actual unit cost
	assert.True(t, resp.Items[0].TotalCost.Equal(decimal.NewFromInt(30)))
	assert.True(t, resp.EstimatedTotal.Equal(decimal.NewFromInt(30)))
}

func TestReceive_UnlinkedLinePostsNothing(t *testing.T) {
	f := newRequisitionFixture()
	req := seedRequisition(f.repo, model.RequisitionOrdered, reqLine("Ad-hoc service", 1, 100))

	resp, err := f.svc.Receive(context.Background(), req.ID, dto.ReceiveRequisitionRequest{}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "received", resp.Status)
	assert.Empty(t, f.inv.txns.txns)
}

func TestReceive_SkipsAlreadyPostedReference(t *testing.T) {
	f := newRequisitionFixture()
	stock := seedItem(f.inv.repo, "OFF-0001", "Printer Paper A4", 15, 2)

	line := reqLine("Printer Paper A4", 10, 2.50)
	line.InventoryID = &stock.ID
	req := seedRequisition(f.repo, model.RequisitionOrdered, line)

	// A previous attempt already posted this receipt
	refID := req.ID
	f.inv.txns.txns = append(f.inv.txns.txns, &model.StockTransaction{
		ID:            uuid.New(),
		InventoryID:   stock.ID,
		Type:          model.TransactionIn,
		Quantity:      10,
		ReferenceType: model.ReferenceRequisition,
		ReferenceID:   &refID,
	})

	resp, err := f.svc.Receive(context.Background(), req.ID, dto.ReceiveRequisitionRequest{}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "received", resp.Status)

	// No double-count: still one transaction, quantity untouched
	assert.Len(t, f.inv.txns.txns, 1)
	assert.Equal(t, 15, f.inv.repo.items[stock.ID].CurrentQuantity)
}

func TestReceive_FailedLedgerWriteLeavesStatusOrdered(t *testing.T) {
	f := newRequisitionFixture()

	missing := uuid.New() // linked stock item does not exist
	line := reqLine("Printer Paper A4", 10, 2.50)
	line.InventoryID = &missing
	req := seedRequisition(f.repo, model.RequisitionOrdered, line)

	_, err := f.svc.Receive(context.Background(), req.ID, dto.ReceiveRequisitionRequest{}, f.actor)
	require.Error(t, err)
	assert.True(t, apierror.IsNotFound(err))
	assert.Equal(t, model.RequisitionOrdered, f.repo.reqs[req.ID].Status)
	assert.Nil(t, f.repo.reqs[req.ID].ReceivedDate)
}

func TestCancel_FromPendingAndOrdered(t *testing.T) {
	f := newRequisitionFixture()
	pending := seedRequisition(f.repo, model.RequisitionPending, reqLine("Paper", 1, 1))
	ordered := seedRequisition(f.repo, model.RequisitionOrdered, reqLine("Paper", 1, 1))

	resp, err := f.svc.Cancel(context.Background(), pending.ID, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)

	resp, err = f.svc.Cancel(context.Background(), ordered.ID, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
}

// Full happy path: quantities reconcile with the signed sum of ledger entries
// at every step.
func TestWorkflow_EndToEndLedgerReconciliation(t *testing.T) {
	f := newRequisitionFixture()
	ctx := context.Background()

	created, err := f.inv.svc.CreateItem(ctx, dto.CreateItemRequest{
		Name:            "Printer Paper A4",
		Category:        "Office Supplies",
		CurrentQuantity: 50,
		MinimumQuantity: 10,
		UnitCost:        decimal.NewFromFloat(2.50),
	}, f.actor)
	require.NoError(t, err)
	stockID := uuid.MustParse(created.ID)

	_, err = f.inv.svc.RecordTransaction(ctx, stockID, dto.RecordTransactionRequest{
		Type: "out", Quantity: 20, Reason: "Office use",
	}, f.actor)
	require.NoError(t, err)

	reqResp, err := f.svc.Create(ctx, dto.CreateRequisitionRequest{
		Title: "Paper restock",
		Items: []dto.CreateRequisitionItemRequest{{
			ItemName:          "Printer Paper A4",
			Quantity:          25,
			EstimatedUnitCost: decimal.NewFromFloat(2.50),
			InventoryID:       &created.ID,
		}},
	}, f.actor)
	require.NoError(t, err)
	reqID := uuid.MustParse(reqResp.ID)

	_, err = f.svc.Approve(ctx, reqID, f.actor)
	require.NoError(t, err)
	_, err = f.svc.Order(ctx, reqID, dto.OrderRequisitionRequest{}, f.actor)
	require.NoError(t, err)
	_, err = f.svc.Receive(ctx, reqID, dto.ReceiveRequisitionRequest{}, f.actor)
	require.NoError(t, err)

	// 50 in - 20 out + 25 received = 55
	assert.Equal(t, 55, f.inv.repo.items[stockID].CurrentQuantity)

	signed := 0
	for _, txn := range f.inv.txns.txns {
		if txn.InventoryID != stockID {
			continue
		}
		if txn.Type == model.TransactionIn {
			signed += txn.Quantity
		} else {
			signed -= txn.Quantity
		}
	}
	assert.Equal(t, f.inv.repo.items[stockID].CurrentQuantity, signed)
	assert.Len(t, f.inv.txns.txns, 3)
}
