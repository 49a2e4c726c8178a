package service

import (
	"context"
	"errors"
	"time"

	"stocktrack/internal/apierror"
	"stocktrack/internal/dto"
	"stocktrack/internal/model"
	"stocktrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RequisitionService drives the requisition workflow:
// pending → approved|rejected, approved → ordered, ordered → received.
// Receive is the bridge into the stock ledger: inventory-linked lines post
// inbound transactions inside the same DB transaction as the status change.
type RequisitionService interface {
	Create(ctx context.Context, req dto.CreateRequisitionRequest, actor Actor) (*dto.RequisitionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.RequisitionResponse, error)
	List(ctx context.Context, filter dto.RequisitionFilter) (*dto.RequisitionListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateRequisitionRequest) (*dto.RequisitionResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddItem(ctx context.Context, id uuid.UUID, req dto.CreateRequisitionItemRequest) (*dto.RequisitionResponse, error)
	UpdateItem(ctx context.Context, id, itemID uuid.UUID, req dto.UpdateRequisitionItemRequest) (*dto.RequisitionResponse, error)
	RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*dto.RequisitionResponse, error)

	Approve(ctx context.Context, id uuid.UUID, actor Actor) (*dto.RequisitionResponse, error)
	Reject(ctx context.Context, id uuid.UUID, req dto.RejectRequisitionRequest, actor Actor) (*dto.RequisitionResponse, error)
	Order(ctx context.Context, id uuid.UUID, req dto.OrderRequisitionRequest, actor Actor) (*dto.RequisitionResponse, error)
	Receive(ctx context.Context, id uuid.UUID, req dto.ReceiveRequisitionRequest, actor Actor) (*dto.RequisitionResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*dto.RequisitionResponse, error)

	Stats(ctx context.Context) (*dto.RequisitionStatsResponse, error)
}

type requisitionService struct {
	repo      repository.RequisitionRepository
	seqs      repository.SequenceRepository
	inventory InventoryService
}

func NewRequisitionService(
	repo repository.RequisitionRepository,
	seqs repository.SequenceRepository,
	inventory InventoryService,
) RequisitionService {
	return &requisitionService{repo: repo, seqs: seqs, inventory: inventory}
}

// ── CRUD ─────────────────────────────────────────────────────────────────────

func (s *requisitionService) Create(ctx context.Context, req dto.CreateRequisitionRequest, actor Actor) (*dto.RequisitionResponse, error) {
	priority := model.RequisitionPriority(req.Priority)
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, apierror.Invalid("invalid priority " + req.Priority)
	}

	var out *model.Requisition
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		year := time.Now().UTC().Year()

		r := &model.Requisition{
			Title:          req.Title,
			Description:    req.Description,
			Purpose:        req.Purpose,
			Department:     req.Department,
			VerticalID:     actor.VerticalID,
			ProgramID:      parseUUIDPtr(req.ProgramID),
			RequestedBy:    actor.UserID,
			Priority:       priority,
			Status:         model.RequisitionPending,
			EstimatedTotal: decimal.Zero,
		}
		for _, line := range req.Items {
			item := model.RequisitionItem{
				ItemName:          line.ItemName,
				Description:       line.Description,
				Quantity:          line.Quantity,
				Unit:              line.Unit,
				EstimatedUnitCost: line.EstimatedUnitCost,
				InventoryID:       parseUUIDPtr(line.InventoryID),
				Category:          line.Category,
				Specifications:    line.Specifications,
				Notes:             line.Notes,
			}
			if item.Unit == "" {
				item.Unit = "unit"
			}
			item.TotalCost = item.LineTotal()
			r.EstimatedTotal = r.EstimatedTotal.Add(item.TotalCost)
			r.Items = append(r.Items, item)
		}

		if err := s.createWithRetry(tx, r, year); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := requisitionToResponse(out)
	return &resp, nil
}

func (s *requisitionService) createWithRetry(tx *gorm.DB, r *model.Requisition, year int) error {
	for attempt := 0; attempt < 2; attempt++ {
		seq, err := s.seqs.Next(tx, RequisitionSequenceName(year))
		if err != nil {
			return err
		}
		r.RequisitionNumber = FormatRequisitionNumber(year, seq)

		err = s.repo.CreateTx(tx, r)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return apierror.Conflict("duplicate requisition number " + r.RequisitionNumber)
}

func (s *requisitionService) Get(ctx context.Context, id uuid.UUID) (*dto.RequisitionResponse, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("requisition", id.String())
		}
		return nil, err
	}
	resp := requisitionToResponse(r)
	return &resp, nil
}

func (s *requisitionService) List(ctx context.Context, filter dto.RequisitionFilter) (*dto.RequisitionListResponse, error) {
	reqs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.RequisitionListResponse{
		Data:  make([]dto.RequisitionResponse, 0, len(reqs)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range reqs {
		resp.Data = append(resp.Data, requisitionToResponse(&reqs[i]))
	}
	if filter.Limit > 0 {
		resp.TotalPages = int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	}
	return resp, nil
}

func (s *requisitionService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateRequisitionRequest) (*dto.RequisitionResponse, error) {
	var out *model.Requisition
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.lockPending(tx, id, "update")
		if err != nil {
			return err
		}

		if req.Title != nil {
			r.Title = *req.Title
		}
		if req.Description != nil {
			r.Description = req.Description
		}
		if req.Purpose != nil {
			r.Purpose = req.Purpose
		}
		if req.Department != nil {
			r.Department = req.Department
		}
		if req.Priority != nil {
			p := model.RequisitionPriority(*req.Priority)
			if !model.ValidPriority(p) {
				return apierror.Invalid("invalid priority " + *req.Priority)
			}
			r.Priority = p
		}
		if req.ProgramID != nil {
			r.ProgramID = parseUUIDPtr(req.ProgramID)
		}

		if err := s.repo.UpdateTx(tx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := requisitionToResponse(out)
	return &resp, nil
}

// Delete removes a requisition that never entered procurement. Rejected and
// cancelled requisitions may be deleted along with pending ones; anything
// approved or beyond stays for the paper trail.
func (s *requisitionService) Delete(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.lockRequisition(tx, id)
		if err != nil {
			return err
		}
		switch r.Status {
		case model.RequisitionApproved, model.RequisitionOrdered, model.RequisitionReceived:
			return apierror.InvalidTransition(string(r.Status), "delete")
		}
		return s.repo.DeleteTx(tx, id)
	})
}

// lockRequisition locks the row, mapping a missing id to NotFound and letting
// real DB errors pass through untouched.
func (s *requisitionService) lockRequisition(tx *gorm.DB, id uuid.UUID) (*model.Requisition, error) {
	r, err := s.repo.LockByIDTx(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("requisition", id.String())
		}
		return nil, err
	}
	return r, nil
}

// lockPending locks the requisition row and rejects any status except pending.
func (s *requisitionService) lockPending(tx *gorm.DB, id uuid.UUID, verb string) (*model.Requisition, error) {
	r, err := s.lockRequisition(tx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != model.RequisitionPending {
		return nil, apierror.InvalidTransition(string(r.Status), verb)
	}
	return r, nil
}

// ── Line items ───────────────────────────────────────────────────────────────

// lineMutable gates edits to an existing line: details may still be corrected
// after approval, up until the order goes out. The line set itself is frozen
// earlier; adding and removing lines is a pending-only operation, since the
// approval covers exactly the lines that were on the request.
func lineMutable(status model.RequisitionStatus) bool {
	return status == model.RequisitionPending || status == model.RequisitionApproved
}

func (s *requisitionService) AddItem(ctx context.Context, id uuid.UUID, req dto.CreateRequisitionItemRequest) (*dto.RequisitionResponse, error) {
	var out *model.Requisition
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.lockRequisition(tx, id)
		if err != nil {
			return err
		}
		if r.Status != model.RequisitionPending {
			return apierror.InvalidTransition(string(r.Status), "add item")
		}

		item := &model.RequisitionItem{
			RequisitionID:     r.ID,
			ItemName:          req.ItemName,
			Description:       req.Description,
			Quantity:          req.Quantity,
			Unit:              req.Unit,
			EstimatedUnitCost: req.EstimatedUnitCost,
			InventoryID:       parseUUIDPtr(req.InventoryID),
			Category:          req.Category,
			Specifications:    req.Specifications,
			Notes:             req.Notes,
		}
		if item.Unit == "" {
			item.Unit = "unit"
		}
		item.TotalCost = item.LineTotal()

		if err := s.repo.CreateItemTx(tx, item); err != nil {
			return err
		}
		out, err = s.refreshTotal(tx, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := requisitionToResponse(out)
	return &resp, nil
}

func (s *requisitionService) UpdateItem(ctx context.Context, id, itemID uuid.UUID, req dto.UpdateRequisitionItemRequest) (*dto.RequisitionResponse, error) {
	var out *model.Requisition
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.lockRequisition(tx, id)
		if err != nil {
			return err
		}
		if !lineMutable(r.Status) {
			return apierror.InvalidTransition(string(r.Status), "update item")
		}

		item, err := s.repo.FindItemTx(tx, id, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("requisition item", itemID.String())
			}
			return err
		}

		if req.ItemName != nil {
			item.ItemName = *req.ItemName
		}
		if req.Description != nil {
			item.Description = req.Description
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.Unit != nil {
			item.Unit = *req.Unit
		}
		if req.EstimatedUnitCost != nil {
			item.EstimatedUnitCost = *req.EstimatedUnitCost
		}
		if req.InventoryID != nil {
			item.InventoryID = parseUUIDPtr(req.InventoryID)
		}
		if req.Category != nil {
			item.Category = req.Category
		}
		if req.Specifications != nil {
			item.Specifications = req.Specifications
		}
		if req.Notes != nil {
			item.Notes = req.Notes
		}
		item.TotalCost = item.LineTotal()

		if err := s.repo.UpdateItemTx(tx, item); err != nil {
			return err
		}
		out, err = s.refreshTotal(tx, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := requisitionToResponse(out)
	return &resp, nil
}

func (s *requisitionService) RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*dto.RequisitionResponse, error) {
	var out *model.Requisition
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.lockRequisition(tx, id)
		if err != nil {
			return err
		}
		if r.Status != model.RequisitionPending {
			return apierror.InvalidTransition(string(r.Status), "remove item")
		}

		if err := s.repo.DeleteItemTx(tx, id, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("requisition item", itemID.String())
			}
			return err
		}
		out, err = s.refreshTotal(tx, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := requisitionToResponse(out)
	return &resp, nil
}

// refreshTotal recomputes the cached estimated_total from the surviving lines
// and reloads the requisition with them.
func (s *requisitionService) refreshTotal(tx *gorm.DB, r *model.Requisition) (*model.Requisition, error) {
	total, err := s.repo.SumItemTotalsTx(tx, r.ID)
	if err != nil {
		return nil, err
	}
	r.EstimatedTotal = total
	if err := s.repo.UpdateTx(tx, r); err != nil {
		return nil, err
	}
	return s.repo.LockByIDTx(tx, r.ID)
}

// ── Workflow transitions ─────────────────────────────────────────────────────

func (s *requisitionService) Approve(ctx context.Context, id uuid.UUID, actor Actor) (*dto.RequisitionResponse, error) {
	return s.transition(ctx, id, "approve", func(r *model.Requisition) error {
		if r.Status != model.RequisitionPending {
			return apierror.InvalidTransition(string(r.Status), "approve")
		}
		if len(r.Items) == 0 {
			return apierror.Invalid("cannot approve a requisition with no items")
		}
		now := time.Now().UTC()
		r.Status = model.RequisitionApproved
		r.ApprovedBy = &actor.UserID
		r.ApprovedDate = &now
		return nil
	})
}

func (s *requisitionService) Reject(ctx context.Context, id uuid.UUID, req dto.RejectRequisitionRequest, actor Actor) (*dto.RequisitionResponse, error) {
	return s.transition(ctx, id, "reject", func(r *model.Requisition) error {
		if r.Status != model.RequisitionPending {
			return apierror.InvalidTransition(string(r.Status), "reject")
		}
		now := time.Now().UTC()
		r.Status = model.RequisitionRejected
		r.RejectedBy = &actor.UserID
		r.RejectedDate = &now
		r.RejectionReason = &req.Reason
		return nil
	})
}

func (s *requisitionService) Order(ctx context.Context, id uuid.UUID, req dto.OrderRequisitionRequest, actor Actor) (*dto.RequisitionResponse, error) {
	return s.transition(ctx, id, "order", func(r *model.Requisition) error {
		if r.Status != model.RequisitionApproved {
			return apierror.InvalidTransition(string(r.Status), "order")
		}
		now := time.Now().UTC()
		r.Status = model.RequisitionOrdered
		r.OrderedBy = &actor.UserID
		r.OrderedDate = &now
		r.VendorID = parseUUIDPtr(req.VendorID)
		r.PONumber = req.PONumber
		return nil
	})
}

func (s *requisitionService) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*dto.RequisitionResponse, error) {
	return s.transition(ctx, id, "cancel", func(r *model.Requisition) error {
		if r.Status.Terminal() {
			return apierror.InvalidTransition(string(r.Status), "cancel")
		}
		r.Status = model.RequisitionCancelled
		return nil
	})
}

// Receive marks the requisition received and posts inbound ledger transactions
// for every line linked to a stock-keeping item. The whole fan-out runs in one
// DB transaction, so a failed ledger write rolls back the status change too.
func (s *requisitionService) Receive(ctx context.Context, id uuid.UUID, req dto.ReceiveRequisitionRequest, actor Actor) (*dto.RequisitionResponse, error) {
	overrides := make(map[uuid.UUID]dto.ReceiveItemRequest, len(req.Items))
	for _, line := range req.Items {
		lineID, err := uuid.Parse(line.ItemID)
		if err != nil {
			return nil, apierror.Invalid("invalid item_id " + line.ItemID)
		}
		overrides[lineID] = line
	}

	var out *model.Requisition
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.lockRequisition(tx, id)
		if err != nil {
			return err
		}
		if r.Status != model.RequisitionOrdered {
			return apierror.InvalidTransition(string(r.Status), "receive")
		}

		now := time.Now().UTC()
		total := decimal.Zero
		for i := range r.Items {
			item := &r.Items[i]

			received := item.Quantity
			if ov, ok := overrides[item.ID]; ok {
				received = ov.ReceivedQuantity
				if ov.ActualUnitCost != nil {
					item.ActualUnitCost = ov.ActualUnitCost
				}
			}
			item.ReceivedQuantity = &received
			item.TotalCost = item.LineTotal()
			total = total.Add(item.TotalCost)

			if err := s.repo.UpdateItemTx(tx, item); err != nil {
				return err
			}
			if item.InventoryID == nil || received <= 0 {
				continue
			}
			if err := s.postReceipt(tx, r, item, received, actor); err != nil {
				return err
			}
		}

		r.Status = model.RequisitionReceived
		r.ReceivedBy = &actor.UserID
		r.ReceivedDate = &now
		r.EstimatedTotal = total
		if err := s.repo.UpdateTx(tx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := requisitionToResponse(out)
	return &resp, nil
}

// postReceipt posts one inbound ledger transaction for a received line,
// skipping lines whose receipt was already posted (idempotent replay).
func (s *requisitionService) postReceipt(tx *gorm.DB, r *model.Requisition, item *model.RequisitionItem, received int, actor Actor) error {
	exists, err := s.inventory.HasReferenceTx(tx, *item.InventoryID, model.ReferenceRequisition, r.ID)
	if err != nil {
		return err
	}
	if exists {
		log.Warn().
			Str("requisition", r.RequisitionNumber).
			Str("inventory_id", item.InventoryID.String()).
			Msg("receipt already posted, skipping ledger write")
		return nil
	}

	cost := item.EstimatedUnitCost
	if item.ActualUnitCost != nil {
		cost = *item.ActualUnitCost
	}
	refID := r.ID
	_, _, err = s.inventory.RecordTransactionTx(tx, *item.InventoryID, RecordTxInput{
		Type:          model.TransactionIn,
		Quantity:      received,
		UnitCost:      &cost,
		ReferenceType: model.ReferenceRequisition,
		ReferenceID:   &refID,
		Reason:        "Received from requisition " + r.RequisitionNumber,
		PerformedBy:   actor.UserID,
		VerticalID:    r.VerticalID,
	})
	return err
}

// transition runs a guarded status change under the header row lock.
func (s *requisitionService) transition(ctx context.Context, id uuid.UUID, verb string, mutate func(*model.Requisition) error) (*dto.RequisitionResponse, error) {
	var out *model.Requisition
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.lockRequisition(tx, id)
		if err != nil {
			return err
		}
		if err := mutate(r); err != nil {
			return err
		}
		if err := s.repo.UpdateTx(tx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := requisitionToResponse(out)
	return &resp, nil
}

func (s *requisitionService) Stats(ctx context.Context) (*dto.RequisitionStatsResponse, error) {
	return s.repo.Stats(ctx)
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func requisitionToResponse(r *model.Requisition) dto.RequisitionResponse {
	resp := dto.RequisitionResponse{
		ID:                r.ID.String(),
		RequisitionNumber: r.RequisitionNumber,
		Title:             r.Title,
		Description:       r.Description,
		Purpose:           r.Purpose,
		Department:        r.Department,
		VerticalID:        uuidPtrString(r.VerticalID),
		ProgramID:         uuidPtrString(r.ProgramID),
		RequestedBy:       r.RequestedBy.String(),
		Priority:          string(r.Priority),
		Status:            string(r.Status),
		EstimatedTotal:    r.EstimatedTotal,
		ApprovedBy:        uuidPtrString(r.ApprovedBy),
		ApprovedDate:      timePtrString(r.ApprovedDate),
		RejectedBy:        uuidPtrString(r.RejectedBy),
		RejectedDate:      timePtrString(r.RejectedDate),
		RejectionReason:   r.RejectionReason,
		OrderedBy:         uuidPtrString(r.OrderedBy),
		OrderedDate:       timePtrString(r.OrderedDate),
		VendorID:          uuidPtrString(r.VendorID),
		PONumber:          r.PONumber,
		ReceivedBy:        uuidPtrString(r.ReceivedBy),
		ReceivedDate:      timePtrString(r.ReceivedDate),
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		Items:             make([]dto.RequisitionItemResponse, 0, len(r.Items)),
	}
	for i := range r.Items {
		item := &r.Items[i]
		resp.Items = append(resp.Items, dto.RequisitionItemResponse{
			ID:                item.ID.String(),
			ItemName:          item.ItemName,
			Description:       item.Description,
			Quantity:          item.Quantity,
			Unit:              item.Unit,
			EstimatedUnitCost: item.EstimatedUnitCost,
			ActualUnitCost:    item.ActualUnitCost,
			ReceivedQuantity:  item.ReceivedQuantity,
			TotalCost:         item.TotalCost,
			InventoryID:       uuidPtrString(item.InventoryID),
			Category:          item.Category,
			Specifications:    item.Specifications,
			Notes:             item.Notes,
		})
	}
	return resp
}
