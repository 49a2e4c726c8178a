package handler

import (
	"net/http"

	"stocktrack/internal/dto"
	"stocktrack/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// CreateItem godoc
// @Summary Create an inventory item (initial stock posts a ledger entry)
// @Tags inventory
// @Accept json
// @Produce json
// @Param request body dto.CreateItemRequest true "Item"
// @Success 201 {object} dto.ItemResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/inventory [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateItem(c.Request.Context(), req, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) ListItems(c *gin.Context) {
	var filter dto.ItemFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListItems(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) GetItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetItem(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DiscontinueItem soft-deletes: the item stops appearing in default listings
// but its ledger history stays intact.
func (h *InventoryHandler) DiscontinueItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DiscontinueItem(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordTransaction godoc
// @Summary Post a stock transaction (in/out) against an item
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body dto.RecordTransactionRequest true "Transaction"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/inventory/{id}/transactions [post]
func (h *InventoryHandler) RecordTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.RecordTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordTransaction(c.Request.Context(), id, req, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var filter dto.TransactionFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListTransactions(c.Request.Context(), id, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdjustQuantity sets an absolute quantity; the delta is posted through the
// ledger so physical-count corrections remain audited.
func (h *InventoryHandler) AdjustQuantity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustQuantity(c.Request.Context(), id, req, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Reports ──────────────────────────────────────────────────────────────────

func (h *InventoryHandler) LowStock(c *gin.Context) {
	resp, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "count": len(resp)})
}

func (h *InventoryHandler) OutOfStock(c *gin.Context) {
	resp, err := h.svc.OutOfStock(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "count": len(resp)})
}

func (h *InventoryHandler) AgingReport(c *gin.Context) {
	resp, err := h.svc.AgingReport(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buckets": resp})
}

func (h *InventoryHandler) Stats(c *gin.Context) {
	resp, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
