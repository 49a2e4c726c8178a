package handler

import (
	"net/http"

	"stocktrack/internal/dto"
	"stocktrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequisitionHandler struct{ svc service.RequisitionService }

func NewRequisitionHandler(svc service.RequisitionService) *RequisitionHandler {
	return &RequisitionHandler{svc: svc}
}

// Create godoc
// @Summary Create a requisition with optional line items
// @Tags requisitions
// @Accept json
// @Produce json
// @Param request body dto.CreateRequisitionRequest true "Requisition"
// @Success 201 {object} dto.RequisitionResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/requisitions [post]
func (h *RequisitionHandler) Create(c *gin.Context) {
	var req dto.CreateRequisitionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RequisitionHandler) List(c *gin.Context) {
	var filter dto.RequisitionFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequisitionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequisitionHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateRequisitionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequisitionHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Line items ───────────────────────────────────────────────────────────────

func (h *RequisitionHandler) AddItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CreateRequisitionItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RequisitionHandler) UpdateItem(c *gin.Context) {
	id, itemID, ok := parseItemParams(c)
	if !ok {
		return
	}
	var req dto.UpdateRequisitionItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateItem(c.Request.Context(), id, itemID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequisitionHandler) RemoveItem(c *gin.Context) {
	id, itemID, ok := parseItemParams(c)
	if !ok {
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseItemParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return id, itemID, true
}

// ── Workflow transitions ─────────────────────────────────────────────────────

func (h *RequisitionHandler) Approve(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Approve(c.Request.Context(), id, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequisitionHandler) Reject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.RejectRequisitionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reject(c.Request.Context(), id, req, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequisitionHandler) Order(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.OrderRequisitionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Order(c.Request.Context(), id, req, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Receive godoc
// @Summary Receive an ordered requisition and post inbound stock transactions
// @Tags requisitions
// @Accept json
// @Produce json
// @Param id path string true "Requisition ID"
// @Param request body dto.ReceiveRequisitionRequest true "Per-line receipt detail"
// @Success 200 {object} dto.RequisitionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/requisitions/{id}/receive [post]
func (h *RequisitionHandler) Receive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReceiveRequisitionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Receive(c.Request.Context(), id, req, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequisitionHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Cancel(c.Request.Context(), id, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequisitionHandler) Stats(c *gin.Context) {
	resp, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
