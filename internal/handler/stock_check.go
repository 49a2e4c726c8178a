package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"stocktrack/internal/apierror"
	"stocktrack/internal/dto"
	"stocktrack/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const stockCacheTTL = 60 * time.Second

// StockCheckHandler serves the public stock check endpoint.
// No authentication required — no side effects whatsoever.
type StockCheckHandler struct {
	repo repository.InventoryRepository
	rdb  *redis.Client
}

func NewStockCheckHandler(repo repository.InventoryRepository, rdb *redis.Client) *StockCheckHandler {
	return &StockCheckHandler{repo: repo, rdb: rdb}
}

// GetStockByCode godoc
// @Summary Stock availability by item code (no authentication)
// @Tags stock
// @Produce json
// @Param code path string true "Item code"
// @Success 200 {object} dto.StockCheckResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/stock/{code} [get]
func (h *StockCheckHandler) GetStockByCode(c *gin.Context) {
	code := c.Param("code")
	ctx := c.Request.Context()
	cacheKey := "stock:" + code

	// 1. Try Redis cache
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.StockCheckResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	// 2. Cache miss — query DB
	item, err := h.repo.FindByCode(ctx, code)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("item not found"))
		return
	}

	resp := dto.StockCheckResponse{
		ItemCode:        item.ItemCode,
		Name:            item.Name,
		CurrentQuantity: item.CurrentQuantity,
		Unit:            item.Unit,
		Status:          string(item.Status),
	}

	// 3. Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, stockCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
