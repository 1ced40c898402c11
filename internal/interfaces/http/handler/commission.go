package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	commissionapp "github.com/marketplace/backend/internal/application/commission"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
)

// CommissionService is the part of the commission application service used over HTTP
type CommissionService interface {
	CreateRate(ctx context.Context, req commissionapp.CreateRateRequest) (*commissionapp.RateResponse, error)
	ListRates(ctx context.Context, filter commissionapp.RateListFilter) ([]commissionapp.RateResponse, int64, error)
	ListLinesForOrder(ctx context.Context, orderID uuid.UUID) ([]commissionapp.LineResponse, error)
}

// CommissionHandler handles commission rate administration and line reads
type CommissionHandler struct {
	BaseHandler
	service CommissionService
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(service CommissionService) *CommissionHandler {
	return &CommissionHandler{service: service}
}

// CreateRate godoc
// @ID           createCommissionRate
// @Summary      Create a commission rate
// @Description  The scope fields decide the rate's precedence, from seller+category+type (1) to the platform default (8).
// @Tags         commission
// @Accept       json
// @Produce      json
// @Param        request body commissionapp.CreateRateRequest true "Rate"
// @Success      201 {object} APIResponse[commissionapp.RateResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /commission-rates [post]
func (h *CommissionHandler) CreateRate(c *gin.Context) {
	var req commissionapp.CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	rate, err := h.service.CreateRate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rate)
}

// ListRates godoc
// @ID           listCommissionRates
// @Summary      List commission rates
// @Tags         commission
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort field" default(created_at)
// @Param        order_dir query string false "asc or desc" default(asc)
// @Success      200 {object} APIResponse[[]commissionapp.RateResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /commission-rates [get]
func (h *CommissionHandler) ListRates(c *gin.Context) {
	var filter commissionapp.RateListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	rates, total, err := h.service.ListRates(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, rates, total, page, pageSize)
}

// ListOrderLines godoc
// @ID           listOrderCommissionLines
// @Summary      List the commission lines of an order
// @Tags         commission
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[[]commissionapp.LineResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /orders/{id}/commission-lines [get]
func (h *CommissionHandler) ListOrderLines(c *gin.Context) {
	orderID, ok := h.parseID(c, "order")
	if !ok {
		return
	}

	lines, err := h.service.ListLinesForOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}
