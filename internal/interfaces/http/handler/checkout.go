package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	checkoutapp "github.com/marketplace/backend/internal/application/checkout"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CheckoutService is the part of the checkout application service used over HTTP
type CheckoutService interface {
	SplitAndCompleteCart(ctx context.Context, cartID uuid.UUID) (*checkoutapp.Result, error)
	GetOrderSet(ctx context.Context, id uuid.UUID) (*checkoutapp.OrderSetResponse, error)
}

// CheckoutHandler handles cart completion and order set reads
type CheckoutHandler struct {
	BaseHandler
	service CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(service CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// CompleteCart godoc
// @ID           completeCart
// @Summary      Complete a cart
// @Description  Splits the cart into one order per seller, authorizes payment and reserves stock.
// @Description  Repeating the call returns the order set created the first time.
// @Tags         checkout
// @Produce      json
// @Param        id path string true "Cart ID" format(uuid)
// @Success      201 {object} APIResponse[checkoutapp.Result]
// @Success      200 {object} APIResponse[checkoutapp.Result] "Cart was already completed"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /carts/{id}/complete [post]
func (h *CheckoutHandler) CompleteCart(c *gin.Context) {
	cartID, ok := h.parseID(c, "cart")
	if !ok {
		return
	}

	ctx, log := logger.WithCartID(c.Request.Context(), logger.FromContext(c.Request.Context()), cartID.String())
	c.Request = c.Request.WithContext(ctx)
	result, err := h.service.SplitAndCompleteCart(ctx, cartID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	_, log = logger.WithOrderSetID(ctx, log, result.OrderSetID.String())
	log.Info("Cart checked out",
		zap.Int("orders", len(result.OrderIDs)),
		zap.Bool("existing", result.Existing),
	)

	if result.Existing {
		h.Success(c, result)
		return
	}
	c.Header("Location", "/api/v1/order-sets/"+result.OrderSetID.String())
	h.Created(c, result)
}

// GetOrderSet godoc
// @ID           getOrderSet
// @Summary      Get an order set
// @Tags         checkout
// @Produce      json
// @Param        id path string true "Order set ID" format(uuid)
// @Success      200 {object} APIResponse[checkoutapp.OrderSetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /order-sets/{id} [get]
func (h *CheckoutHandler) GetOrderSet(c *gin.Context) {
	id, ok := h.parseID(c, "order set")
	if !ok {
		return
	}

	set, err := h.service.GetOrderSet(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse[*checkoutapp.OrderSetResponse]{Success: true, Data: set})
}
