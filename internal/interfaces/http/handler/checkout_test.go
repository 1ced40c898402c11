package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	checkoutapp "github.com/marketplace/backend/internal/application/checkout"
	"github.com/marketplace/backend/internal/domain/checkout"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCheckoutService implements CheckoutService for testing
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) SplitAndCompleteCart(ctx context.Context, cartID uuid.UUID) (*checkoutapp.Result, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkoutapp.Result), args.Error(1)
}

func (m *MockCheckoutService) GetOrderSet(ctx context.Context, id uuid.UUID) (*checkoutapp.OrderSetResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkoutapp.OrderSetResponse), args.Error(1)
}

func newCheckoutRouter(svc CheckoutService) *gin.Engine {
	h := NewCheckoutHandler(svc)
	r := gin.New()
	r.POST("/api/v1/carts/:id/complete", h.CompleteCart)
	r.GET("/api/v1/order-sets/:id", h.GetOrderSet)
	return r
}

func TestCheckoutHandler_CompleteCart(t *testing.T) {
	cartID := uuid.New()
	result := &checkoutapp.Result{OrderSetID: uuid.New(), OrderIDs: []uuid.UUID{uuid.New(), uuid.New()}}

	svc := new(MockCheckoutService)
	svc.On("SplitAndCompleteCart", mock.Anything, cartID).Return(result, nil)

	w := httptest.NewRecorder()
	newCheckoutRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/carts/"+cartID.String()+"/complete", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/v1/order-sets/"+result.OrderSetID.String(), w.Header().Get("Location"))

	var resp APIResponse[checkoutapp.Result]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, result.OrderSetID, resp.Data.OrderSetID)
	assert.Len(t, resp.Data.OrderIDs, 2)
	svc.AssertExpectations(t)
}

func TestCheckoutHandler_CompleteCart_Existing(t *testing.T) {
	cartID := uuid.New()
	svc := new(MockCheckoutService)
	svc.On("SplitAndCompleteCart", mock.Anything, cartID).
		Return(&checkoutapp.Result{OrderSetID: uuid.New(), Existing: true}, nil)

	w := httptest.NewRecorder()
	newCheckoutRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/carts/"+cartID.String()+"/complete", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
}

func TestCheckoutHandler_CompleteCart_Errors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"missing shipping method", checkout.ErrMissingShippingMethod, http.StatusBadRequest},
		{"cart not found", shared.ErrNotFound, http.StatusNotFound},
		{"completed without order set", checkoutapp.ErrCartAlreadyCompleted, http.StatusConflict},
		{"inventory down", shared.NewDependencyError("INVENTORY_UNAVAILABLE", "Inventory unavailable", nil), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cartID := uuid.New()
			svc := new(MockCheckoutService)
			svc.On("SplitAndCompleteCart", mock.Anything, cartID).Return(nil, tt.err)

			w := httptest.NewRecorder()
			newCheckoutRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/carts/"+cartID.String()+"/complete", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestCheckoutHandler_CompleteCart_InvalidID(t *testing.T) {
	svc := new(MockCheckoutService)

	w := httptest.NewRecorder()
	newCheckoutRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/carts/abc/complete", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "SplitAndCompleteCart", mock.Anything, mock.Anything)
}

func TestCheckoutHandler_GetOrderSet(t *testing.T) {
	id := uuid.New()
	set := &checkoutapp.OrderSetResponse{
		ID:     id,
		Orders: []checkoutapp.OrderResponse{{ID: uuid.New(), SellerID: uuid.New(), Total: decimal.NewFromInt(30)}},
		Total:  decimal.NewFromInt(30),
	}
	svc := new(MockCheckoutService)
	svc.On("GetOrderSet", mock.Anything, id).Return(set, nil)

	w := httptest.NewRecorder()
	newCheckoutRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/order-sets/"+id.String(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[checkoutapp.OrderSetResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.Data.ID)
	assert.True(t, decimal.NewFromInt(30).Equal(resp.Data.Total))
	require.Len(t, resp.Data.Orders, 1)
}

func TestCheckoutHandler_GetOrderSet_NotFound(t *testing.T) {
	id := uuid.New()
	svc := new(MockCheckoutService)
	svc.On("GetOrderSet", mock.Anything, id).Return(nil, shared.ErrNotFound)

	w := httptest.NewRecorder()
	newCheckoutRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/order-sets/"+id.String(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
