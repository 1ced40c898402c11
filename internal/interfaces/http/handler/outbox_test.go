package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/application/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOutboxService struct {
	mock.Mock
}

func (m *MockOutboxService) GetDeadLetterEntries(ctx context.Context, filter event.OutboxFilter) (*event.OutboxListResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxListResult), args.Error(1)
}

func (m *MockOutboxService) GetEntry(ctx context.Context, id uuid.UUID) (*event.OutboxEntryDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxEntryDTO), args.Error(1)
}

func (m *MockOutboxService) RetryDeadEntry(ctx context.Context, id uuid.UUID) (*event.OutboxEntryDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxEntryDTO), args.Error(1)
}

func (m *MockOutboxService) RetryAllDeadEntries(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxService) GetStats(ctx context.Context) (*event.OutboxStatsDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxStatsDTO), args.Error(1)
}

func newOutboxRouter(svc OutboxService) *gin.Engine {
	h := NewOutboxHandler(svc)
	r := gin.New()
	g := r.Group("/api/v1/system/outbox")
	g.GET("/stats", h.GetStats)
	g.GET("/dead", h.GetDeadLetterEntries)
	g.POST("/dead/retry-all", h.RetryAllDeadEntries)
	g.GET("/:id", h.GetEntry)
	g.POST("/:id/retry", h.RetryDeadEntry)
	return r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestOutboxHandler_GetDeadLetterEntries(t *testing.T) {
	svc := new(MockOutboxService)
	entry := event.OutboxEntryDTO{ID: uuid.New(), EventType: "order.placed", Status: "DEAD", RetryCount: 5}
	svc.On("GetDeadLetterEntries", mock.Anything, event.OutboxFilter{Page: 2, PageSize: 1}).
		Return(&event.OutboxListResult{Entries: []event.OutboxEntryDTO{entry}, Total: 3, Page: 2, PageSize: 1}, nil)

	w := serve(newOutboxRouter(svc), http.MethodGet, "/api/v1/system/outbox/dead?page=2&page_size=1")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[[]event.OutboxEntryDTO]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, entry.ID, resp.Data[0].ID)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	svc.AssertExpectations(t)
}

func TestOutboxHandler_GetDeadLetterEntries_BadPageSize(t *testing.T) {
	svc := new(MockOutboxService)

	w := serve(newOutboxRouter(svc), http.MethodGet, "/api/v1/system/outbox/dead?page_size=500")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "GetDeadLetterEntries", mock.Anything, mock.Anything)
}

func TestOutboxHandler_RetryDeadEntry(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		path       string
		setup      func(*MockOutboxService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "reset",
			path: id.String(),
			setup: func(m *MockOutboxService) {
				m.On("RetryDeadEntry", mock.Anything, id).Return(&event.OutboxEntryDTO{ID: id, Status: "PENDING"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "unknown entry",
			path: id.String(),
			setup: func(m *MockOutboxService) {
				m.On("RetryDeadEntry", mock.Anything, id).Return(nil, event.ErrEntryNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "OUTBOX_ENTRY_NOT_FOUND",
		},
		{
			name: "entry still live",
			path: id.String(),
			setup: func(m *MockOutboxService) {
				m.On("RetryDeadEntry", mock.Anything, id).Return(nil, event.ErrEntryNotDead)
			},
			wantStatus: http.StatusConflict,
			wantCode:   "OUTBOX_ENTRY_NOT_DEAD",
		},
		{
			name:       "malformed id",
			path:       "not-a-uuid",
			setup:      func(*MockOutboxService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ERR_BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOutboxService)
			tt.setup(svc)

			w := serve(newOutboxRouter(svc), http.MethodPost, "/api/v1/system/outbox/"+tt.path+"/retry")

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestOutboxHandler_RetryAllAndStats(t *testing.T) {
	svc := new(MockOutboxService)
	svc.On("RetryAllDeadEntries", mock.Anything).Return(int64(4), nil)
	svc.On("GetStats", mock.Anything).Return(&event.OutboxStatsDTO{Pending: 4, Sent: 10, Total: 14}, nil)
	router := newOutboxRouter(svc)

	w := serve(router, http.MethodPost, "/api/v1/system/outbox/dead/retry-all")
	assert.Equal(t, http.StatusOK, w.Code)
	var retried APIResponse[RetryAllResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &retried))
	assert.Equal(t, int64(4), retried.Data.Count)

	w = serve(router, http.MethodGet, "/api/v1/system/outbox/stats")
	assert.Equal(t, http.StatusOK, w.Code)
	var stats APIResponse[event.OutboxStatsDTO]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(14), stats.Data.Total)
	svc.AssertExpectations(t)
}
