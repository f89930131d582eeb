package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"promo-engine/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPromotionService is a mock implementation of service.PromotionService.
type MockPromotionService struct {
	mock.Mock
}

func (m *MockPromotionService) Create(ctx context.Context, draft *model.PromotionDraft) (*model.Promotion, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockPromotionService) BulkGenerate(ctx context.Context, req *model.BulkRequest) ([]model.Promotion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Promotion), args.Error(1)
}

func (m *MockPromotionService) Get(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockPromotionService) Update(ctx context.Context, id uuid.UUID, patch *model.PromotionPatch) (*model.Promotion, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockPromotionService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPromotionService) List(ctx context.Context, filter model.ListFilter) ([]model.Promotion, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Promotion), args.Error(1)
}

func (m *MockPromotionService) Evaluate(ctx context.Context, req *model.EvaluationRequest) (*model.Evaluation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Evaluation), args.Error(1)
}

func (m *MockPromotionService) ConfirmRedemption(ctx context.Context, code, customerID string) (*model.Promotion, error) {
	args := m.Called(ctx, code, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockPromotionService) Export(ctx context.Context, filter model.ListFilter) ([][]string, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]string), args.Error(1)
}

// newTestRouter mounts the handler on the same routes the real router uses,
// so chi URL parameters resolve in tests.
func newTestRouter(h *PromotionHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/promotions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Post("/bulk", h.BulkGenerate)
		r.Post("/evaluate", h.Evaluate)
		r.Get("/export", h.Export)
		r.Get("/{id}", h.GetByID)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	r.Post("/api/redemptions/{code}", h.ConfirmRedemption)
	return r
}

func testPromotion() *model.Promotion {
	return &model.Promotion{
		ID:        uuid.New(),
		Name:      "Summer Sale",
		Code:      "SUMMER20",
		Type:      model.TypePercentage,
		Value:     20,
		Active:    true,
		StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Status:    model.StatusActive,
	}
}

func TestPromotionHandler_Create(t *testing.T) {
	logger := zerolog.Nop()

	validBody := `{
		"name": "Summer Sale",
		"code": "SUMMER20",
		"type": "percentage",
		"value": 20,
		"activeFlag": true,
		"startDate": "2026-06-01T00:00:00Z",
		"endDate": "2026-08-31T00:00:00Z"
	}`

	tests := []struct {
		name           string
		body           string
		mockReturn     *model.Promotion
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           validBody,
			mockReturn:     testPromotion(),
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Invalid JSON",
			body:           `{"name": `,
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
		{
			name:           "Validation error",
			body:           validBody,
			mockError:      model.ErrInvalidValue,
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Duplicate code",
			body:           validBody,
			mockError:      model.ErrDuplicateCode,
			expectedStatus: http.StatusConflict,
			expectService:  true,
		},
		{
			name:           "Service error",
			body:           validBody,
			mockError:      errors.New("database error"),
			expectedStatus: http.StatusInternalServerError,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPromotionService)
			router := newTestRouter(NewPromotionHandler(mockService, logger))

			if tt.expectService {
				mockService.On("Create", mock.Anything, mock.AnythingOfType("*model.PromotionDraft")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/promotions", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func TestPromotionHandler_Create_ResponseBody(t *testing.T) {
	mockService := new(MockPromotionService)
	router := newTestRouter(NewPromotionHandler(mockService, zerolog.Nop()))

	p := testPromotion()
	mockService.On("Create", mock.Anything, mock.AnythingOfType("*model.PromotionDraft")).Return(p, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/promotions", strings.NewReader(`{"name":"Summer Sale"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got model.Promotion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "SUMMER20", got.Code)
	assert.Equal(t, model.StatusActive, got.Status)
}

func TestPromotionHandler_BulkGenerate(t *testing.T) {
	logger := zerolog.Nop()

	validBody := `{
		"template": {
			"name": "Bulk Promo",
			"type": "fixed",
			"value": 5,
			"activeFlag": true,
			"startDate": "2026-06-01T00:00:00Z",
			"endDate": "2026-08-31T00:00:00Z"
		},
		"codes": ["BULK1", "BULK2"]
	}`

	tests := []struct {
		name           string
		body           string
		mockReturn     []model.Promotion
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           validBody,
			mockReturn:     []model.Promotion{*testPromotion(), *testPromotion()},
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Invalid JSON",
			body:           `not json`,
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
		{
			name:           "Empty batch",
			body:           validBody,
			mockError:      model.ErrEmptyBatch,
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Duplicate codes reject the batch",
			body:           validBody,
			mockError:      &model.DuplicateCodeError{Codes: []string{"BULK1"}},
			expectedStatus: http.StatusConflict,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPromotionService)
			router := newTestRouter(NewPromotionHandler(mockService, logger))

			if tt.expectService {
				mockService.On("BulkGenerate", mock.Anything, mock.AnythingOfType("*model.BulkRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/promotions/bulk", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func TestPromotionHandler_BulkGenerate_ConflictBody(t *testing.T) {
	mockService := new(MockPromotionService)
	router := newTestRouter(NewPromotionHandler(mockService, zerolog.Nop()))

	mockService.On("BulkGenerate", mock.Anything, mock.AnythingOfType("*model.BulkRequest")).
		Return(nil, &model.DuplicateCodeError{Codes: []string{"A1", "B2"}})

	req := httptest.NewRequest(http.MethodPost, "/api/promotions/bulk", strings.NewReader(`{"codes":["A1","B2"]}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrCodeDuplicateCode, resp.Error)
	assert.Equal(t, []string{"A1", "B2"}, resp.DuplicateCodes)
}

func TestPromotionHandler_List(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		queryParams    string
		expectedStatus int
		expectService  bool
		expectedFilter model.ListFilter
	}{
		{
			name:           "No filter",
			queryParams:    "",
			expectedStatus: http.StatusOK,
			expectService:  true,
			expectedFilter: model.ListFilter{},
		},
		{
			name:           "Status filter",
			queryParams:    "?status=active",
			expectedStatus: http.StatusOK,
			expectService:  true,
			expectedFilter: model.ListFilter{Status: statusPtr(model.StatusActive)},
		},
		{
			name:           "Type filter",
			queryParams:    "?type=percentage",
			expectedStatus: http.StatusOK,
			expectService:  true,
			expectedFilter: model.ListFilter{Type: typePtr(model.TypePercentage)},
		},
		{
			name:           "Invalid status filter",
			queryParams:    "?status=bogus",
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
		{
			name:           "Invalid type filter",
			queryParams:    "?type=bogus",
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPromotionService)
			router := newTestRouter(NewPromotionHandler(mockService, logger))

			if tt.expectService {
				mockService.On("List", mock.Anything, tt.expectedFilter).
					Return([]model.Promotion{*testPromotion()}, nil)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/promotions"+tt.queryParams, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func TestPromotionHandler_GetByID(t *testing.T) {
	logger := zerolog.Nop()
	p := testPromotion()

	tests := []struct {
		name           string
		path           string
		mockReturn     *model.Promotion
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			path:           "/api/promotions/" + p.ID.String(),
			mockReturn:     p,
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Not found",
			path:           "/api/promotions/" + uuid.NewString(),
			mockError:      model.ErrPromotionNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Invalid ID format",
			path:           "/api/promotions/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPromotionService)
			router := newTestRouter(NewPromotionHandler(mockService, logger))

			if tt.expectService {
				mockService.On("Get", mock.Anything, mock.AnythingOfType("uuid.UUID")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func TestPromotionHandler_Update(t *testing.T) {
	logger := zerolog.Nop()
	p := testPromotion()

	tests := []struct {
		name           string
		body           string
		mockReturn     *model.Promotion
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           `{"name": "Renamed"}`,
			mockReturn:     p,
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Immutable field",
			body:           `{"code": "NEWCODE"}`,
			mockError:      model.ErrImmutableField,
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Not found",
			body:           `{"name": "Renamed"}`,
			mockError:      model.ErrPromotionNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Invalid JSON",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPromotionService)
			router := newTestRouter(NewPromotionHandler(mockService, logger))

			if tt.expectService {
				mockService.On("Update", mock.Anything, p.ID, mock.AnythingOfType("*model.PromotionPatch")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPatch, "/api/promotions/"+p.ID.String(), strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func TestPromotionHandler_Delete(t *testing.T) {
	logger := zerolog.Nop()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockPromotionService)
		router := newTestRouter(NewPromotionHandler(mockService, logger))
		mockService.On("Delete", mock.Anything, id).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/promotions/"+id.String(), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Not found", func(t *testing.T) {
		mockService := new(MockPromotionService)
		router := newTestRouter(NewPromotionHandler(mockService, logger))
		mockService.On("Delete", mock.Anything, id).Return(model.ErrPromotionNotFound)

		req := httptest.NewRequest(http.MethodDelete, "/api/promotions/"+id.String(), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPromotionHandler_Evaluate(t *testing.T) {
	logger := zerolog.Nop()

	body := `{
		"code": "SUMMER20",
		"customerContext": {"id": "C001", "segments": ["vip"], "completedOrders": 3},
		"cartContext": {
			"items": [{"productId": "P001", "category": "books", "price": 100, "quantity": 1}],
			"subtotal": 100,
			"shippingCost": 7.5
		}
	}`

	t.Run("Eligible", func(t *testing.T) {
		mockService := new(MockPromotionService)
		router := newTestRouter(NewPromotionHandler(mockService, logger))

		mockService.On("Evaluate", mock.Anything, mock.AnythingOfType("*model.EvaluationRequest")).
			Return(&model.Evaluation{Eligible: true, DiscountAmount: 20, EligibleSubtotal: 100}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/promotions/evaluate", strings.NewReader(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var result model.Evaluation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Eligible)
		assert.Equal(t, 20.0, result.DiscountAmount)
	})

	t.Run("Ineligible is still a 200", func(t *testing.T) {
		mockService := new(MockPromotionService)
		router := newTestRouter(NewPromotionHandler(mockService, logger))

		mockService.On("Evaluate", mock.Anything, mock.AnythingOfType("*model.EvaluationRequest")).
			Return(model.Ineligible(model.ReasonNotFound), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/promotions/evaluate", strings.NewReader(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var result model.Evaluation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.False(t, result.Eligible)
		assert.Equal(t, model.ReasonNotFound, result.Reason)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		mockService := new(MockPromotionService)
		router := newTestRouter(NewPromotionHandler(mockService, logger))

		req := httptest.NewRequest(http.MethodPost, "/api/promotions/evaluate", strings.NewReader(`{`))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPromotionHandler_Export(t *testing.T) {
	mockService := new(MockPromotionService)
	router := newTestRouter(NewPromotionHandler(mockService, zerolog.Nop()))

	rows := [][]string{
		{"ID", "Name", "Code"},
		{"id-1", "Summer Sale", "SUMMER20"},
	}
	mockService.On("Export", mock.Anything, model.ListFilter{}).Return(rows, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/promotions/export", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "promotions.csv")
	assert.Equal(t, "ID,Name,Code\nid-1,Summer Sale,SUMMER20\n", w.Body.String())
}

func TestPromotionHandler_ConfirmRedemption(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		body           string
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           `{"customerId": "C001"}`,
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Missing customer id",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
		{
			name:           "Unknown code",
			body:           `{"customerId": "C001"}`,
			mockError:      model.ErrPromotionNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Usage limit reached",
			body:           `{"customerId": "C001"}`,
			mockError:      model.ErrUsageLimitReached,
			expectedStatus: http.StatusConflict,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPromotionService)
			router := newTestRouter(NewPromotionHandler(mockService, logger))

			if tt.expectService {
				var p *model.Promotion
				if tt.mockError == nil {
					p = testPromotion()
				}
				mockService.On("ConfirmRedemption", mock.Anything, "SUMMER20", "C001").
					Return(p, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/redemptions/SUMMER20", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func statusPtr(s model.PromotionStatus) *model.PromotionStatus { return &s }

func typePtr(t model.PromotionType) *model.PromotionType { return &t }
