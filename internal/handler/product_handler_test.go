package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"eco-kart/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testProduct(id string) model.Product {
	return model.Product{
		ID:       id,
		Category: "kitchen",
		Eco:      model.EcoVariant{Name: "Bamboo " + id, UnitPrice: decimal.NewFromInt(145), PointsPerUnit: 20},
		Regular:  model.RegularVariant{Name: "Plastic " + id, UnitPrice: decimal.NewFromInt(99)},
	}
}

func TestProductHandler_List(t *testing.T) {
	logger := zerolog.Nop()

	testProducts := []model.Product{testProduct("P001"), testProduct("P002")}

	tests := []struct {
		name           string
		queryParams    string
		mockReturn     []model.Product
		mockError      error
		expectedStatus int
		expectedCode   string
		expectService  bool
		filter         model.ProductFilter
	}{
		{
			name:           "Success with default pagination",
			mockReturn:     testProducts,
			expectedStatus: http.StatusOK,
			expectService:  true,
			filter:         model.ProductFilter{Limit: 10},
		},
		{
			name:           "Category and sort are passed through",
			queryParams:    "?category=kitchen&sort=points&limit=5&offset=10",
			mockReturn:     testProducts,
			expectedStatus: http.StatusOK,
			expectService:  true,
			filter:         model.ProductFilter{Category: "kitchen", Sort: model.SortByEcoPoints, Limit: 5, Offset: 10},
		},
		{
			name:           "Unknown sort",
			queryParams:    "?sort=colour",
			mockError:      model.ErrInvalidParameter,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidParameter,
			expectService:  true,
			filter:         model.ProductFilter{Sort: "colour", Limit: 10},
		},
		{
			name:           "Invalid limit parameter",
			queryParams:    "?limit=invalid",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidParameter,
		},
		{
			name:           "Invalid offset parameter",
			queryParams:    "?offset=invalid",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidParameter,
		},
		{
			name:           "Storage unavailable",
			mockError:      model.NewPersistenceFailure(errors.New("database error")),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   model.ErrCodePersistenceFailure,
			expectService:  true,
			filter:         model.ProductFilter{Limit: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				mockService.On("List", mock.Anything, tt.filter).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/products"+tt.queryParams, nil)
			w := httptest.NewRecorder()

			handler.List(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}

			if tt.expectService {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestProductHandler_GetByID(t *testing.T) {
	logger := zerolog.Nop()
	p := testProduct("P001")

	tests := []struct {
		name           string
		productID      string
		mockReturn     *model.Product
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			productID:      "P001",
			mockReturn:     &p,
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Product not found",
			productID:      "P999",
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Missing product ID",
			productID:      "",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				mockService.On("GetByID", mock.Anything, tt.productID).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/products/"+tt.productID, nil)
			req = withURLParam(req, "id", tt.productID)
			w := httptest.NewRecorder()

			handler.GetByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"pointsPerUnit":20`)
			}

			mockService.AssertExpectations(t)
		})
	}
}
