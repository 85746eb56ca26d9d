package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"eco-kart/internal/cart"
	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testMaxQuantity = 5

func TestCartService_AddItem(t *testing.T) {
	product := sampleProduct("P001", "100", "90", 20)

	tests := []struct {
		name        string
		req         *model.CartItemRequest
		setup       func(store *MockCartStore, products *MockProductRepository)
		expectedErr error
	}{
		{
			name: "Adds eco item",
			req:  &model.CartItemRequest{ProductID: "P001", Variant: model.VariantEco, Quantity: 2},
			setup: func(store *MockCartStore, products *MockProductRepository) {
				products.On("GetByID", mock.Anything, "P001").Return(&product, nil)
				store.On("AddItem", mock.Anything, mock.Anything, model.CartItem{ProductID: "P001", Variant: model.VariantEco, Quantity: 2}).
					Return(&model.Cart{Items: []model.CartItem{{ProductID: "P001", Variant: model.VariantEco, Quantity: 2}}}, nil)
			},
		},
		{
			name:        "Missing product ID",
			req:         &model.CartItemRequest{Variant: model.VariantEco, Quantity: 1},
			expectedErr: model.ErrProductNotFound,
		},
		{
			name:        "Unknown variant",
			req:         &model.CartItemRequest{ProductID: "P001", Variant: "refurbished", Quantity: 1},
			expectedErr: model.ErrInvalidVariant,
		},
		{
			name:        "Zero quantity",
			req:         &model.CartItemRequest{ProductID: "P001", Variant: model.VariantRegular, Quantity: 0},
			expectedErr: model.ErrInvalidQuantity,
		},
		{
			name: "Quantity at line maximum",
			req:  &model.CartItemRequest{ProductID: "P001", Variant: model.VariantEco, Quantity: testMaxQuantity},
			setup: func(store *MockCartStore, products *MockProductRepository) {
				products.On("GetByID", mock.Anything, "P001").Return(&product, nil)
				store.On("AddItem", mock.Anything, mock.Anything, model.CartItem{ProductID: "P001", Variant: model.VariantEco, Quantity: testMaxQuantity}).
					Return(&model.Cart{Items: []model.CartItem{{ProductID: "P001", Variant: model.VariantEco, Quantity: testMaxQuantity}}}, nil)
			},
		},
		{
			name:        "Quantity above line maximum",
			req:         &model.CartItemRequest{ProductID: "P001", Variant: model.VariantEco, Quantity: testMaxQuantity + 1},
			expectedErr: model.ErrInvalidQuantity,
		},
		{
			name:        "Overflowing quantity",
			req:         &model.CartItemRequest{ProductID: "P001", Variant: model.VariantEco, Quantity: math.MaxInt},
			expectedErr: model.ErrInvalidQuantity,
		},
		{
			name: "Merged quantity above line maximum",
			req:  &model.CartItemRequest{ProductID: "P001", Variant: model.VariantEco, Quantity: 2},
			setup: func(store *MockCartStore, products *MockProductRepository) {
				products.On("GetByID", mock.Anything, "P001").Return(&product, nil)
				store.On("AddItem", mock.Anything, mock.Anything, mock.Anything).Return(nil, model.ErrInvalidQuantity)
			},
			expectedErr: model.ErrInvalidQuantity,
		},
		{
			name: "Product not in catalogue",
			req:  &model.CartItemRequest{ProductID: "P404", Variant: model.VariantRegular, Quantity: 1},
			setup: func(store *MockCartStore, products *MockProductRepository) {
				products.On("GetByID", mock.Anything, "P404").Return(nil, nil)
			},
			expectedErr: model.ErrProductNotFound,
		},
		{
			name: "Store conflict",
			req:  &model.CartItemRequest{ProductID: "P001", Variant: model.VariantEco, Quantity: 1},
			setup: func(store *MockCartStore, products *MockProductRepository) {
				products.On("GetByID", mock.Anything, "P001").Return(&product, nil)
				store.On("AddItem", mock.Anything, mock.Anything, mock.Anything).Return(nil, cart.ErrConcurrentUpdate)
			},
			expectedErr: model.ErrPersistenceFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockCartStore)
			products := new(MockProductRepository)
			if tt.setup != nil {
				tt.setup(store, products)
			}
			svc := NewCartService(store, products, testMaxQuantity, zerolog.Nop())

			c, err := svc.AddItem(context.Background(), uuid.New(), tt.req)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			require.Len(t, c.Items, 1)
			store.AssertExpectations(t)
		})
	}
}

func TestCartService_SetQuantity_PassesDomainErrors(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	product := sampleProduct("P001", "100", "90", 20)

	store := new(MockCartStore)
	products := new(MockProductRepository)
	products.On("GetByID", ctx, "P001").Return(&product, nil)
	store.On("SetQuantity", ctx, userID, mock.Anything).Return(nil, model.ErrProductNotFound)

	_, err := NewCartService(store, products, testMaxQuantity, zerolog.Nop()).
		SetQuantity(ctx, userID, &model.CartItemRequest{ProductID: "P001", Variant: model.VariantEco, Quantity: 3})

	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestCartService_GetRemoveClear(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := new(MockCartStore)
	svc := NewCartService(store, new(MockProductRepository), testMaxQuantity, zerolog.Nop())

	store.On("Get", ctx, userID).Return(&model.Cart{UserID: userID, Items: []model.CartItem{}}, nil)
	store.On("RemoveItem", ctx, userID, "P001", model.VariantEco).Return(&model.Cart{UserID: userID}, nil)
	store.On("Clear", ctx, userID).Return(errors.New("redis down"))

	c, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, c.UserID)

	_, err = svc.RemoveItem(ctx, userID, "P001", model.VariantEco)
	require.NoError(t, err)

	err = svc.Clear(ctx, userID)
	assert.ErrorIs(t, err, model.ErrPersistenceFailure)
}
