package service

import (
	"context"

	"eco-kart/internal/cart"
	"eco-kart/internal/model"
	"eco-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	store       cart.Store
	productRepo repository.ProductRepository
	maxQuantity int
	logger      zerolog.Logger
}

// NewCartService creates a new cart service. maxQuantity bounds each line;
// a non-positive value uses model.DefaultMaxLineQuantity.
func NewCartService(store cart.Store, productRepo repository.ProductRepository, maxQuantity int, logger zerolog.Logger) CartService {
	if maxQuantity < 1 {
		maxQuantity = model.DefaultMaxLineQuantity
	}
	return &cartService{
		store:       store,
		productRepo: productRepo,
		maxQuantity: maxQuantity,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to read cart")
		return nil, model.NewPersistenceFailure(err)
	}
	return c, nil
}

// AddItem adds a product variant to the cart. The product must exist in the catalogue.
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *model.CartItemRequest) (*model.Cart, error) {
	item, err := s.item(ctx, req)
	if err != nil {
		return nil, err
	}

	c, err := s.store.AddItem(ctx, userID, item)
	if err != nil {
		return nil, s.storeError(err, userID, "failed to add cart item")
	}

	s.logger.Debug().
		Str("user_id", userID.String()).
		Str("product_id", item.ProductID).
		Str("variant", string(item.Variant)).
		Int("quantity", item.Quantity).
		Msg("cart item added")

	return c, nil
}

func (s *cartService) SetQuantity(ctx context.Context, userID uuid.UUID, req *model.CartItemRequest) (*model.Cart, error) {
	item, err := s.item(ctx, req)
	if err != nil {
		return nil, err
	}

	c, err := s.store.SetQuantity(ctx, userID, item)
	if err != nil {
		return nil, s.storeError(err, userID, "failed to update cart item")
	}
	return c, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID uuid.UUID, productID string, variant model.Variant) (*model.Cart, error) {
	c, err := s.store.RemoveItem(ctx, userID, productID, variant)
	if err != nil {
		return nil, s.storeError(err, userID, "failed to remove cart item")
	}
	return c, nil
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return s.storeError(err, userID, "failed to clear cart")
	}
	return nil
}

// item validates a request against the catalogue before it reaches the store.
func (s *cartService) item(ctx context.Context, req *model.CartItemRequest) (model.CartItem, error) {
	if req == nil || req.ProductID == "" {
		return model.CartItem{}, model.ErrProductNotFound
	}
	if !req.Variant.Valid() {
		return model.CartItem{}, model.ErrInvalidVariant
	}
	if !model.ValidQuantity(req.Quantity, s.maxQuantity) {
		return model.CartItem{}, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", req.ProductID).Msg("failed to look up product")
		return model.CartItem{}, model.NewPersistenceFailure(err)
	}
	if product == nil {
		return model.CartItem{}, model.ErrProductNotFound
	}

	return model.CartItem{ProductID: req.ProductID, Variant: req.Variant, Quantity: req.Quantity}, nil
}

func (s *cartService) storeError(err error, userID uuid.UUID, msg string) error {
	if de, ok := model.AsDomainError(err); ok {
		return de
	}
	s.logger.Error().Err(err).Str("user_id", userID.String()).Msg(msg)
	return model.NewPersistenceFailure(err)
}
