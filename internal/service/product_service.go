package service

import (
	"context"
	"strings"

	"eco-kart/internal/model"
	"eco-kart/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultProductPage = 10
	maxProductPage     = 100
)

type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates the catalogue browsing service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List normalises the filter and returns one catalogue page. Categories are
// matched case-insensitively; an unknown sort is rejected.
func (s *productService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	filter.Category = strings.ToLower(strings.TrimSpace(filter.Category))
	if filter.Sort == "" {
		filter.Sort = model.SortByCategory
	}
	if !filter.Sort.Valid() {
		return nil, model.ErrInvalidParameter
	}
	filter.Limit = min(max(filter.Limit, 0), maxProductPage)
	if filter.Limit == 0 {
		filter.Limit = defaultProductPage
	}
	filter.Offset = max(filter.Offset, 0)

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Str("category", filter.Category).
			Str("sort", string(filter.Sort)).
			Msg("failed to list products")
		return nil, model.NewPersistenceFailure(err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Str("category", filter.Category).
		Str("sort", string(filter.Sort)).
		Msg("listed products")

	return products, nil
}

func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, model.NewPersistenceFailure(err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	return product, nil
}
