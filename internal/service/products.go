package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"orderdesk/internal/access"
	"orderdesk/internal/apperr"
	"orderdesk/internal/models"
)

// ProductService manages the catalog of a restaurant.
type ProductService struct {
	restaurants RestaurantReader
	products    ProductStore
	logger      *zerolog.Logger
}

// NewProductService creates the service.
func NewProductService(restaurants RestaurantReader, products ProductStore, logger *zerolog.Logger) *ProductService {
	return &ProductService{restaurants: restaurants, products: products, logger: logger}
}

// Create adds a product to restaurantID.
func (s *ProductService) Create(ctx context.Context, p access.Principal, restaurantID int64, prod *models.Product) (*models.Product, error) {
	r, err := s.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, r); err != nil {
		return nil, err
	}
	if err := normalizeProduct(prod); err != nil {
		return nil, err
	}
	prod.ID = 0
	prod.RestaurantID = r.ID

	if err := s.products.CreateProduct(ctx, prod); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info().Int64("restaurant_id", r.ID).Int64("product_id", prod.ID).Msg("product created")
	return prod, nil
}

// Update overwrites product id. Orders already placed keep their snapshots.
func (s *ProductService) Update(ctx context.Context, p access.Principal, id int64, prod *models.Product) (*models.Product, error) {
	existing, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := s.restaurants.GetRestaurant(ctx, existing.RestaurantID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, r); err != nil {
		return nil, err
	}
	if err := normalizeProduct(prod); err != nil {
		return nil, err
	}
	prod.ID = existing.ID
	prod.RestaurantID = existing.RestaurantID
	prod.CreatedAt = existing.CreatedAt

	if err := s.products.UpdateProduct(ctx, prod); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	s.logger.Info().Int64("product_id", id).Int64("price_cents", prod.PriceCents).Msg("product updated")
	return prod, nil
}

// List returns the full catalog to the restaurant's administrator and the active
// products of a published restaurant to everyone else.
func (s *ProductService) List(ctx context.Context, p access.Principal, restaurantID int64) ([]models.Product, error) {
	r, err := s.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if access.RequireOwner(p, r) == nil {
		return s.products.ListProducts(ctx, r.ID)
	}
	if !r.IsPublished {
		return nil, apperr.NotFound("restaurant", restaurantID)
	}
	return s.products.ActiveProducts(ctx, r.ID)
}

func normalizeProduct(p *models.Product) error {
	if p == nil {
		return apperr.Invalid("product", "is required")
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Name == "" {
		return apperr.Invalid("name", "is required")
	}
	if p.PriceCents < 0 {
		return apperr.Invalid("price_cents", "must not be negative")
	}
	p.Allergens = cleanList(p.Allergens)
	p.Tags = cleanList(p.Tags)
	return nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
