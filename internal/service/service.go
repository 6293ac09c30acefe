// Package service orchestrates the restaurant, catalog and order rules against the stores.
package service

import (
	"context"

	"github.com/rs/zerolog"

	"orderdesk/internal/closing"
	"orderdesk/internal/database"
	"orderdesk/internal/events"
	"orderdesk/internal/models"
)

// RestaurantReader loads one restaurant aggregate, possibly through a cache.
type RestaurantReader interface {
	GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error)
}

// RestaurantStore persists restaurants.
type RestaurantStore interface {
	RestaurantReader
	CreateRestaurant(ctx context.Context, r *models.Restaurant) error
	UpdateRestaurant(ctx context.Context, r *models.Restaurant) error
	SetRestaurantOpen(ctx context.Context, id int64, open bool) error
	ListRestaurants(ctx context.Context, f models.RestaurantFilter) ([]*models.Restaurant, error)
	ListPublished(ctx context.Context, limit, offset int) ([]*models.Restaurant, error)
}

// ProductLookup returns the products a restaurant currently sells.
type ProductLookup interface {
	ActiveProducts(ctx context.Context, restaurantID int64) ([]models.Product, error)
}

// ProductStore persists products.
type ProductStore interface {
	ProductLookup
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, restaurantID int64) ([]models.Product, error)
}

// OrderStore persists orders and their status logs.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error)
	AddStatuses(ctx context.Context, restaurantID int64, orderIDs []int64, plan database.StatusPlanner) ([]*models.Order, error)
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ev events.Event) error
}

func holidayCalendar(h *closing.Shared) closing.Calendar {
	if h == nil {
		return closing.Calendar{}
	}
	return h.Load()
}

func publish(pub Publisher, logger *zerolog.Logger, ev events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ev); err != nil {
		logger.Warn().Err(err).Str("event", ev.Type).Int64("restaurant_id", ev.RestaurantID).
			Int64("order_id", ev.OrderID).Msg("event handler failed")
	}
}
