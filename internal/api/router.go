// Package api exposes the ordering services as a JSON HTTP API.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"orderdesk/internal/service"
)

// Deps are the collaborators of the router.
type Deps struct {
	Restaurants *service.RestaurantService
	Products    *service.ProductService
	Orders      *service.OrderService
	Tokens      *TokenValidator
	Logger      zerolog.Logger

	// RequestsPerSecond and Burst configure the per-client limiter; zero disables it.
	RequestsPerSecond float64
	Burst             int
}

// Handler owns the routes of the API.
type Handler struct {
	restaurants *service.RestaurantService
	products    *service.ProductService
	orders      *service.OrderService
}

// NewRouter builds the API handler with its middleware stack.
func NewRouter(d Deps) http.Handler {
	h := &Handler{restaurants: d.Restaurants, products: d.Products, orders: d.Orders}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/restaurants", h.listRestaurants)
	mux.HandleFunc("GET /api/restaurants/mine", h.listMyRestaurants)
	mux.HandleFunc("POST /api/restaurants", h.createRestaurant)
	mux.HandleFunc("GET /api/restaurants/{id}", h.getRestaurant)
	mux.HandleFunc("PUT /api/restaurants/{id}", h.updateRestaurant)
	mux.HandleFunc("PATCH /api/restaurants/{id}/open", h.setRestaurantOpen)

	mux.HandleFunc("GET /api/restaurants/{id}/products", h.listProducts)
	mux.HandleFunc("POST /api/restaurants/{id}/products", h.createProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.updateProduct)

	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders", h.listMyOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("GET /api/restaurants/{id}/orders", h.listRestaurantOrders)
	mux.HandleFunc("POST /api/restaurants/{id}/orders/status", h.updateOrderStatus)
	mux.HandleFunc("GET /api/restaurants/{id}/orders/export", h.exportOrders)

	logger := d.Logger.With().Str("component", "api").Logger()
	return chain(mux,
		requestLogger(logger),
		recoverer,
		rateLimit(newClientLimiter(d.RequestsPerSecond, d.Burst)),
		authenticate(d.Tokens),
		instrument,
	)
}
