package models

import "time"

// Product is a purchasable item of one restaurant. Prices are in minor units.
type Product struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceCents   int64     `json:"price_cents"`
	Allergens    []string  `json:"allergens"`
	Tags         []string  `json:"tags"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
