package models

import "time"

// Order is a customer's order placed against one restaurant.
type Order struct {
	ID                int64            `json:"id"`
	Reference         string           `json:"reference"`
	CustomerID        int64            `json:"customer_id"`
	RestaurantID      int64            `json:"restaurant_id"`
	ReservedFor       time.Time        `json:"reserved_for"`
	CreatedAt         time.Time        `json:"created_at"`
	AcceptedAt        *time.Time       `json:"accepted_at,omitempty"`
	TotalPriceCents   int64            `json:"total_price_cents"`
	CustomerComment   string           `json:"customer_comment"`
	RestaurantComment *string          `json:"restaurant_comment,omitempty"`
	IsDeleted         bool             `json:"is_deleted"`
	Products          []OrderedProduct `json:"products"`
	Statuses          []OrderStatus    `json:"statuses"` // append-only log
}

// OrderedProduct is an immutable snapshot of a product taken when the order was placed.
type OrderedProduct struct {
	ID          int64    `json:"id"`
	OrderID     int64    `json:"order_id"`
	ProductID   int64    `json:"product_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Allergens   []string `json:"allergens"`
	Tags        []string `json:"tags"`
}

// OrderStatus is one entry of an order's status log.
type OrderStatus struct {
	ID       int64      `json:"id"`
	OrderID  int64      `json:"order_id"`
	State    OrderState `json:"state"`
	DateTime time.Time  `json:"date_time"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	RestaurantID int64
	CustomerID   int64
	From         time.Time
	To           time.Time
	Limit        int
	Offset       int
}
