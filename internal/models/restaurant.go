package models

import (
	"time"

	"orderdesk/internal/schedule"
)

// Address is the postal address of a restaurant.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// ClosingDate is a calendar day on which the restaurant is fully closed.
type ClosingDate struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	Date         time.Time `json:"date"` // date only, time of day ignored
}

// Restaurant is the restaurant aggregate root.
type Restaurant struct {
	ID           int64             `json:"id"`
	AdminID      int64             `json:"admin_id"`
	Name         string            `json:"name"`
	Phone        string            `json:"phone"`
	Email        string            `json:"email"`
	Address      Address           `json:"address"`
	Description  string            `json:"description"`
	IsPublic     bool              `json:"is_public"`
	IsOpen       bool              `json:"is_open"`      // manual toggle
	IsPublished  bool              `json:"is_published"` // recomputed on every write
	PlaceWindows []schedule.Window `json:"place_windows"`
	OrderWindows []schedule.Window `json:"order_windows"`
	ClosingDates []ClosingDate     `json:"closing_dates"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// RestaurantFilter narrows restaurant listings.
type RestaurantFilter struct {
	AdminID       int64
	PublishedOnly bool
	Limit         int
	Offset        int
}
