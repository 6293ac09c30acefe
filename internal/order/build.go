package order

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"orderdesk/internal/apperr"
	"orderdesk/internal/closing"
	"orderdesk/internal/models"
	"orderdesk/internal/restaurant"
)

// MaxCommentLength limits the customer comment, counted in characters.
const MaxCommentLength = 500

// Request is a customer's intent to order.
type Request struct {
	CustomerID   int64     `json:"customer_id"`
	RestaurantID int64     `json:"restaurant_id"`
	ProductIDs   []int64   `json:"product_ids"`
	ReservedFor  time.Time `json:"reserved_for"`
	Comment      string    `json:"comment"`
}

// Build checks that req can be placed against r and returns the order to persist:
// product snapshots, total price and an initial Idling status stamped at now.
// A product id listed twice is ordered twice.
func Build(req Request, r *models.Restaurant, active []models.Product, now time.Time, holidays closing.Calendar) (*models.Order, error) {
	if r == nil {
		return nil, apperr.NotFound("restaurant", req.RestaurantID)
	}
	if req.CustomerID <= 0 {
		return nil, apperr.Invalid("customer_id", "is required")
	}
	if len(req.ProductIDs) == 0 {
		return nil, apperr.Invalid("product_ids", "at least one product is required")
	}
	comment := strings.TrimSpace(req.Comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return nil, apperr.Invalid("comment", "is too long")
	}

	byID := make(map[int64]models.Product, len(active))
	for _, p := range active {
		if p.IsActive && p.RestaurantID == r.ID {
			byID[p.ID] = p
		}
	}
	snapshots := make([]models.OrderedProduct, 0, len(req.ProductIDs))
	var total int64
	for _, id := range req.ProductIDs {
		p, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound("product", id)
		}
		snapshots = append(snapshots, snapshot(p))
		total += p.PriceCents
	}

	if !r.IsPublished {
		return nil, apperr.Invalid("restaurant_id", "restaurant is not published")
	}
	if req.ReservedFor.IsZero() {
		return nil, apperr.Invalid("reserved_for", "is required")
	}
	if req.ReservedFor.Before(now) {
		return nil, apperr.Invalid("reserved_for", "is in the past")
	}
	if !restaurant.IsOrderableAt(r, req.ReservedFor, holidays) {
		return nil, apperr.Invalid("reserved_for", "restaurant does not take orders at that time")
	}

	return &models.Order{
		Reference:       uuid.NewString(),
		CustomerID:      req.CustomerID,
		RestaurantID:    r.ID,
		ReservedFor:     req.ReservedFor,
		CreatedAt:       now,
		TotalPriceCents: total,
		CustomerComment: comment,
		Products:        snapshots,
		Statuses:        []models.OrderStatus{{State: models.StateIdling, DateTime: now}},
	}, nil
}

func snapshot(p models.Product) models.OrderedProduct {
	return models.OrderedProduct{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Allergens:   append([]string(nil), p.Allergens...),
		Tags:        append([]string(nil), p.Tags...),
	}
}
