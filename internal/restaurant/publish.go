package restaurant

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"orderdesk/internal/apperr"
	"orderdesk/internal/closing"
	"orderdesk/internal/models"
	"orderdesk/internal/schedule"
)

// CanPublish reports whether r may be listed publicly. An empty order schedule blocks
// publication because such a restaurant could never accept an order.
func CanPublish(r *models.Restaurant) bool {
	if r == nil || !r.IsPublic || r.AdminID <= 0 {
		return false
	}
	required := []string{
		r.Name, r.Phone, r.Email,
		r.Address.Street, r.Address.City, r.Address.ZipCode, r.Address.Country,
	}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return len(r.OrderWindows) > 0
}

// Validate rejects a restaurant write before anything is stored.
func Validate(r *models.Restaurant) error {
	if r == nil {
		return apperr.Invalid("restaurant", "is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Invalid("name", "is required")
	}
	if r.AdminID <= 0 {
		return apperr.Invalid("admin_id", "is required")
	}
	if email := strings.TrimSpace(r.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return apperr.Invalid("email", "is not a valid address")
		}
	}
	if err := schedule.ValidateNoOverlap(r.PlaceWindows); err != nil {
		return fmt.Errorf("place windows: %w", err)
	}
	if err := schedule.ValidateNoOverlap(r.OrderWindows); err != nil {
		return fmt.Errorf("order windows: %w", err)
	}
	for i, cd := range r.ClosingDates {
		if cd.Date.IsZero() {
			return apperr.Invalid(fmt.Sprintf("closing_dates[%d]", i), "date is required")
		}
	}
	return nil
}

// Normalize puts r into its stored shape: trimmed text, ascending windows, ascending
// distinct closing dates and a freshly computed publication flag.
func Normalize(r *models.Restaurant) {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.Address.Street = strings.TrimSpace(r.Address.Street)
	r.Address.City = strings.TrimSpace(r.Address.City)
	r.Address.ZipCode = strings.TrimSpace(r.Address.ZipCode)
	r.Address.Country = strings.TrimSpace(r.Address.Country)

	r.PlaceWindows = schedule.Ascending(r.PlaceWindows)
	r.OrderWindows = schedule.Ascending(r.OrderWindows)

	seen := make(map[string]bool, len(r.ClosingDates))
	dates := make([]models.ClosingDate, 0, len(r.ClosingDates))
	for _, cd := range r.ClosingDates {
		cd.Date = closing.DateOnly(cd.Date)
		key := cd.Date.Format(closing.DateLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		cd.RestaurantID = r.ID
		dates = append(dates, cd)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Date.Before(dates[j].Date) })
	r.ClosingDates = dates

	r.IsPublished = CanPublish(r)
}
