// Package restaurant holds the availability, publication and write rules of a restaurant.
package restaurant

import (
	"time"

	"orderdesk/internal/closing"
	"orderdesk/internal/models"
	"orderdesk/internal/schedule"
)

// Availability is derived on every read and never stored.
type Availability struct {
	OpenInPlace bool `json:"open_in_place"`
	OpenToOrder bool `json:"open_to_order"`
}

// ClosingCalendar builds the restaurant's own closing calendar overlaid with extra closures.
func ClosingCalendar(r *models.Restaurant, extra closing.Calendar) closing.Calendar {
	if r == nil {
		return extra
	}
	dates := make([]time.Time, 0, len(r.ClosingDates))
	for _, cd := range r.ClosingDates {
		dates = append(dates, cd.Date)
	}
	return closing.Merge(closing.New(dates...), extra)
}

// IsOpenInPlace reports whether guests can be seated at now.
func IsOpenInPlace(r *models.Restaurant, now time.Time, extra closing.Calendar) bool {
	return openAt(r, placeWindows, now, extra)
}

// IsOpenToOrder reports whether the restaurant accepts orders right now.
func IsOpenToOrder(r *models.Restaurant, now time.Time, extra closing.Calendar) bool {
	return openAt(r, orderWindows, now, extra)
}

// IsOrderableAt evaluates the order predicate at a reservation instant.
func IsOrderableAt(r *models.Restaurant, instant time.Time, extra closing.Calendar) bool {
	return openAt(r, orderWindows, instant, extra)
}

// Evaluate computes both availability flags at now.
func Evaluate(r *models.Restaurant, now time.Time, extra closing.Calendar) Availability {
	return Availability{
		OpenInPlace: IsOpenInPlace(r, now, extra),
		OpenToOrder: IsOpenToOrder(r, now, extra),
	}
}

func placeWindows(r *models.Restaurant) []schedule.Window { return r.PlaceWindows }

func orderWindows(r *models.Restaurant) []schedule.Window { return r.OrderWindows }

func openAt(r *models.Restaurant, windows func(*models.Restaurant) []schedule.Window, t time.Time, extra closing.Calendar) bool {
	if r == nil || !r.IsOpen {
		return false
	}
	if ClosingCalendar(r, extra).IsClosedOn(t) {
		return false
	}
	return schedule.IsOpenAt(windows(r), t)
}
