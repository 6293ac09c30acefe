package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"orderdesk/internal/access"
	"orderdesk/internal/apperr"
	"orderdesk/internal/clock"
	"orderdesk/internal/closing"
	"orderdesk/internal/events"
	"orderdesk/internal/models"
	"orderdesk/internal/restaurant"
)

// RestaurantView is a restaurant with its availability evaluated at read time.
type RestaurantView struct {
	*models.Restaurant
	Availability restaurant.Availability `json:"availability"`
}

// RestaurantService manages restaurant aggregates.
type RestaurantService struct {
	store    RestaurantStore
	reader   RestaurantReader
	events   Publisher
	clock    clock.Clock
	holidays *closing.Shared
	logger   *zerolog.Logger
}

// NewRestaurantService creates the service. reader serves single-restaurant reads and may
// be a cache in front of store; nil falls back to store.
func NewRestaurantService(
	store RestaurantStore,
	reader RestaurantReader,
	pub Publisher,
	clk clock.Clock,
	holidays *closing.Shared,
	logger *zerolog.Logger,
) *RestaurantService {
	if reader == nil {
		reader = store
	}
	return &RestaurantService{
		store:    store,
		reader:   reader,
		events:   pub,
		clock:    clk,
		holidays: holidays,
		logger:   logger,
	}
}

// Create stores a new restaurant administered by p.
func (s *RestaurantService) Create(ctx context.Context, p access.Principal, r *models.Restaurant) (*RestaurantView, error) {
	if err := access.RequireRole(p, access.RoleRestaurantAdmin); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.Invalid("restaurant", "is required")
	}
	r.ID = 0
	r.AdminID = p.UserID
	restaurant.Normalize(r)
	if err := restaurant.Validate(r); err != nil {
		return nil, err
	}

	if err := s.store.CreateRestaurant(ctx, r); err != nil {
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	s.logger.Info().Int64("restaurant_id", r.ID).Int64("admin_id", r.AdminID).
		Bool("published", r.IsPublished).Msg("restaurant created")
	s.changed(r.ID)
	return s.view(r), nil
}

// Update replaces every editable field of restaurant id, windows and closing dates included.
func (s *RestaurantService) Update(ctx context.Context, p access.Principal, id int64, r *models.Restaurant) (*RestaurantView, error) {
	if r == nil {
		return nil, apperr.Invalid("restaurant", "is required")
	}
	existing, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, existing); err != nil {
		return nil, err
	}

	r.ID = existing.ID
	r.AdminID = existing.AdminID
	r.CreatedAt = existing.CreatedAt
	restaurant.Normalize(r)
	if err := restaurant.Validate(r); err != nil {
		return nil, err
	}

	if err := s.store.UpdateRestaurant(ctx, r); err != nil {
		return nil, fmt.Errorf("update restaurant %d: %w", id, err)
	}
	s.logger.Info().Int64("restaurant_id", r.ID).Bool("published", r.IsPublished).Msg("restaurant updated")
	s.changed(r.ID)
	return s.view(r), nil
}

// SetOpen flips the manual open toggle of restaurant id.
func (s *RestaurantService) SetOpen(ctx context.Context, p access.Principal, id int64, open bool) (*RestaurantView, error) {
	r, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, r); err != nil {
		return nil, err
	}
	if err := s.store.SetRestaurantOpen(ctx, id, open); err != nil {
		return nil, fmt.Errorf("toggle restaurant %d: %w", id, err)
	}
	r.IsOpen = open
	s.logger.Info().Int64("restaurant_id", id).Bool("open", open).Msg("restaurant toggled")
	s.changed(id)
	return s.view(r), nil
}

// Get returns a published restaurant, or an unpublished one to its administrator.
func (s *RestaurantService) Get(ctx context.Context, p access.Principal, id int64) (*RestaurantView, error) {
	r, err := s.reader.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsPublished && access.RequireOwner(p, r) != nil {
		return nil, apperr.NotFound("restaurant", id)
	}
	return s.view(r), nil
}

// ListPublished pages through the published restaurants.
func (s *RestaurantService) ListPublished(ctx context.Context, limit, offset int) ([]*RestaurantView, error) {
	list, err := s.store.ListPublished(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.views(list), nil
}

// ListMine returns every restaurant administered by p.
func (s *RestaurantService) ListMine(ctx context.Context, p access.Principal) ([]*RestaurantView, error) {
	if err := access.RequireRole(p, access.RoleRestaurantAdmin); err != nil {
		return nil, err
	}
	list, err := s.store.ListRestaurants(ctx, models.RestaurantFilter{AdminID: p.UserID})
	if err != nil {
		return nil, err
	}
	return s.views(list), nil
}

func (s *RestaurantService) view(r *models.Restaurant) *RestaurantView {
	return &RestaurantView{
		Restaurant:   r,
		Availability: restaurant.Evaluate(r, s.clock.Now(), holidayCalendar(s.holidays)),
	}
}

func (s *RestaurantService) views(list []*models.Restaurant) []*RestaurantView {
	out := make([]*RestaurantView, 0, len(list))
	for _, r := range list {
		out = append(out, s.view(r))
	}
	return out
}

func (s *RestaurantService) changed(id int64) {
	ev, err := events.New(events.RestaurantChanged, id, 0, nil)
	if err != nil {
		return
	}
	publish(s.events, s.logger, ev)
}
