package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/apperr"
	"orderdesk/internal/clock"
	"orderdesk/internal/closing"
	"orderdesk/internal/models"
	"orderdesk/internal/schedule"
)

func newRestaurantService(store *mockRestaurants, bus *mockBus, holidays *closing.Shared) *RestaurantService {
	return NewRestaurantService(store, nil, bus, clock.NewFixed(now), holidays, discard())
}

func TestRestaurantService_Create(t *testing.T) {
	store := new(mockRestaurants)
	bus := new(mockBus)
	svc := newRestaurantService(store, bus, nil)
	ctx := context.Background()

	in := published()
	in.ID, in.AdminID, in.IsPublished = 99, 0, false
	in.Name = "  Trattoria  "
	in.OrderWindows = []schedule.Window{
		{DayOfWeek: time.Friday, OffsetMinutes: 600, DurationMinutes: 60},
		{DayOfWeek: time.Monday, OffsetMinutes: 600, DurationMinutes: 60},
	}

	store.On("CreateRestaurant", ctx, mock.MatchedBy(func(r *models.Restaurant) bool {
		return r.ID == 0 && r.AdminID == 10 && r.Name == "Trattoria" && r.IsPublished &&
			r.OrderWindows[0].DayOfWeek == time.Monday
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Restaurant).ID = 3
	}).Return(nil).Once()
	bus.On("Publish", eventOf("restaurant.changed")).Return(nil).Once()

	view, err := svc.Create(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, int64(3), view.ID)
	assert.True(t, view.IsPublished)
	store.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestRestaurantService_CreateRejects(t *testing.T) {
	store := new(mockRestaurants)
	svc := newRestaurantService(store, new(mockBus), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, customer, published())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	overlapping := published()
	overlapping.OrderWindows = []schedule.Window{
		{DayOfWeek: time.Monday, OffsetMinutes: 600, DurationMinutes: 60},
		{DayOfWeek: time.Monday, OffsetMinutes: 660, DurationMinutes: 60},
	}
	_, err = svc.Create(ctx, admin, overlapping)
	assert.True(t, apperr.IsValidation(err))

	store.AssertNotCalled(t, "CreateRestaurant", mock.Anything, mock.Anything)
}

func TestRestaurantService_Update(t *testing.T) {
	store := new(mockRestaurants)
	bus := new(mockBus)
	svc := newRestaurantService(store, bus, nil)
	ctx := context.Background()

	created := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	existing := published()
	existing.CreatedAt = created
	store.On("GetRestaurant", ctx, int64(1)).Return(existing, nil)

	t.Run("owner replaces everything", func(t *testing.T) {
		in := published()
		in.AdminID = 77
		in.IsPublic = false
		in.ClosingDates = []models.ClosingDate{
			{Date: time.Date(2026, 1, 6, 15, 0, 0, 0, time.UTC)},
			{Date: time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC)},
		}
		store.On("UpdateRestaurant", ctx, mock.MatchedBy(func(r *models.Restaurant) bool {
			return r.ID == 1 && r.AdminID == 10 && r.CreatedAt.Equal(created) && !r.IsPublished && len(r.ClosingDates) == 1
		})).Return(nil).Once()
		bus.On("Publish", eventOf("restaurant.changed")).Return(errors.New("redis down")).Once()

		view, err := svc.Update(ctx, admin, 1, in)
		require.NoError(t, err)
		assert.False(t, view.IsPublished)
	})

	t.Run("non owner", func(t *testing.T) {
		_, err := svc.Update(ctx, stranger, 1, published())
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	store.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestRestaurantService_SetOpen(t *testing.T) {
	store := new(mockRestaurants)
	bus := new(mockBus)
	svc := newRestaurantService(store, bus, nil)
	ctx := context.Background()

	store.On("GetRestaurant", ctx, int64(1)).Return(published(), nil).Once()
	store.On("SetRestaurantOpen", ctx, int64(1), false).Return(nil).Once()
	bus.On("Publish", eventOf("restaurant.changed")).Return(nil).Once()

	view, err := svc.SetOpen(ctx, admin, 1, false)
	require.NoError(t, err)
	assert.False(t, view.IsOpen)
	assert.False(t, view.Availability.OpenInPlace)
	assert.False(t, view.Availability.OpenToOrder)
	store.AssertExpectations(t)
}

func TestRestaurantService_GetAvailability(t *testing.T) {
	store := new(mockRestaurants)
	holidays := new(closing.Shared)
	svc := newRestaurantService(store, new(mockBus), holidays)
	ctx := context.Background()

	store.On("GetRestaurant", ctx, int64(1)).Return(published(), nil)

	// 10:00 Monday: inside the place window, before the order window.
	view, err := svc.Get(ctx, customer, 1)
	require.NoError(t, err)
	assert.True(t, view.Availability.OpenInPlace)
	assert.False(t, view.Availability.OpenToOrder)

	holidays.Store(closing.New(now))
	view, err = svc.Get(ctx, customer, 1)
	require.NoError(t, err)
	assert.False(t, view.Availability.OpenInPlace)
}

func TestRestaurantService_GetUnpublished(t *testing.T) {
	store := new(mockRestaurants)
	svc := newRestaurantService(store, new(mockBus), nil)
	ctx := context.Background()

	draft := published()
	draft.IsPublished = false
	store.On("GetRestaurant", ctx, int64(1)).Return(draft, nil)

	_, err := svc.Get(ctx, customer, 1)
	assert.True(t, apperr.IsNotFound(err))

	view, err := svc.Get(ctx, admin, 1)
	require.NoError(t, err)
	assert.Equal(t, "Trattoria", view.Name)
}

func TestRestaurantService_Lists(t *testing.T) {
	store := new(mockRestaurants)
	svc := newRestaurantService(store, new(mockBus), nil)
	ctx := context.Background()

	store.On("ListPublished", ctx, 20, 0).Return([]*models.Restaurant{published()}, nil).Once()
	store.On("ListRestaurants", ctx, models.RestaurantFilter{AdminID: 10}).Return([]*models.Restaurant{published()}, nil).Once()

	list, err := svc.ListPublished(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Availability.OpenInPlace)

	mine, err := svc.ListMine(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = svc.ListMine(ctx, customer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	store.AssertExpectations(t)
}
