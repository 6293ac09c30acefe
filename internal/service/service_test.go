package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"orderdesk/internal/access"
	"orderdesk/internal/database"
	"orderdesk/internal/events"
	"orderdesk/internal/models"
	"orderdesk/internal/schedule"
)

type mockRestaurants struct {
	mock.Mock
}

func (m *mockRestaurants) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Restaurant), args.Error(1)
}
func (m *mockRestaurants) CreateRestaurant(ctx context.Context, r *models.Restaurant) error { return m.Called(ctx, r).Error(0) }
func (m *mockRestaurants) UpdateRestaurant(ctx context.Context, r *models.Restaurant) error { return m.Called(ctx, r).Error(0) }
func (m *mockRestaurants) SetRestaurantOpen(ctx context.Context, id int64, open bool) error { return m.Called(ctx, id, open).Error(0) }
func (m *mockRestaurants) ListRestaurants(ctx context.Context, f models.RestaurantFilter) ([]*models.Restaurant, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]*models.Restaurant), args.Error(1)
}
func (m *mockRestaurants) ListPublished(ctx context.Context, limit, offset int) ([]*models.Restaurant, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Restaurant), args.Error(1)
}

type mockProducts struct {
	mock.Mock
}

func (m *mockProducts) ActiveProducts(ctx context.Context, id int64) ([]models.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]models.Product), args.Error(1)
}
func (m *mockProducts) CreateProduct(ctx context.Context, p *models.Product) error { return m.Called(ctx, p).Error(0) }
func (m *mockProducts) UpdateProduct(ctx context.Context, p *models.Product) error { return m.Called(ctx, p).Error(0) }
func (m *mockProducts) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}
func (m *mockProducts) ListProducts(ctx context.Context, id int64) ([]models.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]models.Product), args.Error(1)
}

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) CreateOrder(ctx context.Context, o *models.Order) error { return m.Called(ctx, o).Error(0) }
func (m *mockOrders) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}
func (m *mockOrders) ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]*models.Order), args.Error(1)
}

// AddStatuses hands the configured orders to plan the way the database does inside its transaction.
func (m *mockOrders) AddStatuses(ctx context.Context, rid int64, ids []int64, plan database.StatusPlanner) ([]*models.Order, error) {
	args := m.Called(ctx, rid, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	orders := args.Get(0).([]*models.Order)
	if _, err := plan(orders); err != nil {
		return nil, err
	}
	return orders, args.Error(1)
}

type mockBus struct {
	mock.Mock
}

func (m *mockBus) Publish(ev events.Event) error { return m.Called(ev).Error(0) }

func eventOf(typ string) interface{} {
	return mock.MatchedBy(func(ev events.Event) bool { return ev.Type == typ })
}

// Monday 2026-01-05 10:00 UTC.
var now = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

var (
	admin    = access.Principal{UserID: 10, Roles: []access.Role{access.RoleRestaurantAdmin}}
	stranger = access.Principal{UserID: 11, Roles: []access.Role{access.RoleRestaurantAdmin}}
	customer = access.Principal{UserID: 20, Roles: []access.Role{access.RoleCustomer}}
)

func discard() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func published() *models.Restaurant {
	return &models.Restaurant{
		ID:       1,
		AdminID:  10,
		Name:     "Trattoria",
		Phone:    "+39 06 1234",
		Email:    "info@trattoria.example",
		Address:  models.Address{Street: "Via Roma 1", City: "Roma", ZipCode: "00100", Country: "IT"},
		IsPublic: true,
		IsOpen:   true,
		PlaceWindows: []schedule.Window{
			{DayOfWeek: time.Monday, OffsetMinutes: 9 * 60, DurationMinutes: 8 * 60},
		},
		OrderWindows: []schedule.Window{
			{DayOfWeek: time.Monday, OffsetMinutes: 11 * 60, DurationMinutes: 3 * 60},
		},
		IsPublished: true,
	}
}
