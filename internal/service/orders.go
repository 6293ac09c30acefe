package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"orderdesk/internal/access"
	"orderdesk/internal/apperr"
	"orderdesk/internal/clock"
	"orderdesk/internal/closing"
	"orderdesk/internal/events"
	"orderdesk/internal/metrics"
	"orderdesk/internal/models"
	"orderdesk/internal/order"
	"orderdesk/internal/report"
)

// OrderService places orders and moves them through their status log.
type OrderService struct {
	orders      OrderStore
	restaurants RestaurantReader
	products    ProductLookup
	machine     *order.Machine
	events      Publisher
	clock       clock.Clock
	holidays    *closing.Shared
	logger      *zerolog.Logger
}

// NewOrderService creates the service. The clock location is the one reservations and
// opening windows are interpreted in.
func NewOrderService(
	orders OrderStore,
	restaurants RestaurantReader,
	products ProductLookup,
	pub Publisher,
	clk clock.Clock,
	holidays *closing.Shared,
	logger *zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:      orders,
		restaurants: restaurants,
		products:    products,
		machine:     order.NewMachine(),
		events:      pub,
		clock:       clk,
		holidays:    holidays,
		logger:      logger,
	}
}

// Create places an order for customer p.
func (s *OrderService) Create(ctx context.Context, p access.Principal, req order.Request) (*models.Order, error) {
	if err := access.RequireRole(p, access.RoleCustomer); err != nil {
		return nil, err
	}
	req.CustomerID = p.UserID

	r, err := s.restaurants.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		metrics.IncOrderCreated("rejected")
		return nil, err
	}
	active, err := s.products.ActiveProducts(ctx, r.ID)
	if err != nil {
		metrics.IncOrderCreated("failed")
		return nil, fmt.Errorf("load products of restaurant %d: %w", r.ID, err)
	}

	now := s.clock.Now()
	req.ReservedFor = req.ReservedFor.In(now.Location())
	o, err := order.Build(req, r, active, now, holidayCalendar(s.holidays))
	if err != nil {
		metrics.IncOrderCreated("rejected")
		return nil, err
	}
	if err := s.orders.CreateOrder(ctx, o); err != nil {
		metrics.IncOrderCreated("failed")
		return nil, fmt.Errorf("create order: %w", err)
	}
	metrics.IncOrderCreated("created")

	s.logger.Info().Int64("order_id", o.ID).Str("reference", o.Reference).Int64("restaurant_id", r.ID).
		Int64("customer_id", o.CustomerID).Int64("total_cents", o.TotalPriceCents).Msg("order created")
	s.notify(events.OrderCreated, r, o)
	return o, nil
}

// Get returns an order to the customer who placed it or to its restaurant's administrator.
func (s *OrderService) Get(ctx context.Context, p access.Principal, id int64) (*models.Order, error) {
	if p.UserID <= 0 {
		return nil, apperr.ErrUnauthenticated
	}
	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.IsDeleted {
		return nil, apperr.NotFound("order", id)
	}
	r, err := s.restaurants.GetRestaurant(ctx, o.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !access.CanViewOrder(p, o, r) {
		return nil, apperr.Forbidden("user %d may not view order %d", p.UserID, id)
	}
	return o, nil
}

// ListForRestaurant returns the orders of restaurantID to its administrator.
func (s *OrderService) ListForRestaurant(ctx context.Context, p access.Principal, restaurantID int64, f models.OrderFilter) ([]*models.Order, error) {
	r, err := s.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, r); err != nil {
		return nil, err
	}
	f.RestaurantID = r.ID
	f.CustomerID = 0
	return s.orders.ListOrders(ctx, f)
}

// ListMine returns the orders placed by customer p.
func (s *OrderService) ListMine(ctx context.Context, p access.Principal, f models.OrderFilter) ([]*models.Order, error) {
	if err := access.RequireRole(p, access.RoleCustomer); err != nil {
		return nil, err
	}
	f.CustomerID = p.UserID
	f.RestaurantID = 0
	return s.orders.ListOrders(ctx, f)
}

// UpdateStatus appends state to every listed order of restaurantID. Either all orders
// move or none does; an illegal transition names the offending order.
func (s *OrderService) UpdateStatus(ctx context.Context, p access.Principal, restaurantID int64, orderIDs []int64, to models.OrderState) ([]*models.Order, error) {
	r, err := s.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, r); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, apperr.Invalid("state", "unknown state")
	}
	if len(orderIDs) == 0 {
		return nil, apperr.Invalid("order_ids", "at least one order is required")
	}

	now := s.clock.Now()
	updated, err := s.orders.AddStatuses(ctx, r.ID, orderIDs, func(orders []*models.Order) ([]models.OrderStatus, error) {
		plans, err := s.machine.PlanBatch(orders, to, now)
		if err != nil {
			return nil, err
		}
		order.Apply(plans)
		statuses := make([]models.OrderStatus, len(plans))
		for i, pl := range plans {
			statuses[i] = pl.Status
		}
		return statuses, nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrIllegalTransition) {
			metrics.IncBatchRejected()
			s.logger.Info().Err(err).Int64("restaurant_id", r.ID).Str("state", to.String()).Msg("status batch rejected")
		}
		return nil, err
	}
	metrics.AddStatusTransitions(to.String(), len(updated))

	s.logger.Info().Int64("restaurant_id", r.ID).Int("orders", len(updated)).Str("state", to.String()).Msg("statuses updated")
	for _, o := range updated {
		s.notify(events.OrderStatusChanged, r, o)
	}
	return updated, nil
}

// ExportMonth writes the restaurant's orders reserved in month (YYYY-MM) as a spreadsheet
// to w and returns the suggested file name.
func (s *OrderService) ExportMonth(ctx context.Context, p access.Principal, restaurantID int64, month string, w io.Writer) (string, error) {
	r, err := s.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return "", err
	}
	if err := access.RequireOwner(p, r); err != nil {
		return "", err
	}
	loc := s.clock.Now().Location()
	from, to, err := report.MonthRange(month, loc)
	if err != nil {
		return "", apperr.Invalid("month", err.Error())
	}

	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{RestaurantID: r.ID, From: from, To: to})
	if err != nil {
		return "", err
	}

	xw := report.NewExcelizeWriter()
	defer xw.Close()
	if err := report.WriteOrders(xw, month, orders, loc); err != nil {
		return "", fmt.Errorf("render export: %w", err)
	}
	if err := xw.Save(w); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return report.Filename(r, month), nil
}

func (s *OrderService) notify(typ string, r *models.Restaurant, o *models.Order) {
	state := ""
	if cur, ok := order.CurrentStatus(o); ok {
		state = cur.State.String()
	}
	ev, err := events.New(typ, r.ID, o.ID, events.OrderPayload{
		Reference:       o.Reference,
		RestaurantName:  r.Name,
		State:           state,
		ReservedFor:     o.ReservedFor,
		TotalPriceCents: o.TotalPriceCents,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", o.ID).Msg("encode event")
		return
	}
	publish(s.events, s.logger, ev)
}
