// Package order implements the order status machine and the rules for placing an order.
package order

import (
	"fmt"
	"time"

	"orderdesk/internal/apperr"
	"orderdesk/internal/models"
)

// Machine validates and applies status transitions.
type Machine struct {
	transitions map[models.OrderState][]models.OrderState
}

// NewMachine creates a machine where each progression state leads to its ordinal
// successor and every state leads to Canceled, Rejected and Other.
func NewMachine() *Machine {
	transitions := make(map[models.OrderState][]models.OrderState, len(models.AllStates))
	for _, from := range models.AllStates {
		var allowed []models.OrderState
		if !from.IsException() && from+1 <= models.StateDelivered {
			allowed = append(allowed, from+1)
		}
		allowed = append(allowed, models.StateCanceled, models.StateRejected, models.StateOther)
		transitions[from] = allowed
	}
	return &Machine{transitions: transitions}
}

var defaultMachine = NewMachine()

// CanTransition checks the transition against the default machine.
func CanTransition(from, to models.OrderState) bool {
	return defaultMachine.CanTransition(from, to)
}

// CanTransition checks if transition is allowed.
func (m *Machine) CanTransition(from, to models.OrderState) bool {
	allowed, ok := m.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// CurrentStatus returns the entry with the latest timestamp; on equal timestamps the
// later log entry wins. ok is false for an empty log.
func CurrentStatus(o *models.Order) (status models.OrderStatus, ok bool) {
	if o == nil || len(o.Statuses) == 0 {
		return models.OrderStatus{}, false
	}
	current := o.Statuses[0]
	for _, s := range o.Statuses[1:] {
		if !s.DateTime.Before(current.DateTime) {
			current = s
		}
	}
	return current, true
}

// Planned is a validated status append that has not been applied yet.
type Planned struct {
	Order  *models.Order
	Status models.OrderStatus
	// Accepts is set when this append reaches Acknowledged for the first time.
	Accepts bool
}

// Plan validates a single transition of o to to at now.
func (m *Machine) Plan(o *models.Order, to models.OrderState, now time.Time) (Planned, error) {
	if !to.Valid() {
		return Planned{}, apperr.Invalid("state", fmt.Sprintf("unknown state %d", int(to)))
	}
	current, ok := CurrentStatus(o)
	if !ok {
		return Planned{}, &apperr.IllegalStateTransitionError{OrderID: orderID(o), From: "none", To: to.String()}
	}
	if !m.CanTransition(current.State, to) {
		return Planned{}, &apperr.IllegalStateTransitionError{OrderID: o.ID, From: current.State.String(), To: to.String()}
	}
	return Planned{
		Order:   o,
		Status:  models.OrderStatus{OrderID: o.ID, State: to, DateTime: now},
		Accepts: to == models.StateAcknowledged && o.AcceptedAt == nil,
	}, nil
}

// Append validates and applies a single transition to o.
func (m *Machine) Append(o *models.Order, to models.OrderState, now time.Time) (models.OrderStatus, error) {
	p, err := m.Plan(o, to, now)
	if err != nil {
		return models.OrderStatus{}, err
	}
	Apply([]Planned{p})
	return p.Status, nil
}

// PlanBatch validates the transition of every order before anything is applied. The
// first illegal order aborts the batch and no plan is returned.
func (m *Machine) PlanBatch(orders []*models.Order, to models.OrderState, now time.Time) ([]Planned, error) {
	if len(orders) == 0 {
		return nil, apperr.Invalid("order_ids", "at least one order is required")
	}
	seen := make(map[int64]bool, len(orders))
	plans := make([]Planned, 0, len(orders))
	for _, o := range orders {
		id := orderID(o)
		if seen[id] {
			return nil, apperr.Invalid("order_ids", fmt.Sprintf("order %d listed more than once", id))
		}
		seen[id] = true

		p, err := m.Plan(o, to, now)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// Apply appends each planned status to its order and stamps first acceptance.
func Apply(plans []Planned) {
	for _, p := range plans {
		p.Order.Statuses = append(p.Order.Statuses, p.Status)
		if p.Accepts {
			at := p.Status.DateTime
			p.Order.AcceptedAt = &at
		}
	}
}

func orderID(o *models.Order) int64 {
	if o == nil {
		return 0
	}
	return o.ID
}
