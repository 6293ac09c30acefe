// Package events is the in-process bus carrying order and restaurant events.
package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	RestaurantChanged  = "restaurant.changed"
)

// Event represents a lightweight domain event.
type Event struct {
	Type         string
	RestaurantID int64
	OrderID      int64
	Payload      []byte // JSON
	CreatedAt    time.Time
}

// New builds an event with payload marshalled to JSON.
func New(eventType string, restaurantID, orderID int64, payload any) (Event, error) {
	ev := Event{Type: eventType, RestaurantID: restaurantID, OrderID: orderID}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		ev.Payload = data
	}
	return ev, nil
}

// Decode unmarshals the payload into out.
func (e Event) Decode(out any) error {
	if len(e.Payload) == 0 {
		return errors.New("event has no payload")
	}
	return json.Unmarshal(e.Payload, out)
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs every subscriber of the event type synchronously and returns their
// failures joined. A failing handler does not stop the others.
func (b *EventBus) Publish(event Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OrderPayload is carried by order events.
type OrderPayload struct {
	Reference       string    `json:"reference"`
	RestaurantName  string    `json:"restaurant_name"`
	State           string    `json:"state"`
	ReservedFor     time.Time `json:"reserved_for"`
	TotalPriceCents int64     `json:"total_price_cents"`
}
