package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OrderState is the state carried by an order status entry. The progression states
// are ordered by ordinal; Canceled, Rejected and Other sit outside the progression.
type OrderState int

const (
	StateIdling OrderState = iota
	StateAcknowledged
	StateInPreparation
	StateReady
	StateDelivered
	StateCanceled
	StateRejected
	StateOther
)

var stateNames = map[OrderState]string{
	StateIdling:        "idling",
	StateAcknowledged:  "acknowledged",
	StateInPreparation: "in_preparation",
	StateReady:         "ready",
	StateDelivered:     "delivered",
	StateCanceled:      "canceled",
	StateRejected:      "rejected",
	StateOther:         "other",
}

// AllStates lists every state in ordinal order.
var AllStates = []OrderState{
	StateIdling, StateAcknowledged, StateInPreparation, StateReady, StateDelivered,
	StateCanceled, StateRejected, StateOther,
}

func (s OrderState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Valid reports whether s is a known state.
func (s OrderState) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// IsException reports whether s is reachable from any state without ordinal constraint.
func (s OrderState) IsException() bool {
	return s == StateCanceled || s == StateRejected || s == StateOther
}

// ParseOrderState converts a state name (case-insensitive) into an OrderState.
func ParseOrderState(raw string) (OrderState, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for state, name := range stateNames {
		if name == key {
			return state, nil
		}
	}
	return 0, fmt.Errorf("unknown order state %q", raw)
}

func (s OrderState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("order state must be a string: %w", err)
	}
	parsed, err := ParseOrderState(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
