package order

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/apperr"
	"orderdesk/internal/models"
)

var t0 = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

func orderIn(id int64, states ...models.OrderState) *models.Order {
	o := &models.Order{ID: id}
	for i, s := range states {
		o.Statuses = append(o.Statuses, models.OrderStatus{OrderID: id, State: s, DateTime: t0.Add(time.Duration(i) * time.Minute)})
	}
	return o
}

func TestCanTransition_Table(t *testing.T) {
	progression := []models.OrderState{
		models.StateIdling, models.StateAcknowledged, models.StateInPreparation, models.StateReady, models.StateDelivered,
	}
	for _, from := range progression {
		for _, to := range progression {
			want := int(to) == int(from)+1
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	for _, from := range models.AllStates {
		assert.True(t, CanTransition(from, models.StateCanceled), "%s -> canceled", from)
		assert.True(t, CanTransition(from, models.StateRejected), "%s -> rejected", from)
		assert.True(t, CanTransition(from, models.StateOther), "%s -> other", from)
	}
	assert.False(t, CanTransition(models.StateCanceled, models.StateAcknowledged))
	assert.False(t, CanTransition(models.OrderState(99), models.StateCanceled))
}

func TestCurrentStatus(t *testing.T) {
	_, ok := CurrentStatus(&models.Order{})
	assert.False(t, ok)

	o := &models.Order{Statuses: []models.OrderStatus{
		{State: models.StateAcknowledged, DateTime: t0.Add(time.Hour)},
		{State: models.StateIdling, DateTime: t0},
	}}
	cur, ok := CurrentStatus(o)
	require.True(t, ok)
	assert.Equal(t, models.StateAcknowledged, cur.State)

	// Equal timestamps: the later log entry wins.
	o = &models.Order{Statuses: []models.OrderStatus{
		{State: models.StateIdling, DateTime: t0},
		{State: models.StateCanceled, DateTime: t0},
	}}
	cur, _ = CurrentStatus(o)
	assert.Equal(t, models.StateCanceled, cur.State)
}

func TestAppend_SkippingIsIllegal(t *testing.T) {
	m := NewMachine()
	o := orderIn(11, models.StateIdling)

	_, err := m.Append(o, models.StateInPreparation, t0.Add(time.Hour))
	var ierr *apperr.IllegalStateTransitionError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, int64(11), ierr.OrderID)
	assert.Equal(t, "idling", ierr.From)
	assert.Equal(t, "in_preparation", ierr.To)
	assert.True(t, errors.Is(err, apperr.ErrIllegalTransition))
	assert.Len(t, o.Statuses, 1)

	_, err = m.Append(o, models.StateAcknowledged, t0.Add(time.Hour))
	require.NoError(t, err)
	_, err = m.Append(o, models.StateInPreparation, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, o.Statuses, 3)

	cur, _ := CurrentStatus(o)
	assert.Equal(t, models.StateInPreparation, cur.State)
}

func TestAppend_CancelFromAnyState(t *testing.T) {
	m := NewMachine()
	for _, s := range []models.OrderState{
		models.StateIdling, models.StateAcknowledged, models.StateInPreparation, models.StateReady,
	} {
		o := orderIn(1, s)
		_, err := m.Append(o, models.StateCanceled, t0.Add(time.Hour))
		assert.NoError(t, err, "from %s", s)
	}
}

func TestAppend_AcceptedAtSetOnce(t *testing.T) {
	m := NewMachine()
	o := orderIn(5, models.StateIdling)

	first := t0.Add(time.Hour)
	_, err := m.Append(o, models.StateAcknowledged, first)
	require.NoError(t, err)
	require.NotNil(t, o.AcceptedAt)
	assert.Equal(t, first, *o.AcceptedAt)

	_, err = m.Append(o, models.StateOther, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, *o.AcceptedAt)
}

func TestAppend_EmptyLog(t *testing.T) {
	_, err := NewMachine().Append(&models.Order{ID: 4}, models.StateCanceled, t0)
	assert.True(t, errors.Is(err, apperr.ErrIllegalTransition))
}

func TestAppend_UnknownTarget(t *testing.T) {
	_, err := NewMachine().Append(orderIn(4, models.StateIdling), models.OrderState(42), t0)
	assert.True(t, apperr.IsValidation(err))
}

func TestPlanBatch_AllOrNothing(t *testing.T) {
	m := NewMachine()
	o1 := orderIn(1, models.StateIdling)
	o2 := orderIn(2, models.StateIdling, models.StateAcknowledged)

	plans, err := m.PlanBatch([]*models.Order{o1, o2}, models.StateAcknowledged, t0.Add(time.Hour))
	require.Error(t, err)
	assert.Nil(t, plans)

	var ierr *apperr.IllegalStateTransitionError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, int64(2), ierr.OrderID)

	assert.Len(t, o1.Statuses, 1)
	assert.Len(t, o2.Statuses, 2)
	assert.Nil(t, o1.AcceptedAt)
}

func TestPlanBatch_Success(t *testing.T) {
	m := NewMachine()
	o1 := orderIn(1, models.StateIdling)
	o2 := orderIn(2, models.StateReady)

	plans, err := m.PlanBatch([]*models.Order{o1, o2}, models.StateCanceled, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Len(t, o1.Statuses, 1, "planning must not mutate")

	Apply(plans)
	for _, o := range []*models.Order{o1, o2} {
		cur, _ := CurrentStatus(o)
		assert.Equal(t, models.StateCanceled, cur.State)
	}
}

func TestPlanBatch_RejectsDuplicatesAndEmpty(t *testing.T) {
	m := NewMachine()
	o := orderIn(1, models.StateIdling)

	_, err := m.PlanBatch([]*models.Order{o, o}, models.StateAcknowledged, t0)
	assert.True(t, apperr.IsValidation(err))

	_, err = m.PlanBatch(nil, models.StateAcknowledged, t0)
	assert.True(t, apperr.IsValidation(err))
}
