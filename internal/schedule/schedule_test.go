package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/apperr"
)

// 2026-01-05 is a Monday, 2026-01-10 a Saturday, 2026-01-11 a Sunday.
func at(day, hour, min int) time.Time {
	return time.Date(2026, time.January, day, hour, min, 0, 0, time.UTC)
}

func win(day time.Weekday, hour, min, duration int) Window {
	return Window{DayOfWeek: day, OffsetMinutes: hour*60 + min, DurationMinutes: duration}
}

func TestWindow_WeekMinutes(t *testing.T) {
	start, err := win(time.Monday, 10, 0, 120).StartOfWeekMinute()
	require.NoError(t, err)
	assert.Equal(t, 2040, start)

	end, err := win(time.Monday, 10, 0, 120).EndOfWeekMinute()
	require.NoError(t, err)
	assert.Equal(t, 2160, end)

	// Saturday night spills into next week without clamping.
	end, err = win(time.Saturday, 22, 0, 240).EndOfWeekMinute()
	require.NoError(t, err)
	assert.Equal(t, 10200, end)

	_, err = Window{DayOfWeek: time.Monday, OffsetMinutes: 1440, DurationMinutes: 10}.StartOfWeekMinute()
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = Window{DayOfWeek: time.Monday, OffsetMinutes: -1, DurationMinutes: 10}.EndOfWeekMinute()
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestWindow_Validate(t *testing.T) {
	assert.NoError(t, win(time.Sunday, 0, 0, MinutesPerWeek).Validate())
	assert.Error(t, win(time.Sunday, 0, 0, 0).Validate())
	assert.Error(t, win(time.Sunday, 0, 0, MinutesPerWeek+1).Validate())
	assert.Error(t, Window{DayOfWeek: 7, OffsetMinutes: 0, DurationMinutes: 10}.Validate())
}

func TestAscending_IdempotentAndDeterministic(t *testing.T) {
	a := win(time.Sunday, 9, 0, 60)
	b := win(time.Monday, 9, 0, 60)
	c := win(time.Monday, 9, 0, 30)
	d := win(time.Friday, 18, 0, 300)

	expected := []Window{a, c, b, d}
	perms := [][]Window{
		{a, b, c, d},
		{d, c, b, a},
		{b, d, a, c},
		{c, a, d, b},
	}
	for _, p := range perms {
		once := Ascending(p)
		assert.Equal(t, expected, once)
		assert.Equal(t, once, Ascending(once))
	}
}

func TestAscending_DoesNotMutateInput(t *testing.T) {
	in := []Window{win(time.Friday, 9, 0, 60), win(time.Monday, 9, 0, 60)}
	_ = Ascending(in)
	assert.Equal(t, time.Friday, in[0].DayOfWeek)
}

func TestValidateNoOverlap(t *testing.T) {
	tests := []struct {
		name    string
		windows []Window
		overlap bool
	}{
		{name: "empty", windows: nil},
		{name: "single full week", windows: []Window{win(time.Sunday, 0, 0, MinutesPerWeek)}},
		{name: "disjoint days", windows: []Window{win(time.Monday, 10, 0, 600), win(time.Tuesday, 10, 0, 600)}},
		{name: "one minute gap", windows: []Window{win(time.Monday, 10, 0, 60), win(time.Monday, 11, 1, 60)}},
		{name: "touching boundaries", windows: []Window{win(time.Monday, 10, 0, 60), win(time.Monday, 11, 0, 60)}, overlap: true},
		{name: "intersecting", windows: []Window{win(time.Monday, 10, 0, 120), win(time.Monday, 11, 0, 60)}, overlap: true},
		{name: "unsorted intersecting", windows: []Window{win(time.Monday, 11, 0, 60), win(time.Monday, 10, 0, 120)}, overlap: true},
		{name: "wraps onto sunday", windows: []Window{win(time.Sunday, 1, 0, 60), win(time.Saturday, 22, 0, 240)}, overlap: true},
		{name: "wraps before sunday", windows: []Window{win(time.Sunday, 3, 0, 60), win(time.Saturday, 22, 0, 240)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNoOverlap(tt.windows)
			if !tt.overlap {
				assert.NoError(t, err)
				return
			}
			var oe *OverlapError
			require.True(t, errors.As(err, &oe))
			assert.True(t, errors.Is(err, apperr.ErrValidation))
		})
	}
}

func TestValidateNoOverlap_RejectsInvalidWindow(t *testing.T) {
	err := ValidateNoOverlap([]Window{win(time.Monday, 10, 0, 60), {DayOfWeek: time.Monday, OffsetMinutes: 2000, DurationMinutes: 5}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	var oe *OverlapError
	assert.False(t, errors.As(err, &oe))
}

func TestNew_ValidatedScheduleKeepsStrictGaps(t *testing.T) {
	s, err := New([]Window{
		win(time.Wednesday, 18, 0, 240),
		win(time.Monday, 11, 0, 180),
		win(time.Monday, 18, 0, 240),
		win(time.Saturday, 20, 0, 360),
	})
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())

	ws := s.Windows()
	for i := 1; i < len(ws); i++ {
		_, prevEnd := ws[i-1].bounds()
		curStart, _ := ws[i].bounds()
		assert.Greater(t, curStart, prevEnd)
	}

	_, err = New([]Window{win(time.Monday, 10, 0, 60), win(time.Monday, 11, 0, 60)})
	assert.Error(t, err)
}

func TestSchedule_IsOpenAt(t *testing.T) {
	s, err := New([]Window{
		win(time.Monday, 10, 0, 120),
		win(time.Monday, 22, 0, 240),
		win(time.Saturday, 22, 0, 240),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		open bool
	}{
		{"lower bound inclusive", at(5, 10, 0), true},
		{"inside", at(5, 11, 15), true},
		{"upper bound inclusive", at(5, 12, 0), true},
		{"after upper bound", at(5, 12, 1), false},
		{"before lower bound", at(5, 9, 59), false},
		{"past midnight into tuesday", at(6, 1, 0), true},
		{"tuesday after window", at(6, 2, 1), false},
		{"saturday night", at(10, 23, 0), true},
		{"wraps into sunday", at(11, 1, 30), true},
		{"sunday upper bound", at(11, 2, 0), true},
		{"sunday after window", at(11, 2, 1), false},
		{"other day same clock", at(7, 11, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.open, s.IsOpenAt(tt.at))
		})
	}
}

func TestSchedule_EmptyNeverOpen(t *testing.T) {
	var s Schedule
	assert.False(t, s.IsOpenAt(at(5, 12, 0)))
	assert.False(t, IsOpenAt(nil, at(5, 12, 0)))
}

func TestMinuteOfWeek(t *testing.T) {
	assert.Equal(t, 0, MinuteOfWeek(at(11, 0, 0)))
	assert.Equal(t, MinutesPerWeek-1, MinuteOfWeek(at(10, 23, 59)))
	assert.Equal(t, 1440+61, MinuteOfWeek(at(5, 1, 1)))
}

func TestWindow_String(t *testing.T) {
	assert.Equal(t, "Sat 22:05 +240m", win(time.Saturday, 22, 5, 240).String())
}
