package schedule

import (
	"fmt"
	"time"

	"orderdesk/internal/apperr"
)

// OverlapError reports two windows of one schedule whose intervals touch or intersect.
type OverlapError struct {
	Previous Window
	Current  Window
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("opening window %s overlaps %s", e.Current, e.Previous)
}

func (e *OverlapError) Unwrap() error { return apperr.ErrValidation }

// ValidateNoOverlap checks every window and then rejects any pair that touches or
// intersects. Touching boundaries count as a conflict.
func ValidateNoOverlap(windows []Window) error {
	for i, w := range windows {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("window %d: %w", i, err)
		}
	}
	if len(windows) < 2 {
		return nil
	}

	sorted := Ascending(windows)
	for i := 1; i < len(sorted); i++ {
		_, prevEnd := sorted[i-1].bounds()
		curStart, _ := sorted[i].bounds()
		if curStart <= prevEnd {
			return &OverlapError{Previous: sorted[i-1], Current: sorted[i]}
		}
	}

	// The last window may spill past the end of the week onto the first one.
	first, last := sorted[0], sorted[len(sorted)-1]
	firstStart, _ := first.bounds()
	_, lastEnd := last.bounds()
	if lastEnd-MinutesPerWeek >= firstStart {
		return &OverlapError{Previous: last, Current: first}
	}
	return nil
}

// Schedule is a validated, ascending set of non-overlapping windows.
type Schedule struct {
	windows []Window
}

// New validates windows and returns them as a schedule in ascending order.
func New(windows []Window) (Schedule, error) {
	if err := ValidateNoOverlap(windows); err != nil {
		return Schedule{}, err
	}
	return Schedule{windows: Ascending(windows)}, nil
}

// Windows returns a copy of the schedule's windows in ascending order.
func (s Schedule) Windows() []Window {
	out := make([]Window, len(s.windows))
	copy(out, s.windows)
	return out
}

// Len returns the number of windows.
func (s Schedule) Len() int { return len(s.windows) }

// IsOpenAt reports whether t falls inside any window. Both bounds are inclusive and
// windows that run past the end of the week cover the start of the next one.
func (s Schedule) IsOpenAt(t time.Time) bool {
	return containsMinute(s.windows, MinuteOfWeek(t))
}

// IsOpenAt evaluates the predicate directly on a window list without validating it.
func IsOpenAt(windows []Window, t time.Time) bool {
	return containsMinute(windows, MinuteOfWeek(t))
}

func containsMinute(windows []Window, minute int) bool {
	for _, w := range windows {
		start, err := w.StartOfWeekMinute()
		if err != nil {
			continue
		}
		diff := ((minute-start)%MinutesPerWeek + MinutesPerWeek) % MinutesPerWeek
		if diff <= w.DurationMinutes {
			return true
		}
	}
	return false
}
