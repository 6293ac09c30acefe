// Package schedule implements recurring weekly opening windows.
//
// A window is anchored on a weekday and a minute offset from that day's midnight and
// lasts for a number of minutes. All comparisons happen on the minute-of-week number
// line 0..MinutesPerWeek-1, with Sunday 00:00 as minute zero. A window may spill past
// the end of the week; such windows wrap into the following Sunday.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"orderdesk/internal/apperr"
)

const (
	MinutesPerDay  = 24 * 60
	MinutesPerWeek = 7 * MinutesPerDay
)

// Window is one weekly opening interval.
type Window struct {
	DayOfWeek       time.Weekday `json:"day_of_week"`      // 0 = Sunday
	OffsetMinutes   int          `json:"offset_minutes"`   // minutes since midnight
	DurationMinutes int          `json:"duration_minutes"` // 1..MinutesPerWeek
}

// Validate checks the window's own fields.
func (w Window) Validate() error {
	if w.DayOfWeek < time.Sunday || w.DayOfWeek > time.Saturday {
		return apperr.Invalid("day_of_week", fmt.Sprintf("must be within 0..6, got %d", w.DayOfWeek))
	}
	if w.OffsetMinutes < 0 || w.OffsetMinutes >= MinutesPerDay {
		return apperr.Invalid("offset_minutes", fmt.Sprintf("must be within 0..%d, got %d", MinutesPerDay-1, w.OffsetMinutes))
	}
	if w.DurationMinutes < 1 || w.DurationMinutes > MinutesPerWeek {
		return apperr.Invalid("duration_minutes", fmt.Sprintf("must be within 1..%d, got %d", MinutesPerWeek, w.DurationMinutes))
	}
	return nil
}

// StartOfWeekMinute returns dayOfWeek*1440 + offsetMinutes.
func (w Window) StartOfWeekMinute() (int, error) {
	if w.DayOfWeek < time.Sunday || w.DayOfWeek > time.Saturday {
		return 0, apperr.Invalid("day_of_week", fmt.Sprintf("must be within 0..6, got %d", w.DayOfWeek))
	}
	if w.OffsetMinutes < 0 || w.OffsetMinutes >= MinutesPerDay {
		return 0, apperr.Invalid("offset_minutes", fmt.Sprintf("must be within 0..%d, got %d", MinutesPerDay-1, w.OffsetMinutes))
	}
	return int(w.DayOfWeek)*MinutesPerDay + w.OffsetMinutes, nil
}

// EndOfWeekMinute returns the start minute plus the duration. The result is not
// clamped and exceeds MinutesPerWeek-1 for windows that cross into the next week.
func (w Window) EndOfWeekMinute() (int, error) {
	start, err := w.StartOfWeekMinute()
	if err != nil {
		return 0, err
	}
	return start + w.DurationMinutes, nil
}

// String renders the window as "Sat 22:00 +240m".
func (w Window) String() string {
	return fmt.Sprintf("%s %02d:%02d +%dm",
		w.DayOfWeek.String()[:3], w.OffsetMinutes/60, w.OffsetMinutes%60, w.DurationMinutes)
}

// bounds is start/end without error handling, for windows already validated.
func (w Window) bounds() (start, end int) {
	start = int(w.DayOfWeek)*MinutesPerDay + w.OffsetMinutes
	return start, start + w.DurationMinutes
}

// Ascending returns a copy of windows stably sorted by (start, end) minute of week.
func Ascending(windows []Window) []Window {
	out := make([]Window, len(windows))
	copy(out, windows)
	sort.SliceStable(out, func(i, j int) bool {
		si, ei := out[i].bounds()
		sj, ej := out[j].bounds()
		if si != sj {
			return si < sj
		}
		return ei < ej
	})
	return out
}

// MinuteOfWeek converts t into its minute-of-week in t's own location.
func MinuteOfWeek(t time.Time) int {
	return int(t.Weekday())*MinutesPerDay + t.Hour()*60 + t.Minute()
}
