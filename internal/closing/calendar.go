// Package closing holds specific calendar dates on which a restaurant is closed
// regardless of its weekly schedule.
package closing

import (
	"sort"
	"sync/atomic"
	"time"
)

// DateLayout is the canonical text form of a closing date.
const DateLayout = "2006-01-02"

type day struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time) day {
	y, m, d := t.Date()
	return day{year: y, month: m, day: d}
}

func (d day) time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Calendar is a flat set of closed dates. Time of day is ignored.
type Calendar struct {
	days map[day]struct{}
}

// New builds a calendar from dates; each date is reduced to its calendar day as seen
// in its own location.
func New(dates ...time.Time) Calendar {
	c := Calendar{days: make(map[day]struct{}, len(dates))}
	for _, d := range dates {
		c.days[dayOf(d)] = struct{}{}
	}
	return c
}

// IsClosedOn reports whether date's calendar day is in the set.
func (c Calendar) IsClosedOn(date time.Time) bool {
	if len(c.days) == 0 {
		return false
	}
	_, ok := c.days[dayOf(date)]
	return ok
}

// Len returns the number of distinct closed days.
func (c Calendar) Len() int { return len(c.days) }

// Dates returns the closed days ascending, as UTC midnights.
func (c Calendar) Dates() []time.Time {
	out := make([]time.Time, 0, len(c.days))
	for d := range c.days {
		out = append(out, d.time())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Merge returns the union of the given calendars.
func Merge(calendars ...Calendar) Calendar {
	out := Calendar{days: make(map[day]struct{})}
	for _, c := range calendars {
		for d := range c.days {
			out.days[d] = struct{}{}
		}
	}
	return out
}

// ParseDate parses a YYYY-MM-DD closing date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DateOnly truncates t to midnight of its calendar day in UTC, which is how closing
// dates are stored.
func DateOnly(t time.Time) time.Time {
	return dayOf(t).time()
}

// Shared holds a calendar that can be swapped while readers use it.
type Shared struct {
	p atomic.Pointer[Calendar]
}

// Load returns the current calendar; the zero Shared yields an empty one.
func (s *Shared) Load() Calendar {
	if c := s.p.Load(); c != nil {
		return *c
	}
	return Calendar{}
}

// Store replaces the current calendar.
func (s *Shared) Store(c Calendar) {
	s.p.Store(&c)
}
