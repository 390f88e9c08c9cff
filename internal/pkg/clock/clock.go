// Package clock anchors every day and week boundary to one business timezone,
// so "today" means the same thing for every caller regardless of where the
// request comes from.
package clock

import (
	"fmt"
	"time"

	// Embed the tz database so the zone resolves on minimal images.
	_ "time/tzdata"
)

// DefaultZone is the organization's business timezone.
const DefaultZone = "America/New_York"

// DateLayout is the wire format for date-only values.
const DateLayout = "2006-01-02"

type BusinessClock struct {
	loc *time.Location
	now func() time.Time
}

// New loads the named zone and returns a clock anchored to it.
func New(zone string) (*BusinessClock, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load business timezone %q: %w", zone, err)
	}
	return &BusinessClock{loc: loc, now: time.Now}, nil
}

// Default returns a clock anchored to DefaultZone.
func Default() *BusinessClock {
	c, err := New(DefaultZone)
	if err != nil {
		panic(err)
	}
	return c
}

// WithNow returns a copy of the clock whose Now reads from fn.
func (c *BusinessClock) WithNow(fn func() time.Time) *BusinessClock {
	return &BusinessClock{loc: c.loc, now: fn}
}

func (c *BusinessClock) Location() *time.Location {
	return c.loc
}

// Now returns the current instant expressed in the business zone.
func (c *BusinessClock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *BusinessClock) StartOfDay(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
}

// EndOfDay returns the last representable instant of t's business day.
func (c *BusinessClock) EndOfDay(t time.Time) time.Time {
	return c.StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns Monday 00:00 of t's ISO week.
func (c *BusinessClock) StartOfWeek(t time.Time) time.Time {
	day := c.StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// EndOfWeek returns the last instant of Sunday in t's ISO week.
func (c *BusinessClock) EndOfWeek(t time.Time) time.Time {
	return c.StartOfWeek(t).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

func (c *BusinessClock) StartOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, c.loc)
}

func (c *BusinessClock) EndOfMonth(year int, month time.Month) time.Time {
	return c.StartOfMonth(year, month).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func (c *BusinessClock) IsWeekend(t time.Time) bool {
	switch t.In(c.loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// ParseDate reads a YYYY-MM-DD string as a business day and returns its start.
func (c *BusinessClock) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, c.loc)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func (c *BusinessClock) FormatDate(t time.Time) string {
	return t.In(c.loc).Format(DateLayout)
}

func (c *BusinessClock) SameDay(a, b time.Time) bool {
	return c.StartOfDay(a).Equal(c.StartOfDay(b))
}

// DaySpan counts the business days in [start, end], inclusive on both ends.
// It returns zero or less when end precedes start.
func (c *BusinessClock) DaySpan(start, end time.Time) int {
	s := c.StartOfDay(start)
	e := c.StartOfDay(end)
	su := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	eu := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	return int(eu.Sub(su).Hours()/24) + 1
}

// BusinessDaysBetween lists the start of every calendar day in [start, end],
// weekends included.
func (c *BusinessClock) BusinessDaysBetween(start, end time.Time) []time.Time {
	var days []time.Time
	last := c.StartOfDay(end)
	for d := c.StartOfDay(start); !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
