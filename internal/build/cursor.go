// Package build reconstructs Trip/DutyDay/Flight graphs from the flat
// records the roster readers produce, validating computed durations
// against the totals declared in the source document.
package build

import (
	"fmt"
	"strings"
	"time"

	"orgutrip/internal/duration"
)

// CheckInLayout is the date-and-time format trip headers carry,
// e.g. "02Jun202314:30".
const CheckInLayout = "02Jan200615:04"

// Cursor is the simulated wall clock threaded through one trip build.
// It holds a single UTC instant; every leg and buffer advances it in
// document order. Not safe for concurrent use, by construction it never
// needs to be.
type Cursor struct {
	now time.Time
}

// NewCursor starts the clock at the given instant. The instant is
// normalised to UTC; callers localise check-in times before handing
// them over.
func NewCursor(at time.Time) *Cursor {
	return &Cursor{now: at.UTC()}
}

// Now returns the current instant in UTC.
func (c *Cursor) Now() time.Time {
	return c.now
}

// In re-expresses the current instant in another zone without moving
// the clock.
func (c *Cursor) In(loc *time.Location) time.Time {
	return c.now.In(loc)
}

// Advance moves the clock forward by a fixed interval.
func (c *Cursor) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Move parses a possibly signed "H:MM", "HHMM" or "HHH:MM" offset and
// applies it, returning the parsed magnitude. Hours above 99 are valid;
// cumulative layover strings reach triple digits.
func (c *Cursor) Move(offset string) (duration.Duration, error) {
	s := offset
	sign := 1
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	d, err := duration.Parse(s)
	if err != nil {
		return duration.Duration{}, fmt.Errorf("move cursor by %q: %w", offset, err)
	}
	c.now = c.now.Add(time.Duration(sign) * d.AsTimeDuration())
	return d, nil
}

// Back moves the clock backward by an unsigned offset. Used to undo a
// speculative advance.
func (c *Cursor) Back(offset string) (duration.Duration, error) {
	d, err := duration.Parse(strings.TrimPrefix(offset, "+"))
	if err != nil {
		return duration.Duration{}, fmt.Errorf("move cursor back by %q: %w", offset, err)
	}
	c.now = c.now.Add(-d.AsTimeDuration())
	return d, nil
}
