// Package duration provides a minutes-based elapsed-time value used for
// block times, duty times and credit totals.
package duration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is an elapsed time expressed in whole minutes. The zero value is
// a zero-length duration. Durations are never negative: constructing one from
// a negative minute count clamps to zero (see New).
type Duration struct {
	minutes int
}

// New returns a Duration of the given minutes. Negative input clamps to zero.
// The clamp mirrors how durations behaved historically; a negative value here
// almost always means an upstream itinerary was computed backwards, so callers
// that care should check before constructing.
func New(minutes int) Duration {
	if minutes < 0 {
		minutes = 0
	}
	return Duration{minutes: minutes}
}

// FromTimeDuration converts a time.Duration, truncating to whole minutes.
func FromTimeDuration(td time.Duration) Duration {
	return New(int(td.Minutes()))
}

// Parse reads a duration from a string of the form "HHMM", "H:MM" or
// "HHH:MM". Hours may exceed two digits (multi-day totals such as "123:45").
func Parse(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Duration{}, fmt.Errorf("parse duration: empty string")
	}
	var hh, mm string
	if i := strings.IndexByte(s, ':'); i >= 0 {
		hh, mm = s[:i], s[i+1:]
		if len(mm) != 2 {
			return Duration{}, fmt.Errorf("parse duration %q: minutes must be two digits", s)
		}
	} else {
		if len(s) < 3 {
			return Duration{}, fmt.Errorf("parse duration %q: too short", s)
		}
		hh, mm = s[:len(s)-2], s[len(s)-2:]
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return Duration{}, fmt.Errorf("parse duration %q: bad hours: %w", s, err)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return Duration{}, fmt.Errorf("parse duration %q: bad minutes: %w", s, err)
	}
	return New(hours*60 + minutes), nil
}

// Minutes returns the duration as whole minutes.
func (d Duration) Minutes() int { return d.minutes }

// IsZero reports whether the duration is zero minutes.
func (d Duration) IsZero() bool { return d.minutes == 0 }

// AsTimeDuration converts to a time.Duration.
func (d Duration) AsTimeDuration() time.Duration {
	return time.Duration(d.minutes) * time.Minute
}

// Add returns d + other.
func (d Duration) Add(other Duration) Duration {
	return New(d.minutes + other.minutes)
}

// Sub returns d − other, clamped to zero.
func (d Duration) Sub(other Duration) Duration {
	return New(d.minutes - other.minutes)
}

// Scale returns the duration expressed in hours multiplied by factor.
// Used by credit rules that pay fractions of an hourly rate.
func (d Duration) Scale(factor float64) float64 {
	return float64(d.minutes) / 60.0 * factor
}

// Less reports whether d is shorter than other.
func (d Duration) Less(other Duration) bool { return d.minutes < other.minutes }

// Equal reports whether two durations have the same minute count.
func (d Duration) Equal(other Duration) bool { return d.minutes == other.minutes }

// String renders as zero-padded HHMM, e.g. "0132". Hours wider than two
// digits keep all their digits ("12345" for 123h45m).
func (d Duration) String() string {
	hours, minutes := d.minutes/60, d.minutes%60
	return fmt.Sprintf("%02d%02d", hours, minutes)
}

// Colon renders as zero-padded HH:MM, e.g. "01:32", "123:45".
func (d Duration) Colon() string {
	hours, minutes := d.minutes/60, d.minutes%60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// NoLeadingZero renders as H:MM without hour padding, e.g. "7:30".
// Zero renders as empty, matching the roster export convention.
func (d Duration) NoLeadingZero() string {
	if d.minutes == 0 {
		return ""
	}
	hours, minutes := d.minutes/60, d.minutes%60
	return fmt.Sprintf("%d:%02d", hours, minutes)
}

// Format renders the duration in one of the layouts used by the report
// printers:
//
//	"HHMM"   zero-padded four digits
//	"HHMM-"  as HHMM but blank when zero
//	"HH:MM"  colon separated
//	"HH:MM-" colon separated, blank when zero
//
// Unknown layouts fall back to HHMM.
func (d Duration) Format(layout string) string {
	switch layout {
	case "HHMM-":
		if d.minutes == 0 {
			return strings.Repeat(" ", 4)
		}
		return d.String()
	case "HH:MM":
		return d.Colon()
	case "HH:MM-":
		if d.minutes == 0 {
			return strings.Repeat(" ", 5)
		}
		return d.Colon()
	default:
		return d.String()
	}
}

// Sum adds up a slice of durations.
func Sum(ds ...Duration) Duration {
	total := 0
	for _, d := range ds {
		total += d.minutes
	}
	return New(total)
}
