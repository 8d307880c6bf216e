package schedule

import (
	"fmt"
	"time"

	"orgutrip/internal/duration"
)

// Itinerary is a (begin, end) instant pair. Instants are always stored in
// UTC; BeginZone/EndZone are display-only projections that never alter the
// stored instants.
type Itinerary struct {
	Begin time.Time
	End   time.Time

	// Display zones. Nil means render in UTC.
	BeginZone *time.Location
	EndZone   *time.Location
}

// NewItinerary builds an itinerary from two instants, normalising both to UTC.
func NewItinerary(begin, end time.Time) Itinerary {
	return Itinerary{Begin: begin.UTC(), End: end.UTC()}
}

// ItineraryFromDuration builds an itinerary starting at begin and lasting d.
func ItineraryFromDuration(begin time.Time, d duration.Duration) Itinerary {
	begin = begin.UTC()
	return Itinerary{Begin: begin, End: begin.Add(d.AsTimeDuration())}
}

// Duration is end − begin. A backwards itinerary yields zero (Duration
// clamps); the builder validates against declared totals so a clamp here
// surfaces as a mismatch rather than silently passing.
func (it Itinerary) Duration() duration.Duration {
	return duration.FromTimeDuration(it.End.Sub(it.Begin))
}

// InZones returns a copy with the display zones set. The stored UTC instants
// are untouched.
func (it Itinerary) InZones(begin, end *time.Location) Itinerary {
	it.BeginZone = begin
	it.EndZone = end
	return it
}

// SameMonth reports whether begin and end fall in the same calendar month,
// judged in the begin display zone. Suggested block times that would roll a
// deadhead into the next month cannot be trusted.
func (it Itinerary) SameMonth() bool {
	loc := it.BeginZone
	if loc == nil {
		loc = time.UTC
	}
	b, e := it.Begin.In(loc), it.End.In(loc)
	return b.Year() == e.Year() && b.Month() == e.Month()
}

// Equal compares stored instants only; display zones are cosmetic.
func (it Itinerary) Equal(other Itinerary) bool {
	return it.Begin.Equal(other.Begin) && it.End.Equal(other.End)
}

// String renders as "02Jun BEGIN 1400 END 1540" in the display zones.
func (it Itinerary) String() string {
	bz, ez := it.BeginZone, it.EndZone
	if bz == nil {
		bz = time.UTC
	}
	if ez == nil {
		ez = time.UTC
	}
	b, e := it.Begin.In(bz), it.End.In(ez)
	return fmt.Sprintf("%s BEGIN %s END %s", b.Format("02Jan"), b.Format("1504"), e.Format("1504"))
}
