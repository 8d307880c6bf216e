package schedule

import (
	"fmt"
	"strings"
	"time"

	"orgutrip/internal/duration"
)

// Buffers around a duty period. Report opens one hour before the first
// departure; release closes thirty minutes after the last arrival.
const (
	ReportBuffer  = time.Hour
	ReleaseBuffer = 30 * time.Minute
)

// Credits are the duty and pay categories accumulated bottom-up from events.
type Credits struct {
	Block    duration.Duration // working flight time
	Deadhead duration.Duration // positioning time, credited separately
	Duty     duration.Duration // report-to-release duty time
	TAFB     duration.Duration // time away from base (trip level and up)
}

// Add merges two credit sets.
func (c Credits) Add(other Credits) Credits {
	return Credits{
		Block:    c.Block.Add(other.Block),
		Deadhead: c.Deadhead.Add(other.Deadhead),
		Duty:     c.Duty.Add(other.Duty),
		TAFB:     c.TAFB.Add(other.TAFB),
	}
}

// Calculator computes credits under an airline's work rules. The schedule
// types fall back to the structural sum when no calculator is supplied.
type Calculator interface {
	EventCredits(Event) Credits
	DutyDayCredits(*DutyDay) Credits
	TripCredits(*Trip) Credits
	LineCredits(*Line) Credits
}

// Event is a single scheduled or actual occurrence inside a duty day.
type Event interface {
	EventName() string
	Begin() time.Time
	End() time.Time
	Report() time.Time
	Release() time.Time
	Duration() duration.Duration
	ComputeCredits(calc Calculator) Credits
}

// GroundDuty is a non-flight assignment (reserve, standby, training).
type GroundDuty struct {
	ID        int64
	Name      string // e.g. "R1", "E3"
	Scheduled Itinerary
}

func (g *GroundDuty) EventName() string { return g.Name }

func (g *GroundDuty) Begin() time.Time { return g.Scheduled.Begin }

func (g *GroundDuty) End() time.Time { return g.Scheduled.End }

// Report for a ground duty is its begin; no show-up buffer applies.
func (g *GroundDuty) Report() time.Time { return g.Scheduled.Begin }

func (g *GroundDuty) Release() time.Time { return g.Scheduled.End }

func (g *GroundDuty) Duration() duration.Duration { return g.Scheduled.Duration() }

// ComputeCredits counts ground time as duty only.
func (g *GroundDuty) ComputeCredits(calc Calculator) Credits {
	if calc != nil {
		return calc.EventCredits(g)
	}
	return Credits{Duty: g.Duration()}
}

func (g *GroundDuty) String() string {
	return fmt.Sprintf("%s %s", g.Name, g.Scheduled)
}

// Flight is one leg, working or deadhead. Actual itinerary overrides the
// scheduled one for begin/end/report/release once present.
type Flight struct {
	ID        int64
	Name      string // as printed in the roster, e.g. "0924" or "DH0403"
	Route     *Route
	Scheduled Itinerary
	Actual    *Itinerary
	Equipment *Equipment
	Carrier   string
	Deadhead  bool
}

func (f *Flight) EventName() string { return f.Name }

// itinerary returns the actual itinerary when one is recorded.
func (f *Flight) itinerary() Itinerary {
	if f.Actual != nil {
		return *f.Actual
	}
	return f.Scheduled
}

func (f *Flight) Begin() time.Time { return f.itinerary().Begin }

func (f *Flight) End() time.Time { return f.itinerary().End }

func (f *Flight) Report() time.Time { return f.itinerary().Begin.Add(-ReportBuffer) }

func (f *Flight) Release() time.Time { return f.itinerary().End.Add(ReleaseBuffer) }

func (f *Flight) Duration() duration.Duration { return f.itinerary().Duration() }

// Equal is the identity test used when reconciling against stored flights:
// same carrier, same route, same scheduled itinerary, same duration.
func (f *Flight) Equal(other *Flight) bool {
	if other == nil {
		return false
	}
	return f.Carrier == other.Carrier &&
		f.Route.Key() == other.Route.Key() &&
		f.Scheduled.Equal(other.Scheduled) &&
		f.Duration().Equal(other.Duration())
}

// ComputeCredits books the leg's time as block or deadhead.
func (f *Flight) ComputeCredits(calc Calculator) Credits {
	if calc != nil {
		return calc.EventCredits(f)
	}
	if f.Deadhead {
		return Credits{Deadhead: f.Duration()}
	}
	return Credits{Block: f.Duration()}
}

func (f *Flight) String() string {
	dh := ""
	if f.Deadhead {
		dh = "DH "
	}
	return strings.TrimSpace(fmt.Sprintf("%s%s%s %s-%s %s",
		dh, f.Carrier, f.Route.Name,
		f.Route.Origin.IATACode, f.Route.Destination.IATACode,
		f.itinerary()))
}
