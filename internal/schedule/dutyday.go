package schedule

import (
	"strings"
	"time"

	"orgutrip/internal/duration"
)

// DutyDay is an ordered group of events flown within one continuous duty
// period, bounded by the first event's report and the last event's release.
type DutyDay struct {
	ID     int64
	Events []Event

	// Layover declared after this duty day, zero on the last day of a trip.
	Layover duration.Duration
}

// Append adds an event at the end of the duty day.
func (d *DutyDay) Append(e Event) {
	d.Events = append(d.Events, e)
}

// Report is the first event's report time.
func (d *DutyDay) Report() time.Time {
	if len(d.Events) == 0 {
		return time.Time{}
	}
	return d.Events[0].Report()
}

// Release is the last event's release time.
func (d *DutyDay) Release() time.Time {
	if len(d.Events) == 0 {
		return time.Time{}
	}
	return d.Events[len(d.Events)-1].Release()
}

// Duration is release − report, the declared "dy" value in the source.
func (d *DutyDay) Duration() duration.Duration {
	if len(d.Events) == 0 {
		return duration.New(0)
	}
	return duration.FromTimeDuration(d.Release().Sub(d.Report()))
}

// Turns are the ground times between consecutive events. Negative turns
// indicate a malformed day and clamp to zero.
func (d *DutyDay) Turns() []duration.Duration {
	if len(d.Events) < 2 {
		return nil
	}
	turns := make([]duration.Duration, 0, len(d.Events)-1)
	for i := 1; i < len(d.Events); i++ {
		turns = append(turns, duration.FromTimeDuration(d.Events[i].Begin().Sub(d.Events[i-1].End())))
	}
	return turns
}

// ComputeCredits sums event credits and sets the day's duty time.
func (d *DutyDay) ComputeCredits(calc Calculator) Credits {
	if calc != nil {
		return calc.DutyDayCredits(d)
	}
	var total Credits
	for _, e := range d.Events {
		c := e.ComputeCredits(nil)
		total.Block = total.Block.Add(c.Block)
		total.Deadhead = total.Deadhead.Add(c.Deadhead)
	}
	total.Duty = d.Duration()
	return total
}

func (d *DutyDay) String() string {
	parts := make([]string, 0, len(d.Events))
	for _, e := range d.Events {
		parts = append(parts, e.EventName())
	}
	return "DutyDay " + d.Duration().Colon() + " [" + strings.Join(parts, " ") + "]"
}
