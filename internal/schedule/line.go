package schedule

import (
	"fmt"
	"time"
)

// CrewMember identifies the owner of a line.
type CrewMember struct {
	ID        string
	Name      string
	Position  string // e.g. "SOB"
	Group     string
	Base      string // IATA code as printed on the roster
	Seniority int
}

// Duty is anything a line can hold in day order: trips and standalone
// ground duties.
type Duty interface {
	Report() time.Time
	Release() time.Time
	ComputeCredits(calc Calculator) Credits
}

// Line is one crew member's full ordered duty list for one month.
type Line struct {
	Year       int
	Month      time.Month
	CrewMember CrewMember
	CarryIn    bool // month starts mid-sequence carried in from last month
	Duties     []Duty
}

// Append adds a duty at the end of the line.
func (l *Line) Append(d Duty) {
	l.Duties = append(l.Duties, d)
}

// Trips returns only the trips on the line, in order.
func (l *Line) Trips() []*Trip {
	var trips []*Trip
	for _, d := range l.Duties {
		if t, ok := d.(*Trip); ok {
			trips = append(trips, t)
		}
	}
	return trips
}

// ComputeCredits aggregates credits across all duties on the line.
func (l *Line) ComputeCredits(calc Calculator) Credits {
	if calc != nil {
		return calc.LineCredits(l)
	}
	var total Credits
	for _, d := range l.Duties {
		total = total.Add(d.ComputeCredits(nil))
	}
	return total
}

func (l *Line) String() string {
	return fmt.Sprintf("Line %s %d/%02d (%d duties)", l.CrewMember.ID, l.Year, int(l.Month), len(l.Duties))
}
