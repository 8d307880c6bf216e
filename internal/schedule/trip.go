package schedule

import (
	"fmt"
	"time"

	"orgutrip/internal/duration"
)

// Trip is one pairing: an ordered group of duty days identified by
// (number, dated, crew base).
type Trip struct {
	ID           int64
	Number       string
	Dated        time.Time // date of check-in, in the crew base zone
	CrewPosition string
	CrewBase     *Airport
	DutyDays     []*DutyDay
}

// Append adds a duty day at the end of the trip.
func (t *Trip) Append(dd *DutyDay) {
	t.DutyDays = append(t.DutyDays, dd)
}

// Report is the first duty day's report.
func (t *Trip) Report() time.Time {
	if len(t.DutyDays) == 0 {
		return time.Time{}
	}
	return t.DutyDays[0].Report()
}

// Release is the last duty day's release.
func (t *Trip) Release() time.Time {
	if len(t.DutyDays) == 0 {
		return time.Time{}
	}
	return t.DutyDays[len(t.DutyDays)-1].Release()
}

// Duration is the time away from base, the declared "tafb" in the source.
func (t *Trip) Duration() duration.Duration {
	if len(t.DutyDays) == 0 {
		return duration.New(0)
	}
	return duration.FromTimeDuration(t.Release().Sub(t.Report()))
}

// Rests are the layover times between consecutive duty days.
func (t *Trip) Rests() []duration.Duration {
	if len(t.DutyDays) < 2 {
		return nil
	}
	rests := make([]duration.Duration, 0, len(t.DutyDays)-1)
	for i := 1; i < len(t.DutyDays); i++ {
		rests = append(rests, duration.FromTimeDuration(t.DutyDays[i].Report().Sub(t.DutyDays[i-1].Release())))
	}
	return rests
}

// ComputeCredits sums duty day credits and sets the trip's TAFB.
func (t *Trip) ComputeCredits(calc Calculator) Credits {
	if calc != nil {
		return calc.TripCredits(t)
	}
	var total Credits
	for _, dd := range t.DutyDays {
		total = total.Add(dd.ComputeCredits(nil))
	}
	total.TAFB = t.Duration()
	return total
}

// ProjectZones sets every itinerary's display zones: flight begins/ends in
// the zone of their origin/destination airports. Stored UTC instants are
// untouched; only rendering changes.
func (t *Trip) ProjectZones() error {
	for _, dd := range t.DutyDays {
		for _, e := range dd.Events {
			f, ok := e.(*Flight)
			if !ok {
				continue
			}
			origin, err := f.Route.Origin.Location()
			if err != nil {
				return err
			}
			dest, err := f.Route.Destination.Location()
			if err != nil {
				return err
			}
			f.Scheduled = f.Scheduled.InZones(origin, dest)
			if f.Actual != nil {
				actual := f.Actual.InZones(origin, dest)
				f.Actual = &actual
			}
		}
	}
	return nil
}

func (t *Trip) String() string {
	return fmt.Sprintf("Trip %s dated %s TAFB %s", t.Number, t.Dated.Format("02Jan2006"), t.Duration().Colon())
}
