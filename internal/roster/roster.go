package roster

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"orgutrip/internal/schedule"
)

// LegRow is one printed leg of a roster trip row. Times are local
// clock readings, display data only; the authoritative itineraries come
// from the stored trips.
type LegRow struct {
	Name        string
	Origin      string
	Begin       string
	Destination string
	End         string
}

// Day is one row of the roster body: either a trip (TripNumber set,
// Legs populated) or a ground duty (Name set).
type Day struct {
	Day     int
	EndDay  string
	Name    string // ground-duty code, e.g. "R1", "VA"
	Trip    string // four-digit trip number
	Legs    []LegRow
}

// IsTrip reports whether the row references a trip.
func (d Day) IsTrip() bool { return d.Trip != "" }

// Roster is one month's parsed roster export for one crew member.
type Roster struct {
	Year       int
	Month      time.Month
	TimeZone   string // zone flag from the header, single letter
	CrewMember schedule.CrewMember
	CarryIn    bool
	Days       []Day
}

// months accepts the Spanish and English month names the export prints.
var months = map[string]time.Month{
	"enero": time.January, "january": time.January,
	"febrero": time.February, "february": time.February,
	"marzo": time.March, "march": time.March,
	"abril": time.April, "april": time.April,
	"mayo": time.May, "may": time.May,
	"junio": time.June, "june": time.June,
	"julio": time.July, "july": time.July,
	"agosto": time.August, "august": time.August,
	"septiembre": time.September, "september": time.September,
	"octubre": time.October, "october": time.October,
	"noviembre": time.November, "november": time.November,
	"diciembre": time.December, "december": time.December,
}

// ReadRoster parses a monthly roster export.
func ReadRoster(content string) (*Roster, error) {
	m := rosterDataPattern.FindStringSubmatch(content)
	if m == nil {
		return nil, fmt.Errorf("read roster: no month banner found")
	}
	data := groups(rosterDataPattern, m)

	month, ok := months[strings.ToLower(data["month"])]
	if !ok {
		return nil, fmt.Errorf("read roster: unknown month %q", data["month"])
	}
	year, err := strconv.Atoi(data["year"])
	if err != nil {
		return nil, fmt.Errorf("read roster: year %q: %w", data["year"], err)
	}

	r := &Roster{Year: year, Month: month}

	cs := crewStatsPattern.FindStringSubmatch(data["header"])
	if cs == nil {
		return nil, fmt.Errorf("read roster: crew stats not found in header")
	}
	stats := groups(crewStatsPattern, cs)
	seniority, _ := strconv.Atoi(stats["seniority"])
	r.TimeZone = stats["tz"]
	r.CrewMember = schedule.CrewMember{
		ID:        stats["id"],
		Name:      stats["name"],
		Position:  stats["pos"],
		Group:     stats["group"],
		Base:      stats["base"],
		Seniority: seniority,
	}

	body := data["body"]

	ci := carryInPattern.FindStringSubmatch(body)
	if ci == nil {
		return nil, fmt.Errorf("read roster: empty body")
	}
	firstDay, err := strconv.Atoi(groups(carryInPattern, ci)["day"])
	if err != nil {
		return nil, fmt.Errorf("read roster: first day: %w", err)
	}
	r.CarryIn = firstDay > 1

	for _, tm := range rosterTripPattern.FindAllStringSubmatch(body, -1) {
		row := groups(rosterTripPattern, tm)
		day, _ := strconv.Atoi(row["day"])
		d := Day{Day: day, EndDay: row["endDay"], Trip: row["name"]}
		for _, lm := range legPattern.FindAllStringSubmatch(row["flights"], -1) {
			leg := groups(legPattern, lm)
			d.Legs = append(d.Legs, LegRow{
				Name:        leg["name"],
				Origin:      leg["origin"],
				Begin:       leg["begin"],
				Destination: leg["destination"],
				End:         leg["end"],
			})
		}
		r.Days = append(r.Days, d)
	}

	// Ground duties are matched separately and merged back in day order.
	for _, gm := range groundDutyPattern.FindAllStringSubmatch(body, -1) {
		row := groups(groundDutyPattern, gm)
		day, _ := strconv.Atoi(row["day"])
		r.insertInDayOrder(Day{Day: day, EndDay: row["endDay"], Name: row["name"]})
	}

	return r, nil
}

func (r *Roster) insertInDayOrder(d Day) {
	index := 0
	for i, existing := range r.Days {
		if d.Day >= existing.Day {
			index = i + 1
		}
	}
	r.Days = append(r.Days, Day{})
	copy(r.Days[index+1:], r.Days[index:])
	r.Days[index] = d
}
