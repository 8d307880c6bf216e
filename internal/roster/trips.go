package roster

import (
	"fmt"
	"strconv"
	"strings"

	"orgutrip/internal/build"
)

// ScrubPageNumbers removes the "=====123=====" page separators the PDF
// converter leaves in trips files.
func ScrubPageNumbers(content string) string {
	return pageNumberPattern.ReplaceAllString(content, "")
}

// TotalTrips reads the declared trip count from a PBS file.
func TotalTrips(content string) (int, error) {
	m := tripsTotalPattern.FindStringSubmatch(content)
	if m == nil {
		return 0, fmt.Errorf("total trips: count line not found")
	}
	return strconv.Atoi(groups(tripsTotalPattern, m)["total"])
}

// ReadTrips parses every trip block of a PBS trips file into the flat
// records the builder consumes. The content should be scrubbed of page
// numbers first. When the file declares a total, the caller can check
// it against len(result).
func ReadTrips(content string) ([]build.TripData, error) {
	headers := tripHeaderPattern.FindAllStringSubmatchIndex(content, -1)
	if len(headers) == 0 {
		return nil, fmt.Errorf("read trips: no trip headers found")
	}

	trips := make([]build.TripData, 0, len(headers))
	for i, loc := range headers {
		match := make([]string, 0, len(loc)/2)
		for j := 0; j < len(loc); j += 2 {
			if loc[j] < 0 {
				match = append(match, "")
				continue
			}
			match = append(match, content[loc[j]:loc[j+1]])
		}
		header := groups(tripHeaderPattern, match)

		blockEnd := len(content)
		if i+1 < len(headers) {
			blockEnd = headers[i+1][0]
		}
		block := content[loc[1]:blockEnd]

		trip, err := readTripBlock(header, block)
		if err != nil {
			return nil, fmt.Errorf("trip %s: %w", header["number"], err)
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

// readTripBlock walks one trip's lines: legs accumulate into the open
// duty day until a CRD/DY/LAYOVER line closes it.
func readTripBlock(header map[string]string, block string) (build.TripData, error) {
	checkIn, err := normalizeCheckIn(header["dated"], header["checkin"])
	if err != nil {
		return build.TripData{}, err
	}
	trip := build.TripData{
		Number:       header["number"],
		DateAndTime:  checkIn,
		CrewPosition: header["position"],
		CrewBase:     header["base"],
		TAFB:         header["tafb"],
	}

	var day build.DutyDayData
	for _, line := range strings.Split(block, "\n") {
		if m := tripLegPattern.FindStringSubmatch(line); m != nil {
			leg := groups(tripLegPattern, m)
			day.Flights = append(day.Flights, build.FlightData{
				Name:        leg["name"],
				Origin:      leg["origin"],
				Destination: leg["destination"],
				Begin:       leg["begin"],
				End:         leg["end"],
				Equipment:   leg["equipment"],
				Blk:         leg["blk"],
				Turn:        leg["turn"],
			})
			continue
		}
		if m := dutyDayClosePattern.FindStringSubmatch(line); m != nil {
			if len(day.Flights) == 0 {
				return build.TripData{}, fmt.Errorf("duty day closed with no legs")
			}
			totals := groups(dutyDayClosePattern, m)
			day.Crd = totals["crd"]
			day.Dy = totals["dy"]
			day.LayoverDuration = totals["layover"]
			trip.DutyDays = append(trip.DutyDays, day)
			day = build.DutyDayData{}
		}
	}

	if len(day.Flights) > 0 {
		return build.TripData{}, fmt.Errorf("trailing legs without a duty day close line")
	}
	if len(trip.DutyDays) == 0 {
		return build.TripData{}, fmt.Errorf("no duty days found")
	}
	return trip, nil
}

// normalizeCheckIn glues "01JUN2023" and "10:00" into the check-in
// layout the builder parses, fixing the month's case.
func normalizeCheckIn(dated, clock string) (string, error) {
	if len(dated) != 9 {
		return "", fmt.Errorf("check-in date %q: bad length", dated)
	}
	month := strings.ToUpper(dated[2:3]) + strings.ToLower(dated[3:5])
	if len(clock) == 4 { // "9:30"
		clock = "0" + clock
	}
	return dated[:2] + month + dated[5:] + clock, nil
}
