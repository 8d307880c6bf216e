package build

// FlightData is one flattened flight-leg record as the roster readers
// extract it. All values are raw document strings; the builder owns
// interpretation.
type FlightData struct {
	Name        string // flight number, possibly carrier- or DH-prefixed
	Origin      string // IATA code
	Destination string // IATA code
	Begin       string // printed departure time, display only
	End         string // printed arrival time, display only
	Blk         string // declared block time, "0000" when unblocked
	Turn        string // ground time before the next leg
	Equipment   string // fleet code, "DHD" on partner-carrier deadheads
}

// DutyDayData is one duty-day record.
type DutyDayData struct {
	Crd             string // suggested block time for unblocked legs
	Dy              string // declared duty-day total
	LayoverDuration string // rest after release, "0000" on the last day
	Flights         []FlightData
}

// TripData is the flat per-trip record the batch entry point consumes.
type TripData struct {
	Number       string
	DateAndTime  string // check-in, CheckInLayout in crew-base local time
	CrewPosition string
	CrewBase     string // IATA code
	TAFB         string // declared time away from base, "H:MM" or "HHMM"
	DutyDays     []DutyDayData
}
