package build

import (
	"errors"
	"fmt"
	"time"

	"orgutrip/internal/schedule"
)

// ErrTripAlreadyStored reports that a trip with the same (number, dated)
// key already exists. Benign, the import counts it as skipped.
var ErrTripAlreadyStored = errors.New("trip already stored")

// BlockTimeUndefinedError reports a leg whose block time could not be
// determined from its own blk value, the duty day's suggested value, or
// a stored flight.
type BlockTimeUndefinedError struct {
	Leg FlightData
	At  time.Time // cursor position when the leg was reached
}

func (e *BlockTimeUndefinedError) Error() string {
	return fmt.Sprintf("flight %s %s-%s at %s: block time undefined",
		e.Leg.Name, e.Leg.Origin, e.Leg.Destination, e.At.Format("02Jan2006 15:04"))
}

// DutyDayMismatchError reports a duty day whose computed duration does
// not match the declared dy total. It carries both sides for diagnosis.
type DutyDayMismatchError struct {
	Declared string
	Built    *schedule.DutyDay
	Data     DutyDayData
}

func (e *DutyDayMismatchError) Error() string {
	return fmt.Sprintf("duty day duration %s does not match declared %s",
		e.Built.Duration().Colon(), e.Declared)
}

// TripMismatchError reports a trip whose computed time away from base
// does not match the declared tafb. Such trips are never persisted.
type TripMismatchError struct {
	Declared string
	Built    *schedule.Trip
}

func (e *TripMismatchError) Error() string {
	return fmt.Sprintf("trip %s duration %s does not match declared TAFB %s",
		e.Built.Number, e.Built.Duration().Colon(), e.Declared)
}

// UnbuiltTrip pairs a trip record with the reason it could not be built.
// The batch import collects these for later retry.
type UnbuiltTrip struct {
	Data   TripData
	Reason error
}
