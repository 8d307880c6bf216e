// Package schedule holds the crew scheduling data model: reference entities
// (airports, equipment, airlines, routes), flight and ground events, duty
// days, trips and the monthly line.
package schedule

import (
	"fmt"
	"time"
)

// Airport is a reference entity identified by its IATA code.
type Airport struct {
	ID       int64
	IATACode string
	Timezone string // IANA zone name, e.g. "America/Mexico_City"
	Viaticum string // per-diem category used by the credit rules
}

// Location resolves the airport's IANA timezone. Airports without a stored
// timezone resolve to UTC.
func (a *Airport) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("airport %s: load timezone %q: %w", a.IATACode, a.Timezone, err)
	}
	return loc, nil
}

func (a *Airport) String() string { return a.IATACode }

// Equipment is an aircraft type identified by its fleet code, e.g. "738".
type Equipment struct {
	ID   int64
	Code string
}

func (e *Equipment) String() string { return e.Code }

// Airline is a carrier identified by its two-letter IATA designator.
type Airline struct {
	ID   int64
	Code string
	Name string
}

func (a *Airline) String() string { return a.Code }
