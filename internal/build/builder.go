package build

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"orgutrip/internal/duration"
	"orgutrip/internal/registry"
	"orgutrip/internal/schedule"
	"orgutrip/internal/storage"
)

// CarrierRule infers the operating carrier of a leg from its name and
// equipment code.
type CarrierRule struct {
	Default           string `yaml:"default"`            // carrier when the name is plain numeric
	DeadheadPrefix    string `yaml:"deadhead_prefix"`    // name prefix marking positioning legs
	DeadheadEquipment string `yaml:"deadhead_equipment"` // equipment code of partner-carrier deadheads
	DeadheadCarrier   string `yaml:"deadhead_carrier"`   // carrier for partner-carrier deadheads
}

// DefaultCarrierRule returns the Aeromexico rule set.
func DefaultCarrierRule() CarrierRule {
	return CarrierRule{
		Default:           "AM",
		DeadheadPrefix:    "DH",
		DeadheadEquipment: "DHD",
		DeadheadCarrier:   "6D",
	}
}

// Carrier applies the rule: a DH-prefixed name on partner equipment is a
// partner-carrier leg; any other non-numeric two-letter prefix is the
// carrier code itself.
func (r CarrierRule) Carrier(name, equipment string) string {
	if len(name) < 2 {
		return r.Default
	}
	prefix := name[:2]
	if prefix == r.DeadheadPrefix {
		if equipment == r.DeadheadEquipment {
			return r.DeadheadCarrier
		}
		return r.Default
	}
	if !isNumeric(prefix) {
		return prefix
	}
	return r.Default
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ImportResult summarises one batch run.
type ImportResult struct {
	Built   int
	Skipped int
	Trips   []*schedule.Trip // successfully built and persisted
	Unbuilt []UnbuiltTrip
}

// Builder reconstructs trips from flat records. It owns a fresh Cursor
// per trip; the registry and store are shared across the batch.
type Builder struct {
	store    storage.Store
	reg      *registry.Registry
	resolver Resolver
	log      zerolog.Logger

	// Carrier is the leg carrier inference rule.
	Carrier CarrierRule

	// DiscardAfterDeadhead controls how much of a duty day is removed
	// from storage when its declared total cannot be reconciled: the
	// first non-numeric leg and everything after it. Heuristic carried
	// over from the previous importer, not a law.
	DiscardAfterDeadhead bool
}

// NewBuilder wires a builder over the given collaborators.
func NewBuilder(store storage.Store, reg *registry.Registry, resolver Resolver, log zerolog.Logger) *Builder {
	return &Builder{
		store:                store,
		reg:                  reg,
		resolver:             resolver,
		log:                  log,
		Carrier:              DefaultCarrierRule(),
		DiscardAfterDeadhead: true,
	}
}

// Import builds and persists every trip record, collecting failures
// instead of aborting the batch. Only storage-level faults (not
// per-trip inconsistencies) return a non-nil error.
func (b *Builder) Import(ctx context.Context, trips []TripData) (*ImportResult, error) {
	res := &ImportResult{}
	for _, data := range trips {
		trip, err := b.BuildTrip(ctx, data)
		switch {
		case errors.Is(err, ErrTripAlreadyStored):
			b.log.Info().Str("trip", data.Number).Str("dated", data.DateAndTime).
				Msg("trip already stored, skipping")
			res.Skipped++
		case err != nil:
			b.log.Warn().Str("trip", data.Number).Err(err).Msg("trip unsaved")
			res.Unbuilt = append(res.Unbuilt, UnbuiltTrip{Data: data, Reason: err})
		default:
			b.log.Info().Str("trip", trip.Number).
				Str("dated", trip.Dated.Format("2006-01-02")).
				Str("tafb", trip.Duration().Colon()).
				Msg("trip saved")
			res.Built++
			res.Trips = append(res.Trips, trip)
		}
	}
	b.log.Info().Int("built", res.Built).Int("skipped", res.Skipped).
		Int("unbuilt", len(res.Unbuilt)).Msg("import finished")
	return res, nil
}

// BuildTrip reconstructs one trip, validates it against the declared
// totals and persists it. Already-stored trips are returned unchanged
// with ErrTripAlreadyStored.
func (b *Builder) BuildTrip(ctx context.Context, data TripData) (*schedule.Trip, error) {
	base, err := b.reg.Airport(ctx, data.CrewBase)
	if err != nil {
		return nil, fmt.Errorf("trip %s: resolve base: %w", data.Number, err)
	}
	loc, err := base.Location()
	if err != nil {
		return nil, fmt.Errorf("trip %s: base %s: %w", data.Number, base.IATACode, err)
	}

	checkIn, err := time.ParseInLocation(CheckInLayout, data.DateAndTime, loc)
	if err != nil {
		return nil, fmt.Errorf("trip %s: check-in %q: %w", data.Number, data.DateAndTime, err)
	}
	dated := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)

	stored, err := b.store.TripByKey(ctx, data.Number, dated)
	if err == nil {
		return stored, ErrTripAlreadyStored
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("trip %s: lookup: %w", data.Number, err)
	}

	cursor := NewCursor(checkIn)
	trip := &schedule.Trip{
		Number:       data.Number,
		Dated:        dated,
		CrewPosition: data.CrewPosition,
		CrewBase:     base,
	}

	for i, ddData := range data.DutyDays {
		dd, err := b.buildDutyDay(ctx, cursor, ddData)

		var mismatch *DutyDayMismatchError
		if errors.As(err, &mismatch) {
			b.log.Warn().Str("trip", data.Number).Int("day", i+1).
				Str("declared", mismatch.Declared).
				Str("computed", mismatch.Built.Duration().String()).
				Msg("inconsistent duty day")
			decision, rerr := b.resolver.DutyDayMismatch(mismatch.Declared, mismatch.Built)
			if rerr != nil {
				return nil, fmt.Errorf("trip %s day %d: %w", data.Number, i+1, rerr)
			}
			switch decision {
			case Keep:
			case Replace:
				if cerr := b.correctDutyDay(ctx, mismatch.Built); cerr != nil {
					return nil, fmt.Errorf("trip %s day %d: %w", data.Number, i+1, cerr)
				}
			default:
				if b.DiscardAfterDeadhead {
					b.discardTaintedLegs(ctx, mismatch.Built)
				}
				return nil, fmt.Errorf("trip %s day %d: %w", data.Number, i+1, mismatch)
			}
			dd, err = mismatch.Built, nil
		}
		if err != nil {
			return nil, fmt.Errorf("trip %s day %d: %w", data.Number, i+1, err)
		}
		trip.Append(dd)
	}

	if err := validateTAFB(trip, data.TAFB); err != nil {
		return nil, err
	}

	if err := trip.ProjectZones(); err != nil {
		return nil, fmt.Errorf("trip %s: %w", data.Number, err)
	}
	if _, err := b.store.SaveTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("trip %s: %w", data.Number, err)
	}
	return trip, nil
}

// correctDutyDay walks the flights of an inconsistent duty day, applying
// the resolver's corrections as actual itineraries and persisting them.
// The day is then accepted as corrected.
func (b *Builder) correctDutyDay(ctx context.Context, dd *schedule.DutyDay) error {
	for _, e := range dd.Events {
		f, ok := e.(*schedule.Flight)
		if !ok {
			continue
		}
		corrected, err := b.resolver.FlightCorrection(f)
		if err != nil {
			return fmt.Errorf("flight %s: %w", f.Name, err)
		}
		if corrected == nil {
			continue
		}
		f.Actual = corrected
		if f.ID == 0 {
			if _, err := b.store.SaveFlight(ctx, f); err != nil {
				return fmt.Errorf("flight %s: %w", f.Name, err)
			}
		} else if err := b.store.UpdateFlight(ctx, f); err != nil {
			return fmt.Errorf("flight %s: %w", f.Name, err)
		}
		b.log.Info().Str("flight", f.String()).Msg("corrected itinerary stored")
	}
	return nil
}

// validateTAFB compares computed time away from base with the declared
// total as plain minutes, so "94:30" and "9430" agree.
func validateTAFB(trip *schedule.Trip, declared string) error {
	want, err := duration.Parse(strings.ReplaceAll(declared, ":", ""))
	if err != nil {
		return &TripMismatchError{Declared: declared, Built: trip}
	}
	if !trip.Duration().Equal(want) {
		return &TripMismatchError{Declared: declared, Built: trip}
	}
	return nil
}

func (b *Builder) buildDutyDay(ctx context.Context, cursor *Cursor, data DutyDayData) (*schedule.DutyDay, error) {
	cursor.Advance(schedule.ReportBuffer)
	dd := &schedule.DutyDay{}

	for _, legData := range data.Flights {
		flight, err := b.buildFlight(ctx, cursor, legData, data.Crd)
		if err != nil {
			return nil, err
		}
		dd.Append(flight)
		if _, err := cursor.Move(legData.Turn); err != nil {
			return nil, fmt.Errorf("leg %s: turn: %w", legData.Name, err)
		}
	}

	cursor.Advance(schedule.ReleaseBuffer)
	layover, err := cursor.Move(data.LayoverDuration)
	if err != nil {
		return nil, fmt.Errorf("layover: %w", err)
	}
	dd.Layover = layover

	declared, err := duration.Parse(strings.ReplaceAll(data.Dy, ":", ""))
	if err != nil || !dd.Duration().Equal(declared) {
		return nil, &DutyDayMismatchError{Declared: data.Dy, Built: dd, Data: data}
	}
	return dd, nil
}

func (b *Builder) buildFlight(ctx context.Context, cursor *Cursor, data FlightData, suggestedBlk string) (*schedule.Flight, error) {
	routeName := data.Name
	if len(routeName) > 4 {
		// Prefixed names carry the flight number in the last four
		// characters, e.g. "DH0403".
		routeName = routeName[len(routeName)-4:]
	}
	route, err := b.reg.Route(ctx, routeName, data.Origin, data.Destination)
	if err != nil {
		return nil, fmt.Errorf("leg %s: %w", data.Name, err)
	}
	carrier := b.Carrier.Carrier(data.Name, data.Equipment)
	if _, err := b.reg.Airline(ctx, carrier); err != nil {
		return nil, fmt.Errorf("leg %s: carrier %s: %w", data.Name, carrier, err)
	}

	var equipment *schedule.Equipment
	if data.Equipment != "" {
		equipment, err = b.reg.Equipment(ctx, data.Equipment)
		if err != nil {
			return nil, fmt.Errorf("leg %s: %w", data.Name, err)
		}
	}

	begin := cursor.Now()
	candidates, err := b.store.FlightsOn(ctx, carrier, route.ID, begin)
	if err != nil {
		return nil, fmt.Errorf("leg %s: stored flights: %w", data.Name, err)
	}

	if err := b.advanceBlock(cursor, data, suggestedBlk, begin, candidates); err != nil {
		return nil, err
	}

	flight := &schedule.Flight{
		Name:      data.Name,
		Route:     route,
		Carrier:   carrier,
		Equipment: equipment,
		Scheduled: schedule.NewItinerary(begin, cursor.Now()),
		Deadhead:  !isNumeric(data.Name),
	}
	if flight.Duration().IsZero() {
		// A zero-minute leg can never be stored; without a row SaveTrip
		// would fail later with an opaque persistence error.
		return nil, fmt.Errorf("leg %s: %w", data.Name,
			&BlockTimeUndefinedError{Leg: data, At: begin})
	}

	if err := b.reconcile(ctx, flight, candidates); err != nil {
		return nil, fmt.Errorf("leg %s: %w", data.Name, err)
	}
	return flight, nil
}

// advanceBlock moves the cursor by the leg's block time: its own blk
// value first, the duty day's suggested value second, a stored flight's
// duration third, manual entry last.
func (b *Builder) advanceBlock(cursor *Cursor, data FlightData, suggestedBlk string, begin time.Time, candidates []*schedule.Flight) error {
	if data.Blk != "" && data.Blk != "0000" {
		if _, err := cursor.Move(data.Blk); err != nil {
			return fmt.Errorf("leg %s: blk: %w", data.Name, err)
		}
		return nil
	}

	if suggestedBlk != "" && suggestedBlk != "0000" && isNumeric(suggestedBlk) {
		if _, err := cursor.Move(suggestedBlk); err != nil {
			return fmt.Errorf("leg %s: crd: %w", data.Name, err)
		}
		it := schedule.NewItinerary(begin, cursor.Now())
		if it.SameMonth() {
			return nil
		}
		// The suggested time pushes the leg into the next month; the
		// document cannot support it. Undo and fall through.
		if _, err := cursor.Back(suggestedBlk); err != nil {
			return err
		}
		b.log.Debug().Str("leg", data.Name).Str("crd", suggestedBlk).
			Msg("suggested block time crosses month boundary, discarded")
	}

	// A stored flight departing at exactly this instant settles it.
	for _, c := range candidates {
		if c.Scheduled.Begin.Equal(begin) {
			cursor.Advance(c.Duration().AsTimeDuration())
			b.log.Debug().Str("leg", data.Name).
				Str("duration", c.Duration().String()).
				Msg("block time taken from stored flight")
			return nil
		}
	}

	d, err := b.resolver.BlockTime(data, cursor.In(time.UTC).Format("02Jan2006 15:04"))
	if err != nil {
		return fmt.Errorf("leg %s: %w: %v",
			data.Name, &BlockTimeUndefinedError{Leg: data, At: begin}, err)
	}
	cursor.Advance(d.AsTimeDuration())
	return nil
}

// reconcile matches the built flight against same-day stored flights.
// One identity match reuses the stored row; none stores a new row;
// several go to the resolver.
func (b *Builder) reconcile(ctx context.Context, flight *schedule.Flight, candidates []*schedule.Flight) error {
	var matched []*schedule.Flight
	for _, c := range candidates {
		if flight.Equal(c) {
			matched = append(matched, c)
		}
	}

	switch len(matched) {
	case 0:
		if _, err := b.store.SaveFlight(ctx, flight); err != nil {
			return err
		}
		b.log.Info().Str("flight", flight.String()).Msg("new flight stored")
	case 1:
		flight.ID = matched[0].ID
		if matched[0].Actual != nil {
			flight.Actual = matched[0].Actual
		}
	default:
		decision, chosen, err := b.resolver.FlightMatch(flight, matched)
		if err != nil {
			return err
		}
		switch decision {
		case Keep:
			flight.ID = chosen.ID
		case Replace:
			if _, err := b.store.SaveFlight(ctx, flight); err != nil {
				return err
			}
		default:
			return fmt.Errorf("flight %s: ambiguous stored match discarded", flight.Name)
		}
	}
	return nil
}

// discardTaintedLegs removes the first deadhead leg of an inconsistent
// duty day and everything after it from storage. Once a non-numeric
// leg appears, downstream rows are considered unreliable.
func (b *Builder) discardTaintedLegs(ctx context.Context, dd *schedule.DutyDay) {
	tainted := false
	for _, e := range dd.Events {
		f, ok := e.(*schedule.Flight)
		if !ok {
			continue
		}
		if !tainted && !isNumeric(f.Name) {
			tainted = true
		}
		if tainted && f.ID != 0 {
			b.log.Info().Str("flight", f.String()).Msg("dropping stored flight")
			if err := b.store.DeleteFlight(ctx, f.ID); err != nil {
				b.log.Warn().Err(err).Int64("id", f.ID).Msg("drop failed")
			}
		}
	}
}
