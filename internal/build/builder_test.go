package build

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"orgutrip/internal/duration"
	"orgutrip/internal/registry"
	"orgutrip/internal/schedule"
	"orgutrip/internal/storage"
)

func newTestBuilder(t *testing.T, r Resolver) (*Builder, *storage.SQLiteStore) {
	t.Helper()
	s, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if r == nil {
		r = PostponeResolver{}
	}
	return NewBuilder(s, registry.New(s), r, zerolog.Nop()), s
}

func TestCarrierRule(t *testing.T) {
	rule := DefaultCarrierRule()
	tests := []struct {
		name, equipment, want string
	}{
		{"0924", "7S8", "AM"},
		{"DH0403", "DHD", "6D"},
		{"DH0403", "7S8", "AM"},
		{"AA123", "misc", "AA"},
		{"4", "", "AM"},
	}
	for _, tt := range tests {
		if got := rule.Carrier(tt.name, tt.equipment); got != tt.want {
			t.Errorf("Carrier(%q, %q) = %q, want %q", tt.name, tt.equipment, got, tt.want)
		}
	}
}

func TestBuildFlightAdvancesCursor(t *testing.T) {
	b, _ := newTestBuilder(t, nil)
	ctx := context.Background()

	cursor := NewCursor(time.Date(2018, 6, 3, 14, 0, 0, 0, time.UTC))
	leg := FlightData{Name: "0924", Origin: "MEX", Destination: "MTY", Blk: "0140", Turn: "0000"}

	flight, err := b.buildFlight(ctx, cursor, leg, "0000")
	if err != nil {
		t.Fatalf("buildFlight: %v", err)
	}

	wantEnd := time.Date(2018, 6, 3, 15, 40, 0, 0, time.UTC)
	if !cursor.Now().Equal(wantEnd) {
		t.Errorf("cursor = %v, want %v", cursor.Now(), wantEnd)
	}
	if !flight.End().Equal(wantEnd) {
		t.Errorf("end = %v, want %v", flight.End(), wantEnd)
	}
	wantRelease := time.Date(2018, 6, 3, 16, 10, 0, 0, time.UTC)
	if !flight.Release().Equal(wantRelease) {
		t.Errorf("release = %v, want %v", flight.Release(), wantRelease)
	}
	if flight.Deadhead {
		t.Error("numeric-name leg flagged as deadhead")
	}
	if flight.ID == 0 {
		t.Error("new flight was not stored")
	}
}

func TestBuildFlightSuggestedBlock(t *testing.T) {
	b, _ := newTestBuilder(t, nil)
	ctx := context.Background()

	begin := time.Date(2018, 6, 3, 14, 0, 0, 0, time.UTC)
	cursor := NewCursor(begin)
	leg := FlightData{Name: "DH0925", Origin: "MTY", Destination: "MEX", Blk: "0000", Turn: "0000"}

	flight, err := b.buildFlight(ctx, cursor, leg, "0130")
	if err != nil {
		t.Fatalf("buildFlight: %v", err)
	}
	if got := flight.Duration().Minutes(); got != 90 {
		t.Errorf("duration = %d minutes, want 90", got)
	}
	if !flight.Begin().Equal(begin) {
		t.Errorf("begin = %v, want %v", flight.Begin(), begin)
	}
	if !flight.Deadhead {
		t.Error("non-numeric name not flagged as deadhead")
	}
}

func TestBuildFlightUndefinedBlock(t *testing.T) {
	b, _ := newTestBuilder(t, PostponeResolver{})
	ctx := context.Background()

	cursor := NewCursor(time.Date(2018, 6, 3, 14, 0, 0, 0, time.UTC))
	leg := FlightData{Name: "DH0925", Origin: "MTY", Destination: "MEX", Blk: "0000", Turn: "0000"}

	_, err := b.buildFlight(ctx, cursor, leg, "0000")
	var undefined *BlockTimeUndefinedError
	if !errors.As(err, &undefined) {
		t.Fatalf("got %v, want BlockTimeUndefinedError", err)
	}
	if undefined.Leg.Name != "DH0925" {
		t.Errorf("error leg = %q", undefined.Leg.Name)
	}
}

func TestBuildFlightStoredDurationSettlesDeadhead(t *testing.T) {
	b, s := newTestBuilder(t, PostponeResolver{})
	ctx := context.Background()
	begin := time.Date(2018, 6, 3, 14, 0, 0, 0, time.UTC)

	// Store the working-crew version of the leg first.
	cursor := NewCursor(begin)
	leg := FlightData{Name: "0925", Origin: "MTY", Destination: "MEX", Blk: "0135", Turn: "0000"}
	if _, err := b.buildFlight(ctx, cursor, leg, "0000"); err != nil {
		t.Fatal(err)
	}

	// An unblocked deadhead on the same departure reuses the stored duration.
	cursor = NewCursor(begin)
	dh := FlightData{Name: "DH0925", Origin: "MTY", Destination: "MEX", Blk: "0000", Turn: "0000"}
	flight, err := b.buildFlight(ctx, cursor, dh, "0000")
	if err != nil {
		t.Fatalf("buildFlight: %v", err)
	}
	if got := flight.Duration().Minutes(); got != 95 {
		t.Errorf("duration = %d minutes, want stored 95", got)
	}
	if flight.ID == 0 {
		t.Error("deadhead did not reuse the stored flight row")
	}

	// Both builds point at the same canonical row.
	r, err := s.RouteByKey(ctx, "0925", "MTY", "MEX")
	if err != nil {
		t.Fatal(err)
	}
	flights, err := s.FlightsOn(ctx, "AM", r.ID, begin)
	if err != nil {
		t.Fatal(err)
	}
	if len(flights) != 1 {
		t.Errorf("got %d stored rows, want 1", len(flights))
	}
}

// consistentTrip is one duty day of two legs with matching declared
// totals: report 10:00, legs 0140 + 0135 with a 0100 turn, release
// 15:45, so dy and tafb are both 5:45.
func consistentTrip() TripData {
	return TripData{
		Number:       "7002",
		DateAndTime:  "01Jun202310:00",
		CrewPosition: "SOB",
		CrewBase:     "MEX",
		TAFB:         "5:45",
		DutyDays: []DutyDayData{{
			Crd:             "0000",
			Dy:              "0545",
			LayoverDuration: "0000",
			Flights: []FlightData{
				{Name: "0924", Origin: "MEX", Destination: "MTY", Blk: "0140", Turn: "0100"},
				{Name: "0925", Origin: "MTY", Destination: "MEX", Blk: "0135", Turn: "0000"},
			},
		}},
	}
}

func TestBuildTripSuccess(t *testing.T) {
	b, _ := newTestBuilder(t, nil)
	ctx := context.Background()

	trip, err := b.BuildTrip(ctx, consistentTrip())
	if err != nil {
		t.Fatalf("BuildTrip: %v", err)
	}
	if trip.ID == 0 {
		t.Error("trip not persisted")
	}
	if got := trip.Duration().Minutes(); got != 5*60+45 {
		t.Errorf("tafb = %d minutes, want 345", got)
	}
	if len(trip.DutyDays) != 1 {
		t.Fatalf("got %d duty days", len(trip.DutyDays))
	}
	wantReport := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	if !trip.Report().Equal(wantReport) {
		t.Errorf("report = %v, want %v", trip.Report(), wantReport)
	}
}

func TestBuildTripIdempotent(t *testing.T) {
	b, _ := newTestBuilder(t, nil)
	ctx := context.Background()

	data := consistentTrip()
	first, err := b.BuildTrip(ctx, data)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := b.BuildTrip(ctx, data)
	if !errors.Is(err, ErrTripAlreadyStored) {
		t.Fatalf("second build: got %v, want ErrTripAlreadyStored", err)
	}
	if second == nil || second.ID != first.ID {
		t.Error("second build did not return the stored trip")
	}
}

func TestBuildTripDutyDayMismatch(t *testing.T) {
	b, s := newTestBuilder(t, PostponeResolver{})
	ctx := context.Background()

	data := consistentTrip()
	data.DutyDays[0].Dy = "0800" // computed is 0545
	_, err := b.BuildTrip(ctx, data)

	var mismatch *DutyDayMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want DutyDayMismatchError", err)
	}
	if mismatch.Declared != "0800" {
		t.Errorf("declared = %q", mismatch.Declared)
	}
	if got := mismatch.Built.Duration().String(); got != "0545" {
		t.Errorf("computed = %q, want 0545", got)
	}

	if _, err := s.TripByKey(ctx, "7002", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("inconsistent trip was persisted: %v", err)
	}
}

func TestBuildTripTAFBMismatch(t *testing.T) {
	b, s := newTestBuilder(t, nil)
	ctx := context.Background()

	data := consistentTrip()
	data.TAFB = "6:00"
	_, err := b.BuildTrip(ctx, data)

	var mismatch *TripMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want TripMismatchError", err)
	}
	if mismatch.Declared != "6:00" {
		t.Errorf("declared = %q", mismatch.Declared)
	}

	if _, err := s.TripByKey(ctx, "7002", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("mismatched trip was persisted: %v", err)
	}
}

func TestImportCollectsFailures(t *testing.T) {
	b, _ := newTestBuilder(t, PostponeResolver{})
	ctx := context.Background()

	good := consistentTrip()
	bad := consistentTrip()
	bad.Number = "7003"
	bad.DutyDays[0].Dy = "0800"

	res, err := b.Import(ctx, []TripData{good, bad, good})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Built != 1 {
		t.Errorf("built = %d, want 1", res.Built)
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if len(res.Unbuilt) != 1 {
		t.Fatalf("unbuilt = %d, want 1", len(res.Unbuilt))
	}
	if res.Unbuilt[0].Data.Number != "7003" {
		t.Errorf("unbuilt trip = %q", res.Unbuilt[0].Data.Number)
	}
	var mismatch *DutyDayMismatchError
	if !errors.As(res.Unbuilt[0].Reason, &mismatch) {
		t.Errorf("reason = %v", res.Unbuilt[0].Reason)
	}
}

// zeroBlockResolver answers every block-time question with zero minutes.
type zeroBlockResolver struct{ PostponeResolver }

func (zeroBlockResolver) BlockTime(FlightData, string) (duration.Duration, error) {
	return duration.Duration{}, nil
}

func TestBuildFlightZeroBlockRejected(t *testing.T) {
	b, _ := newTestBuilder(t, zeroBlockResolver{})
	ctx := context.Background()

	cursor := NewCursor(time.Date(2018, 6, 3, 14, 0, 0, 0, time.UTC))
	leg := FlightData{Name: "DH0925", Origin: "MTY", Destination: "MEX", Blk: "0000", Turn: "0000"}

	_, err := b.buildFlight(ctx, cursor, leg, "0000")
	var undefined *BlockTimeUndefinedError
	if !errors.As(err, &undefined) {
		t.Fatalf("got %v, want BlockTimeUndefinedError", err)
	}
	if undefined.Leg.Name != "DH0925" {
		t.Errorf("error leg = %q", undefined.Leg.Name)
	}
}

func TestReconcileAmbiguityPostponed(t *testing.T) {
	b, _ := newTestBuilder(t, PostponeResolver{})
	ctx := context.Background()

	mex := &schedule.Airport{IATACode: "MEX"}
	mty := &schedule.Airport{IATACode: "MTY"}
	route := &schedule.Route{ID: 1, Name: "0924", Origin: mex, Destination: mty}
	begin := time.Date(2018, 6, 3, 14, 0, 0, 0, time.UTC)
	it := schedule.NewItinerary(begin, begin.Add(100*time.Minute))

	built := &schedule.Flight{Name: "0924", Route: route, Carrier: "AM", Scheduled: it}
	stored := []*schedule.Flight{
		{ID: 1, Name: "0924", Route: route, Carrier: "AM", Scheduled: it},
		{ID: 2, Name: "0924", Route: route, Carrier: "AM", Scheduled: it},
	}

	if err := b.reconcile(ctx, built, stored); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("got %v, want ErrUnresolved", err)
	}
	if built.ID != 0 {
		t.Error("ambiguous match assigned an id")
	}
}

// correctingResolver accepts a mismatched duty day after replacing the
// itineraries of the named flights.
type correctingResolver struct {
	PostponeResolver
	corrections map[string]duration.Duration
}

func (r correctingResolver) DutyDayMismatch(string, *schedule.DutyDay) (Decision, error) {
	return Replace, nil
}

func (r correctingResolver) FlightCorrection(f *schedule.Flight) (*schedule.Itinerary, error) {
	d, ok := r.corrections[f.Name]
	if !ok {
		return nil, nil
	}
	it := schedule.ItineraryFromDuration(f.Begin(), d)
	return &it, nil
}

func TestBuildTripCorrectedDutyDay(t *testing.T) {
	r := correctingResolver{corrections: map[string]duration.Duration{"0925": duration.New(95)}}
	b, s := newTestBuilder(t, r)
	ctx := context.Background()

	// The second leg's printed block time is five minutes long, so the
	// computed day is 0550 against the declared 0545.
	data := consistentTrip()
	data.DutyDays[0].Flights[1].Blk = "0140"

	trip, err := b.BuildTrip(ctx, data)
	if err != nil {
		t.Fatalf("BuildTrip: %v", err)
	}
	if got := trip.Duration().Minutes(); got != 5*60+45 {
		t.Errorf("tafb = %d minutes, want 345", got)
	}

	corrected, ok := trip.DutyDays[0].Events[1].(*schedule.Flight)
	if !ok || corrected.Actual == nil {
		t.Fatal("second leg carries no corrected itinerary")
	}
	if got := corrected.Actual.Duration().Minutes(); got != 95 {
		t.Errorf("corrected duration = %d minutes, want 95", got)
	}

	// The correction reached the stored flight row.
	route, err := s.RouteByKey(ctx, "0925", "MTY", "MEX")
	if err != nil {
		t.Fatal(err)
	}
	flights, err := s.FlightsOn(ctx, "AM", route.ID, trip.Dated)
	if err != nil {
		t.Fatal(err)
	}
	if len(flights) != 1 || flights[0].Actual == nil {
		t.Fatalf("stored row not updated: %v", flights)
	}
	if got := flights[0].Actual.Duration().Minutes(); got != 95 {
		t.Errorf("stored actual duration = %d minutes, want 95", got)
	}
}

func TestDutyDayTotalsProperty(t *testing.T) {
	b, _ := newTestBuilder(t, nil)
	ctx := context.Background()

	trip, err := b.BuildTrip(ctx, consistentTrip())
	if err != nil {
		t.Fatal(err)
	}
	dd := trip.DutyDays[0]

	var legs, turns int
	for _, e := range dd.Events {
		legs += e.Duration().Minutes()
	}
	for _, turn := range dd.Turns() {
		turns += turn.Minutes()
	}
	want := legs + turns + int(schedule.ReportBuffer.Minutes()) + int(schedule.ReleaseBuffer.Minutes())
	if got := dd.Duration().Minutes(); got != want {
		t.Errorf("duty day duration = %d, want legs+turns+buffers = %d", got, want)
	}
}
