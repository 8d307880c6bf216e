package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"orgutrip/internal/duration"
	"orgutrip/internal/schedule"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAirportRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.AirportByCode(ctx, "MEX"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("lookup before save: got %v, want ErrNotFound", err)
	}

	a := &schedule.Airport{IATACode: "MEX", Timezone: "America/Mexico_City", Viaticum: "high_cost"}
	id, err := s.SaveAirport(ctx, a)
	if err != nil {
		t.Fatalf("SaveAirport: %v", err)
	}
	if id == 0 {
		t.Fatal("SaveAirport returned zero id")
	}

	got, err := s.AirportByCode(ctx, "MEX")
	if err != nil {
		t.Fatalf("AirportByCode: %v", err)
	}
	if got.IATACode != "MEX" || got.Timezone != "America/Mexico_City" || got.Viaticum != "high_cost" {
		t.Errorf("got %+v", got)
	}

	if _, err := s.SaveAirport(ctx, a); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate save: got %v, want ErrDuplicate", err)
	}
}

func TestEquipmentAndAirline(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveEquipment(ctx, &schedule.Equipment{Code: "787"}); err != nil {
		t.Fatalf("SaveEquipment: %v", err)
	}
	e, err := s.EquipmentByCode(ctx, "787")
	if err != nil {
		t.Fatalf("EquipmentByCode: %v", err)
	}
	if e.Code != "787" {
		t.Errorf("code = %q, want 787", e.Code)
	}
	if _, err := s.EquipmentByCode(ctx, "737"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing equipment: got %v, want ErrNotFound", err)
	}

	if _, err := s.SaveAirline(ctx, &schedule.Airline{Code: "AM", Name: "Aeromexico"}); err != nil {
		t.Fatalf("SaveAirline: %v", err)
	}
	al, err := s.AirlineByCode(ctx, "AM")
	if err != nil {
		t.Fatalf("AirlineByCode: %v", err)
	}
	if al.Name != "Aeromexico" {
		t.Errorf("name = %q", al.Name)
	}
}

func seedRoute(t *testing.T, s *SQLiteStore, name, origin, destination string) *schedule.Route {
	t.Helper()
	ctx := context.Background()

	o, err := s.AirportByCode(ctx, origin)
	if errors.Is(err, ErrNotFound) {
		o = &schedule.Airport{IATACode: origin}
		if _, err := s.SaveAirport(ctx, o); err != nil {
			t.Fatalf("seed airport %s: %v", origin, err)
		}
	} else if err != nil {
		t.Fatal(err)
	}
	d, err := s.AirportByCode(ctx, destination)
	if errors.Is(err, ErrNotFound) {
		d = &schedule.Airport{IATACode: destination}
		if _, err := s.SaveAirport(ctx, d); err != nil {
			t.Fatalf("seed airport %s: %v", destination, err)
		}
	} else if err != nil {
		t.Fatal(err)
	}

	r := &schedule.Route{Name: name, Origin: o, Destination: d}
	if _, err := s.SaveRoute(ctx, r); err != nil {
		t.Fatalf("seed route: %v", err)
	}
	return r
}

func TestRouteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := seedRoute(t, s, "0403", "MEX", "JFK")

	got, err := s.RouteByKey(ctx, "0403", "MEX", "JFK")
	if err != nil {
		t.Fatalf("RouteByKey: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("id = %d, want %d", got.ID, r.ID)
	}
	if got.Origin.IATACode != "MEX" || got.Destination.IATACode != "JFK" {
		t.Errorf("airports = %s-%s", got.Origin.IATACode, got.Destination.IATACode)
	}

	if _, err := s.RouteByKey(ctx, "0404", "MEX", "JFK"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing route: got %v, want ErrNotFound", err)
	}
}

func TestFlightsOnFiltersByDay(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := seedRoute(t, s, "0924", "MEX", "MTY")

	dep := time.Date(2023, 6, 2, 20, 0, 0, 0, time.UTC)
	f1 := &schedule.Flight{
		Carrier:   "AM",
		Route:     r,
		Scheduled: schedule.NewItinerary(dep, dep.Add(100*time.Minute)),
	}
	if _, err := s.SaveFlight(ctx, f1); err != nil {
		t.Fatalf("SaveFlight: %v", err)
	}
	// Same route, next day. Must not match.
	f2 := &schedule.Flight{
		Carrier:   "AM",
		Route:     r,
		Scheduled: schedule.NewItinerary(dep.Add(24*time.Hour), dep.Add(24*time.Hour+100*time.Minute)),
	}
	if _, err := s.SaveFlight(ctx, f2); err != nil {
		t.Fatalf("SaveFlight: %v", err)
	}

	flights, err := s.FlightsOn(ctx, "AM", r.ID, dep)
	if err != nil {
		t.Fatalf("FlightsOn: %v", err)
	}
	if len(flights) != 1 {
		t.Fatalf("got %d flights, want 1", len(flights))
	}
	got := flights[0]
	if got.ID != f1.ID {
		t.Errorf("id = %d, want %d", got.ID, f1.ID)
	}
	if !got.Scheduled.Begin.Equal(dep) {
		t.Errorf("begin = %v, want %v", got.Scheduled.Begin, dep)
	}
	if got.Route.Origin.IATACode != "MEX" {
		t.Errorf("origin = %q", got.Route.Origin.IATACode)
	}
	if got.Name != "0924" {
		t.Errorf("name = %q, want route name", got.Name)
	}

	other, err := s.FlightsOn(ctx, "6D", r.ID, dep)
	if err != nil {
		t.Fatalf("FlightsOn other carrier: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d flights for other carrier, want 0", len(other))
	}
}

func TestUpdateFlight(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := seedRoute(t, s, "0403", "MEX", "JFK")
	dep := time.Date(2023, 6, 5, 6, 0, 0, 0, time.UTC)
	f := &schedule.Flight{
		Carrier:   "AM",
		Route:     r,
		Scheduled: schedule.NewItinerary(dep, dep.Add(4*time.Hour)),
	}
	if _, err := s.SaveFlight(ctx, f); err != nil {
		t.Fatalf("SaveFlight: %v", err)
	}

	actual := schedule.NewItinerary(dep.Add(10*time.Minute), dep.Add(4*time.Hour+5*time.Minute))
	f.Actual = &actual
	if err := s.UpdateFlight(ctx, f); err != nil {
		t.Fatalf("UpdateFlight: %v", err)
	}

	flights, err := s.FlightsOn(ctx, "AM", r.ID, dep)
	if err != nil {
		t.Fatal(err)
	}
	if len(flights) != 1 {
		t.Fatalf("got %d flights", len(flights))
	}
	if flights[0].Actual == nil {
		t.Fatal("actual itinerary not stored")
	}
	if !flights[0].Actual.Begin.Equal(actual.Begin) {
		t.Errorf("actual begin = %v, want %v", flights[0].Actual.Begin, actual.Begin)
	}
}

func buildTestTrip(t *testing.T, s *SQLiteStore) *schedule.Trip {
	t.Helper()
	ctx := context.Background()

	base := &schedule.Airport{IATACode: "MEX", Timezone: "America/Mexico_City"}
	if _, err := s.SaveAirport(ctx, base); err != nil {
		t.Fatal(err)
	}
	r := seedRoute(t, s, "0924", "MEX", "MTY")
	back := seedRoute(t, s, "0925", "MTY", "MEX")

	dep1 := time.Date(2023, 6, 2, 20, 0, 0, 0, time.UTC)
	f1 := &schedule.Flight{
		Name: "0924", Carrier: "AM", Route: r,
		Scheduled: schedule.NewItinerary(dep1, dep1.Add(100*time.Minute)),
	}
	dep2 := dep1.Add(3 * time.Hour)
	f2 := &schedule.Flight{
		Name: "0925", Carrier: "AM", Route: back, Deadhead: true,
		Scheduled: schedule.NewItinerary(dep2, dep2.Add(95*time.Minute)),
	}
	for _, f := range []*schedule.Flight{f1, f2} {
		if _, err := s.SaveFlight(ctx, f); err != nil {
			t.Fatalf("save leg %s: %v", f.Name, err)
		}
	}

	dd := &schedule.DutyDay{Layover: duration.New(14 * 60)}
	dd.Append(f1)
	dd.Append(f2)

	trip := &schedule.Trip{
		Number:       "7002",
		Dated:        time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC),
		CrewPosition: "SOB",
		CrewBase:     base,
	}
	trip.Append(dd)
	return trip
}

func TestTripRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	trip := buildTestTrip(t, s)
	if _, err := s.SaveTrip(ctx, trip); err != nil {
		t.Fatalf("SaveTrip: %v", err)
	}

	got, err := s.TripByKey(ctx, "7002", trip.Dated)
	if err != nil {
		t.Fatalf("TripByKey: %v", err)
	}
	if got.Number != "7002" || got.CrewPosition != "SOB" {
		t.Errorf("trip = %+v", got)
	}
	if got.CrewBase == nil || got.CrewBase.IATACode != "MEX" {
		t.Errorf("base = %+v", got.CrewBase)
	}
	if len(got.DutyDays) != 1 {
		t.Fatalf("got %d duty days, want 1", len(got.DutyDays))
	}
	dd := got.DutyDays[0]
	if len(dd.Events) != 2 {
		t.Fatalf("got %d legs, want 2", len(dd.Events))
	}
	if dd.Layover.Minutes() != 14*60 {
		t.Errorf("layover = %d minutes", dd.Layover.Minutes())
	}

	leg2, ok := dd.Events[1].(*schedule.Flight)
	if !ok {
		t.Fatalf("leg 2 is %T", dd.Events[1])
	}
	if !leg2.Deadhead {
		t.Error("leg 2 deadhead flag lost")
	}
	if leg2.Name != "0925" {
		t.Errorf("leg 2 name = %q", leg2.Name)
	}
	if leg2.Route.Origin.IATACode != "MTY" {
		t.Errorf("leg 2 origin = %q", leg2.Route.Origin.IATACode)
	}
}

func TestSaveTripDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	trip := buildTestTrip(t, s)
	if _, err := s.SaveTrip(ctx, trip); err != nil {
		t.Fatalf("first save: %v", err)
	}

	again := *trip
	again.ID = 0
	if _, err := s.SaveTrip(ctx, &again); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second save: got %v, want ErrDuplicate", err)
	}
}

func TestDeleteTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	trip := buildTestTrip(t, s)
	if _, err := s.SaveTrip(ctx, trip); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTrip(ctx, trip.ID); err != nil {
		t.Fatalf("DeleteTrip: %v", err)
	}
	if _, err := s.TripByKey(ctx, "7002", trip.Dated); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}

	// Flights are canonical records and survive trip deletion.
	r, err := s.RouteByKey(ctx, "0924", "MEX", "MTY")
	if err != nil {
		t.Fatal(err)
	}
	flights, err := s.FlightsOn(ctx, "AM", r.ID, time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(flights) != 1 {
		t.Errorf("got %d flights after trip delete, want 1", len(flights))
	}
}
