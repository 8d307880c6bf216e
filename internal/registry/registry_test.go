package registry

import (
	"context"
	"testing"

	"orgutrip/internal/schedule"
	"orgutrip/internal/storage"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s)
}

func TestAirportCreatedOnce(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	a1, err := r.Airport(ctx, "MEX")
	if err != nil {
		t.Fatalf("Airport: %v", err)
	}
	if a1.IATACode != "MEX" {
		t.Errorf("code = %q", a1.IATACode)
	}
	if a1.ID == 0 {
		t.Error("created airport has no id")
	}

	a2, err := r.Airport(ctx, "MEX")
	if err != nil {
		t.Fatal(err)
	}
	if a1 != a2 {
		t.Error("second lookup returned a different instance")
	}
}

func TestAirportLoadedFromStore(t *testing.T) {
	s, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	seeded := &schedule.Airport{IATACode: "JFK", Timezone: "America/New_York"}
	if _, err := s.SaveAirport(ctx, seeded); err != nil {
		t.Fatal(err)
	}

	r := New(s)
	a, err := r.Airport(ctx, "JFK")
	if err != nil {
		t.Fatal(err)
	}
	if a.Timezone != "America/New_York" {
		t.Errorf("timezone = %q, want stored value", a.Timezone)
	}
}

func TestRouteResolvesAirports(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	rt, err := r.Route(ctx, "0403", "MEX", "JFK")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if rt.Origin == nil || rt.Origin.IATACode != "MEX" {
		t.Errorf("origin = %+v", rt.Origin)
	}
	if rt.Destination == nil || rt.Destination.IATACode != "JFK" {
		t.Errorf("destination = %+v", rt.Destination)
	}

	// The route's airports are the same cached instances.
	a, err := r.Airport(ctx, "MEX")
	if err != nil {
		t.Fatal(err)
	}
	if rt.Origin != a {
		t.Error("route origin is not the cached airport instance")
	}

	again, err := r.Route(ctx, "0403", "MEX", "JFK")
	if err != nil {
		t.Fatal(err)
	}
	if again != rt {
		t.Error("second lookup returned a different route instance")
	}
}

func TestEquipmentAndAirline(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	e, err := r.Equipment(ctx, "787")
	if err != nil {
		t.Fatal(err)
	}
	if e.Code != "787" || e.ID == 0 {
		t.Errorf("equipment = %+v", e)
	}

	al, err := r.Airline(ctx, "6D")
	if err != nil {
		t.Fatal(err)
	}
	if al.Code != "6D" || al.ID == 0 {
		t.Errorf("airline = %+v", al)
	}

	airports, equipment, airlines, routes := r.Size()
	if airports != 0 || equipment != 1 || airlines != 1 || routes != 0 {
		t.Errorf("sizes = %d/%d/%d/%d", airports, equipment, airlines, routes)
	}
}
