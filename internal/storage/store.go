// Package storage provides persistent storage for crew scheduling entities:
// airports, equipment, airlines, routes, flights and trips.
package storage

import (
	"context"
	"errors"
	"time"

	"orgutrip/internal/schedule"
)

// ErrNotFound is returned by the lookup methods when no row matches the
// natural key. Callers distinguish it from I/O failures to decide between
// create-and-store and abort.
var ErrNotFound = errors.New("storage: not found")

// ErrDuplicate is returned when an insert collides with an existing natural
// key, e.g. saving a trip that is already stored.
var ErrDuplicate = errors.New("storage: duplicate")

// Store is the lookup-and-save contract the reconstruction engine and the
// entity registry depend on. Implementations: SQLite (local, default) and
// PostgreSQL (shared deployments).
type Store interface {
	// Reference data, keyed by natural key.
	AirportByCode(ctx context.Context, iata string) (*schedule.Airport, error)
	SaveAirport(ctx context.Context, a *schedule.Airport) (int64, error)
	EquipmentByCode(ctx context.Context, code string) (*schedule.Equipment, error)
	SaveEquipment(ctx context.Context, e *schedule.Equipment) (int64, error)
	AirlineByCode(ctx context.Context, code string) (*schedule.Airline, error)
	SaveAirline(ctx context.Context, a *schedule.Airline) (int64, error)
	RouteByKey(ctx context.Context, name, origin, destination string) (*schedule.Route, error)
	SaveRoute(ctx context.Context, r *schedule.Route) (int64, error)

	// Flights. FlightsOn returns all stored flights for one carrier and
	// route departing on the given UTC day, hydrated with route and
	// equipment; the builder runs the identity match over them.
	FlightsOn(ctx context.Context, carrier string, routeID int64, day time.Time) ([]*schedule.Flight, error)
	SaveFlight(ctx context.Context, f *schedule.Flight) (int64, error)
	UpdateFlight(ctx context.Context, f *schedule.Flight) error
	DeleteFlight(ctx context.Context, id int64) error

	// Trips. TripByKey loads the full duty-day/flight graph.
	TripByKey(ctx context.Context, number string, dated time.Time) (*schedule.Trip, error)
	SaveTrip(ctx context.Context, t *schedule.Trip) (int64, error)
	DeleteTrip(ctx context.Context, id int64) error

	Close() error
}

// Config selects and configures a storage backend.
type Config struct {
	Backend  string         `yaml:"backend"` // "sqlite" (default) or "postgres"
	Path     string         `yaml:"path"`    // sqlite file path, ":memory:" for tests
	Postgres PostgresConfig `yaml:"postgres"`
}

// DefaultConfig returns local development settings.
func DefaultConfig() Config {
	return Config{
		Backend: "sqlite",
		Path:    "orgutrip.db",
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "orgutrip",
			User:     "orgutrip",
			Password: "orgutrip",
		},
	}
}

// Open opens the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Backend == "postgres" {
		return OpenPostgres(ctx, cfg.Postgres)
	}
	return OpenSQLite(cfg.Path)
}
