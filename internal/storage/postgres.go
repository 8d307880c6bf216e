package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"orgutrip/internal/duration"
	"orgutrip/internal/schedule"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// PostgresStore implements Store on a PostgreSQL pool, for deployments where
// several crew members share one flight/trip database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool and ensures the schema exists.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS airports (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		iata_code TEXT NOT NULL UNIQUE,
		timezone TEXT NOT NULL DEFAULT '',
		viaticum TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS equipment (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		code TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS airlines (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS routes (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL,
		origin_id BIGINT NOT NULL REFERENCES airports(id),
		destination_id BIGINT NOT NULL REFERENCES airports(id),
		UNIQUE(name, origin_id, destination_id)
	);

	CREATE TABLE IF NOT EXISTS flights (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		carrier TEXT NOT NULL,
		route_id BIGINT NOT NULL REFERENCES routes(id),
		sched_begin TIMESTAMPTZ NOT NULL,
		sched_end TIMESTAMPTZ NOT NULL,
		actual_begin TIMESTAMPTZ,
		actual_end TIMESTAMPTZ,
		equipment_id BIGINT REFERENCES equipment(id)
	);

	CREATE INDEX IF NOT EXISTS idx_flights_lookup ON flights(carrier, route_id, sched_begin);

	CREATE TABLE IF NOT EXISTS trips (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		number TEXT NOT NULL,
		dated DATE NOT NULL,
		position TEXT NOT NULL DEFAULT '',
		base_id BIGINT REFERENCES airports(id),
		UNIQUE(number, dated)
	);

	CREATE TABLE IF NOT EXISTS duty_days (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		trip_id BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		seq INT NOT NULL,
		report TIMESTAMPTZ NOT NULL,
		release TIMESTAMPTZ NOT NULL,
		layover_minutes INT NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_duty_days_trip ON duty_days(trip_id, seq);

	CREATE TABLE IF NOT EXISTS duty_day_legs (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		duty_day_id BIGINT NOT NULL REFERENCES duty_days(id) ON DELETE CASCADE,
		seq INT NOT NULL,
		flight_id BIGINT NOT NULL REFERENCES flights(id),
		name TEXT NOT NULL,
		deadhead BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_duty_day_legs ON duty_day_legs(duty_day_id, seq);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// AirportByCode looks up an airport by IATA code.
func (s *PostgresStore) AirportByCode(ctx context.Context, iata string) (*schedule.Airport, error) {
	var a schedule.Airport
	err := s.pool.QueryRow(ctx,
		`SELECT id, iata_code, timezone, viaticum FROM airports WHERE iata_code = $1`, iata).
		Scan(&a.ID, &a.IATACode, &a.Timezone, &a.Viaticum)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("airport %s: %w", iata, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("airport %s: %w", iata, err)
	}
	return &a, nil
}

// SaveAirport inserts an airport and returns its id.
func (s *PostgresStore) SaveAirport(ctx context.Context, a *schedule.Airport) (int64, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO airports (iata_code, timezone, viaticum) VALUES ($1, $2, $3) RETURNING id`,
		a.IATACode, a.Timezone, a.Viaticum).Scan(&a.ID)
	if err != nil {
		if isPgUniqueViolation(err) {
			return 0, fmt.Errorf("airport %s: %w", a.IATACode, ErrDuplicate)
		}
		return 0, fmt.Errorf("save airport %s: %w", a.IATACode, err)
	}
	return a.ID, nil
}

// EquipmentByCode looks up an equipment type by fleet code.
func (s *PostgresStore) EquipmentByCode(ctx context.Context, code string) (*schedule.Equipment, error) {
	var e schedule.Equipment
	err := s.pool.QueryRow(ctx, `SELECT id, code FROM equipment WHERE code = $1`, code).
		Scan(&e.ID, &e.Code)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("equipment %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("equipment %s: %w", code, err)
	}
	return &e, nil
}

// SaveEquipment inserts an equipment type and returns its id.
func (s *PostgresStore) SaveEquipment(ctx context.Context, e *schedule.Equipment) (int64, error) {
	err := s.pool.QueryRow(ctx, `INSERT INTO equipment (code) VALUES ($1) RETURNING id`, e.Code).
		Scan(&e.ID)
	if err != nil {
		if isPgUniqueViolation(err) {
			return 0, fmt.Errorf("equipment %s: %w", e.Code, ErrDuplicate)
		}
		return 0, fmt.Errorf("save equipment %s: %w", e.Code, err)
	}
	return e.ID, nil
}

// AirlineByCode looks up a carrier by IATA designator.
func (s *PostgresStore) AirlineByCode(ctx context.Context, code string) (*schedule.Airline, error) {
	var a schedule.Airline
	err := s.pool.QueryRow(ctx, `SELECT id, code, name FROM airlines WHERE code = $1`, code).
		Scan(&a.ID, &a.Code, &a.Name)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("airline %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("airline %s: %w", code, err)
	}
	return &a, nil
}

// SaveAirline inserts a carrier and returns its id.
func (s *PostgresStore) SaveAirline(ctx context.Context, a *schedule.Airline) (int64, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO airlines (code, name) VALUES ($1, $2) RETURNING id`, a.Code, a.Name).
		Scan(&a.ID)
	if err != nil {
		if isPgUniqueViolation(err) {
			return 0, fmt.Errorf("airline %s: %w", a.Code, ErrDuplicate)
		}
		return 0, fmt.Errorf("save airline %s: %w", a.Code, err)
	}
	return a.ID, nil
}

// RouteByKey looks up a route by natural key, hydrated with both airports.
func (s *PostgresStore) RouteByKey(ctx context.Context, name, origin, destination string) (*schedule.Route, error) {
	var r schedule.Route
	var o, d schedule.Airport
	err := s.pool.QueryRow(ctx, `
		SELECT r.id, r.name,
		       o.id, o.iata_code, o.timezone, o.viaticum,
		       d.id, d.iata_code, d.timezone, d.viaticum
		FROM routes r
		JOIN airports o ON o.id = r.origin_id
		JOIN airports d ON d.id = r.destination_id
		WHERE r.name = $1 AND o.iata_code = $2 AND d.iata_code = $3`,
		name, origin, destination).
		Scan(&r.ID, &r.Name,
			&o.ID, &o.IATACode, &o.Timezone, &o.Viaticum,
			&d.ID, &d.IATACode, &d.Timezone, &d.Viaticum)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("route %s: %w", schedule.RouteKey(name, origin, destination), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", schedule.RouteKey(name, origin, destination), err)
	}
	r.Origin, r.Destination = &o, &d
	return &r, nil
}

// SaveRoute inserts a route and returns its id.
func (s *PostgresStore) SaveRoute(ctx context.Context, r *schedule.Route) (int64, error) {
	if r.Origin.ID == 0 || r.Destination.ID == 0 {
		return 0, fmt.Errorf("save route %s: airports not stored", r.Key())
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO routes (name, origin_id, destination_id) VALUES ($1, $2, $3) RETURNING id`,
		r.Name, r.Origin.ID, r.Destination.ID).Scan(&r.ID)
	if err != nil {
		if isPgUniqueViolation(err) {
			return 0, fmt.Errorf("route %s: %w", r.Key(), ErrDuplicate)
		}
		return 0, fmt.Errorf("save route %s: %w", r.Key(), err)
	}
	return r.ID, nil
}

// FlightsOn returns stored flights for one carrier and route departing on
// the given UTC day.
func (s *PostgresStore) FlightsOn(ctx context.Context, carrier string, routeID int64, day time.Time) ([]*schedule.Flight, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	rows, err := s.pool.Query(ctx, `
		SELECT f.id, f.carrier, f.sched_begin, f.sched_end, f.actual_begin, f.actual_end,
		       r.id, r.name,
		       o.id, o.iata_code, o.timezone, o.viaticum,
		       d.id, d.iata_code, d.timezone, d.viaticum,
		       e.id, e.code
		FROM flights f
		JOIN routes r ON r.id = f.route_id
		JOIN airports o ON o.id = r.origin_id
		JOIN airports d ON d.id = r.destination_id
		LEFT JOIN equipment e ON e.id = f.equipment_id
		WHERE f.carrier = $1 AND f.route_id = $2
		  AND f.sched_begin >= $3 AND f.sched_begin < $4`,
		carrier, routeID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("flights on %s: %w", dayStart.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var flights []*schedule.Flight
	for rows.Next() {
		var f schedule.Flight
		var r schedule.Route
		var o, d schedule.Airport
		var schedBegin, schedEnd time.Time
		var actualBegin, actualEnd *time.Time
		var equipID *int64
		var equipCode *string

		err := rows.Scan(&f.ID, &f.Carrier, &schedBegin, &schedEnd, &actualBegin, &actualEnd,
			&r.ID, &r.Name,
			&o.ID, &o.IATACode, &o.Timezone, &o.Viaticum,
			&d.ID, &d.IATACode, &d.Timezone, &d.Viaticum,
			&equipID, &equipCode)
		if err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}

		r.Origin, r.Destination = &o, &d
		f.Route = &r
		f.Name = r.Name
		f.Scheduled = schedule.NewItinerary(schedBegin, schedEnd)
		if actualBegin != nil && actualEnd != nil {
			actual := schedule.NewItinerary(*actualBegin, *actualEnd)
			f.Actual = &actual
		}
		if equipID != nil {
			f.Equipment = &schedule.Equipment{ID: *equipID, Code: *equipCode}
		}
		flights = append(flights, &f)
	}
	return flights, rows.Err()
}

// SaveFlight inserts a flight row and returns its id.
func (s *PostgresStore) SaveFlight(ctx context.Context, f *schedule.Flight) (int64, error) {
	var equipID *int64
	if f.Equipment != nil && f.Equipment.ID != 0 {
		equipID = &f.Equipment.ID
	}
	var actualBegin, actualEnd *time.Time
	if f.Actual != nil {
		ab, ae := f.Actual.Begin, f.Actual.End
		actualBegin, actualEnd = &ab, &ae
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO flights (carrier, route_id, sched_begin, sched_end, actual_begin, actual_end, equipment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		f.Carrier, f.Route.ID, f.Scheduled.Begin, f.Scheduled.End, actualBegin, actualEnd, equipID).
		Scan(&f.ID)
	if err != nil {
		return 0, fmt.Errorf("save flight %s: %w", f.Route.Key(), err)
	}
	return f.ID, nil
}

// UpdateFlight rewrites a flight's itineraries and equipment.
func (s *PostgresStore) UpdateFlight(ctx context.Context, f *schedule.Flight) error {
	if f.ID == 0 {
		return fmt.Errorf("update flight %s: not stored", f.Route.Key())
	}
	var equipID *int64
	if f.Equipment != nil && f.Equipment.ID != 0 {
		equipID = &f.Equipment.ID
	}
	var actualBegin, actualEnd *time.Time
	if f.Actual != nil {
		ab, ae := f.Actual.Begin, f.Actual.End
		actualBegin, actualEnd = &ab, &ae
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE flights SET sched_begin = $1, sched_end = $2, actual_begin = $3, actual_end = $4, equipment_id = $5
		WHERE id = $6`,
		f.Scheduled.Begin, f.Scheduled.End, actualBegin, actualEnd, equipID, f.ID)
	if err != nil {
		return fmt.Errorf("update flight %d: %w", f.ID, err)
	}
	return nil
}

// DeleteFlight removes a flight row and any leg rows pointing at it.
func (s *PostgresStore) DeleteFlight(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM duty_day_legs WHERE flight_id = $1`, id); err != nil {
		return fmt.Errorf("delete flight %d legs: %w", id, err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM flights WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete flight %d: %w", id, err)
	}
	return nil
}

// TripByKey loads a trip and its full duty-day/leg graph by (number, dated).
func (s *PostgresStore) TripByKey(ctx context.Context, number string, dated time.Time) (*schedule.Trip, error) {
	var t schedule.Trip
	var baseID *int64
	err := s.pool.QueryRow(ctx,
		`SELECT id, number, dated, position, base_id FROM trips WHERE number = $1 AND dated = $2`,
		number, dated).
		Scan(&t.ID, &t.Number, &t.Dated, &t.CrewPosition, &baseID)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("trip %s dated %s: %w", number, dated.Format("2006-01-02"), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("trip %s: %w", number, err)
	}

	if baseID != nil {
		var base schedule.Airport
		err = s.pool.QueryRow(ctx,
			`SELECT id, iata_code, timezone, viaticum FROM airports WHERE id = $1`, *baseID).
			Scan(&base.ID, &base.IATACode, &base.Timezone, &base.Viaticum)
		if err != nil {
			return nil, fmt.Errorf("trip %s: load base: %w", number, err)
		}
		t.CrewBase = &base
	}

	ddRows, err := s.pool.Query(ctx,
		`SELECT id, layover_minutes FROM duty_days WHERE trip_id = $1 ORDER BY seq`, t.ID)
	if err != nil {
		return nil, fmt.Errorf("trip %s: load duty days: %w", number, err)
	}
	type ddRow struct {
		id      int64
		layover int
	}
	var dds []ddRow
	for ddRows.Next() {
		var r ddRow
		if err := ddRows.Scan(&r.id, &r.layover); err != nil {
			ddRows.Close()
			return nil, fmt.Errorf("trip %s: scan duty day: %w", number, err)
		}
		dds = append(dds, r)
	}
	ddRows.Close()
	if err := ddRows.Err(); err != nil {
		return nil, err
	}

	for _, r := range dds {
		dd := &schedule.DutyDay{ID: r.id, Layover: duration.New(r.layover)}
		if err := s.loadLegs(ctx, dd); err != nil {
			return nil, err
		}
		t.Append(dd)
	}
	return &t, nil
}

func (s *PostgresStore) loadLegs(ctx context.Context, dd *schedule.DutyDay) error {
	rows, err := s.pool.Query(ctx, `
		SELECT l.name, l.deadhead,
		       f.id, f.carrier, f.sched_begin, f.sched_end, f.actual_begin, f.actual_end,
		       r.id, r.name,
		       o.id, o.iata_code, o.timezone, o.viaticum,
		       d.id, d.iata_code, d.timezone, d.viaticum,
		       e.id, e.code
		FROM duty_day_legs l
		JOIN flights f ON f.id = l.flight_id
		JOIN routes r ON r.id = f.route_id
		JOIN airports o ON o.id = r.origin_id
		JOIN airports d ON d.id = r.destination_id
		LEFT JOIN equipment e ON e.id = f.equipment_id
		WHERE l.duty_day_id = $1 ORDER BY l.seq`, dd.ID)
	if err != nil {
		return fmt.Errorf("duty day %d: load legs: %w", dd.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var legName string
		var deadhead bool
		var f schedule.Flight
		var r schedule.Route
		var o, d schedule.Airport
		var schedBegin, schedEnd time.Time
		var actualBegin, actualEnd *time.Time
		var equipID *int64
		var equipCode *string

		err := rows.Scan(&legName, &deadhead,
			&f.ID, &f.Carrier, &schedBegin, &schedEnd, &actualBegin, &actualEnd,
			&r.ID, &r.Name,
			&o.ID, &o.IATACode, &o.Timezone, &o.Viaticum,
			&d.ID, &d.IATACode, &d.Timezone, &d.Viaticum,
			&equipID, &equipCode)
		if err != nil {
			return fmt.Errorf("duty day %d: scan leg: %w", dd.ID, err)
		}

		r.Origin, r.Destination = &o, &d
		f.Route = &r
		f.Name = legName
		f.Deadhead = deadhead
		f.Scheduled = schedule.NewItinerary(schedBegin, schedEnd)
		if actualBegin != nil && actualEnd != nil {
			actual := schedule.NewItinerary(*actualBegin, *actualEnd)
			f.Actual = &actual
		}
		if equipID != nil {
			f.Equipment = &schedule.Equipment{ID: *equipID, Code: *equipCode}
		}
		dd.Append(&f)
	}
	return rows.Err()
}

// SaveTrip inserts the trip row plus duty-day and leg join rows in one
// transaction.
func (s *PostgresStore) SaveTrip(ctx context.Context, t *schedule.Trip) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("save trip %s: begin: %w", t.Number, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var baseID *int64
	if t.CrewBase != nil && t.CrewBase.ID != 0 {
		baseID = &t.CrewBase.ID
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO trips (number, dated, position, base_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		t.Number, t.Dated, t.CrewPosition, baseID).Scan(&t.ID)
	if err != nil {
		if isPgUniqueViolation(err) {
			return 0, fmt.Errorf("trip %s dated %s: %w", t.Number, t.Dated.Format("2006-01-02"), ErrDuplicate)
		}
		return 0, fmt.Errorf("save trip %s: %w", t.Number, err)
	}

	for i, dd := range t.DutyDays {
		err := tx.QueryRow(ctx, `
			INSERT INTO duty_days (trip_id, seq, report, release, layover_minutes)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			t.ID, i, dd.Report(), dd.Release(), dd.Layover.Minutes()).Scan(&dd.ID)
		if err != nil {
			return 0, fmt.Errorf("save trip %s: duty day %d: %w", t.Number, i, err)
		}

		for j, e := range dd.Events {
			f, ok := e.(*schedule.Flight)
			if !ok {
				continue
			}
			if f.ID == 0 {
				return 0, fmt.Errorf("save trip %s: leg %s not stored", t.Number, f.Name)
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO duty_day_legs (duty_day_id, seq, flight_id, name, deadhead)
				VALUES ($1, $2, $3, $4, $5)`,
				dd.ID, j, f.ID, f.Name, f.Deadhead)
			if err != nil {
				return 0, fmt.Errorf("save trip %s: leg %d.%d: %w", t.Number, i, j, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("save trip %s: commit: %w", t.Number, err)
	}
	return t.ID, nil
}

// DeleteTrip removes a trip; duty days and legs cascade.
func (s *PostgresStore) DeleteTrip(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete trip %d: %w", id, err)
	}
	return nil
}
