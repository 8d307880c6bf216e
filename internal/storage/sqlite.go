package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"orgutrip/internal/duration"
	"orgutrip/internal/schedule"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
// Empty path or ":memory:" gives an in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS airports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		iata_code TEXT NOT NULL UNIQUE,
		timezone TEXT NOT NULL DEFAULT '',
		viaticum TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS equipment (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS airlines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS routes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		origin_id INTEGER NOT NULL REFERENCES airports(id),
		destination_id INTEGER NOT NULL REFERENCES airports(id),
		UNIQUE(name, origin_id, destination_id)
	);

	CREATE TABLE IF NOT EXISTS flights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		carrier TEXT NOT NULL,
		route_id INTEGER NOT NULL REFERENCES routes(id),
		sched_begin TEXT NOT NULL,
		sched_end TEXT NOT NULL,
		actual_begin TEXT,
		actual_end TEXT,
		equipment_id INTEGER REFERENCES equipment(id)
	);

	CREATE INDEX IF NOT EXISTS idx_flights_lookup ON flights(carrier, route_id, sched_begin);

	CREATE TABLE IF NOT EXISTS trips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		number TEXT NOT NULL,
		dated TEXT NOT NULL,
		position TEXT NOT NULL DEFAULT '',
		base_id INTEGER REFERENCES airports(id),
		UNIQUE(number, dated)
	);

	CREATE TABLE IF NOT EXISTS duty_days (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trip_id INTEGER NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		report TEXT NOT NULL,
		release TEXT NOT NULL,
		layover_minutes INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_duty_days_trip ON duty_days(trip_id, seq);

	CREATE TABLE IF NOT EXISTS duty_day_legs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		duty_day_id INTEGER NOT NULL REFERENCES duty_days(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		flight_id INTEGER NOT NULL REFERENCES flights(id),
		name TEXT NOT NULL,
		deadhead INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_duty_day_legs ON duty_day_legs(duty_day_id, seq);
	`
	_, err := db.Exec(schema)
	return err
}

const dbTimeLayout = time.RFC3339

func encodeTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(dbTimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// dateOnly is the trips.dated column format.
const dateOnly = "2006-01-02"

// AirportByCode looks up an airport by IATA code.
func (s *SQLiteStore) AirportByCode(ctx context.Context, iata string) (*schedule.Airport, error) {
	var a schedule.Airport
	err := s.db.QueryRowContext(ctx,
		`SELECT id, iata_code, timezone, viaticum FROM airports WHERE iata_code = ?`, iata).
		Scan(&a.ID, &a.IATACode, &a.Timezone, &a.Viaticum)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("airport %s: %w", iata, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("airport %s: %w", iata, err)
	}
	return &a, nil
}

// SaveAirport inserts an airport and returns its id.
func (s *SQLiteStore) SaveAirport(ctx context.Context, a *schedule.Airport) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO airports (iata_code, timezone, viaticum) VALUES (?, ?, ?)`,
		a.IATACode, a.Timezone, a.Viaticum)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("airport %s: %w", a.IATACode, ErrDuplicate)
		}
		return 0, fmt.Errorf("save airport %s: %w", a.IATACode, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// EquipmentByCode looks up an equipment type by fleet code.
func (s *SQLiteStore) EquipmentByCode(ctx context.Context, code string) (*schedule.Equipment, error) {
	var e schedule.Equipment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code FROM equipment WHERE code = ?`, code).Scan(&e.ID, &e.Code)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("equipment %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("equipment %s: %w", code, err)
	}
	return &e, nil
}

// SaveEquipment inserts an equipment type and returns its id.
func (s *SQLiteStore) SaveEquipment(ctx context.Context, e *schedule.Equipment) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO equipment (code) VALUES (?)`, e.Code)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("equipment %s: %w", e.Code, ErrDuplicate)
		}
		return 0, fmt.Errorf("save equipment %s: %w", e.Code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	e.ID = id
	return id, nil
}

// AirlineByCode looks up a carrier by IATA designator.
func (s *SQLiteStore) AirlineByCode(ctx context.Context, code string) (*schedule.Airline, error) {
	var a schedule.Airline
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, name FROM airlines WHERE code = ?`, code).Scan(&a.ID, &a.Code, &a.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("airline %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("airline %s: %w", code, err)
	}
	return &a, nil
}

// SaveAirline inserts a carrier and returns its id.
func (s *SQLiteStore) SaveAirline(ctx context.Context, a *schedule.Airline) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO airlines (code, name) VALUES (?, ?)`, a.Code, a.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("airline %s: %w", a.Code, ErrDuplicate)
		}
		return 0, fmt.Errorf("save airline %s: %w", a.Code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// RouteByKey looks up a route by its (name, origin, destination) natural key,
// hydrated with both airports.
func (s *SQLiteStore) RouteByKey(ctx context.Context, name, origin, destination string) (*schedule.Route, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.name,
		       o.id, o.iata_code, o.timezone, o.viaticum,
		       d.id, d.iata_code, d.timezone, d.viaticum
		FROM routes r
		JOIN airports o ON o.id = r.origin_id
		JOIN airports d ON d.id = r.destination_id
		WHERE r.name = ? AND o.iata_code = ? AND d.iata_code = ?`,
		name, origin, destination)

	var r schedule.Route
	var o, d schedule.Airport
	err := row.Scan(&r.ID, &r.Name,
		&o.ID, &o.IATACode, &o.Timezone, &o.Viaticum,
		&d.ID, &d.IATACode, &d.Timezone, &d.Viaticum)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("route %s: %w", schedule.RouteKey(name, origin, destination), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", schedule.RouteKey(name, origin, destination), err)
	}
	r.Origin, r.Destination = &o, &d
	return &r, nil
}

// SaveRoute inserts a route and returns its id. Both airports must already
// be stored.
func (s *SQLiteStore) SaveRoute(ctx context.Context, r *schedule.Route) (int64, error) {
	if r.Origin.ID == 0 || r.Destination.ID == 0 {
		return 0, fmt.Errorf("save route %s: airports not stored", r.Key())
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO routes (name, origin_id, destination_id) VALUES (?, ?, ?)`,
		r.Name, r.Origin.ID, r.Destination.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("route %s: %w", r.Key(), ErrDuplicate)
		}
		return 0, fmt.Errorf("save route %s: %w", r.Key(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.ID = id
	return id, nil
}

// FlightsOn returns stored flights for one carrier and route departing on
// the given UTC day.
func (s *SQLiteStore) FlightsOn(ctx context.Context, carrier string, routeID int64, day time.Time) ([]*schedule.Flight, error) {
	dayPrefix := day.UTC().Format(dateOnly)
	rows, err := s.db.QueryContext(ctx, `
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
		WHERE f.carrier = ? AND f.route_id = ? AND f.sched_begin LIKE ?`,
		carrier, routeID, dayPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("flights on %s: %w", dayPrefix, err)
	}
	defer func() { _ = rows.Close() }()

	var flights []*schedule.Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

// scanFlight reads one flight row with its route/airport/equipment joins.
func scanFlight(rows *sql.Rows) (*schedule.Flight, error) {
	var f schedule.Flight
	var r schedule.Route
	var o, d schedule.Airport
	var schedBegin, schedEnd string
	var actualBegin, actualEnd sql.NullString
	var equipID sql.NullInt64
	var equipCode sql.NullString

	err := rows.Scan(&f.ID, &f.Carrier, &schedBegin, &schedEnd, &actualBegin, &actualEnd,
		&r.ID, &r.Name,
		&o.ID, &o.IATACode, &o.Timezone, &o.Viaticum,
		&d.ID, &d.IATACode, &d.Timezone, &d.Viaticum,
		&equipID, &equipCode)
	if err != nil {
		return nil, err
	}

	r.Origin, r.Destination = &o, &d
	f.Route = &r
	f.Name = r.Name

	begin, err := decodeTime(schedBegin)
	if err != nil {
		return nil, err
	}
	end, err := decodeTime(schedEnd)
	if err != nil {
		return nil, err
	}
	f.Scheduled = schedule.NewItinerary(begin, end)

	if actualBegin.Valid && actualEnd.Valid {
		ab, err := decodeTime(actualBegin.String)
		if err != nil {
			return nil, err
		}
		ae, err := decodeTime(actualEnd.String)
		if err != nil {
			return nil, err
		}
		actual := schedule.NewItinerary(ab, ae)
		f.Actual = &actual
	}

	if equipID.Valid {
		f.Equipment = &schedule.Equipment{ID: equipID.Int64, Code: equipCode.String}
	}
	return &f, nil
}

// SaveFlight inserts a flight row and returns its id.
func (s *SQLiteStore) SaveFlight(ctx context.Context, f *schedule.Flight) (int64, error) {
	var equipID any
	if f.Equipment != nil && f.Equipment.ID != 0 {
		equipID = f.Equipment.ID
	}
	var actualBegin, actualEnd any
	if f.Actual != nil {
		actualBegin = encodeTime(f.Actual.Begin)
		actualEnd = encodeTime(f.Actual.End)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO flights (carrier, route_id, sched_begin, sched_end, actual_begin, actual_end, equipment_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Carrier, f.Route.ID, encodeTime(f.Scheduled.Begin), encodeTime(f.Scheduled.End),
		actualBegin, actualEnd, equipID)
	if err != nil {
		return 0, fmt.Errorf("save flight %s: %w", f.Route.Key(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	f.ID = id
	return id, nil
}

// UpdateFlight rewrites a flight's itineraries and equipment.
func (s *SQLiteStore) UpdateFlight(ctx context.Context, f *schedule.Flight) error {
	if f.ID == 0 {
		return fmt.Errorf("update flight %s: not stored", f.Route.Key())
	}
	var equipID any
	if f.Equipment != nil && f.Equipment.ID != 0 {
		equipID = f.Equipment.ID
	}
	var actualBegin, actualEnd any
	if f.Actual != nil {
		actualBegin = encodeTime(f.Actual.Begin)
		actualEnd = encodeTime(f.Actual.End)
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE flights SET sched_begin = ?, sched_end = ?, actual_begin = ?, actual_end = ?, equipment_id = ?
		WHERE id = ?`,
		encodeTime(f.Scheduled.Begin), encodeTime(f.Scheduled.End), actualBegin, actualEnd, equipID, f.ID)
	if err != nil {
		return fmt.Errorf("update flight %d: %w", f.ID, err)
	}
	return nil
}

// DeleteFlight removes a flight row and any leg rows pointing at it.
func (s *SQLiteStore) DeleteFlight(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM duty_day_legs WHERE flight_id = ?`, id); err != nil {
		return fmt.Errorf("delete flight %d legs: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM flights WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete flight %d: %w", id, err)
	}
	return nil
}

// TripByKey loads a trip and its full duty-day/leg graph by (number, dated).
func (s *SQLiteStore) TripByKey(ctx context.Context, number string, dated time.Time) (*schedule.Trip, error) {
	var t schedule.Trip
	var datedStr string
	var baseID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, number, dated, position, base_id FROM trips WHERE number = ? AND dated = ?`,
		number, dated.Format(dateOnly)).
		Scan(&t.ID, &t.Number, &datedStr, &t.CrewPosition, &baseID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %s dated %s: %w", number, dated.Format(dateOnly), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("trip %s: %w", number, err)
	}

	t.Dated, err = time.Parse(dateOnly, datedStr)
	if err != nil {
		return nil, fmt.Errorf("trip %s: bad dated %q: %w", number, datedStr, err)
	}

	if baseID.Valid {
		var base schedule.Airport
		err = s.db.QueryRowContext(ctx,
			`SELECT id, iata_code, timezone, viaticum FROM airports WHERE id = ?`, baseID.Int64).
			Scan(&base.ID, &base.IATACode, &base.Timezone, &base.Viaticum)
		if err != nil {
			return nil, fmt.Errorf("trip %s: load base: %w", number, err)
		}
		t.CrewBase = &base
	}

	if err := s.loadDutyDays(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) loadDutyDays(ctx context.Context, t *schedule.Trip) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, layover_minutes FROM duty_days WHERE trip_id = ? ORDER BY seq`, t.ID)
	if err != nil {
		return fmt.Errorf("trip %s: load duty days: %w", t.Number, err)
	}

	type ddRow struct {
		id      int64
		layover int
	}
	var dds []ddRow
	for rows.Next() {
		var r ddRow
		if err := rows.Scan(&r.id, &r.layover); err != nil {
			_ = rows.Close()
			return fmt.Errorf("trip %s: scan duty day: %w", t.Number, err)
		}
		dds = append(dds, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, r := range dds {
		dd := &schedule.DutyDay{ID: r.id, Layover: duration.New(r.layover)}
		if err := s.loadLegs(ctx, dd); err != nil {
			return err
		}
		t.Append(dd)
	}
	return nil
}

func (s *SQLiteStore) loadLegs(ctx context.Context, dd *schedule.DutyDay) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.name, f.id, f.carrier, f.sched_begin, f.sched_end, f.actual_begin, f.actual_end,
		       r.id, r.name,
		       o.id, o.iata_code, o.timezone, o.viaticum,
		       d.id, d.iata_code, d.timezone, d.viaticum,
		       e.id, e.code,
		       l.deadhead
		FROM duty_day_legs l
		JOIN flights f ON f.id = l.flight_id
		JOIN routes r ON r.id = f.route_id
		JOIN airports o ON o.id = r.origin_id
		JOIN airports d ON d.id = r.destination_id
		LEFT JOIN equipment e ON e.id = f.equipment_id
		WHERE l.duty_day_id = ? ORDER BY l.seq`, dd.ID)
	if err != nil {
		return fmt.Errorf("duty day %d: load legs: %w", dd.ID, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var legName sql.NullString
		var f schedule.Flight
		var r schedule.Route
		var o, d schedule.Airport
		var schedBegin, schedEnd string
		var actualBegin, actualEnd sql.NullString
		var equipID sql.NullInt64
		var equipCode sql.NullString
		var deadhead int

		err := rows.Scan(&legName, &f.ID, &f.Carrier, &schedBegin, &schedEnd, &actualBegin, &actualEnd,
			&r.ID, &r.Name,
			&o.ID, &o.IATACode, &o.Timezone, &o.Viaticum,
			&d.ID, &d.IATACode, &d.Timezone, &d.Viaticum,
			&equipID, &equipCode,
			&deadhead)
		if err != nil {
			return fmt.Errorf("duty day %d: scan leg: %w", dd.ID, err)
		}

		r.Origin, r.Destination = &o, &d
		f.Route = &r
		f.Name = legName.String
		f.Deadhead = deadhead != 0

		begin, err := decodeTime(schedBegin)
		if err != nil {
			return err
		}
		end, err := decodeTime(schedEnd)
		if err != nil {
			return err
		}
		f.Scheduled = schedule.NewItinerary(begin, end)

		if actualBegin.Valid && actualEnd.Valid {
			ab, err := decodeTime(actualBegin.String)
			if err != nil {
				return err
			}
			ae, err := decodeTime(actualEnd.String)
			if err != nil {
				return err
			}
			actual := schedule.NewItinerary(ab, ae)
			f.Actual = &actual
		}

		if equipID.Valid {
			f.Equipment = &schedule.Equipment{ID: equipID.Int64, Code: equipCode.String}
		}
		dd.Append(&f)
	}
	return rows.Err()
}

// SaveTrip inserts the trip row plus its duty-day and leg join rows in one
// transaction. Every flight on the trip must already be stored. A trip with
// the same (number, dated) yields ErrDuplicate.
func (s *SQLiteStore) SaveTrip(ctx context.Context, t *schedule.Trip) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save trip %s: begin: %w", t.Number, err)
	}
	defer func() { _ = tx.Rollback() }()

	var baseID any
	if t.CrewBase != nil && t.CrewBase.ID != 0 {
		baseID = t.CrewBase.ID
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO trips (number, dated, position, base_id) VALUES (?, ?, ?, ?)`,
		t.Number, t.Dated.Format(dateOnly), t.CrewPosition, baseID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("trip %s dated %s: %w", t.Number, t.Dated.Format(dateOnly), ErrDuplicate)
		}
		return 0, fmt.Errorf("save trip %s: %w", t.Number, err)
	}
	tripID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, dd := range t.DutyDays {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO duty_days (trip_id, seq, report, release, layover_minutes)
			VALUES (?, ?, ?, ?, ?)`,
			tripID, i, encodeTime(dd.Report()), encodeTime(dd.Release()), dd.Layover.Minutes())
		if err != nil {
			return 0, fmt.Errorf("save trip %s: duty day %d: %w", t.Number, i, err)
		}
		ddID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		dd.ID = ddID

		for j, e := range dd.Events {
			f, ok := e.(*schedule.Flight)
			if !ok {
				continue
			}
			if f.ID == 0 {
				return 0, fmt.Errorf("save trip %s: leg %s not stored", t.Number, f.Name)
			}
			deadhead := 0
			if f.Deadhead {
				deadhead = 1
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO duty_day_legs (duty_day_id, seq, flight_id, name, deadhead)
				VALUES (?, ?, ?, ?, ?)`,
				ddID, j, f.ID, f.Name, deadhead)
			if err != nil {
				return 0, fmt.Errorf("save trip %s: leg %d.%d: %w", t.Number, i, j, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save trip %s: commit: %w", t.Number, err)
	}
	t.ID = tripID
	return tripID, nil
}

// DeleteTrip removes a trip with its duty-day and leg rows. Explicit deletes
// rather than FK cascade, so it works with foreign keys off.
func (s *SQLiteStore) DeleteTrip(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM duty_day_legs WHERE duty_day_id IN (SELECT id FROM duty_days WHERE trip_id = ?)`, id); err != nil {
		return fmt.Errorf("delete trip %d legs: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM duty_days WHERE trip_id = ?`, id); err != nil {
		return fmt.Errorf("delete trip %d duty days: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete trip %d: %w", id, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
