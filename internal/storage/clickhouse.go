package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"orgutrip/internal/schedule"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Archive wraps a ClickHouse connection used as a long-term sink for built
// trips. Each trip is flattened to one row per flight leg so seniority and
// block-time reports can run as plain aggregations.
type Archive struct {
	conn driver.Conn
}

// OpenArchive opens a connection to ClickHouse.
func OpenArchive(ctx context.Context, cfg ClickHouseConfig) (*Archive, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &Archive{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (a *Archive) Close() error {
	return a.conn.Close()
}

// CreateSchema creates the archive table.
func (a *Archive) CreateSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS trip_legs (
		trip_number     LowCardinality(String),
		trip_dated      Date,
		crew_position   LowCardinality(String),
		crew_base       LowCardinality(String),
		duty_day        UInt8,
		leg             UInt8,
		flight_name     LowCardinality(String),
		carrier         LowCardinality(String),
		origin          LowCardinality(String),
		destination     LowCardinality(String),
		departure       DateTime64(0, 'UTC'),
		arrival         DateTime64(0, 'UTC'),
		block_minutes   UInt16,
		deadhead        Bool,
		equipment       LowCardinality(String),
		archived_at     DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(trip_dated)
	ORDER BY (trip_dated, trip_number, duty_day, leg)
	SETTINGS index_granularity = 8192`

	if err := a.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ArchiveTrips flattens the trips into leg rows and sends them as one batch.
func (a *Archive) ArchiveTrips(ctx context.Context, trips []*schedule.Trip) error {
	if len(trips) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO trip_legs (trip_number, trip_dated, crew_position, crew_base,
			duty_day, leg, flight_name, carrier, origin, destination,
			departure, arrival, block_minutes, deadhead, equipment)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trips {
		base := ""
		if t.CrewBase != nil {
			base = t.CrewBase.IATACode
		}
		for di, dd := range t.DutyDays {
			for li, e := range dd.Events {
				f, ok := e.(*schedule.Flight)
				if !ok {
					continue
				}
				equip := ""
				if f.Equipment != nil {
					equip = f.Equipment.Code
				}
				err := batch.Append(
					t.Number, t.Dated, t.CrewPosition, base,
					uint8(di+1), uint8(li+1),
					f.Name, f.Carrier,
					f.Route.Origin.IATACode, f.Route.Destination.IATACode,
					f.Begin(), f.End(),
					uint16(f.Duration().Minutes()), f.Deadhead, equip)
				if err != nil {
					return fmt.Errorf("append trip %s leg %d.%d: %w", t.Number, di, li, err)
				}
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// ArchiveStats contains aggregate statistics about archived trips.
type ArchiveStats struct {
	TotalLegs       uint64
	TotalTrips      uint64
	DeadheadLegs    uint64
	BlockByCarrier  map[string]uint64 // minutes
	LegsByEquipment map[string]uint64
}

// Stats returns aggregate figures over the archive.
func (a *Archive) Stats(ctx context.Context) (*ArchiveStats, error) {
	stats := &ArchiveStats{
		BlockByCarrier:  make(map[string]uint64),
		LegsByEquipment: make(map[string]uint64),
	}

	row := a.conn.QueryRow(ctx, `
		SELECT count(), uniqExact(trip_number, trip_dated), countIf(deadhead)
		FROM trip_legs`)
	if err := row.Scan(&stats.TotalLegs, &stats.TotalTrips, &stats.DeadheadLegs); err != nil {
		return nil, fmt.Errorf("scan totals: %w", err)
	}

	rows, err := a.conn.Query(ctx, `
		SELECT carrier, sum(block_minutes)
		FROM trip_legs WHERE NOT deadhead
		GROUP BY carrier ORDER BY sum(block_minutes) DESC`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var carrier string
		var minutes uint64
		if err := rows.Scan(&carrier, &minutes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan carrier stats: %w", err)
		}
		stats.BlockByCarrier[carrier] = minutes
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate carrier stats: %w", err)
	}
	rows.Close()

	rows, err = a.conn.Query(ctx, `
		SELECT equipment, count()
		FROM trip_legs WHERE equipment != ''
		GROUP BY equipment ORDER BY count() DESC LIMIT 20`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var equip string
		var count uint64
		if err := rows.Scan(&equip, &count); err != nil {
			return nil, fmt.Errorf("scan equipment stats: %w", err)
		}
		stats.LegsByEquipment[equip] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment stats: %w", err)
	}

	return stats, nil
}

// BlockMinutesByMonth returns flown block minutes grouped by calendar month.
func (a *Archive) BlockMinutesByMonth(ctx context.Context) (map[string]uint64, error) {
	byMonth := make(map[string]uint64)
	rows, err := a.conn.Query(ctx, `
		SELECT toYYYYMM(trip_dated) AS month, sum(block_minutes)
		FROM trip_legs WHERE NOT deadhead
		GROUP BY month ORDER BY month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var month uint32
		var minutes uint64
		if err := rows.Scan(&month, &minutes); err != nil {
			return nil, fmt.Errorf("scan month stats: %w", err)
		}
		byMonth[fmt.Sprintf("%d", month)] = minutes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate month stats: %w", err)
	}
	return byMonth, nil
}
