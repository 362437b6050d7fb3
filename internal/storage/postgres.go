package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gds_parser/internal/gds"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool holding parsed dumps and the
// segments extracted from them.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
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

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS dumps (
		id              TEXT PRIMARY KEY,
		vendor          TEXT NOT NULL,
		kind            TEXT NOT NULL,
		base_date       TEXT,
		success         BOOLEAN NOT NULL,
		raw_text        TEXT NOT NULL,
		result          JSONB,
		errors          TEXT[],
		received_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_dumps_vendor_kind ON dumps(vendor, kind);
	CREATE INDEX IF NOT EXISTS idx_dumps_received ON dumps(received_at);

	CREATE TABLE IF NOT EXISTS itinerary_segments (
		dump_id             TEXT NOT NULL REFERENCES dumps(id) ON DELETE CASCADE,
		sequence            INTEGER NOT NULL,
		segment_number      TEXT NOT NULL,
		airline             TEXT NOT NULL,
		flight_number       TEXT NOT NULL,
		booking_class       TEXT NOT NULL,
		segment_status      TEXT,
		departure_airport   TEXT NOT NULL,
		destination_airport TEXT NOT NULL,
		departure_date      TEXT,
		departure_time      TEXT,
		destination_date    TEXT,
		destination_time    TEXT,
		operated_by         TEXT,
		PRIMARY KEY (dump_id, sequence)
	);

	CREATE INDEX IF NOT EXISTS idx_segments_airline ON itinerary_segments(airline, flight_number);
	CREATE INDEX IF NOT EXISTS idx_segments_airports ON itinerary_segments(departure_airport, destination_airport);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DumpRecord is a parsed dump as stored in PostgreSQL.
type DumpRecord struct {
	ID         string
	Vendor     string
	Kind       string
	BaseDate   string
	Success    bool
	RawText    string
	Result     interface{}
	Errors     []string
	ReceivedAt time.Time
}

// InsertDump stores a parsed dump. Re-delivery of an already stored dump ID
// updates the row in place.
func (d *PostgresDB) InsertDump(ctx context.Context, rec DumpRecord) error {
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO dumps (id, vendor, kind, base_date, success, raw_text, result, errors, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			vendor = EXCLUDED.vendor,
			kind = EXCLUDED.kind,
			base_date = EXCLUDED.base_date,
			success = EXCLUDED.success,
			raw_text = EXCLUDED.raw_text,
			result = EXCLUDED.result,
			errors = EXCLUDED.errors,
			received_at = EXCLUDED.received_at
	`, rec.ID, rec.Vendor, rec.Kind, rec.BaseDate, rec.Success, rec.RawText,
		resultJSON, rec.Errors, rec.ReceivedAt)
	if err != nil {
		return fmt.Errorf("insert dump: %w", err)
	}
	return nil
}

// InsertSegments stores the itinerary segments of a parsed dump. Existing
// segments of the dump are replaced so re-parsing stays idempotent.
func (d *PostgresDB) InsertSegments(ctx context.Context, dumpID string, segments []*gds.Segment) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM itinerary_segments WHERE dump_id = $1`, dumpID); err != nil {
		return fmt.Errorf("delete segments: %w", err)
	}

	for i, segment := range segments {
		_, err := tx.Exec(ctx, `
			INSERT INTO itinerary_segments (dump_id, sequence, segment_number, airline, flight_number,
				booking_class, segment_status, departure_airport, destination_airport,
				departure_date, departure_time, destination_date, destination_time, operated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, dumpID, i, segment.SegmentNumber, segment.Airline, segment.FlightNumber,
			segment.BookingClass, segment.SegmentStatus,
			segment.DepartureAirport, segment.DestinationAirport,
			segment.DepartureDate, segment.DepartureTime,
			segment.DestinationDate, segment.DestinationTime,
			segment.OperatedByString)
		if err != nil {
			return fmt.Errorf("insert segment %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// GetDump retrieves a stored dump by ID, or nil when absent.
func (d *PostgresDB) GetDump(ctx context.Context, id string) (*DumpRecord, error) {
	var rec DumpRecord
	var resultJSON []byte

	err := d.pool.QueryRow(ctx, `
		SELECT id, vendor, kind, COALESCE(base_date, ''), success, raw_text, result, errors, received_at
		FROM dumps WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Vendor, &rec.Kind, &rec.BaseDate, &rec.Success,
		&rec.RawText, &resultJSON, &rec.Errors, &rec.ReceivedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get dump: %w", err)
	}

	if len(resultJSON) > 0 {
		var result interface{}
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		rec.Result = result
	}

	return &rec, nil
}

// CountByVendor returns stored dump counts grouped by vendor.
func (d *PostgresDB) CountByVendor(ctx context.Context) (map[string]int, error) {
	rows, err := d.pool.Query(ctx, `SELECT vendor, COUNT(*) FROM dumps GROUP BY vendor`)
	if err != nil {
		return nil, fmt.Errorf("count by vendor: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var vendor string
		var count int
		if err := rows.Scan(&vendor, &count); err != nil {
			return nil, err
		}
		counts[vendor] = count
	}
	return counts, rows.Err()
}
