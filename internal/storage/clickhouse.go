package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"gds_parser/internal/gds"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for segment analytics. Every
// parsed itinerary segment is appended here so route and carrier volumes can
// be queried over time.
type ClickHouseDB struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (d *ClickHouseDB) Conn() driver.Conn {
	return d.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
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

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS itinerary_segments (
		dump_id             String,
		vendor              LowCardinality(String),
		airline             LowCardinality(String),
		flight_number       String,
		booking_class       LowCardinality(String),
		segment_status      LowCardinality(String),
		departure_airport   LowCardinality(String),
		destination_airport LowCardinality(String),
		departure_date      String,
		destination_date    String,
		received_at         DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(received_at)
	ORDER BY (airline, departure_airport, destination_airport, received_at)
	SETTINGS index_granularity = 8192`

	if err := d.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertSegments appends parsed itinerary segments to the analytics table.
func (d *ClickHouseDB) InsertSegments(ctx context.Context, dumpID string, vendor gds.Vendor, receivedAt time.Time, segments []*gds.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO itinerary_segments (dump_id, vendor, airline, flight_number, booking_class,
			segment_status, departure_airport, destination_airport, departure_date, destination_date, received_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, segment := range segments {
		err := batch.Append(
			dumpID,
			string(vendor),
			segment.Airline,
			segment.FlightNumber,
			segment.BookingClass,
			segment.SegmentStatus,
			segment.DepartureAirport,
			segment.DestinationAirport,
			stringOrEmpty(segment.DepartureDate),
			stringOrEmpty(segment.DestinationDate),
			receivedAt,
		)
		if err != nil {
			return fmt.Errorf("append segment: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// RouteCount is the number of stored segments seen for one airport pair.
type RouteCount struct {
	DepartureAirport   string
	DestinationAirport string
	Count              uint64
}

// TopRoutes returns the most frequently seen airport pairs.
func (d *ClickHouseDB) TopRoutes(ctx context.Context, limit int) ([]RouteCount, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.conn.Query(ctx, `
		SELECT departure_airport, destination_airport, COUNT(*) AS c
		FROM itinerary_segments
		GROUP BY departure_airport, destination_airport
		ORDER BY c DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top routes: %w", err)
	}
	defer rows.Close()

	var routes []RouteCount
	for rows.Next() {
		var r RouteCount
		if err := rows.Scan(&r.DepartureAirport, &r.DestinationAirport, &r.Count); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func stringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
