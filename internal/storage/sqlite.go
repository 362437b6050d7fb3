// Package storage provides persistent storage for parsed GDS dumps.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Dump represents a stored GDS dump with its parse result.
type Dump struct {
	ID           int64
	ReceivedAt   time.Time
	Vendor       string
	Kind         string
	BaseDate     string
	Success      bool
	SegmentCount int
	RawText      string
	ResultJSON   string
	Errors       string
}

// Archive wraps a SQLite database holding the dump archive.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates a SQLite archive at the given path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createArchiveSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func createArchiveSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS dumps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		received_at TEXT NOT NULL,
		vendor TEXT NOT NULL,
		kind TEXT NOT NULL,
		base_date TEXT,
		success INTEGER NOT NULL,
		segment_count INTEGER NOT NULL DEFAULT 0,
		raw_text TEXT NOT NULL,
		result_json TEXT NOT NULL,
		errors TEXT,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_dumps_vendor ON dumps(vendor);
	CREATE INDEX IF NOT EXISTS idx_dumps_kind ON dumps(kind);
	CREATE INDEX IF NOT EXISTS idx_dumps_success ON dumps(success);
	CREATE INDEX IF NOT EXISTS idx_dumps_received ON dumps(received_at);

	-- FTS5 virtual table for full-text search on raw dump text.
	CREATE VIRTUAL TABLE IF NOT EXISTS dumps_fts USING fts5(
		raw_text,
		content='dumps',
		content_rowid='id'
	);

	-- Triggers to keep FTS index in sync.
	CREATE TRIGGER IF NOT EXISTS dumps_ai AFTER INSERT ON dumps BEGIN
		INSERT INTO dumps_fts(rowid, raw_text) VALUES (new.id, new.raw_text);
	END;

	CREATE TRIGGER IF NOT EXISTS dumps_ad AFTER DELETE ON dumps BEGIN
		INSERT INTO dumps_fts(dumps_fts, rowid, raw_text) VALUES('delete', old.id, old.raw_text);
	END;

	CREATE TRIGGER IF NOT EXISTS dumps_au AFTER UPDATE ON dumps BEGIN
		INSERT INTO dumps_fts(dumps_fts, rowid, raw_text) VALUES('delete', old.id, old.raw_text);
		INSERT INTO dumps_fts(rowid, raw_text) VALUES (new.id, new.raw_text);
	END;
	`

	_, err := db.Exec(schema)
	return err
}

// InsertParams contains the parameters for archiving a dump.
type InsertParams struct {
	ReceivedAt   time.Time
	Vendor       string
	Kind         string
	BaseDate     string
	Success      bool
	SegmentCount int
	RawText      string
	Result       interface{}
	Errors       []string
}

// Insert stores a parsed dump in the archive.
func (a *Archive) Insert(p InsertParams) (int64, error) {
	resultJSON, err := json.Marshal(p.Result)
	if err != nil {
		return 0, fmt.Errorf("marshal result: %w", err)
	}

	success := 0
	if p.Success {
		success = 1
	}

	result, err := a.db.Exec(`
		INSERT INTO dumps (received_at, vendor, kind, base_date, success, segment_count, raw_text, result_json, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ReceivedAt.UTC().Format(time.RFC3339), p.Vendor, p.Kind, p.BaseDate, success,
		p.SegmentCount, p.RawText, string(resultJSON), strings.Join(p.Errors, "\n"))
	if err != nil {
		return 0, fmt.Errorf("insert dump: %w", err)
	}

	return result.LastInsertId()
}

// QueryParams contains filtering options for querying archived dumps.
type QueryParams struct {
	ID         int64  // Filter by specific dump ID.
	Vendor     string // Filter by vendor (exact match).
	Kind       string // Filter by record kind (exact match).
	FailedOnly bool   // Only show dumps that failed to parse.
	FullText   string // FTS5 full-text search on raw_text.
	Limit      int    // Max results (default 100).
	Offset     int    // Pagination offset.
	OrderDesc  bool   // Sort by id descending.
}

// Query retrieves archived dumps matching the given parameters.
func (a *Archive) Query(p QueryParams) ([]Dump, error) {
	var conditions []string
	var args []interface{}

	if p.ID != 0 {
		conditions = append(conditions, "id = ?")
		args = append(args, p.ID)
	}
	if p.Vendor != "" {
		conditions = append(conditions, "vendor = ?")
		args = append(args, p.Vendor)
	}
	if p.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, p.Kind)
	}
	if p.FailedOnly {
		conditions = append(conditions, "success = 0")
	}

	// FTS5 search requires a JOIN with the FTS table.
	var query string
	if p.FullText != "" {
		query = `SELECT d.id, d.received_at, d.vendor, d.kind, d.base_date, d.success,
				d.segment_count, d.raw_text, d.result_json, d.errors
				FROM dumps d
				JOIN dumps_fts fts ON d.id = fts.rowid
				WHERE dumps_fts MATCH ?`
		args = append([]interface{}{p.FullText}, args...)
		if len(conditions) > 0 {
			query += " AND " + strings.Join(conditions, " AND ")
		}
	} else {
		query = `SELECT id, received_at, vendor, kind, base_date, success,
				segment_count, raw_text, result_json, errors
				FROM dumps`
		if len(conditions) > 0 {
			query += " WHERE " + strings.Join(conditions, " AND ")
		}
	}

	direction := "ASC"
	if p.OrderDesc {
		direction = "DESC"
	}
	query += " ORDER BY id " + direction

	limit := 100
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, p.Offset)

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dumps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dumps []Dump
	for rows.Next() {
		d, err := scanDump(rows)
		if err != nil {
			return nil, err
		}
		dumps = append(dumps, d)
	}

	return dumps, rows.Err()
}

// GetByID retrieves a single archived dump, or nil when absent.
func (a *Archive) GetByID(id int64) (*Dump, error) {
	dumps, err := a.Query(QueryParams{ID: id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(dumps) == 0 {
		return nil, nil
	}
	return &dumps[0], nil
}

func scanDump(rows *sql.Rows) (Dump, error) {
	var d Dump
	var received, baseDate, errs sql.NullString
	var success int

	err := rows.Scan(&d.ID, &received, &d.Vendor, &d.Kind, &baseDate, &success,
		&d.SegmentCount, &d.RawText, &d.ResultJSON, &errs)
	if err != nil {
		return Dump{}, fmt.Errorf("scan row: %w", err)
	}

	if received.Valid {
		d.ReceivedAt, _ = time.Parse(time.RFC3339, received.String)
	}
	if baseDate.Valid {
		d.BaseDate = baseDate.String
	}
	if errs.Valid {
		d.Errors = errs.String
	}
	d.Success = success == 1

	return d, nil
}

// Stats holds aggregate statistics about the archive.
type Stats struct {
	TotalDumps int
	ByVendor   map[string]int
	ByKind     map[string]int
	Failed     int
}

// GetStats returns statistics about the archived dumps.
func (a *Archive) GetStats() (*Stats, error) {
	stats := &Stats{
		ByVendor: make(map[string]int),
		ByKind:   make(map[string]int),
	}

	row := a.db.QueryRow("SELECT COUNT(*) FROM dumps")
	if err := row.Scan(&stats.TotalDumps); err != nil {
		return nil, err
	}

	rows, err := a.db.Query("SELECT vendor, COUNT(*) FROM dumps GROUP BY vendor ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var vendor string
		var count int
		if err := rows.Scan(&vendor, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByVendor[vendor] = count
	}
	_ = rows.Close()

	rows, err = a.db.Query("SELECT kind, COUNT(*) FROM dumps GROUP BY kind ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByKind[kind] = count
	}
	_ = rows.Close()

	row = a.db.QueryRow("SELECT COUNT(*) FROM dumps WHERE success = 0")
	if err := row.Scan(&stats.Failed); err != nil {
		return nil, err
	}

	return stats, nil
}
