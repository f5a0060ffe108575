// Package db mirrors the typhoon dataset into DuckDB tables for ad-hoc
// analytic queries.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// Config holds database configuration.
type Config struct {
	// DataDir holds the database file. Empty opens an in-memory database.
	DataDir string
	DBName  string
}

// Open opens a DuckDB connection.
func Open(cfg Config) (*sql.DB, error) {
	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		dsn = filepath.Join(duckdbDir, cfg.DBName+".duckdb")
	}
	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return conn, nil
}

var schema = []string{
	`CREATE OR REPLACE TABLE typhoons (
		idx INTEGER PRIMARY KEY,
		name VARCHAR,
		name_en VARCHAR,
		number VARCHAR,
		year INTEGER,
		wind DOUBLE,
		damage DOUBLE,
		casualties DOUBLE,
		rain DOUBLE,
		pressure DOUBLE,
		wind_radius DOUBLE,
		category VARCHAR,
		color VARCHAR,
		points INTEGER,
		track_wkt VARCHAR
	)`,
	`CREATE OR REPLACE TABLE track_points (
		typhoon INTEGER,
		seq INTEGER,
		lon DOUBLE,
		lat DOUBLE,
		observed_at VARCHAR,
		wind DOUBLE
	)`,
	`CREATE OR REPLACE TABLE videos (
		category VARCHAR,
		number INTEGER,
		title VARCHAR,
		video_date VARCHAR,
		lon DOUBLE,
		lat DOUBLE,
		url VARCHAR
	)`,
}

// Load (re)creates the typhoons, track_points and videos tables from d.
// Video numbers are ordinals within the category.
func Load(ctx context.Context, conn *sql.DB, d *typhoon.Dataset) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	for i := range d.Historical {
		h := &d.Historical[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO typhoons VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.Index, h.Name, h.NameEn, h.Number, h.Year, h.Wind, h.Damage, h.Casualties,
			h.Rain, h.Pressure, h.WindRadius, h.Category, h.Color, len(h.Track),
			wkt.MarshalString(h.Track.LineString()))
		if err != nil {
			return fmt.Errorf("insert typhoon %d: %w", i, err)
		}
		for seq, p := range h.Track {
			_, err := tx.ExecContext(ctx, `INSERT INTO track_points VALUES (?, ?, ?, ?, ?, ?)`,
				h.Index, seq, p.Position.Lon(), p.Position.Lat(), p.ObservedAt, p.WindSpeed)
			if err != nil {
				return fmt.Errorf("insert typhoon %d point %d: %w", i, seq, err)
			}
		}
	}

	for _, c := range []typhoon.VideoCategory{typhoon.Approaching, typhoon.DamageVideo} {
		for _, v := range typhoon.FilterVideos(d.Videos, c) {
			_, err := tx.ExecContext(ctx, `INSERT INTO videos VALUES (?, ?, ?, ?, ?, ?, ?)`,
				string(v.Category), v.Number, v.Title, v.Date, v.Position.Lon(), v.Position.Lat(), v.URL)
			if err != nil {
				return fmt.Errorf("insert video %s %d: %w", c, v.Number, err)
			}
		}
	}
	return tx.Commit()
}

// Result is a query result as generic rows.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// Query executes a query and collects every row.
func Query(ctx context.Context, conn *sql.DB, query string, args ...any) (*Result, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	res := &Result{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		res.Rows = append(res.Rows, row)
	}
	return res, rows.Err()
}

// Tables lists the tables of the main schema.
func Tables(ctx context.Context, conn *sql.DB) ([]string, error) {
	rows, err := conn.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
