// Package duckdb stores a run's coordinate map, per-contig results and input
// provenance in a DuckDB database so coordinates can be lifted with SQL or
// through Lift without reparsing the map file.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding one run's results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS coord_map (
		contig VARCHAR,
		idx BIGINT,
		ref BIGINT,
		pat BIGINT,
		mat BIGINT,
		PRIMARY KEY (contig, idx)
	)`,
	`CREATE TABLE IF NOT EXISTS contigs (
		contig VARCHAR PRIMARY KEY,
		chain_id BIGINT,
		ref_len BIGINT,
		pat_len BIGINT,
		mat_len BIGINT,
		pat_variants BIGINT,
		mat_variants BIGINT,
		pat_rejected BIGINT,
		mat_rejected BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		sample VARCHAR,
		seed UBIGINT,
		pass_only BOOLEAN,
		version VARCHAR,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS inputs (
		kind VARCHAR,
		path VARCHAR,
		size BIGINT,
		mod_time TIMESTAMP
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes the results of any earlier run.
func (s *Store) Clear() error {
	for _, table := range []string{"coord_map", "contigs", "runs", "inputs"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
