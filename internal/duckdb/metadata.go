package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Input kinds recorded with a run.
const (
	InputReference = "reference"
	InputVCF       = "vcf"
)

// Input is one file a run read.
type Input struct {
	Kind string
	FileFingerprint
}

// Run describes how the stored results were produced.
type Run struct {
	Sample    string
	Seed      uint64
	PassOnly  bool
	Version   string
	CreatedAt time.Time
	Inputs    []Input
}

// WriteRun records run provenance.
func (s *Store) WriteRun(r Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?)`,
		r.Sample, r.Seed, r.PassOnly, r.Version, r.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, in := range r.Inputs {
		if _, err := tx.Exec(`INSERT INTO inputs VALUES (?, ?, ?, ?)`,
			in.Kind, in.Path, in.Size, in.ModTime.UTC()); err != nil {
			return fmt.Errorf("insert input %s: %w", in.Path, err)
		}
	}
	return tx.Commit()
}

// ErrNoRun is returned by ReadRun when the database holds no results.
var ErrNoRun = errors.New("no run recorded")

// ReadRun returns the recorded run provenance.
func (s *Store) ReadRun() (*Run, error) {
	var r Run
	err := s.db.QueryRow(`SELECT sample, seed, pass_only, version, created_at FROM runs LIMIT 1`).
		Scan(&r.Sample, &r.Seed, &r.PassOnly, &r.Version, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	rows, err := s.db.Query(`SELECT kind, path, size, mod_time FROM inputs ORDER BY kind, path`)
	if err != nil {
		return nil, fmt.Errorf("query inputs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var in Input
		if err := rows.Scan(&in.Kind, &in.Path, &in.Size, &in.ModTime); err != nil {
			return nil, fmt.Errorf("scan input: %w", err)
		}
		r.Inputs = append(r.Inputs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inputs: %w", err)
	}
	return &r, nil
}
