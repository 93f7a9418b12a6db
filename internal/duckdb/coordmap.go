package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-diploid/internal/diploid"
	"github.com/inodb/vibe-diploid/internal/pipeline"
	"github.com/inodb/vibe-diploid/internal/vcf"
)

// ContigInfo holds the per-contig results of a run.
type ContigInfo struct {
	Contig      string
	ChainID     int
	RefLen      int
	PatLen      int
	MatLen      int
	PatVariants int
	MatVariants int
	PatRejected int
	MatRejected int
}

// WriteResult stores one contig's summary and coordinate map rows. Map rows
// are batch-inserted with the Appender API and keep their order in idx.
func (s *Store) WriteResult(r pipeline.WorkResult) error {
	d := r.Diploid
	if _, err := s.db.Exec(`INSERT INTO contigs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Contig(), r.Paternal.ID, d.Ref.Len(), r.Paternal.DerLen, r.Maternal.DerLen,
		d.PaternalStats.Variants, d.MaternalStats.Variants,
		d.PaternalStats.Rejected, d.MaternalStats.Rejected); err != nil {
		return fmt.Errorf("insert contig %s: %w", r.Contig(), err)
	}
	return s.WriteMapRows(r.Contig(), r.Map)
}

// WriteMapRows batch-inserts the coordinate map of one contig.
func (s *Store) WriteMapRows(contig string, rows []diploid.MapRow) error {
	if len(rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "coord_map")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i, r := range rows {
		if err := appender.AppendRow(contig, int64(i), int64(r.Ref), int64(r.Pat), int64(r.Mat)); err != nil {
			return fmt.Errorf("append map row: %w", err)
		}
	}

	return appender.Flush()
}

// ErrUnknownContig is returned when a lookup names a contig that was not built.
var ErrUnknownContig = errors.New("unknown contig")

// ErrOutOfRange is returned when a lookup position lies outside the contig.
var ErrOutOfRange = errors.New("position outside contig")

// Contig returns the stored results for contig. The name is matched exactly
// first and then after chromosome-name normalization.
func (s *Store) Contig(contig string) (*ContigInfo, error) {
	rows, err := s.db.Query(`SELECT contig, chain_id, ref_len, pat_len, mat_len,
		pat_variants, mat_variants, pat_rejected, mat_rejected
		FROM contigs ORDER BY chain_id`)
	if err != nil {
		return nil, fmt.Errorf("query contigs: %w", err)
	}
	defer rows.Close()

	var match *ContigInfo
	for rows.Next() {
		var c ContigInfo
		if err := rows.Scan(&c.Contig, &c.ChainID, &c.RefLen, &c.PatLen, &c.MatLen,
			&c.PatVariants, &c.MatVariants, &c.PatRejected, &c.MatRejected); err != nil {
			return nil, fmt.Errorf("scan contig: %w", err)
		}
		if c.Contig == contig {
			return &c, nil
		}
		if match == nil && vcf.NormalizeChrom(c.Contig) == vcf.NormalizeChrom(contig) {
			match = &c
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contigs: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContig, contig)
	}
	return match, nil
}

// Lifted is a reference position translated to both haplotypes. A zero
// coordinate means the position is deleted on that haplotype.
type Lifted struct {
	Contig   string
	Ref      int
	Paternal int
	Maternal int
}

// Lift translates 1-based reference position pos on contig to paternal and
// maternal coordinates, using the anchor row of the run that contains it.
func (s *Store) Lift(contig string, pos int) (*Lifted, error) {
	c, err := s.Contig(contig)
	if err != nil {
		return nil, err
	}
	if pos < 1 || pos > c.RefLen {
		return nil, fmt.Errorf("%w: %s:%d (length %d)", ErrOutOfRange, c.Contig, pos, c.RefLen)
	}

	var anchor diploid.MapRow
	err = s.db.QueryRow(`SELECT ref, pat, mat FROM coord_map
		WHERE contig = ? AND ref > 0 AND ref <= ?
		ORDER BY ref DESC LIMIT 1`, c.Contig, pos).Scan(&anchor.Ref, &anchor.Pat, &anchor.Mat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s:%d precedes the first map row", ErrOutOfRange, c.Contig, pos)
	}
	if err != nil {
		return nil, fmt.Errorf("query anchor: %w", err)
	}

	pat, mat, _ := diploid.LiftFrom(anchor, pos)
	return &Lifted{Contig: c.Contig, Ref: pos, Paternal: pat, Maternal: mat}, nil
}
