package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-diploid/internal/diploid"
)

// MapWriter writes the tab-separated coordinate map.
type MapWriter struct {
	w   *bufio.Writer
	buf []byte
}

// NewMapWriter creates a new coordinate map writer.
func NewMapWriter(w io.Writer) *MapWriter {
	return &MapWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (mw *MapWriter) WriteHeader() error {
	_, err := mw.w.WriteString("#REF\tPAT\tMAT\n")
	return err
}

// WriteRows writes one line per row. Absent coordinates are written as 0.
func (mw *MapWriter) WriteRows(rows []diploid.MapRow) error {
	for _, r := range rows {
		mw.buf = strconv.AppendInt(mw.buf[:0], int64(r.Ref), 10)
		mw.buf = append(mw.buf, '\t')
		mw.buf = strconv.AppendInt(mw.buf, int64(r.Pat), 10)
		mw.buf = append(mw.buf, '\t')
		mw.buf = strconv.AppendInt(mw.buf, int64(r.Mat), 10)
		mw.buf = append(mw.buf, '\n')
		if _, err := mw.w.Write(mw.buf); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data.
func (mw *MapWriter) Flush() error {
	return mw.w.Flush()
}

// ReadMap reads a coordinate map file and splits its rows by contig. A new
// contig starts where the reference coordinate stops increasing; marker rows
// with a zero reference coordinate belong to the contig of the next anchor.
func ReadMap(r io.Reader) ([][]diploid.MapRow, error) {
	sc := bufio.NewScanner(r)
	var (
		contigs      [][]diploid.MapRow
		cur, markers []diploid.MapRow
		lastRef      int
		line         int
	)
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		row, err := parseMapRow(text)
		if err != nil {
			return nil, fmt.Errorf("map line %d: %w", line, err)
		}
		if row.Ref == 0 {
			markers = append(markers, row)
			continue
		}
		if row.Ref <= lastRef {
			contigs = append(contigs, cur)
			cur = nil
		}
		cur = append(cur, markers...)
		cur = append(cur, row)
		markers = markers[:0]
		lastRef = row.Ref
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}

	cur = append(cur, markers...)
	if len(cur) > 0 {
		contigs = append(contigs, cur)
	}
	return contigs, nil
}

func parseMapRow(text string) (diploid.MapRow, error) {
	fields := strings.Split(text, "\t")
	if len(fields) != 3 {
		return diploid.MapRow{}, fmt.Errorf("expected 3 columns, found %d", len(fields))
	}
	var vals [3]int
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return diploid.MapRow{}, fmt.Errorf("invalid coordinate %q", f)
		}
		vals[i] = v
	}
	return diploid.MapRow{Ref: vals[0], Pat: vals[1], Mat: vals[2]}, nil
}
