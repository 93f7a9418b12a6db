// Package output writes haplotype sequences, chain alignments and the
// coordinate map.
package output

import (
	"bufio"
	"io"

	"github.com/inodb/vibe-diploid/internal/diploid"
)

// DefaultLineWidth is the number of bases per FASTA line.
const DefaultLineWidth = 50

// FastaWriter writes haplotypes as line-wrapped FASTA records.
type FastaWriter struct {
	w     *bufio.Writer
	width int
	col   int
}

// NewFastaWriter creates a FASTA writer wrapping sequence lines at width
// bases. A width of 0 or less means DefaultLineWidth.
func NewFastaWriter(w io.Writer, width int) *FastaWriter {
	if width <= 0 {
		width = DefaultLineWidth
	}
	return &FastaWriter{
		w:     bufio.NewWriterSize(w, 1<<16),
		width: width,
	}
}

// WriteRecord writes h under the header line ">name". Inserted text comes
// before the base it was anchored to and deleted positions are left out.
func (fw *FastaWriter) WriteRecord(name string, h *diploid.Haplotype) error {
	fw.w.WriteByte('>')
	fw.w.WriteString(name)
	fw.w.WriteByte('\n')

	fw.col = 0
	if err := h.Segments(fw.wrap); err != nil {
		return err
	}
	if fw.col > 0 {
		fw.col = 0
		return fw.w.WriteByte('\n')
	}
	return nil
}

func (fw *FastaWriter) wrap(seg []byte) error {
	for len(seg) > 0 {
		n := min(fw.width-fw.col, len(seg))
		if _, err := fw.w.Write(seg[:n]); err != nil {
			return err
		}
		seg = seg[n:]
		fw.col += n
		if fw.col == fw.width {
			if err := fw.w.WriteByte('\n'); err != nil {
				return err
			}
			fw.col = 0
		}
	}
	return nil
}

// Flush flushes any buffered data.
func (fw *FastaWriter) Flush() error {
	return fw.w.Flush()
}
