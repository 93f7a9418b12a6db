// Package diploid applies a sample's variants to a reference sequence to
// build its paternal and maternal haplotypes, and derives chain alignments
// and a three-way coordinate map from them.
package diploid

import (
	"errors"
	"fmt"
	"sort"

	"github.com/inodb/vibe-diploid/internal/genome"
)

// Rejection reasons for Haplotype.Apply.
var (
	ErrOutOfBounds       = errors.New("variant out of chromosome bounds")
	ErrOverlap           = errors.New("variant overlap")
	ErrMultipleInsertion = errors.New("multiple insertions")
)

// ApplyError describes a variant that was not applied to a haplotype.
type ApplyError struct {
	Contig   string
	Pos      int // 1-based
	RefSpan  int
	Inserted string
	Err      error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%v at %s:%d, (del,ins) of (%d,%q)", e.Err, e.Contig, e.Pos, e.RefSpan, e.Inserted)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Haplotype is one mutated copy of a reference sequence. It keeps the
// reference length: every position holds either a base or is marked deleted,
// and inserted text lives in a side table keyed by the position it precedes.
type Haplotype struct {
	contig     string
	ref        []byte
	bases      []byte
	deleted    []bool
	insertions map[int]string
	insOrder   []int // sorted insertion positions, built lazily
}

// NewHaplotype returns an unmodified copy of ref.
func NewHaplotype(ref *genome.Sequence) *Haplotype {
	bases := make([]byte, len(ref.Bases))
	copy(bases, ref.Bases)
	return &Haplotype{
		contig:     ref.Name,
		ref:        ref.Bases,
		bases:      bases,
		deleted:    make([]bool, len(ref.Bases)),
		insertions: make(map[int]string),
	}
}

// Contig returns the name of the reference sequence.
func (h *Haplotype) Contig() string {
	return h.contig
}

// Len returns the reference length, which never changes.
func (h *Haplotype) Len() int {
	return len(h.bases)
}

// Base returns the haplotype base at 0-based reference position p.
// ok is false when the position is deleted.
func (h *Haplotype) Base(p int) (b byte, ok bool) {
	if h.deleted[p] {
		return 0, false
	}
	return h.bases[p], true
}

// Deleted reports whether reference position p is absent from the haplotype.
func (h *Haplotype) Deleted(p int) bool {
	return h.deleted[p]
}

// Insertion returns the text inserted immediately before position p.
func (h *Haplotype) Insertion(p int) (string, bool) {
	s, ok := h.insertions[p]
	return s, ok
}

// InsertionPositions returns the positions carrying an insertion, ascending.
func (h *Haplotype) InsertionPositions() []int {
	if h.insOrder == nil || len(h.insOrder) != len(h.insertions) {
		h.insOrder = make([]int, 0, len(h.insertions))
		for p := range h.insertions {
			h.insOrder = append(h.insOrder, p)
		}
		sort.Ints(h.insOrder)
	}
	return h.insOrder
}

// Kept returns the number of reference positions still present.
func (h *Haplotype) Kept() int {
	n := 0
	for _, d := range h.deleted {
		if !d {
			n++
		}
	}
	return n
}

// InsertedBases returns the total length of all inserted text.
func (h *Haplotype) InsertedBases() int {
	n := 0
	for _, s := range h.insertions {
		n += len(s)
	}
	return n
}

// DerivedLength returns the length of the materialized haplotype.
func (h *Haplotype) DerivedLength() int {
	return h.Kept() + h.InsertedBases()
}

// Apply replaces refSpan reference bases starting at 0-based pos with
// inserted. A single-base replacement by a single base is a substitution
// that keeps the case of the reference base; anything else deletes the span
// and records inserted (if any) before pos.
//
// Apply never revisits a position: the span must be untouched by earlier
// edits. On rejection it returns an *ApplyError and leaves h unchanged.
func (h *Haplotype) Apply(pos, refSpan int, inserted string) error {
	reject := func(err error) error {
		return &ApplyError{Contig: h.contig, Pos: pos + 1, RefSpan: refSpan, Inserted: inserted, Err: err}
	}

	if pos < 0 || refSpan < 0 || pos >= len(h.bases) || pos+refSpan > len(h.bases) {
		return reject(ErrOutOfBounds)
	}

	for p := pos; p < pos+refSpan; p++ {
		if h.deleted[p] || h.bases[p] != h.ref[p] {
			return reject(ErrOverlap)
		}
	}

	if refSpan == 1 && len(inserted) == 1 {
		h.bases[pos] = matchCase(inserted[0], h.ref[pos])
		return nil
	}

	if inserted != "" {
		if _, ok := h.insertions[pos]; ok {
			return reject(ErrMultipleInsertion)
		}
	}

	for p := pos; p < pos+refSpan; p++ {
		h.deleted[p] = true
	}
	if inserted != "" {
		h.insertions[pos] = inserted
		h.insOrder = nil
	}
	return nil
}

// Segments calls fn with consecutive pieces of the materialized haplotype:
// inserted text and runs of kept bases, in order.
func (h *Haplotype) Segments(fn func(seg []byte) error) error {
	ins := h.cursor()
	start := 0
	flush := func(end int) error {
		if end > start {
			if err := fn(h.bases[start:end]); err != nil {
				return err
			}
		}
		return nil
	}

	for p := range h.bases {
		if s, ok := ins.at(p); ok {
			if err := flush(p); err != nil {
				return err
			}
			if err := fn([]byte(s)); err != nil {
				return err
			}
			start = p
		}
		if h.deleted[p] {
			if err := flush(p); err != nil {
				return err
			}
			start = p + 1
		}
	}
	return flush(len(h.bases))
}

// String returns the materialized haplotype sequence.
func (h *Haplotype) String() string {
	out := make([]byte, 0, h.DerivedLength())
	h.Segments(func(seg []byte) error {
		out = append(out, seg...)
		return nil
	})
	return string(out)
}

func (h *Haplotype) cursor() *insertionCursor {
	return &insertionCursor{h: h, order: h.InsertionPositions()}
}

// insertionCursor walks the insertion table in position order during a
// left-to-right scan.
type insertionCursor struct {
	h     *Haplotype
	order []int
	next  int
}

// at returns the insertion at p. Calls must use non-decreasing p.
func (c *insertionCursor) at(p int) (string, bool) {
	for c.next < len(c.order) && c.order[c.next] < p {
		c.next++
	}
	if c.next < len(c.order) && c.order[c.next] == p {
		return c.h.insertions[p], true
	}
	return "", false
}

// matchCase returns b in the case of ref.
func matchCase(b, ref byte) byte {
	if ref >= 'a' && ref <= 'z' {
		return toLower(b)
	}
	return toUpper(b)
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
