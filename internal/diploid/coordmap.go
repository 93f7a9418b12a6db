package diploid

import (
	"errors"
	"sort"
)

// ErrLengthMismatch is returned when the two haplotypes were not built from
// the same reference.
var ErrLengthMismatch = errors.New("paternal and maternal haplotypes differ in length")

// MapRow is one line of the coordinate map: 1-based positions in the
// reference, paternal and maternal sequences, with 0 meaning absent.
type MapRow struct {
	Ref int
	Pat int
	Mat int
}

func (r MapRow) empty() bool {
	return r.Ref == 0 && r.Pat == 0 && r.Mat == 0
}

// MakeMap builds the sparse coordinate map between the reference and both
// haplotypes. Each row anchors a run in which every present coordinate
// advances in step with the reference; inserted text gets a row with a zero
// reference coordinate. Positions inside a run are recovered by Lift.
func MakeMap(pat, mat *Haplotype) ([]MapRow, error) {
	if pat.Len() != mat.Len() {
		return nil, ErrLengthMismatch
	}

	var rows []MapRow
	patIns, matIns := pat.cursor(), mat.cursor()
	ri, pi, mi := 1, 1, 1
	var anchor MapRow

	for p := 0; p < pat.Len(); p++ {
		ps, forPat := patIns.at(p)
		ms, forMat := matIns.at(p)

		if forPat || forMat {
			if !anchor.empty() {
				rows = append(rows, anchor)
				anchor = MapRow{}
			}
			if forPat && forMat && ps == ms {
				rows = append(rows, MapRow{Pat: pi, Mat: mi})
				pi += len(ps)
				mi += len(ms)
			} else {
				if forPat {
					rows = append(rows, MapRow{Pat: pi})
					pi += len(ps)
				}
				if forMat {
					rows = append(rows, MapRow{Mat: mi})
					mi += len(ms)
				}
			}
		}

		cur := MapRow{Ref: ri}
		ri++
		if !pat.deleted[p] {
			cur.Pat = pi
			pi++
		}
		if !mat.deleted[p] {
			cur.Mat = mi
			mi++
		}

		if anchor.empty() {
			anchor = cur
			continue
		}
		off := cur.Ref - anchor.Ref
		if !inStep(off, cur.Pat, anchor.Pat) || !inStep(off, cur.Mat, anchor.Mat) {
			rows = append(rows, anchor)
			anchor = cur
		}
	}

	if !anchor.empty() {
		rows = append(rows, anchor)
	}
	return rows, nil
}

// inStep reports whether a haplotype coordinate continues the run started at
// anchor, refOff reference bases earlier. A run is either entirely absent or
// entirely present in a haplotype.
func inStep(refOff, coord, anchor int) bool {
	if (coord == 0) != (anchor == 0) {
		return false
	}
	if coord == 0 {
		return true
	}
	return refOff == coord-anchor
}

// MapIndex answers reference-to-haplotype lookups from map rows.
type MapIndex struct {
	anchors []MapRow // rows with a reference coordinate, ascending
}

// NewMapIndex indexes the rows of a single contig's map.
func NewMapIndex(rows []MapRow) *MapIndex {
	idx := &MapIndex{}
	for _, r := range rows {
		if r.Ref > 0 {
			idx.anchors = append(idx.anchors, r)
		}
	}
	return idx
}

// Lift returns the paternal and maternal coordinates of 1-based reference
// position ref by offsetting from the run that contains it. A zero result
// means the position is absent from that haplotype. ok is false when ref
// precedes the first row.
func (m *MapIndex) Lift(ref int) (pat, mat int, ok bool) {
	i := sort.Search(len(m.anchors), func(i int) bool {
		return m.anchors[i].Ref > ref
	}) - 1
	if i < 0 {
		return 0, 0, false
	}
	return LiftFrom(m.anchors[i], ref)
}

// LiftFrom interpolates ref from the anchor row of the run containing it.
func LiftFrom(anchor MapRow, ref int) (pat, mat int, ok bool) {
	if anchor.Ref == 0 || ref < anchor.Ref {
		return 0, 0, false
	}
	off := ref - anchor.Ref
	if anchor.Pat > 0 {
		pat = anchor.Pat + off
	}
	if anchor.Mat > 0 {
		mat = anchor.Mat + off
	}
	return pat, mat, true
}
