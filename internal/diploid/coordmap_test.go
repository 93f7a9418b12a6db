package diploid

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeMap(t *testing.T) {
	tests := []struct {
		name string
		pat  func(h *Haplotype)
		mat  func(h *Haplotype)
		want []MapRow
	}{
		{
			name: "unchanged",
			want: []MapRow{{1, 1, 1}},
		},
		{
			name: "SNVs need no rows",
			pat:  func(h *Haplotype) { h.Apply(1, 1, "T") },
			mat:  func(h *Haplotype) { h.Apply(5, 1, "A") },
			want: []MapRow{{1, 1, 1}},
		},
		{
			name: "paternal deletion",
			pat:  func(h *Haplotype) { h.Apply(2, 2, "") },
			want: []MapRow{{1, 1, 1}, {3, 0, 3}, {5, 3, 5}},
		},
		{
			name: "identical insertion on both",
			pat:  func(h *Haplotype) { h.Apply(4, 0, "TT") },
			mat:  func(h *Haplotype) { h.Apply(4, 0, "TT") },
			want: []MapRow{{1, 1, 1}, {0, 5, 5}, {5, 7, 7}},
		},
		{
			name: "different insertions at one position",
			pat:  func(h *Haplotype) { h.Apply(4, 0, "TT") },
			mat:  func(h *Haplotype) { h.Apply(4, 0, "G") },
			want: []MapRow{{1, 1, 1}, {0, 5, 0}, {0, 0, 5}, {5, 7, 6}},
		},
		{
			name: "maternal insertion only",
			mat:  func(h *Haplotype) { h.Apply(2, 0, "A") },
			want: []MapRow{{1, 1, 1}, {0, 0, 3}, {3, 3, 4}},
		},
		{
			name: "deletion on both",
			pat:  func(h *Haplotype) { h.Apply(3, 2, "") },
			mat:  func(h *Haplotype) { h.Apply(3, 2, "") },
			want: []MapRow{{1, 1, 1}, {4, 0, 0}, {6, 4, 4}},
		},
		{
			name: "replacement",
			pat:  func(h *Haplotype) { h.Apply(4, 2, "G") },
			want: []MapRow{{1, 1, 1}, {0, 5, 0}, {5, 0, 5}, {7, 6, 7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pat, mat := newHap("ACGTACGT"), newHap("ACGTACGT")
			if tt.pat != nil {
				tt.pat(pat)
			}
			if tt.mat != nil {
				tt.mat(mat)
			}

			rows, err := MakeMap(pat, mat)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestMakeMap_LengthMismatch(t *testing.T) {
	_, err := MakeMap(newHap("ACGT"), newHap("ACGTA"))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

// coordinates returns the 1-based haplotype coordinate of every reference
// position, or 0 where the position is deleted.
func coordinates(h *Haplotype) []int {
	out := make([]int, h.Len())
	c := 1
	for p := 0; p < h.Len(); p++ {
		if s, ok := h.Insertion(p); ok {
			c += len(s)
		}
		if h.Deleted(p) {
			continue
		}
		out[p] = c
		c++
	}
	return out
}

func buildPair(t *testing.T) (*Haplotype, *Haplotype) {
	t.Helper()
	ref := "ACGTTGCAACGTTGCAACGTTGCAACGTTGCAACGTTGCA"
	pat, mat := newHap(ref), newHap(ref)

	require.NoError(t, pat.Apply(3, 1, "A"))
	require.NoError(t, pat.Apply(10, 3, ""))
	require.NoError(t, pat.Apply(20, 0, "GGG"))
	require.NoError(t, pat.Apply(30, 2, "T"))
	require.NoError(t, pat.Apply(36, 0, "CC"))

	require.NoError(t, mat.Apply(10, 0, "AA"))
	require.NoError(t, mat.Apply(15, 2, ""))
	require.NoError(t, mat.Apply(20, 0, "GGG"))
	require.NoError(t, mat.Apply(30, 1, ""))
	require.NoError(t, mat.Apply(35, 1, "T"))
	return pat, mat
}

func TestMakeMap_MonotonicColumns(t *testing.T) {
	pat, mat := buildPair(t)
	rows, err := MakeMap(pat, mat)
	require.NoError(t, err)

	var last MapRow
	for i, r := range rows {
		assert.False(t, r.Ref == 0 && r.Pat == 0 && r.Mat == 0, "row %d is empty", i)
		if r.Ref > 0 {
			assert.GreaterOrEqual(t, r.Ref, last.Ref, "row %d", i)
			last.Ref = r.Ref
		}
		if r.Pat > 0 {
			assert.GreaterOrEqual(t, r.Pat, last.Pat, "row %d", i)
			last.Pat = r.Pat
		}
		if r.Mat > 0 {
			assert.GreaterOrEqual(t, r.Mat, last.Mat, "row %d", i)
			last.Mat = r.Mat
		}
	}
}

func TestMapIndex_RoundTrip(t *testing.T) {
	pat, mat := buildPair(t)
	assertRoundTrip(t, pat, mat)
}

func TestMapIndex_RoundTripAfterDeletion(t *testing.T) {
	pat, mat := newHap("ACGTA"), newHap("ACGTA")
	require.NoError(t, pat.Apply(1, 2, ""))

	rows, err := MakeMap(pat, mat)
	require.NoError(t, err)
	assert.Equal(t, []MapRow{{1, 1, 1}, {2, 0, 2}, {4, 2, 4}}, rows)

	p, m, ok := NewMapIndex(rows).Lift(4)
	require.True(t, ok)
	assert.Equal(t, 2, p)
	assert.Equal(t, 4, m)
}

func TestMapIndex_RoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const bases = "ACGT"

	randomSeq := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = bases[rng.IntN(len(bases))]
		}
		return string(b)
	}
	edit := func(h *Haplotype) {
		for range rng.IntN(6) {
			pos := rng.IntN(h.Len())
			span := rng.IntN(4)
			var ins string
			if rng.IntN(2) == 0 {
				ins = randomSeq(rng.IntN(3))
			}
			// Rejected edits leave h unchanged.
			_ = h.Apply(pos, span, ins)
		}
	}

	for i := 0; i < 2000; i++ {
		ref := randomSeq(1 + rng.IntN(24))
		pat, mat := newHap(ref), newHap(ref)
		edit(pat)
		edit(mat)
		if !assertRoundTrip(t, pat, mat) {
			t.Fatalf("case %d: reference %s", i, ref)
		}
	}
}

func assertRoundTrip(t *testing.T, pat, mat *Haplotype) bool {
	t.Helper()
	rows, err := MakeMap(pat, mat)
	require.NoError(t, err)

	wantPat, wantMat := coordinates(pat), coordinates(mat)
	idx := NewMapIndex(rows)

	ok := true
	for p := 0; p < pat.Len(); p++ {
		gotPat, gotMat, found := idx.Lift(p + 1)
		ok = assert.True(t, found, "reference %d", p+1) && ok
		ok = assert.Equal(t, wantPat[p], gotPat, "paternal coordinate of reference %d", p+1) && ok
		ok = assert.Equal(t, wantMat[p], gotMat, "maternal coordinate of reference %d", p+1) && ok
	}
	return ok
}

func TestMapIndex_LiftBeforeFirstRow(t *testing.T) {
	idx := NewMapIndex([]MapRow{{0, 1, 0}, {5, 3, 5}})

	_, _, ok := idx.Lift(4)
	assert.False(t, ok)

	pat, mat, ok := idx.Lift(7)
	assert.True(t, ok)
	assert.Equal(t, 5, pat)
	assert.Equal(t, 7, mat)
}

func TestLiftFrom(t *testing.T) {
	pat, mat, ok := LiftFrom(MapRow{Ref: 10, Pat: 0, Mat: 12}, 13)
	assert.True(t, ok)
	assert.Equal(t, 0, pat)
	assert.Equal(t, 15, mat)

	_, _, ok = LiftFrom(MapRow{Pat: 4}, 13)
	assert.False(t, ok)
}
