package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-diploid/internal/diploid"
	"github.com/inodb/vibe-diploid/internal/genome"
)

func haplotype(bases string) *diploid.Haplotype {
	return diploid.NewHaplotype(&genome.Sequence{Name: "chrT", Bases: []byte(bases)})
}

func TestFastaWriter_Wraps(t *testing.T) {
	tests := []struct {
		name  string
		bases string
		width int
		want  string
	}{
		{"shorter than a line", "ACGT", 10, ">x\nACGT\n"},
		{"exact multiple", "ACGTACGT", 4, ">x\nACGT\nACGT\n"},
		{"partial last line", "ACGTACGTAC", 4, ">x\nACGT\nACGT\nAC\n"},
		{"default width", string(bytes.Repeat([]byte("A"), 60)), 0, ">x\n" + string(bytes.Repeat([]byte("A"), 50)) + "\nAAAAAAAAAA\n"},
		{"empty sequence", "", 4, ">x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewFastaWriter(&buf, tt.width)
			require.NoError(t, w.WriteRecord("x", haplotype(tt.bases)))
			require.NoError(t, w.Flush())
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestFastaWriter_SplicesEdits(t *testing.T) {
	h := haplotype("ACGTACgtAC")
	require.NoError(t, h.Apply(1, 2, ""))
	require.NoError(t, h.Apply(4, 0, "TTTT"))
	require.NoError(t, h.Apply(6, 1, "A"))

	var buf bytes.Buffer
	w := NewFastaWriter(&buf, 4)
	require.NoError(t, w.WriteRecord("chrT_paternal", h))
	require.NoError(t, w.WriteRecord("chrU_paternal", haplotype("GG")))
	require.NoError(t, w.Flush())

	// A + T + TTTT + AC + at + AC
	assert.Equal(t, ">chrT_paternal\nATTT\nTTAC\natAC\n>chrU_paternal\nGG\n", buf.String())
}
