package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-diploid/internal/diploid"
)

func TestMapWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewMapWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteRows([]diploid.MapRow{{1, 1, 1}, {0, 5, 0}, {0, 0, 5}, {5, 7, 6}}))
	require.NoError(t, w.WriteRows([]diploid.MapRow{{1, 1, 1}}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "#REF\tPAT\tMAT\n1\t1\t1\n0\t5\t0\n0\t0\t5\n5\t7\t6\n1\t1\t1\n", buf.String())
}

func TestReadMap_SplitsContigs(t *testing.T) {
	in := "#REF\tPAT\tMAT\n" +
		"1\t1\t1\n" +
		"3\t0\t3\n" +
		"5\t3\t5\n" +
		"0\t1\t1\n" +
		"1\t3\t3\n" +
		"1\t1\t1\n" +
		"0\t5\t0\n" +
		"5\t7\t5\n"

	contigs, err := ReadMap(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, contigs, 3)
	assert.Equal(t, []diploid.MapRow{{1, 1, 1}, {3, 0, 3}, {5, 3, 5}}, contigs[0])
	assert.Equal(t, []diploid.MapRow{{0, 1, 1}, {1, 3, 3}}, contigs[1])
	assert.Equal(t, []diploid.MapRow{{1, 1, 1}, {0, 5, 0}, {5, 7, 5}}, contigs[2])
}

func TestReadMap_RoundTrip(t *testing.T) {
	rows := [][]diploid.MapRow{
		{{1, 1, 1}, {0, 5, 0}, {0, 0, 5}, {5, 7, 6}},
		{{1, 1, 1}},
	}

	var buf bytes.Buffer
	w := NewMapWriter(&buf)
	require.NoError(t, w.WriteHeader())
	for _, r := range rows {
		require.NoError(t, w.WriteRows(r))
	}
	require.NoError(t, w.Flush())

	got, err := ReadMap(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadMap_Malformed(t *testing.T) {
	_, err := ReadMap(strings.NewReader("#REF\tPAT\tMAT\n1\t1\n"))
	assert.ErrorContains(t, err, "map line 2")

	_, err = ReadMap(strings.NewReader("1\tx\t1\n"))
	assert.ErrorContains(t, err, "invalid coordinate")
}
