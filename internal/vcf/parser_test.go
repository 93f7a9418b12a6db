package vcf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA12878\tNA12891\n"

func record(fields ...string) string {
	return strings.Join(fields, "\t") + "\n"
}

func readAll(t *testing.T, p *Parser) []*Variant {
	t.Helper()
	var out []*Variant
	for {
		v, err := p.Next()
		require.NoError(t, err)
		if v == nil {
			return out
		}
		out = append(out, v)
	}
}

func TestParser_PhasedSNV(t *testing.T) {
	input := header + record("1", "100", ".", "C", "T", "50", "PASS", ".", "GT:DP", "0|1:30", "0/0:12")

	p, err := NewParserFromReader(strings.NewReader(input), Options{SampleID: "NA12878"})
	require.NoError(t, err)

	vars := readAll(t, p)
	require.Len(t, vars, 1)

	v := vars[0]
	assert.Equal(t, "1", v.Chrom)
	assert.Equal(t, int64(100), v.Pos)
	assert.Equal(t, 1, v.RefSpan)
	assert.Equal(t, []string{"T"}, v.Alts)
	assert.Equal(t, 0, v.Paternal)
	assert.Equal(t, 1, v.Maternal)
	assert.True(t, v.Phased)
	assert.Equal(t, 3, v.Line)
}

func TestParser_SelectsSampleColumn(t *testing.T) {
	input := header + record("1", "100", ".", "C", "T", "50", "PASS", ".", "GT", "0/0", "1/1")

	p, err := NewParserFromReader(strings.NewReader(input), Options{SampleID: "NA12891"})
	require.NoError(t, err)

	vars := readAll(t, p)
	require.Len(t, vars, 1)
	assert.Equal(t, 1, vars[0].Paternal)
	assert.Equal(t, 1, vars[0].Maternal)
	assert.False(t, vars[0].Phased)
	assert.Equal(t, []string{"NA12878", "NA12891"}, p.SampleNames())
}

func TestParser_GTNotFirstFormatKey(t *testing.T) {
	input := header + record("1", "100", ".", "C", "T", "50", "PASS", ".", "DP:GT", "30:1|0", "12:0|0")

	p, err := NewParserFromReader(strings.NewReader(input), Options{SampleID: "NA12878"})
	require.NoError(t, err)

	vars := readAll(t, p)
	require.Len(t, vars, 1)
	assert.Equal(t, 1, vars[0].Paternal)
	assert.Equal(t, 0, vars[0].Maternal)
}

func TestParser_SampleErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  Options
	}{
		{"unknown sample", header, Options{SampleID: "nobody"}},
		{"ambiguous sample", header, Options{}},
		{"no samples", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n", Options{}},
		{"missing header", "1\t100\t.\tC\tT\t.\t.\t.\n", Options{}},
		{"empty input", "", Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParserFromReader(strings.NewReader(tt.input), tt.opts)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
		})
	}
}

func TestParser_SingleSampleNeedsNoID(t *testing.T) {
	input := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n" +
		record("2", "5", ".", "A", "G", ".", ".", ".", "GT", "1|1")

	p, err := NewParserFromReader(strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.Len(t, readAll(t, p), 1)
}

func TestParser_SkipsAndStats(t *testing.T) {
	input := header +
		record("1", "100", ".", "C", "T", ".", "LowQual", ".", "GT", "0|1", "0|0") + // filtered
		record("1", "200", ".", "C", "<DEL>", ".", "PASS", ".", "GT", "0|1", "0|0") + // symbolic
		record("1", "300", ".", "C", "G", ".", "PASS", ".", "GT", "0|0", "0|0") + // reference
		record("1", "400", ".", "C", "G", ".", "PASS", ".", "GT", "x|y", "0|0") + // bad phase
		record("1", "500", ".", "C", "G", ".", "PASS", ".", "DP", "10", "10") + // no GT
		record("1", "600", ".", "C", ".", ".", "PASS", ".", "GT", "0|1", "0|0") + // no alt
		record("1", "700", ".", "CA", "T,", ".", "PASS", ".", "GT", "0|1", "0|0") + // invalid
		"\n" +
		record("1", "800", ".", "C", "G", ".", "PASS", ".", "GT", "1|0", "0|0")

	p, err := NewParserFromReader(strings.NewReader(input), Options{SampleID: "NA12878", PassOnly: true})
	require.NoError(t, err)

	vars := readAll(t, p)
	require.Len(t, vars, 1)
	assert.Equal(t, int64(800), vars[0].Pos)

	stats := p.Stats()
	assert.Equal(t, 8, stats.Records)
	assert.Equal(t, 1, stats.Variants)
	assert.Equal(t, 1, stats.Filtered)
	assert.Equal(t, 1, stats.Symbolic)
	assert.Equal(t, 2, stats.Reference)
	assert.Equal(t, 2, stats.NoGenotype)
	assert.Equal(t, 1, stats.Invalid)
}

func TestParser_WithoutPassOnlyKeepsFiltered(t *testing.T) {
	input := header + record("1", "100", ".", "C", "T", ".", "LowQual", ".", "GT", "0|1", "0|0")

	p, err := NewParserFromReader(strings.NewReader(input), Options{SampleID: "NA12878"})
	require.NoError(t, err)
	assert.Len(t, readAll(t, p), 1)
}

func TestParser_NormalizesIndels(t *testing.T) {
	input := header +
		record("1", "10", ".", "ACGT", "A", ".", "PASS", ".", "GT", "1|0", "0|0") +
		record("1", "20", ".", "a", "atta", ".", "PASS", ".", "GT", "0|1", "0|0")

	p, err := NewParserFromReader(strings.NewReader(input), Options{SampleID: "NA12878"})
	require.NoError(t, err)

	vars := readAll(t, p)
	require.Len(t, vars, 2)

	del := vars[0]
	assert.Equal(t, int64(11), del.Pos)
	assert.Equal(t, 3, del.RefSpan)
	assert.Equal(t, []string{""}, del.Alts)
	assert.Equal(t, "ACGT", del.Ref)

	ins := vars[1]
	assert.Equal(t, int64(21), ins.Pos)
	assert.Equal(t, 0, ins.RefSpan)
	assert.Equal(t, []string{"TTA"}, ins.Alts)
}

func TestParser_SpanningDeletionAllele(t *testing.T) {
	input := header +
		record("1", "10", ".", "C", "T,*", ".", "PASS", ".", "GT", "1|2", "0|0") +
		record("1", "11", ".", "C", "*", ".", "PASS", ".", "GT", "1|1", "0|0")

	p, err := NewParserFromReader(strings.NewReader(input), Options{SampleID: "NA12878"})
	require.NoError(t, err)

	vars := readAll(t, p)
	require.Len(t, vars, 1)
	assert.Equal(t, 1, vars[0].Paternal)
	assert.Equal(t, 0, vars[0].Maternal)
	assert.Equal(t, []string{"T", "*"}, vars[0].Alts)
}

func TestParser_AlleleOutOfRange(t *testing.T) {
	input := header + record("1", "10", ".", "C", "T", ".", "PASS", ".", "GT", "3|1", "0|0")

	p, err := NewParserFromReader(strings.NewReader(input), Options{SampleID: "NA12878"})
	require.NoError(t, err)

	vars := readAll(t, p)
	require.Len(t, vars, 1)
	assert.Equal(t, 0, vars[0].Paternal)
	assert.Equal(t, 1, vars[0].Maternal)
}

func TestParser_HaploidChromosomes(t *testing.T) {
	input := header +
		record("chrX", "10", ".", "C", "T", ".", "PASS", ".", "GT", "1", "0") +
		record("chrY", "10", ".", "C", "T", ".", "PASS", ".", "GT", "1", "0") +
		record("chr7", "10", ".", "C", "T", ".", "PASS", ".", "GT", "1", "0")

	p, err := NewParserFromReader(strings.NewReader(input), Options{SampleID: "NA12878"})
	require.NoError(t, err)

	vars := readAll(t, p)
	require.Len(t, vars, 2)

	assert.Equal(t, "chrX", vars[0].Chrom)
	assert.Equal(t, 0, vars[0].Paternal)
	assert.Equal(t, 1, vars[0].Maternal)
	assert.True(t, vars[0].Phased)

	assert.Equal(t, "chrY", vars[1].Chrom)
	assert.Equal(t, 1, vars[1].Paternal)
	assert.Equal(t, 0, vars[1].Maternal)
	assert.Equal(t, 1, p.Stats().NoGenotype)
}

func TestParser_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few columns", "1\t100\t.\tC\n"},
		{"bad position", record("1", "x", ".", "C", "T", ".", "PASS", ".", "GT", "0|1", "0|0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParserFromReader(strings.NewReader(header+tt.line), Options{SampleID: "NA12878"})
			require.NoError(t, err)

			_, err = p.Next()
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, 3, pe.Line)
		})
	}
}

func TestParser_NoTrailingNewline(t *testing.T) {
	input := header + strings.TrimSuffix(record("1", "100", ".", "C", "T", ".", "PASS", ".", "GT", "0|1", "0|0"), "\n")

	p, err := NewParserFromReader(strings.NewReader(input), Options{SampleID: "NA12878"})
	require.NoError(t, err)
	assert.Len(t, readAll(t, p), 1)
}

func TestNewParser_GzipFile(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(header + record("1", "100", ".", "C", "T", ".", "PASS", ".", "GT", "0|1", "0|0")))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "sample.vcf.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	p, err := NewParser(path, Options{SampleID: "NA12878"})
	require.NoError(t, err)
	defer p.Close()

	assert.Len(t, readAll(t, p), 1)
	assert.Len(t, p.Header(), 2)
}
