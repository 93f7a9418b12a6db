// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-diploid/internal/fileio"
)

// Options control which records a Parser yields.
type Options struct {
	SampleID string        // Sample column to read genotypes from; optional for single-sample files
	PassOnly bool          // Skip records whose FILTER does not contain PASS
	Haploid  HaploidPolicy // Placement of single-allele genotypes; nil means DefaultHaploidPolicy
}

// Stats counts what happened to the records a Parser has read.
type Stats struct {
	Records    int // data lines read
	Variants   int // variants returned by Next
	Filtered   int // skipped by the PASS filter
	Symbolic   int // skipped for symbolic or breakend alternates
	Invalid    int // skipped as invalid records
	NoGenotype int // no GT for the selected sample, or an unrecognized phase
	Reference  int // genotype carries no alternate allele
}

// Parser reads variants for one sample from a VCF file.
type Parser struct {
	reader      *fileio.Reader
	opts        Options
	logger      *zap.Logger
	lineNumber  int
	header      []string
	sampleNames []string // sample names from #CHROM header line
	sampleCol   int      // column index of the selected sample
	stats       Stats
}

// NewParser creates a new VCF parser for the given file.
// Supports plain, gzipped and bgzipped VCF files, and "-" for stdin.
func NewParser(path string, opts Options) (*Parser, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := newParser(r, opts)
	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader, opts Options) (*Parser, error) {
	fr, err := fileio.NewReader(r)
	if err != nil {
		return nil, err
	}

	p := newParser(fr, opts)
	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

func newParser(r *fileio.Reader, opts Options) *Parser {
	if opts.Haploid == nil {
		opts.Haploid = DefaultHaploidPolicy()
	}
	return &Parser{
		reader: r,
		opts:   opts,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for skipped-record warnings.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// parseHeader reads header lines and selects the sample column.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.header = append(p.header, line)
			// Sample names are the columns after FORMAT (index 9+)
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				p.sampleNames = fields[9:]
			}
			return p.selectSample()
		}

		// Non-header line encountered without #CHROM
		return &ParseError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}

	return &ParseError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

func (p *Parser) selectSample() error {
	if len(p.sampleNames) == 0 {
		return &ParseError{Line: p.lineNumber, Message: "no sample columns in #CHROM header"}
	}

	if p.opts.SampleID == "" {
		if len(p.sampleNames) > 1 {
			return &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("%d samples present, a sample id is required", len(p.sampleNames)),
			}
		}
		p.sampleCol = 9
		return nil
	}

	for i, name := range p.sampleNames {
		if name == p.opts.SampleID {
			p.sampleCol = 9 + i
			return nil
		}
	}
	return &ParseError{
		Line:    p.lineNumber,
		Message: fmt.Sprintf("sample %q not found in #CHROM header", p.opts.SampleID),
	}
}

// Next reads the next variant carried by the selected sample.
// Records that are filtered, invalid, or reference-only are skipped.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		v, err := p.parseLine(line)
		if err != nil {
			return nil, err
		}
		if v != nil {
			p.stats.Variants++
			return v, nil
		}
	}
}

// parseLine parses a single VCF data line. It returns nil, nil for records
// that do not yield a usable variant.
func (p *Parser) parseLine(line string) (*Variant, error) {
	p.stats.Records++

	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	chrom, ref, alt, filter := fields[0], fields[3], fields[4], fields[6]

	if p.opts.PassOnly && !strings.Contains(filter, "PASS") {
		p.stats.Filtered++
		return nil, nil
	}

	if alt == "." || alt == "" {
		p.stats.Reference++
		return nil, nil
	}

	alts := strings.Split(alt, ",")
	for _, a := range alts {
		if isSymbolic(a) {
			p.stats.Symbolic++
			return nil, nil
		}
	}

	gt, ok := p.genotype(fields, chrom)
	if !ok {
		p.stats.NoGenotype++
		return nil, nil
	}

	npos, nref, nalts, err := Normalize(pos, ref, alts)
	if errors.Is(err, ErrInvalidRecord) {
		p.stats.Invalid++
		p.logger.Warn("skipping invalid record",
			zap.Int("line", p.lineNumber),
			zap.String("chrom", chrom),
			zap.Int64("pos", pos),
			zap.String("ref", ref),
			zap.String("alt", alt))
		return nil, nil
	}

	v := &Variant{
		Chrom:    chrom,
		Pos:      npos,
		RefSpan:  len(nref),
		Ref:      strings.ToUpper(ref),
		Alts:     nalts,
		Paternal: p.usableAllele(gt.Paternal, nalts, chrom, pos),
		Maternal: p.usableAllele(gt.Maternal, nalts, chrom, pos),
		Phased:   gt.Phased,
		Filter:   filter,
		Line:     p.lineNumber,
	}

	if !v.HasAlleles() {
		p.stats.Reference++
		return nil, nil
	}
	return v, nil
}

// genotype extracts the selected sample's GT call.
func (p *Parser) genotype(fields []string, chrom string) (Genotype, bool) {
	if len(fields) <= p.sampleCol {
		return Genotype{}, false
	}

	gtIndex := -1
	for i, key := range strings.Split(fields[8], ":") {
		if key == "GT" {
			gtIndex = i
			break
		}
	}
	if gtIndex < 0 {
		return Genotype{}, false
	}

	values := strings.Split(fields[p.sampleCol], ":")
	if gtIndex >= len(values) {
		return Genotype{}, false
	}

	gt, err := ParseGenotype(values[gtIndex], chrom, p.opts.Haploid)
	if err != nil {
		p.logger.Warn("unrecognized genotype",
			zap.Int("line", p.lineNumber),
			zap.String("chrom", chrom),
			zap.String("gt", values[gtIndex]),
			zap.Error(err))
		return Genotype{}, false
	}
	return gt, true
}

// usableAllele clears allele indices that name no alternate or a spanning deletion.
func (p *Parser) usableAllele(idx int, alts []string, chrom string, pos int64) int {
	if idx == 0 {
		return 0
	}
	if idx > len(alts) {
		p.logger.Warn("genotype allele out of range",
			zap.Int("line", p.lineNumber),
			zap.String("chrom", chrom),
			zap.Int64("pos", pos),
			zap.Int("allele", idx),
			zap.Int("alts", len(alts)))
		return 0
	}
	if alts[idx-1] == SpanningDeletion {
		return 0
	}
	return idx
}

// Header returns the VCF header lines.
func (p *Parser) Header() []string {
	return p.header
}

// SampleNames returns sample names from the #CHROM header line.
func (p *Parser) SampleNames() []string {
	return p.sampleNames
}

// Stats returns counts of the records read so far.
func (p *Parser) Stats() Stats {
	return p.stats
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	return p.reader.Close()
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
