package diploid

import (
	"errors"

	"go.uber.org/zap"

	"github.com/inodb/vibe-diploid/internal/genome"
	"github.com/inodb/vibe-diploid/internal/vcf"
)

// HaplotypeStats counts the variants applied to one haplotype.
type HaplotypeStats struct {
	Variants int // variants applied
	Bases    int // sum of VariantBases over applied variants
	Rejected int // variants rejected by Apply
}

// Diploid is the pair of haplotypes built for one reference sequence.
type Diploid struct {
	Ref           *genome.Sequence
	Paternal      *Haplotype
	Maternal      *Haplotype
	PaternalStats HaplotypeStats
	MaternalStats HaplotypeStats
}

// Builder applies ordered variants to reference sequences.
type Builder struct {
	phase  PhaseSource
	logger *zap.Logger
}

// NewBuilder creates a builder that resolves unphased variants with phase.
func NewBuilder(phase PhaseSource) *Builder {
	return &Builder{
		phase:  phase,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for rejected-variant diagnostics.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Build applies variants, in order, to fresh paternal and maternal copies of
// ref. Variants that cannot be applied are logged and skipped.
func (b *Builder) Build(ref *genome.Sequence, variants []*vcf.Variant) *Diploid {
	d := &Diploid{
		Ref:      ref,
		Paternal: NewHaplotype(ref),
		Maternal: NewHaplotype(ref),
	}

	for _, v := range variants {
		if !v.HasAlleles() {
			continue
		}

		// Resolve the phase once so both haplotypes see the same outcome.
		pat, mat := v.Paternal, v.Maternal
		if !v.Phased && b.phase.Swap(ref.Name, v.Pos) {
			pat, mat = mat, pat
		}

		pos := int(v.Pos) - 1
		if pat > 0 {
			b.apply(d.Paternal, &d.PaternalStats, v, pos, v.Allele(pat))
		}
		if mat > 0 {
			b.apply(d.Maternal, &d.MaternalStats, v, pos, v.Allele(mat))
		}
	}

	return d
}

func (b *Builder) apply(h *Haplotype, stats *HaplotypeStats, v *vcf.Variant, pos int, allele string) {
	err := h.Apply(pos, v.RefSpan, allele)
	if err == nil {
		stats.Variants++
		stats.Bases += v.VariantBases()
		return
	}

	stats.Rejected++
	var ae *ApplyError
	if errors.As(err, &ae) {
		b.logger.Warn("skipping variant",
			zap.String("contig", ae.Contig),
			zap.Int("pos", ae.Pos),
			zap.Int("ref_span", ae.RefSpan),
			zap.String("insertion", ae.Inserted),
			zap.Int("line", v.Line),
			zap.Error(ae.Err))
		return
	}
	b.logger.Warn("skipping variant", zap.Error(err))
}
