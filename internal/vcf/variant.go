// Package vcf provides VCF file parsing functionality.
package vcf

import "strings"

// SpanningDeletion is the VCF allele that marks a position already removed
// by an upstream deletion. It is kept for allele indexing but never applied.
const SpanningDeletion = "*"

// Variant represents a single normalized variant as carried by one sample.
type Variant struct {
	Chrom    string   // Chromosome name (e.g., "12", "chr12")
	Pos      int64    // 1-based position of the first affected reference base
	RefSpan  int      // Number of reference bases replaced (0 for a pure insertion)
	Ref      string   // Reference allele as written in the file, upper-cased
	Alts     []string // Trimmed alternate alleles; allele i is Alts[i-1]
	Paternal int      // Allele index on the paternal haplotype (0 = reference)
	Maternal int      // Allele index on the maternal haplotype (0 = reference)
	Phased   bool     // Whether Paternal/Maternal are known to be correct
	Filter   string   // Filter status (PASS or filter name)
	Line     int      // Source line number
}

// Allele returns the alternate allele with 1-based index i, or "" when i
// does not name an alternate.
func (v *Variant) Allele(i int) string {
	if i <= 0 || i > len(v.Alts) {
		return ""
	}
	return v.Alts[i-1]
}

// HasAlleles reports whether either haplotype carries an alternate allele.
func (v *Variant) HasAlleles() bool {
	return v.Paternal > 0 || v.Maternal > 0
}

// VariantBases counts the bases touched by the variant: the replaced
// reference span plus every alternate whose length differs from it.
func (v *Variant) VariantBases() int {
	n := v.RefSpan
	for _, a := range v.Alts {
		if len(a) != v.RefSpan {
			n += len(a)
		}
	}
	return n
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	return NormalizeChrom(v.Chrom)
}

// NormalizeChrom strips a case-insensitive "chr" prefix and folds the
// mitochondrial alias "M" into "MT", so VCF and FASTA names can be matched.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && strings.EqualFold(chrom[:3], "chr") {
		chrom = chrom[3:]
	}
	if strings.EqualFold(chrom, "M") || strings.EqualFold(chrom, "MT") {
		return "MT"
	}
	return chrom
}
