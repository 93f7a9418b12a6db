// Package pipeline drives haplotype construction across every contig of a
// reference genome: it groups a sample's variants by contig, fans contigs out
// to a pool of workers and hands results back in reference order.
package pipeline

import (
	"fmt"

	"github.com/inodb/vibe-diploid/internal/vcf"
)

// VariantSet holds a sample's variants grouped by normalized contig name,
// each group in file order.
type VariantSet struct {
	byContig map[string][]*vcf.Variant
	order    []string // normalized names in order of first appearance
	total    int
}

// Load reads every variant from p and appends it to s, so several files
// merge in the order they are loaded.
func (s *VariantSet) Load(p vcf.VariantParser) error {
	for {
		v, err := p.Next()
		if err != nil {
			return fmt.Errorf("reading variants: %w", err)
		}
		if v == nil {
			return nil
		}
		s.Add(v)
	}
}

// Add appends v to the group of its contig.
func (s *VariantSet) Add(v *vcf.Variant) {
	if s.byContig == nil {
		s.byContig = make(map[string][]*vcf.Variant)
	}
	key := vcf.NormalizeChrom(v.Chrom)
	if _, ok := s.byContig[key]; !ok {
		s.order = append(s.order, key)
	}
	s.byContig[key] = append(s.byContig[key], v)
	s.total++
}

// Take removes and returns the variants for contig. The name is matched after
// normalization, so "chr1" in the reference finds variants called on "1".
func (s *VariantSet) Take(contig string) ([]*vcf.Variant, bool) {
	key := vcf.NormalizeChrom(contig)
	vs, ok := s.byContig[key]
	if ok {
		delete(s.byContig, key)
	}
	return vs, ok
}

// Remaining returns the contigs not yet taken, in file order.
func (s *VariantSet) Remaining() []string {
	var out []string
	for _, key := range s.order {
		if _, ok := s.byContig[key]; ok {
			out = append(out, key)
		}
	}
	return out
}

// Len returns the number of variants added.
func (s *VariantSet) Len() int {
	return s.total
}
