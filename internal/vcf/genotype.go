package vcf

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnrecognizedPhase is returned for GT tokens that are neither a single
// allele nor a two-allele "a|b" / "a/b" pair.
var ErrUnrecognizedPhase = errors.New("unrecognized phasing")

// Parent identifies which haplotype a haploid call belongs to.
type Parent int

const (
	ParentNone Parent = iota
	ParentPaternal
	ParentMaternal
)

func (p Parent) String() string {
	switch p {
	case ParentPaternal:
		return "paternal"
	case ParentMaternal:
		return "maternal"
	default:
		return "none"
	}
}

// ParseParent parses "paternal" or "maternal" (case-insensitive).
func ParseParent(s string) (Parent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paternal", "pat", "p":
		return ParentPaternal, nil
	case "maternal", "mat", "m":
		return ParentMaternal, nil
	}
	return ParentNone, fmt.Errorf("unknown parent %q (want paternal or maternal)", s)
}

// HaploidPolicy decides which haplotype receives a single-allele genotype,
// keyed by normalized chromosome name.
type HaploidPolicy map[string]Parent

// DefaultHaploidPolicy places X and mitochondrial calls on the maternal
// haplotype and Y calls on the paternal one.
func DefaultHaploidPolicy() HaploidPolicy {
	return HaploidPolicy{
		"X":  ParentMaternal,
		"Y":  ParentPaternal,
		"MT": ParentMaternal,
	}
}

// ParseHaploidPolicy builds a policy from "CHROM=parent" entries.
func ParseHaploidPolicy(entries []string) (HaploidPolicy, error) {
	policy := make(HaploidPolicy, len(entries))
	for _, e := range entries {
		chrom, parent, ok := strings.Cut(e, "=")
		if !ok || chrom == "" {
			return nil, fmt.Errorf("invalid haploid entry %q (want CHROM=paternal|maternal)", e)
		}
		p, err := ParseParent(parent)
		if err != nil {
			return nil, fmt.Errorf("haploid entry %q: %w", e, err)
		}
		policy[policyKey(chrom)] = p
	}
	return policy, nil
}

// Lookup returns the parent for chrom, or ParentNone if chrom is not haploid.
func (hp HaploidPolicy) Lookup(chrom string) Parent {
	return hp[policyKey(chrom)]
}

// Entries returns the policy as sorted "CHROM=parent" strings.
func (hp HaploidPolicy) Entries() []string {
	out := make([]string, 0, len(hp))
	for chrom, p := range hp {
		out = append(out, chrom+"="+p.String())
	}
	sort.Strings(out)
	return out
}

func policyKey(chrom string) string {
	return strings.ToUpper(NormalizeChrom(chrom))
}

// Genotype is a sample's allele assignment for one record.
type Genotype struct {
	Paternal int
	Maternal int
	Phased   bool
}

// ParseGenotype parses a GT token for a record on chrom.
//
// Two shapes are accepted: a single allele (haploid call, placed according to
// policy) and a three-character pair "a|b" (phased) or "a/b" (unphased), where
// the first allele is paternal. A missing allele "." counts as reference.
// Anything else yields ErrUnrecognizedPhase and an empty genotype.
func ParseGenotype(token, chrom string, policy HaploidPolicy) (Genotype, error) {
	token = strings.TrimSpace(token)

	switch len(token) {
	case 1:
		allele, ok := alleleDigit(token[0])
		if !ok {
			break
		}
		switch policy.Lookup(chrom) {
		case ParentPaternal:
			return Genotype{Paternal: allele, Phased: true}, nil
		case ParentMaternal:
			return Genotype{Maternal: allele, Phased: true}, nil
		}
		return Genotype{}, fmt.Errorf("%w %q: %s is not a haploid chromosome", ErrUnrecognizedPhase, token, chrom)
	case 3:
		pat, ok1 := alleleDigit(token[0])
		mat, ok2 := alleleDigit(token[2])
		sep := token[1]
		if ok1 && ok2 && (sep == '|' || sep == '/') {
			return Genotype{Paternal: pat, Maternal: mat, Phased: sep == '|'}, nil
		}
	}

	return Genotype{}, fmt.Errorf("%w %q", ErrUnrecognizedPhase, token)
}

func alleleDigit(c byte) (int, bool) {
	switch {
	case c == '.':
		return 0, true
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	}
	return 0, false
}
