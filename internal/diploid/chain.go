package diploid

// Block is one aligned run followed by the gaps before the next run.
// The final block of a chain carries only Size.
type Block struct {
	Size int // aligned bases
	DRef int // reference bases with no counterpart in the haplotype
	DDer int // haplotype bases with no counterpart in the reference
}

// Chain is a reference-to-haplotype alignment in UCSC chain terms. Both
// sequences are aligned on the forward strand from position 0. RefEnd and
// DerEnd fall short of the full lengths only when the contig ends inside a
// gap.
type Chain struct {
	Score   int
	RefName string
	RefLen  int
	RefEnd  int
	DerName string
	DerLen  int
	DerEnd  int
	ID      int
	Blocks  []Block
}

// MakeChain aligns h against its reference. Gaps are never split: deleted
// reference positions and inserted text between two aligned bases form one
// block boundary.
func MakeChain(refName, derName string, h *Haplotype, id int) *Chain {
	kept := h.Kept()
	c := &Chain{
		Score:   kept,
		RefName: refName,
		RefLen:  h.Len(),
		DerName: derName,
		DerLen:  kept + h.InsertedBases(),
		ID:      id,
	}

	ins := h.cursor()
	var size, dref, dder int
	inGap := false
	for p := 0; p < h.Len(); p++ {
		if s, ok := ins.at(p); ok {
			dder += len(s)
			inGap = true
		}
		if h.deleted[p] {
			dref++
			inGap = true
			continue
		}
		if inGap {
			c.Blocks = append(c.Blocks, Block{Size: size, DRef: dref, DDer: dder})
			size, dref, dder = 0, 0, 0
			inGap = false
		}
		size++
	}
	c.Blocks = append(c.Blocks, Block{Size: size})
	c.RefEnd = c.RefLen - dref
	c.DerEnd = c.DerLen - dder

	return c
}
