package diploid

import (
	"math/rand/v2"
	"strconv"

	"github.com/zeebo/xxh3"
)

// PhaseSource decides whether an unphased variant swaps its paternal and
// maternal alleles. It is asked exactly once per unphased variant.
type PhaseSource interface {
	Swap(contig string, pos int64) bool
}

// PhaseFunc adapts an ordinary function to a PhaseSource.
type PhaseFunc func(contig string, pos int64) bool

// Swap calls f(contig, pos).
func (f PhaseFunc) Swap(contig string, pos int64) bool {
	return f(contig, pos)
}

// SeededPhase draws each decision from a generator seeded by the run seed and
// a hash of the variant's contig and position, so results do not depend on
// the order or concurrency in which contigs are processed.
type SeededPhase struct {
	Seed uint64
}

// Swap reports a fair coin flip for the variant at contig:pos.
func (s SeededPhase) Swap(contig string, pos int64) bool {
	key := xxh3.HashString(contig + ":" + strconv.FormatInt(pos, 10))
	r := rand.New(rand.NewPCG(s.Seed, key))
	return r.Float64() < 0.5
}
