package pipeline

import (
	"runtime"
	"sync"

	"github.com/inodb/vibe-diploid/internal/diploid"
	"github.com/inodb/vibe-diploid/internal/genome"
	"github.com/inodb/vibe-diploid/internal/vcf"
)

// WorkItem holds one reference sequence and the variants to apply to it.
type WorkItem struct {
	Seq      int
	Sequence *genome.Sequence
	Variants []*vcf.Variant
	ChainID  int // shared by the paternal and maternal chain
}

// WorkResult holds everything derived from one reference sequence.
type WorkResult struct {
	Seq          int
	Diploid      *diploid.Diploid
	PaternalName string
	MaternalName string
	Paternal     *diploid.Chain
	Maternal     *diploid.Chain
	Map          []diploid.MapRow
	Err          error
}

// Contig returns the reference sequence name.
func (r *WorkResult) Contig() string {
	return r.Diploid.Ref.Name
}

// Process builds the haplotypes of one work item and derives its chains and
// coordinate map.
func Process(b *diploid.Builder, item WorkItem) WorkResult {
	ref := item.Sequence
	d := b.Build(ref, item.Variants)

	res := WorkResult{
		Seq:          item.Seq,
		Diploid:      d,
		PaternalName: ref.Name + "_paternal",
		MaternalName: ref.Name + "_maternal",
	}
	res.Paternal = diploid.MakeChain(ref.Name, res.PaternalName, d.Paternal, item.ChainID)
	res.Maternal = diploid.MakeChain(ref.Name, res.MaternalName, d.Maternal, item.ChainID)
	res.Map, res.Err = diploid.MakeMap(d.Paternal, d.Maternal)
	return res
}

// ParallelBuild processes work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func ParallelBuild(b *diploid.Builder, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- Process(b, item)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
