package pipeline

import (
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/vibe-diploid/internal/diploid"
	"github.com/inodb/vibe-diploid/internal/genome"
)

// SequenceSource yields reference sequences in file order.
// Next returns nil, nil when the source is exhausted.
type SequenceSource interface {
	Next() (*genome.Sequence, error)
}

// Options control which contigs are built and how many at once.
type Options struct {
	Workers    int  // 0 means runtime.NumCPU()
	AllContigs bool // also build contigs that carry no variants
}

// Summary describes a finished run.
type Summary struct {
	Contigs       int      // contigs built
	Skipped       int      // reference contigs without variants, not built
	Unmatched     []string // variant contigs with no reference sequence
	RefBases      int64
	PaternalBases int64
	MaternalBases int64
	Paternal      diploid.HaplotypeStats
	Maternal      diploid.HaplotypeStats
}

// Driver builds haplotypes for every contig of one or more references.
type Driver struct {
	builder *diploid.Builder
	opts    Options
	logger  *zap.Logger
}

// NewDriver creates a driver that builds each contig with b.
func NewDriver(b *diploid.Builder, opts Options) *Driver {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Driver{
		builder: b,
		opts:    opts,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for per-contig progress.
func (d *Driver) SetLogger(l *zap.Logger) {
	d.logger = l
}

// Run reads every sequence from refs in order, builds the contigs selected by
// the options and calls fn with each result in reference order. Variants are
// taken from variants as their contigs are reached. If fn returns an error,
// reading stops and the error is returned.
func (d *Driver) Run(refs []SequenceSource, variants *VariantSet, fn func(WorkResult) error) (*Summary, error) {
	sum := &Summary{}

	// A slot is held from the moment a contig is queued until its result
	// has been passed to fn.
	inflight := make(chan struct{}, 2*d.opts.Workers)
	stop := make(chan struct{})
	items := make(chan WorkItem)

	var readErr error
	go func() {
		defer close(items)
		seq := 0
		for _, src := range refs {
			for {
				select {
				case <-stop:
					return
				default:
				}

				s, err := src.Next()
				if err != nil {
					readErr = fmt.Errorf("reading reference: %w", err)
					return
				}
				if s == nil {
					break
				}

				vs, ok := variants.Take(s.Name)
				if !ok && !d.opts.AllContigs {
					sum.Skipped++
					d.logger.Debug("skipping contig without variants", zap.String("contig", s.Name))
					continue
				}

				select {
				case inflight <- struct{}{}:
				case <-stop:
					return
				}
				select {
				case items <- WorkItem{Seq: seq, Sequence: s, Variants: vs, ChainID: seq + 1}:
				case <-stop:
					return
				}
				seq++
			}
		}
	}()

	results := ParallelBuild(d.builder, items, d.opts.Workers)

	stopped := false
	halt := func() {
		if !stopped {
			close(stop)
			stopped = true
		}
	}
	err := OrderedCollect(results, func(r WorkResult) error {
		defer func() { <-inflight }()
		if errors.Is(r.Err, diploid.ErrLengthMismatch) {
			d.logger.Error("skipping coordinate map", zap.String("contig", r.Contig()), zap.Error(r.Err))
			r.Map, r.Err = nil, nil
		}
		if r.Err != nil {
			halt()
			return fmt.Errorf("contig %s: %w", r.Contig(), r.Err)
		}
		d.record(sum, &r)
		if err := fn(r); err != nil {
			halt()
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, readErr
	}

	sum.Unmatched = variants.Remaining()
	for _, c := range sum.Unmatched {
		d.logger.Warn("no reference sequence for variant contig", zap.String("contig", c))
	}
	return sum, nil
}

func (d *Driver) record(sum *Summary, r *WorkResult) {
	dip := r.Diploid
	sum.Contigs++
	sum.RefBases += int64(dip.Ref.Len())
	sum.PaternalBases += int64(r.Paternal.DerLen)
	sum.MaternalBases += int64(r.Maternal.DerLen)
	addStats(&sum.Paternal, dip.PaternalStats)
	addStats(&sum.Maternal, dip.MaternalStats)

	d.logger.Info("built contig",
		zap.String("contig", r.Contig()),
		zap.Int("length", dip.Ref.Len()),
		zap.Int("paternal_variants", dip.PaternalStats.Variants),
		zap.Int("paternal_rejected", dip.PaternalStats.Rejected),
		zap.Int("paternal_length", r.Paternal.DerLen),
		zap.Int("maternal_variants", dip.MaternalStats.Variants),
		zap.Int("maternal_rejected", dip.MaternalStats.Rejected),
		zap.Int("maternal_length", r.Maternal.DerLen))
}

func addStats(dst *diploid.HaplotypeStats, s diploid.HaplotypeStats) {
	dst.Variants += s.Variants
	dst.Bases += s.Bases
	dst.Rejected += s.Rejected
}
