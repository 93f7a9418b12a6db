package output

import (
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bgzf"
	"go.uber.org/multierr"

	"github.com/inodb/vibe-diploid/internal/pipeline"
)

// Paths names the files written for an output prefix.
type Paths struct {
	PaternalFasta string
	MaternalFasta string
	PaternalChain string
	MaternalChain string
	Map           string
}

// OutputPaths returns the file names for prefix. With bgzip set the FASTA
// files get a ".gz" suffix.
func OutputPaths(prefix string, bgzip bool) Paths {
	ext := ".fasta"
	if bgzip {
		ext += ".gz"
	}
	return Paths{
		PaternalFasta: prefix + ".paternal" + ext,
		MaternalFasta: prefix + ".maternal" + ext,
		PaternalChain: prefix + ".paternal.chain",
		MaternalChain: prefix + ".maternal.chain",
		Map:           prefix + ".map",
	}
}

// Options configure a Files set.
type Options struct {
	Prefix    string
	LineWidth int  // bases per FASTA line; 0 means DefaultLineWidth
	BGZF      bool // block-gzip the FASTA files
	Workers   int  // compression goroutines per BGZF file
}

// Files holds every output file of a run.
type Files struct {
	Paths Paths

	paternal *FastaWriter
	maternal *FastaWriter
	patChain *ChainWriter
	matChain *ChainWriter
	coords   *MapWriter

	compressors []*bgzf.Writer
	files       []*os.File
}

// Create creates the output files and writes the coordinate map header.
// Existing files are truncated.
func Create(opts Options) (*Files, error) {
	f := &Files{Paths: OutputPaths(opts.Prefix, opts.BGZF)}
	if err := f.open(opts); err != nil {
		f.closeFiles()
		return nil, err
	}
	return f, nil
}

func (f *Files) open(opts Options) error {
	pat, err := f.create(f.Paths.PaternalFasta)
	if err != nil {
		return err
	}
	mat, err := f.create(f.Paths.MaternalFasta)
	if err != nil {
		return err
	}
	if opts.BGZF {
		pat = f.compress(pat, opts.Workers)
		mat = f.compress(mat, opts.Workers)
	}
	f.paternal = NewFastaWriter(pat, opts.LineWidth)
	f.maternal = NewFastaWriter(mat, opts.LineWidth)

	pc, err := f.create(f.Paths.PaternalChain)
	if err != nil {
		return err
	}
	mc, err := f.create(f.Paths.MaternalChain)
	if err != nil {
		return err
	}
	f.patChain = NewChainWriter(pc)
	f.matChain = NewChainWriter(mc)

	m, err := f.create(f.Paths.Map)
	if err != nil {
		return err
	}
	f.coords = NewMapWriter(m)
	return f.coords.WriteHeader()
}

func (f *Files) create(path string) (io.Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	f.files = append(f.files, file)
	return file, nil
}

func (f *Files) compress(w io.Writer, workers int) io.Writer {
	if workers <= 0 {
		workers = 1
	}
	bw := bgzf.NewWriter(w, workers)
	f.compressors = append(f.compressors, bw)
	return bw
}

// Write writes both haplotypes, both chains and the map rows of one contig.
func (f *Files) Write(r pipeline.WorkResult) error {
	d := r.Diploid
	if err := f.paternal.WriteRecord(r.PaternalName, d.Paternal); err != nil {
		return fmt.Errorf("writing %s: %w", f.Paths.PaternalFasta, err)
	}
	if err := f.maternal.WriteRecord(r.MaternalName, d.Maternal); err != nil {
		return fmt.Errorf("writing %s: %w", f.Paths.MaternalFasta, err)
	}
	if err := f.patChain.Write(r.Paternal); err != nil {
		return fmt.Errorf("writing %s: %w", f.Paths.PaternalChain, err)
	}
	if err := f.matChain.Write(r.Maternal); err != nil {
		return fmt.Errorf("writing %s: %w", f.Paths.MaternalChain, err)
	}
	if err := f.coords.WriteRows(r.Map); err != nil {
		return fmt.Errorf("writing %s: %w", f.Paths.Map, err)
	}
	return nil
}

// Close flushes all writers, finishes any BGZF streams and closes the files.
func (f *Files) Close() error {
	var err error
	err = multierr.Append(err, f.paternal.Flush())
	err = multierr.Append(err, f.maternal.Flush())
	err = multierr.Append(err, f.patChain.Flush())
	err = multierr.Append(err, f.matChain.Flush())
	err = multierr.Append(err, f.coords.Flush())
	for _, c := range f.compressors {
		err = multierr.Append(err, c.Close())
	}
	return multierr.Append(err, f.closeFiles())
}

func (f *Files) closeFiles() error {
	var err error
	for _, file := range f.files {
		err = multierr.Append(err, file.Close())
	}
	f.files = nil
	return err
}
