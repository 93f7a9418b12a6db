package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inodb/vibe-diploid/internal/diploid"
	"github.com/inodb/vibe-diploid/internal/duckdb"
	"github.com/inodb/vibe-diploid/internal/genome"
	"github.com/inodb/vibe-diploid/internal/output"
	"github.com/inodb/vibe-diploid/internal/pipeline"
	"github.com/inodb/vibe-diploid/internal/vcf"
)

// buildConfig holds the resolved settings of the build command.
type buildConfig struct {
	References []string
	VCFs       []string
	SampleID   string
	OutPrefix  string
	PassOnly   bool
	AllContigs bool
	Workers    int
	Seed       uint64
	LineWidth  int
	BGZF       bool
	DuckDB     string
	Haploid    []string
	Verbose    bool
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build paternal and maternal haplotypes for one sample",
		Long: `Apply one sample's variants to every contig of the reference.

Phased genotypes (0|1) are applied as written. Unphased genotypes (0/1) are
assigned to a random haplotype, decided per variant from --seed, the contig
and the position, so a rerun with the same seed gives the same genome.

Outputs, for --out-prefix P:
  P.paternal.fasta  P.maternal.fasta   haplotype sequences
  P.paternal.chain  P.maternal.chain   reference-to-haplotype alignments
  P.map                                reference/paternal/maternal coordinates`,
		Example: `  vibe-diploid build --reference hg38.fa --vcf NA12878.vcf.gz --id NA12878 --out-prefix NA12878
  vibe-diploid build --reference chr1.fa --reference chr2.fa --vcf calls.vcf --pass --bgzip --seed 7
  vibe-diploid build --reference hg38.fa --vcf calls.vcf --duckdb NA12878.duckdb --haploid X=maternal`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := buildConfig{
				References: viper.GetStringSlice("reference"),
				VCFs:       viper.GetStringSlice("vcf"),
				SampleID:   viper.GetString("id"),
				OutPrefix:  viper.GetString("out-prefix"),
				PassOnly:   viper.GetBool("pass"),
				AllContigs: viper.GetBool("all-contigs"),
				Workers:    viper.GetInt("workers"),
				Seed:       viper.GetUint64("seed"),
				LineWidth:  viper.GetInt("line-width"),
				BGZF:       viper.GetBool("bgzip"),
				DuckDB:     viper.GetString("duckdb"),
				Haploid:    viper.GetStringSlice("haploid"),
				Verbose:    viper.GetBool("verbose"),
			}
			return runBuild(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringSliceP("reference", "r", nil, "Reference FASTA file, plain or gzipped (repeatable)")
	f.StringSliceP("vcf", "c", nil, "VCF file with the sample's calls, plain or gzipped (repeatable)")
	f.String("id", "", "Sample column to read (optional when the VCF has one sample)")
	f.StringP("out-prefix", "o", "", "Output file prefix (default: the sample id)")
	f.Bool("pass", false, "Only apply variants whose FILTER is PASS")
	f.Bool("all-contigs", false, "Also write contigs that carry no variants")
	f.IntP("workers", "j", 0, "Contigs built in parallel (default: number of CPUs)")
	f.Uint64("seed", 0, "Seed for placing unphased variants (default: random, logged)")
	f.Int("line-width", output.DefaultLineWidth, "Bases per FASTA line")
	f.Bool("bgzip", false, "Write block-gzipped FASTA (.fasta.gz)")
	f.String("duckdb", "", "Also store the coordinate map in this DuckDB database")
	f.StringSlice("haploid", vcf.DefaultHaploidPolicy().Entries(), "Haplotype for single-allele calls, as CHROM=paternal|maternal (repeatable)")

	return cmd
}

func runBuild(cmd *cobra.Command, cfg buildConfig) (err error) {
	if len(cfg.References) == 0 {
		return fmt.Errorf("at least one --reference is required")
	}
	if len(cfg.VCFs) == 0 {
		return fmt.Errorf("at least one --vcf is required")
	}
	if cfg.OutPrefix == "" {
		cfg.OutPrefix = cfg.SampleID
	}
	if cfg.OutPrefix == "" {
		return fmt.Errorf("--out-prefix is required when --id is not given")
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	policy, err := vcf.ParseHaploidPolicy(cfg.Haploid)
	if err != nil {
		return err
	}

	if cfg.Seed == 0 {
		cfg.Seed = rand.Uint64()
	}
	logger.Info("starting build",
		zap.Strings("reference", cfg.References),
		zap.Strings("vcf", cfg.VCFs),
		zap.String("sample", cfg.SampleID),
		zap.Uint64("seed", cfg.Seed),
		zap.Strings("haploid", policy.Entries()))

	variants := &pipeline.VariantSet{}
	for _, path := range cfg.VCFs {
		if err := loadVCF(path, cfg, policy, variants, logger); err != nil {
			return err
		}
	}

	var refs []pipeline.SequenceSource
	for _, path := range cfg.References {
		r, err := genome.Open(path)
		if err != nil {
			return fmt.Errorf("open reference: %w", err)
		}
		defer r.Close()
		refs = append(refs, r)
	}

	files, err := output.Create(output.Options{
		Prefix:    cfg.OutPrefix,
		LineWidth: cfg.LineWidth,
		BGZF:      cfg.BGZF,
		Workers:   cfg.Workers,
	})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, files.Close())
	}()

	var store *duckdb.Store
	if cfg.DuckDB != "" {
		store, err = openRunStore(cfg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, store.Close())
		}()
		logger.Info("recording coordinate map", zap.String("duckdb", store.Path()))
	}

	builder := diploid.NewBuilder(diploid.SeededPhase{Seed: cfg.Seed})
	builder.SetLogger(logger)

	driver := pipeline.NewDriver(builder, pipeline.Options{
		Workers:    cfg.Workers,
		AllContigs: cfg.AllContigs,
	})
	driver.SetLogger(logger)

	sum, err := driver.Run(refs, variants, func(r pipeline.WorkResult) error {
		if err := files.Write(r); err != nil {
			return err
		}
		if store != nil {
			if err := store.WriteResult(r); err != nil {
				return fmt.Errorf("storing %s: %w", r.Contig(), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	output.WriteSummary(cmd.ErrOrStderr(), sum, files.Paths)
	return nil
}

// loadVCF reads the selected sample's variants from path into variants.
func loadVCF(path string, cfg buildConfig, policy vcf.HaploidPolicy, variants *pipeline.VariantSet, logger *zap.Logger) error {
	parser, err := vcf.NewParser(path, vcf.Options{
		SampleID: cfg.SampleID,
		PassOnly: cfg.PassOnly,
		Haploid:  policy,
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w (check that the file path is correct)", err)
		}
		return err
	}
	defer parser.Close()
	parser.SetLogger(logger)

	if err := variants.Load(parser); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	st := parser.Stats()
	logger.Info("loaded variants",
		zap.String("vcf", path),
		zap.Int("records", st.Records),
		zap.Int("variants", st.Variants),
		zap.Int("filtered", st.Filtered),
		zap.Int("symbolic", st.Symbolic),
		zap.Int("invalid", st.Invalid),
		zap.Int("no_genotype", st.NoGenotype),
		zap.Int("reference", st.Reference))
	return nil
}

// openRunStore opens the DuckDB database, drops any earlier results and
// records the provenance of this run.
func openRunStore(cfg buildConfig) (*duckdb.Store, error) {
	store, err := duckdb.Open(cfg.DuckDB)
	if err != nil {
		return nil, err
	}

	run := duckdb.Run{
		Sample:    cfg.SampleID,
		Seed:      cfg.Seed,
		PassOnly:  cfg.PassOnly,
		Version:   version,
		CreatedAt: time.Now(),
	}
	for _, in := range []struct {
		kind  string
		paths []string
	}{
		{duckdb.InputReference, cfg.References},
		{duckdb.InputVCF, cfg.VCFs},
	} {
		for _, p := range in.paths {
			if p == "-" {
				continue
			}
			fp, err := duckdb.StatFile(p)
			if err != nil {
				store.Close()
				return nil, fmt.Errorf("stat %s: %w", p, err)
			}
			run.Inputs = append(run.Inputs, duckdb.Input{Kind: in.kind, FileFingerprint: fp})
		}
	}

	if err := store.Clear(); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.WriteRun(run); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
