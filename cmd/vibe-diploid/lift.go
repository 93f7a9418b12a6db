package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-diploid/internal/diploid"
	"github.com/inodb/vibe-diploid/internal/duckdb"
	"github.com/inodb/vibe-diploid/internal/output"
	"github.com/inodb/vibe-diploid/internal/vcf"
)

func newLiftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lift [flags] <contig:pos>...",
		Short: "Translate reference positions to paternal and maternal positions",
		Long: `Translate 1-based reference positions to the matching positions in the
paternal and maternal haplotypes. A position of 0 means the base is deleted on
that haplotype.

Positions are looked up in a DuckDB database written by "build --duckdb", or in
a coordinate map file. A map file holds no contig names, so they are taken from
the paternal chain file written next to it.`,
		Example: `  vibe-diploid lift --duckdb NA12878.duckdb chr1:1000000 chrX:5000
  vibe-diploid lift --map NA12878.map chr1:1000000`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLift(cmd.OutOrStdout(), viper.GetString("duckdb"), viper.GetString("map"), args)
		},
	}

	cmd.Flags().String("duckdb", "", "DuckDB database written by build --duckdb")
	cmd.Flags().String("map", "", "Coordinate map file written by build")

	return cmd
}

// lifter translates one reference position.
type lifter interface {
	Lift(contig string, pos int) (*duckdb.Lifted, error)
}

type locus struct {
	contig string
	pos    int
}

func parseLocus(s string) (locus, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return locus{}, fmt.Errorf("invalid position %q (want CONTIG:POS)", s)
	}
	pos, err := strconv.Atoi(strings.ReplaceAll(s[i+1:], ",", ""))
	if err != nil {
		return locus{}, fmt.Errorf("invalid position %q (want CONTIG:POS)", s)
	}
	return locus{contig: s[:i], pos: pos}, nil
}

func runLift(w io.Writer, dbPath, mapPath string, args []string) error {
	loci := make([]locus, 0, len(args))
	for _, a := range args {
		l, err := parseLocus(a)
		if err != nil {
			return err
		}
		loci = append(loci, l)
	}

	var l lifter
	switch {
	case dbPath != "" && mapPath != "":
		return fmt.Errorf("use either --duckdb or --map, not both")
	case dbPath != "":
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		store, err := duckdb.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		l = store
	case mapPath != "":
		ml, err := loadMapLifter(mapPath)
		if err != nil {
			return err
		}
		l = ml
	default:
		return fmt.Errorf("one of --duckdb or --map is required")
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "#CONTIG\tREF\tPAT\tMAT")
	for _, loc := range loci {
		r, err := l.Lift(loc.contig, loc.pos)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "%s\t%d\t%d\t%d\n", r.Contig, r.Ref, r.Paternal, r.Maternal)
	}
	return bw.Flush()
}

// mapLifter answers lookups from a coordinate map file.
type mapLifter struct {
	names   []string
	indexes []*diploid.MapIndex
}

// loadMapLifter reads path and names its contigs from the paternal chain
// file with the same prefix. Without a chain file only a single-contig map
// can be used.
func loadMapLifter(path string) (*mapLifter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	contigs, err := output.ReadMap(f)
	if err != nil {
		return nil, err
	}

	chainPath := strings.TrimSuffix(path, ".map") + ".paternal.chain"
	names, err := readChainNames(chainPath)
	switch {
	case err == nil:
		if len(names) != len(contigs) {
			return nil, fmt.Errorf("%s names %d contigs but %s holds %d", chainPath, len(names), path, len(contigs))
		}
	case errors.Is(err, os.ErrNotExist) && len(contigs) == 1:
		names = []string{""}
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%s holds %d contigs and %s is missing: %w", path, len(contigs), chainPath, err)
	default:
		return nil, err
	}

	ml := &mapLifter{names: names}
	for _, rows := range contigs {
		ml.indexes = append(ml.indexes, diploid.NewMapIndex(rows))
	}
	return ml, nil
}

func readChainNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return output.ReadChainNames(f)
}

func (m *mapLifter) Lift(contig string, pos int) (*duckdb.Lifted, error) {
	i := m.find(contig)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", duckdb.ErrUnknownContig, contig)
	}
	name := m.names[i]
	if name == "" {
		name = contig
	}

	pat, mat, ok := m.indexes[i].Lift(pos)
	if !ok || pos < 1 {
		return nil, fmt.Errorf("%w: %s:%d", duckdb.ErrOutOfRange, name, pos)
	}
	return &duckdb.Lifted{Contig: name, Ref: pos, Paternal: pat, Maternal: mat}, nil
}

func (m *mapLifter) find(contig string) int {
	if len(m.names) == 1 && m.names[0] == "" {
		return 0
	}
	for i, n := range m.names {
		if n == contig {
			return i
		}
	}
	for i, n := range m.names {
		if vcf.NormalizeChrom(n) == vcf.NormalizeChrom(contig) {
			return i
		}
	}
	return -1
}
