package output

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/inodb/vibe-diploid/internal/diploid"
	"github.com/inodb/vibe-diploid/internal/pipeline"
)

// WriteSummary writes a human-readable report of a finished run.
func WriteSummary(w io.Writer, sum *pipeline.Summary, paths Paths) {
	fmt.Fprintf(w, "\nHaplotype Summary:\n")
	fmt.Fprintf(w, "  Contigs built:     %s\n", humanize.Comma(int64(sum.Contigs)))
	if sum.Skipped > 0 {
		fmt.Fprintf(w, "  Contigs skipped:   %s (no variants)\n", humanize.Comma(int64(sum.Skipped)))
	}
	if len(sum.Unmatched) > 0 {
		fmt.Fprintf(w, "  Unmatched contigs: %d %v\n", len(sum.Unmatched), sum.Unmatched)
	}
	fmt.Fprintf(w, "  Reference length:  %s bp\n", humanize.Comma(sum.RefBases))
	writeHaplotype(w, "Paternal", sum.Paternal, sum.PaternalBases, paths.PaternalFasta)
	writeHaplotype(w, "Maternal", sum.Maternal, sum.MaternalBases, paths.MaternalFasta)
	fmt.Fprintf(w, "  Coordinate map:    %s\n", paths.Map)
}

func writeHaplotype(w io.Writer, label string, s diploid.HaplotypeStats, length int64, path string) {
	fmt.Fprintf(w, "  %s:\n", label)
	fmt.Fprintf(w, "    Variants applied: %s (%s bp)\n", humanize.Comma(int64(s.Variants)), humanize.Comma(int64(s.Bases)))
	fmt.Fprintf(w, "    Rejected:         %s\n", humanize.Comma(int64(s.Rejected)))
	fmt.Fprintf(w, "    Length:           %s bp\n", humanize.Comma(length))
	fmt.Fprintf(w, "    Sequence:         %s\n", path)
}
