package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/vibe-diploid/internal/diploid"
)

// ChainWriter writes chains in the UCSC chain format.
type ChainWriter struct {
	w *bufio.Writer
}

// NewChainWriter creates a new chain writer.
func NewChainWriter(w io.Writer) *ChainWriter {
	return &ChainWriter{w: bufio.NewWriter(w)}
}

// Write writes one chain: its header, one "size dref dder" line per gap,
// the final aligned size and a blank line.
func (cw *ChainWriter) Write(c *diploid.Chain) error {
	_, err := fmt.Fprintf(cw.w, "chain %d %s %d + 0 %d %s %d + 0 %d %d\n",
		c.Score, c.RefName, c.RefLen, c.RefEnd, c.DerName, c.DerLen, c.DerEnd, c.ID)
	if err != nil {
		return err
	}

	for i, b := range c.Blocks {
		if i == len(c.Blocks)-1 {
			fmt.Fprintf(cw.w, "%d\n", b.Size)
			break
		}
		fmt.Fprintf(cw.w, "%d %d %d\n", b.Size, b.DRef, b.DDer)
	}
	return cw.w.WriteByte('\n')
}

// Flush flushes any buffered data.
func (cw *ChainWriter) Flush() error {
	return cw.w.Flush()
}

// ReadChainNames returns the reference names of the chains in r, in file
// order.
func ReadChainNames(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	var names []string
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 || fields[0] != "chain" {
			continue
		}
		names = append(names, fields[2])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading chains: %w", err)
	}
	return names, nil
}
