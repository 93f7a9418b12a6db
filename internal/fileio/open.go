// Package fileio opens genomic input files that may be gzip or BGZF compressed.
package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/multierr"
)

// gzip magic number
const (
	magic1 = 0x1f
	magic2 = 0x8b
)

// Reader is a buffered, transparently decompressed input stream.
type Reader struct {
	*bufio.Reader
	file *os.File
	gz   *gzip.Reader
}

// Open opens path for reading. "-" reads from stdin.
// Compression is detected from the gzip magic bytes, not the file extension,
// so BGZF files (a series of gzip members) are read as one stream.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// NewReader wraps r, decompressing it if it starts with the gzip magic number.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	head, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek input: %w", err)
	}

	if len(head) == 2 && head[0] == magic1 && head[1] == magic2 {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &Reader{Reader: bufio.NewReaderSize(gz, 64*1024), gz: gz}, nil
	}

	return &Reader{Reader: br}, nil
}

// Close releases the decompressor and the underlying file, if any.
func (r *Reader) Close() error {
	var err error
	if r.gz != nil {
		err = r.gz.Close()
	}
	if r.file != nil {
		err = multierr.Append(err, r.file.Close())
	}
	return err
}
