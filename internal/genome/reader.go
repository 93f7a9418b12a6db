package genome

import (
	"bytes"
	"fmt"
	"io"

	"github.com/inodb/vibe-diploid/internal/fileio"
)

// Reader streams sequences from a FASTA file one record at a time, so only
// the sequence being handed out is held in memory.
type Reader struct {
	r          *fileio.Reader
	nextHeader string
	started    bool
	done       bool
}

// Open opens a FASTA file for streaming. Gzip and BGZF input is detected
// automatically; "-" reads stdin.
func Open(path string) (*Reader, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}
	return &Reader{r: r}, nil
}

// NewReader creates a FASTA reader over r.
func NewReader(r io.Reader) (*Reader, error) {
	fr, err := fileio.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{r: fr}, nil
}

// Next returns the next non-empty sequence, or nil, nil at end of input.
func (r *Reader) Next() (*Sequence, error) {
	for !r.done {
		seq, err := r.readRecord()
		if err != nil {
			return nil, err
		}
		if seq != nil && seq.Len() > 0 {
			return seq, nil
		}
	}
	return nil, nil
}

// readRecord reads lines up to the next header. Lines before the first header
// are ignored.
func (r *Reader) readRecord() (*Sequence, error) {
	var bases []byte
	header := r.nextHeader

	for {
		line, err := r.r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read FASTA: %w", err)
		}
		eof := err == io.EOF

		line = bytes.TrimSpace(line)
		if len(line) > 0 && line[0] == '>' {
			r.nextHeader = string(line[1:])
			if r.started {
				return NewSequence(header, bases), nil
			}
			r.started = true
			header = r.nextHeader
		} else if r.started && len(line) > 0 {
			bases = append(bases, line...)
		}

		if eof {
			r.done = true
			if !r.started {
				return nil, nil
			}
			return NewSequence(header, bases), nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.r.Close()
}
