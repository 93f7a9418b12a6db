// Package genome reads reference sequences from FASTA files.
package genome

import "strings"

// Sequence is a named reference sequence. Bases keep their original case.
type Sequence struct {
	Name   string // first whitespace-delimited token of the header
	Header string // full header line without the leading '>'
	Bases  []byte
}

// NewSequence builds a Sequence from a FASTA header (with or without '>').
func NewSequence(header string, bases []byte) *Sequence {
	header = strings.TrimPrefix(header, ">")
	return &Sequence{
		Name:   parseName(header),
		Header: header,
		Bases:  bases,
	}
}

// Len returns the number of bases.
func (s *Sequence) Len() int {
	return len(s.Bases)
}

// parseName returns the first whitespace-delimited token of a header.
func parseName(header string) string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
