package seqio

import "fmt"

// ParseError is returned when a FASTA header is missing its ";size=" abundance
// or the abundance isn't an integer.
type ParseError struct {
	Path   string
	Record int
	Header string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to parse header %q: %s", e.Header, e.Reason)
	}
	return fmt.Sprintf("failed to parse header %q (record %d of %s): %s", e.Header, e.Record, e.Path, e.Reason)
}
