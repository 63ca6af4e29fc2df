package models

import "fmt"

// ParseError indicates malformed calendar input. It is surfaced to the
// operator verbatim and no partial event set is produced.
type ParseError struct {
	Source string // file or sample name
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse calendar %q: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
