// Package diag provides the position-carrying error used across the
// assembler and VM translator parsers so that a fatal diagnostic raised while
// parsing can name the input path and the 1-based source line it came from.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Positioned names the input path and the 1-based line a fatal error
// originated from. Line is 0 when the error isn't tied to a single source
// line (e.g. an I/O failure opening the file).
type Positioned struct {
	Path string
	Line int
	Err  error
}

func (p *Positioned) Error() string {
	if p.Line <= 0 {
		return fmt.Sprintf("%s: %s", p.Path, p.Err)
	}
	return fmt.Sprintf("%s:%d: %s", p.Path, p.Line, p.Err)
}

func (p *Positioned) Unwrap() error { return p.Err }

// At wraps err with the source position it was raised at. Returns nil if
// err is nil, so callers can write `return diag.At(path, line, err)`
// unconditionally after a fallible step.
func At(path string, line int, err error) error {
	if err == nil {
		return nil
	}
	return &Positioned{Path: path, Line: line, Err: err}
}

// Wrap adds a contextual message to err without an associated source line,
// for failures that aren't tied to a single input line (I/O, setup).
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
