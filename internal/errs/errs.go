// Package errs classifies ppmfilter failures into coarse kinds so callers
// can tell an unreadable file from a malformed one without depending on
// the package that produced the error.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a coarse-grained categorization for errors.
type Kind string

const (
	// KindIO means a file could not be opened, created or written.
	KindIO Kind = "io"

	// KindFormat means a token stream is structurally malformed or truncated.
	KindFormat Kind = "format"

	// KindDomain means the input parsed but describes an undefined computation,
	// such as a zero scale divisor.
	KindDomain Kind = "domain"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op    string
	Kind  Kind
	Path  string // Optional: relevant file path
	Field string // Optional: header field or token that failed
	Err   error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Field != "" {
		base += fmt.Sprintf(" (field=%s)", e.Field)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether any OpError in err's chain has the given kind,
// including OpErrors nested inside another OpError's Err.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var oe *OpError
		if !errors.As(err, &oe) {
			return false
		}
		if oe.Kind == kind {
			return true
		}
		err = oe.Err
	}
	return false
}

// KindOf returns the kind of the outermost OpError in err's chain,
// or the empty kind if there is none.
func KindOf(err error) Kind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

// WithPath returns err with Path filled in when err is an *OpError
// that does not carry one yet. Other errors are returned unchanged.
func WithPath(err error, path string) error {
	var oe *OpError
	if !errors.As(err, &oe) || oe.Path != "" {
		return err
	}
	cp := *oe
	cp.Path = path
	return &cp
}
