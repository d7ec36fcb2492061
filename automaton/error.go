// Package automaton implements the editable, label-keyed NFA representation
// (the "symbolic" form) that signature reduction operates on: parsing and
// printing the .fa text format, structural queries (successors,
// predecessors, depth, rule membership), and the merge primitive that both
// the pruner and the merger build on.
//
// A second, immutable "dense" form optimized for simulation lives in the
// sibling package automaton/dense; see its doc comment for the one-way
// build relation between the two.
package automaton

import "fmt"

// ErrorKind classifies automaton errors into categories, mirroring the
// sentinel/kind shape used across this module's packages.
type ErrorKind uint8

const (
	// BadSyntax indicates the .fa text could not be parsed.
	BadSyntax ErrorKind = iota

	// InvalidMerge indicates a merge map referenced a state outside Q,
	// or attempted to merge away the initial state.
	InvalidMerge
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case BadSyntax:
		return "BadSyntax"
	case InvalidMerge:
		return "InvalidMerge"
	default:
		return fmt.Sprintf("UnknownErrorKind(%d)", k)
	}
}

// Error represents an error raised by the symbolic automaton.
type Error struct {
	Kind    ErrorKind
	Message string
	Line    int // 1-based source line, 0 if not applicable
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := e.Kind.String()
	if e.Line > 0 {
		prefix = fmt.Sprintf("%s (line %d)", prefix, e.Line)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error comparison for errors.Is, matching on Kind only so
// callers can write errors.Is(err, automaton.ErrInvalidMerge) regardless of
// message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// ErrBadSyntax and ErrInvalidMerge are the package sentinels usable with
// errors.Is.
var (
	ErrBadSyntax    = &Error{Kind: BadSyntax, Message: "malformed .fa input"}
	ErrInvalidMerge = &Error{Kind: InvalidMerge, Message: "invalid merge map"}
)
