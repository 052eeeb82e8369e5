package types

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors. The set is closed; everything the engine can
// signal across its boundary maps onto one of these.
type Kind int

const (
	KindParse Kind = iota
	KindUnknownOperator
	KindUnknownConcept
	KindStrategyMismatch
	KindGeometryMismatch
	KindContradiction
	KindDepthExceeded
	KindTimeout
	KindIO
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "Parse"
	case KindUnknownOperator:
		return "UnknownOperator"
	case KindUnknownConcept:
		return "UnknownConcept"
	case KindStrategyMismatch:
		return "StrategyMismatch"
	case KindGeometryMismatch:
		return "GeometryMismatch"
	case KindContradiction:
		return "Contradiction"
	case KindDepthExceeded:
		return "DepthExceeded"
	case KindTimeout:
		return "Timeout"
	case KindIO:
		return "IO"
	default:
		return "Internal"
	}
}

// Error is the engine error type. It carries a kind, a message, an optional
// source location and an optional offending identifier.
type Error struct {
	Kind  Kind
	Msg   string
	Line  int
	Col   int
	Ident string
	cause error
}

func (e *Error) Error() string {
	s := e.Kind.String() + ": " + e.Msg
	if e.Line > 0 {
		s += fmt.Sprintf(" (%d:%d)", e.Line, e.Col)
	}
	if e.Ident != "" {
		s += " [" + e.Ident + "]"
	}
	return s
}

func (e *Error) Unwrap() error { return e.cause }

// E builds an engine error.
func E(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause to an engine error.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), cause: cause}
}

// At attaches a source location and returns the error for chaining.
func (e *Error) At(line, col int) *Error {
	e.Line, e.Col = line, col
	return e
}

// For attaches the offending identifier and returns the error for chaining.
func (e *Error) For(ident string) *Error {
	e.Ident = ident
	return e
}

// AsError extracts an *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// Recoverable reports whether the error may be recorded in a result's error
// list without aborting the enclosing call. Unknown concepts are recoverable
// in lenient mode only; contradictions only when the session tolerates them.
func Recoverable(err error, rejectContradictions, strict bool) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	switch e.Kind {
	case KindUnknownConcept:
		return !strict
	case KindContradiction:
		return !rejectContradictions
	default:
		return false
	}
}
