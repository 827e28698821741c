// Package errx tags errors with the operation that produced them and a Kind
// that callers branch on. Kinds describe the failure from the domain's point
// of view; the HTTP adapter maps them onto status codes.
package errx

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	// NotFound: a well-formed identifier or key with no matching record.
	NotFound
	// Conflict: a uniqueness constraint rejected a write.
	Conflict
	// Invalid: malformed or missing input to an operation.
	Invalid
	// InvalidReference: an identifier that is not syntactically valid.
	InvalidReference
	// Unavailable: the persistence backend failed.
	Unavailable
	Internal
)

type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E wraps err with op and kind. A nil err yields nil so call sites can wrap
// unconditionally.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// Propagate re-wraps err under op, keeping whatever kind it already carries.
func Propagate(op string, err error) error {
	return E(op, KindOf(err), err)
}

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case NotFound:
		return "NotFound"
	case Conflict:
		return "Conflict"
	case Invalid:
		return "Invalid"
	case InvalidReference:
		return "InvalidReference"
	case Unavailable:
		return "Unavailable"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
