package duplex

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument matches errors raised when the input is not a readable page sequence.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrIO matches errors raised when an output cannot be written.
	ErrIO = errors.New("output i/o error")
	// ErrEmptyDocument is only returned when the caller asked to reject empty inputs.
	ErrEmptyDocument = errors.New("document has no pages")
)

// Kind classifies an Error.
type Kind int

const (
	KindInvalidDocument Kind = iota + 1
	KindIO
	KindEmptyDocument
)

func (k Kind) String() string {
	switch k {
	case KindInvalidDocument:
		return "InvalidDocument"
	case KindIO:
		return "IOError"
	case KindEmptyDocument:
		return "EmptyDocument"
	}
	return "Unknown"
}

// Error carries the failing operation, the file involved and, when known, the
// 1-based page that caused it.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Page int
	Err  error
}

// InvalidDocument wraps err as a KindInvalidDocument error.
func InvalidDocument(op, path string, page int, err error) *Error {
	return &Error{Kind: KindInvalidDocument, Op: op, Path: path, Page: page, Err: err}
}

// IOError wraps err as a KindIO error.
func IOError(op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// EmptyDocument reports a zero-page input that the caller chose to reject.
func EmptyDocument(op, path string) *Error {
	return &Error{Kind: KindEmptyDocument, Op: op, Path: path, Err: ErrEmptyDocument}
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Page > 0 {
		msg += fmt.Sprintf(" (page %d)", e.Page)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidDocument:
		return e.Kind == KindInvalidDocument
	case ErrIO:
		return e.Kind == KindIO
	case ErrEmptyDocument:
		return e.Kind == KindEmptyDocument
	}
	return false
}
