// Package storeerr defines the error taxonomy shared by every layer of the
// storage core: kvstore, codec, block, mapbuilder, txn, postiter and
// restriction all return errors built from these kinds rather than ad hoc
// strings, so callers can type-switch on Kind instead of parsing messages.
package storeerr

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories from the core's error taxonomy.
// It never itself represents "not found" — lookups that can legitimately
// miss return a null id or an empty result, not an error (see
// kvstore.ErrNotFound for the one place a sentinel is still useful:
// KeyValue.Get).
type Kind int

const (
	_ Kind = iota
	InvalidArgument
	UnknownIdentifier
	IncompleteDefinition
	IntegrityError
	StoreIOError
	OutOfRange
	NotImplemented
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case UnknownIdentifier:
		return "UnknownIdentifier"
	case IncompleteDefinition:
		return "IncompleteDefinition"
	case IntegrityError:
		return "IntegrityError"
	case StoreIOError:
		return "StoreIOError"
	case OutOfRange:
		return "OutOfRange"
	case NotImplemented:
		return "NotImplemented"
	default:
		return "Unknown"
	}
}

// Error is a taxonomy error: a Kind plus a message and an optional
// underlying cause. The offending key, when known (IntegrityError), is
// carried in Key for logging at the call site.
type Error struct {
	Kind Kind
	Msg  string
	Key  []byte
	Err  error
}

func (e *Error) Error() string {
	if len(e.Key) > 0 {
		return fmt.Sprintf("%s: %s (key=%x)", e.Kind, e.Msg, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err is a *Error of the given Kind.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

func New(k Kind, msg string) error {
	return &Error{Kind: k, Msg: msg}
}

func Newf(k Kind, format string, args ...interface{}) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(k Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Msg: msg, Err: err}
}

// WithKey attaches the offending on-disk key to an IntegrityError for
// logging at the call site, per spec: "logged with the offending key."
func WithKey(err error, key []byte) error {
	var e *Error
	if errors.As(err, &e) {
		e.Key = append([]byte(nil), key...)
		return e
	}
	return err
}
