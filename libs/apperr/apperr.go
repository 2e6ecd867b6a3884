// Package apperr tags failures with a kind so callers can tell a retryable
// fetch failure from a rejected payload. The message of the underlying
// error is kept verbatim.
package apperr

import "errors"

type Kind string

const (
	KindFetchFailed Kind = "fetch_failed"
	KindWriteFailed Kind = "write_failed"
	KindValidation  Kind = "validation_failed"
	KindConflict    Kind = "conflict"
	KindNotFound    Kind = "not_found"
)

type Error struct {
	Kind  Kind
	Table string
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same call may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindFetchFailed || e.Kind == KindWriteFailed
}

// FetchFailed tags a read failure against table. Already tagged errors and
// nil pass through unchanged.
func FetchFailed(table string, err error) error {
	return wrap(KindFetchFailed, table, err)
}

// WriteFailed tags a write failure against table.
func WriteFailed(table string, err error) error {
	return wrap(KindWriteFailed, table, err)
}

func Validation(field, msg string) error {
	return &Error{Kind: KindValidation, Field: field, Msg: msg}
}

func Conflict(table, msg string, err error) error {
	return &Error{Kind: KindConflict, Table: table, Msg: msg, Err: err}
}

func NotFound(table, msg string) error {
	return &Error{Kind: KindNotFound, Table: table, Msg: msg}
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" for untagged errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func wrap(kind Kind, table string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return &Error{Kind: kind, Table: table, Err: err}
}
