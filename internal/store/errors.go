package store

import "fmt"

// ErrorKind classifies remote store failures so callers can branch on the
// kind instead of matching error text.
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindUnknownColumn
	KindConflict
	KindBadRequest
)

// pgUndefinedColumn is the Postgres error code surfaced by PostgREST when a
// query references a column the schema does not have.
const pgUndefinedColumn = "42703"

type Error struct {
	Kind    ErrorKind
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store: %s: %s (code=%s, status=%d)", e.Op, e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("store: %s: %s (status=%d)", e.Op, e.Message, e.Status)
}

// IsUnknownColumn reports whether err is a store error caused by a missing
// column. This is the hook the schema-fallback retry keys on.
func IsUnknownColumn(err error) bool {
	se, ok := err.(*Error)
	return ok && se.Kind == KindUnknownColumn
}

func classifyKind(status int, code string) ErrorKind {
	if code == pgUndefinedColumn {
		return KindUnknownColumn
	}
	switch {
	case status == 409:
		return KindConflict
	case status >= 400 && status < 500:
		return KindBadRequest
	default:
		return KindTransient
	}
}
