package utils

import (
	"errors"
	"net/http"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorKind classifies an error for HTTP mapping: validation and conflict
// errors are caller mistakes, upstream errors come from an external gateway.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindUpstream
)

type kindError struct {
	kind  ErrorKind
	msg   string
	cause error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.cause }

func Invalid(msg string) error {
	return &kindError{kind: KindValidation, msg: msg}
}

func NotFound(msg string) error {
	return &kindError{kind: KindNotFound, msg: msg}
}

func Conflict(msg string) error {
	return &kindError{kind: KindConflict, msg: msg}
}

func Unauthorized(msg string) error {
	return &kindError{kind: KindUnauthorized, msg: msg}
}

func Upstream(msg string, cause error) error {
	return &kindError{kind: KindUpstream, msg: msg, cause: cause}
}

func KindOf(err error) ErrorKind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	if errors.Is(err, ErrorRecordNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// HTTPStatus maps an error to a response code. Conflicts are reported as 400
// to match the original API contract (duplicate SKU/email, delete guards).
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUpstream:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
