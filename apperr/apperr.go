package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	DuplicateAccount
	InvalidCredential
	Unauthorized
	Forbidden
	Conflict
	Expired
	Mismatch
	PaymentDeclined
	Upstream
)

var kindNames = map[Kind]string{
	Internal:          "internal",
	Validation:        "validation",
	NotFound:          "not_found",
	DuplicateAccount:  "duplicate_account",
	InvalidCredential: "invalid_credential",
	Unauthorized:      "unauthorized",
	Forbidden:         "forbidden",
	Conflict:          "conflict",
	Expired:           "expired",
	Mismatch:          "mismatch",
	PaymentDeclined:   "payment_declined",
	Upstream:          "upstream",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Status maps a kind to the HTTP status the API answers with.
func (k Kind) Status() int {
	switch k {
	case Validation, Conflict, Expired, Mismatch:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case DuplicateAccount:
		return http.StatusConflict
	case InvalidCredential, Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case PaymentDeclined:
		return http.StatusPaymentRequired
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an application error. cause may be nil.
func E(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in the chain, or Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// Message returns the user facing message of err. Unknown errors are hidden.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Internal server error"
}
