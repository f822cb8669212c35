package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for HTTP status mapping.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindDuplicateName        Kind = "duplicate_name"
	KindConflict             Kind = "conflict"
	KindNotFound             Kind = "not_found"
	KindForbidden            Kind = "forbidden"
	KindConfirmationRequired Kind = "confirmation_required"
)

// Error is a typed API-level error returned by services.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Details is rendered as-is into the response, e.g. the existing
	// ingredients a UI can offer instead of creating a new one.
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(code, format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: fmt.Sprintf(format, args...)}
}

func DuplicateName(code, format string, args ...any) *Error {
	return &Error{Kind: KindDuplicateName, Code: code, Message: fmt.Sprintf(format, args...)}
}

func ConfirmationRequired(code, format string, args ...any) *Error {
	return &Error{Kind: KindConfirmationRequired, Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches response details and returns the same error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// As unwraps err into *Error.
func As(err error) (*Error, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	typed, ok := As(err)
	return ok && typed.Kind == kind
}

// HTTPStatus maps an error kind to a response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindDuplicateName, KindConflict, KindConfirmationRequired:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes the standard error envelope.
func WriteJSON(w http.ResponseWriter, status int, code, message string, details any) {
	errBody := map[string]any{
		"code":    code,
		"message": message,
	}
	if details != nil {
		errBody["details"] = details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": errBody})
}

// Write renders err. Untyped errors become a 500 with fallbackMessage so
// internals never leak to clients.
func Write(w http.ResponseWriter, err error, fallbackMessage string) {
	if typed, ok := As(err); ok {
		WriteJSON(w, HTTPStatus(typed.Kind), typed.Code, typed.Message, typed.Details)
		return
	}
	WriteJSON(w, http.StatusInternalServerError, "internal_error", fallbackMessage, nil)
}
