package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for HTTP rendering.
type Kind string

const (
	Unauthenticated          Kind = "unauthenticated"
	Validation               Kind = "validation_error"
	InvalidSignature         Kind = "invalid_signature"
	UnknownUser              Kind = "unknown_user"
	InvalidModel             Kind = "invalid_model"
	Provider                 Kind = "provider_error"
	ProviderTimeout          Kind = "provider_timeout"
	Persistence              Kind = "persistence_error"
	NotFound                 Kind = "not_found"
	TrainingSubmissionFailed Kind = "training_submission_failed"
	GenerationInFlight       Kind = "generation_in_flight"
	Internal                 Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.E(apperr.NotFound, ""))
// works without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in the chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Unauthenticated, InvalidSignature, UnknownUser:
		return http.StatusUnauthorized
	case Validation, InvalidModel:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case GenerationInFlight:
		return http.StatusConflict
	case Provider, TrainingSubmissionFailed:
		return http.StatusBadGateway
	case ProviderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
