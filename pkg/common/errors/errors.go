// pkg/common/errors/errors.go

/*
  - Usage
    Sentinels are Hertz public errors, so they can be attached to the request
    context with c.Error(err) and still be matched with errors.Is:

    if errors.Is(err, apperr.ErrNotFound) {
    // 404
    }

    Field-level and moderation failures carry data, match them with errors.As:

    var verr *apperr.ValidationError
    if errors.As(err, &verr) {
    // verr.Fields
    }
*/
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	hzte "github.com/cloudwego/hertz/pkg/common/errors"
)

// raw causes
var (
	rawErrAuthenticationRequired = errors.New("authentication credentials were not provided")
	rawErrInvalidToken           = errors.New("given token not valid for any token type")
	rawErrInvalidCredentials     = errors.New("no active account found with the given credentials")
	rawErrForbidden              = errors.New("you do not have permission to perform this action")
	rawErrNotFound               = errors.New("not found")
	rawErrValidation             = errors.New("invalid input")
	rawErrModerationRejected     = errors.New("toxicity check failed")
	rawErrModerationUnavailable  = errors.New("moderation service unavailable")
	rawErrDuplicateEntry         = errors.New("record already exists")
	rawErrDatabaseInternal       = errors.New("database internal error")
)

// public Hertz errors
var (
	ErrAuthenticationRequired = hzte.New(rawErrAuthenticationRequired, hzte.ErrorTypePublic, nil)
	ErrInvalidToken           = hzte.New(rawErrInvalidToken, hzte.ErrorTypePublic, nil)
	ErrInvalidCredentials     = hzte.New(rawErrInvalidCredentials, hzte.ErrorTypePublic, nil)
	ErrForbidden              = hzte.New(rawErrForbidden, hzte.ErrorTypePublic, nil)
	ErrNotFound               = hzte.New(rawErrNotFound, hzte.ErrorTypePublic, nil)
	ErrValidation             = hzte.New(rawErrValidation, hzte.ErrorTypePublic, nil)
	ErrModerationRejected     = hzte.New(rawErrModerationRejected, hzte.ErrorTypePublic, nil)
	ErrModerationUnavailable  = hzte.New(rawErrModerationUnavailable, hzte.ErrorTypePublic, nil)
	ErrDuplicateEntry         = hzte.New(rawErrDuplicateEntry, hzte.ErrorTypePublic, nil)
	ErrDatabaseInternal       = hzte.New(rawErrDatabaseInternal, hzte.ErrorTypePrivate, nil)
)

// ValidationError collects field level messages. The key "non_field_errors" is
// used for failures that do not belong to a single field.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError builds a ValidationError with one message for one field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add appends a message for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no message was collected.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return fmt.Sprintf("%v: %s", rawErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ModerationError is returned when content scores above the configured threshold.
type ModerationError struct {
	Score     float64
	Threshold float64
}

func (e *ModerationError) Error() string {
	return fmt.Sprintf("%v: score %.4f exceeds threshold %.4f", rawErrModerationRejected, e.Score, e.Threshold)
}

func (e *ModerationError) Is(target error) bool {
	return target == ErrModerationRejected
}
