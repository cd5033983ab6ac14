package model

import (
	"context"
	"errors"

	apperr "blog-platform/pkg/common/errors"
)

// error codes of ErrorRes
const (
	CodeValidation            = "ValidationError"
	CodeToxicity              = "ToxicityError"
	CodeAuthenticationNeeded  = "AuthenticationRequired"
	CodeInvalidToken          = "InvalidToken"
	CodeInvalidCredentials    = "InvalidCredentials"
	CodeForbidden             = "Forbidden"
	CodeNotFound              = "NotFound"
	CodeModerationUnavailable = "ModerationUnavailable"
	CodeTimeout               = "Timeout"
	CodeInternal              = "InternalError"
)

// NewErrorRes maps a service error to its HTTP status and body.
func NewErrorRes(err error) (int, ErrorRes) {
	var (
		verr *apperr.ValidationError
		merr *apperr.ModerationError
	)
	switch {
	case errors.As(err, &verr):
		return 400, ErrorRes{Error: CodeValidation, Message: "Invalid input.", Fields: verr.Fields}
	case errors.As(err, &merr):
		score := merr.Score
		return 400, ErrorRes{Error: CodeToxicity, Message: "Toxicity check failed", Score: &score}
	case errors.Is(err, apperr.ErrAuthenticationRequired):
		return 401, ErrorRes{Error: CodeAuthenticationNeeded, Message: apperr.ErrAuthenticationRequired.Error()}
	case errors.Is(err, apperr.ErrInvalidToken):
		return 401, ErrorRes{Error: CodeInvalidToken, Message: apperr.ErrInvalidToken.Error()}
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return 401, ErrorRes{Error: CodeInvalidCredentials, Message: apperr.ErrInvalidCredentials.Error()}
	case errors.Is(err, apperr.ErrForbidden):
		return 403, ErrorRes{Error: CodeForbidden, Message: apperr.ErrForbidden.Error()}
	case errors.Is(err, apperr.ErrNotFound):
		return 404, ErrorRes{Error: CodeNotFound, Message: apperr.ErrNotFound.Error()}
	case errors.Is(err, apperr.ErrDuplicateEntry):
		return 400, ErrorRes{
			Error:   CodeValidation,
			Message: "Invalid input.",
			Fields:  map[string][]string{"non_field_errors": {apperr.ErrDuplicateEntry.Error()}},
		}
	case errors.Is(err, apperr.ErrModerationUnavailable):
		return 503, ErrorRes{Error: CodeModerationUnavailable, Message: apperr.ErrModerationUnavailable.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return 503, ErrorRes{Error: CodeTimeout, Message: "request timed out"}
	default:
		return 500, ErrorRes{Error: CodeInternal, Message: "internal server error"}
	}
}
