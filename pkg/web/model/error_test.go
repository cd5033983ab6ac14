package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "blog-platform/pkg/common/errors"
)

func TestNewErrorRes(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.NewValidationError("name", "This field is required."), 400, CodeValidation},
		{&apperr.ModerationError{Score: 0.8, Threshold: 0.5}, 400, CodeToxicity},
		{apperr.ErrAuthenticationRequired, 401, CodeAuthenticationNeeded},
		{apperr.ErrInvalidToken, 401, CodeInvalidToken},
		{apperr.ErrInvalidCredentials, 401, CodeInvalidCredentials},
		{apperr.ErrForbidden, 403, CodeForbidden},
		{fmt.Errorf("post 7: %w", apperr.ErrNotFound), 404, CodeNotFound},
		{apperr.ErrDuplicateEntry, 400, CodeValidation},
		{fmt.Errorf("%w: dial tcp: refused", apperr.ErrModerationUnavailable), 503, CodeModerationUnavailable},
		{fmt.Errorf("list: %w", context.DeadlineExceeded), 503, CodeTimeout},
		{apperr.ErrDatabaseInternal, 500, CodeInternal},
		{errors.New("boom"), 500, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.err.Error(), func(t *testing.T) {
			status, res := NewErrorRes(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, res.Error)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestNewErrorResDetails(t *testing.T) {
	_, res := NewErrorRes(&apperr.ModerationError{Score: 0.75, Threshold: 0.5})
	require.NotNil(t, res.Score)
	assert.Equal(t, 0.75, *res.Score)
	assert.Nil(t, res.Fields)

	_, res = NewErrorRes(apperr.NewValidationError("tags", `Invalid pk "9" - object does not exist.`))
	assert.Equal(t, map[string][]string{"tags": {`Invalid pk "9" - object does not exist.`}}, res.Fields)
	assert.Nil(t, res.Score)

	// internal details never reach the client
	_, res = NewErrorRes(fmt.Errorf("%w: password=hunter2", apperr.ErrDatabaseInternal))
	assert.NotContains(t, res.Message, "hunter2")
}
