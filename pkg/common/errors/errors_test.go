package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestWrapGormError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, ErrDuplicateEntry},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, ErrDuplicateEntry},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicateEntry},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, ErrDuplicateEntry},
		{"mysql missing table", &mysql.MySQLError{Number: 1146, Message: "no table"}, ErrDatabaseInternal},
		{"unknown", errors.New("disk on fire"), ErrDatabaseInternal},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, WrapGormError(tt.in), tt.want)
		})
	}

	assert.NoError(t, WrapGormError(nil))
	assert.NotErrorIs(t, WrapGormError(context.DeadlineExceeded), ErrDatabaseInternal)
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError("name", "This field is required.")
	verr.Add("name", "Ensure this field has no more than 100 characters.")
	verr.Add("email", "Enter a valid email address.")

	assert.False(t, verr.Empty())
	assert.ErrorIs(t, verr, ErrValidation)
	assert.Len(t, verr.Fields["name"], 2)
	assert.Equal(t,
		"invalid input: email: Enter a valid email address.; name: This field is required. Ensure this field has no more than 100 characters.",
		verr.Error())

	var empty *ValidationError
	assert.True(t, empty.Empty())

	var target *ValidationError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", verr), &target))
}

func TestModerationError(t *testing.T) {
	err := fmt.Errorf("create post: %w", &ModerationError{Score: 0.91, Threshold: 0.5})
	assert.ErrorIs(t, err, ErrModerationRejected)
	assert.NotErrorIs(t, err, ErrModerationUnavailable)

	var merr *ModerationError
	if assert.True(t, errors.As(err, &merr)) {
		assert.Equal(t, 0.91, merr.Score)
	}
}
