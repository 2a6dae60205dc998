package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestMapMySQLError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, ErrConflict},
		{"fk referenced", &mysql.MySQLError{Number: 1451}, ErrConflict},
		{"fk missing parent", &mysql.MySQLError{Number: 1452}, ErrNotFound},
		{"check", &mysql.MySQLError{Number: 3819}, ErrValidation},
		{"wrapped duplicate", fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062}), ErrConflict},
		{"canceled", context.Canceled, context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapMySQLError(tt.in, "thing"), tt.want)
		})
	}
	assert.NoError(t, mapMySQLError(nil, "thing"))
}

func TestMapMySQLError_UnknownPassesThrough(t *testing.T) {
	boom := errors.New("connection reset")
	err := mapMySQLError(boom, "thing")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "thing")
}

func TestValidationError(t *testing.T) {
	single := NewValidationError("score", "must be between 1 and 5")
	assert.ErrorIs(t, single, ErrValidation)
	assert.Equal(t, "validation: score: must be between 1 and 5", single.Error())

	multi := &ValidationError{Errors: []FieldError{{"a", "required"}, {"b", "too long"}}}
	assert.Equal(t, "validation: a: required; b: too long", multi.Error())

	var ve *ValidationError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", multi), &ve))
	assert.Len(t, ve.Errors, 2)
}

func TestSpecificNotFoundErrorsWrapSentinel(t *testing.T) {
	for _, err := range []error{ErrServiceNotFound, ErrSellerNotFound, ErrContactRequestNotFound, ErrNotificationNotFound} {
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestTransientAndDuplicate(t *testing.T) {
	assert.True(t, IsTransient(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsTransient(fmt.Errorf("x: %w", &mysql.MySQLError{Number: 1205})))
	assert.False(t, IsTransient(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsDuplicate(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsDuplicate(errors.New("1062")))
}
