// Package repository holds the MySQL data access for the marketplace core
// and the error taxonomy shared by every layer above it.  Handlers only
// need errors.Is against the sentinels below to pick a response status.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller attempts an operation on a
	// resource they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is the sentinel every ValidationError unwraps to.
	ErrValidation = errors.New("validation error")
	// ErrConflict is returned when the current state does not allow the
	// operation, for example suspending an already suspended seller.
	ErrConflict = errors.New("conflict")
	// ErrTokenExpired is returned for a rating token past its expiry.
	ErrTokenExpired = errors.New("rating token expired")
	// ErrTokenInvalid is returned for an unknown, consumed or otherwise
	// unusable rating token.
	ErrTokenInvalid = errors.New("rating token invalid")
)

var (
	ErrServiceNotFound        = fmt.Errorf("service %w", ErrNotFound)
	ErrSellerNotFound         = fmt.Errorf("seller %w", ErrNotFound)
	ErrContactRequestNotFound = fmt.Errorf("contact request %w", ErrNotFound)
	ErrNotificationNotFound   = fmt.Errorf("notification %w", ErrNotFound)
)

// FieldError describes a validation failure on a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level failures.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// MySQL server error numbers the core cares about.
const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
	mysqlCheckViolated    = 3819
	mysqlLockWaitTimeout  = 1205
	mysqlDeadlockRollback = 1213
)

// mapMySQLError converts driver errors into the sentinels above.  Context
// cancellation and transient lock errors pass through with context so the
// caller can decide whether to retry the whole operation.
func mapMySQLError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", entity, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%s: %w: %s", entity, ErrConflict, myErr.Message)
		case mysqlRowIsReferenced:
			return fmt.Errorf("%s: %w: still referenced", entity, ErrConflict)
		case mysqlNoReferencedRow:
			return fmt.Errorf("%s: %w: referenced row missing", entity, ErrNotFound)
		case mysqlCheckViolated:
			return fmt.Errorf("%s: %w: %s", entity, ErrValidation, myErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", entity, err)
}

// IsDuplicate reports whether err is a unique-key violation.
func IsDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// IsTransient reports whether err is a lock wait timeout or deadlock, the
// two errors after which a caller may retry the whole transaction.
func IsTransient(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == mysqlLockWaitTimeout || myErr.Number == mysqlDeadlockRollback
}
