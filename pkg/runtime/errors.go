// Package runtime provides the database connection, configuration, logging
// and error types shared by the rest of the module.
package runtime

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidModel is returned when an invalid model is provided.
	ErrInvalidModel = errors.New("invalid model")

	// ErrNoPrimaryKey is returned when a table has no primary key.
	ErrNoPrimaryKey = errors.New("no primary key defined")

	// ErrDuplicateKey is returned when a unique constraint is violated.
	ErrDuplicateKey = errors.New("duplicate key value")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated.
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrNotNullViolation is returned when a required column is missing.
	ErrNotNullViolation = errors.New("not null violation")

	// ErrTransactionClosed is returned when operating on a closed transaction.
	ErrTransactionClosed = errors.New("transaction already closed")

	// ErrNoConnection is returned when no database connection is available.
	ErrNoConnection = errors.New("no database connection")
)

// PostgreSQL SQLSTATE codes for the constraint violations we classify.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
)

// QueryError represents a query execution error.
type QueryError struct {
	Query string
	// Kind is one of the sentinel errors above when the cause was
	// recognized, nil otherwise.
	Kind       error
	Constraint string
	Err        error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Kind != nil && e.Constraint != "" {
		return fmt.Sprintf("query error: %v (%s): %v", e.Kind, e.Constraint, e.Err)
	}
	if e.Kind != nil {
		return fmt.Sprintf("query error: %v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("query error: %v", e.Err)
}

// Unwrap exposes both the classified sentinel and the driver error.
func (e *QueryError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

// ClassifyError wraps a driver error in a QueryError whose Kind identifies
// the constraint that failed, so callers can use errors.Is with the
// sentinels. A nil err returns nil.
func ClassifyError(query string, err error) error {
	if err == nil {
		return nil
	}

	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}

	out := &QueryError{Query: query, Err: err}

	if errors.Is(err, pgx.ErrNoRows) {
		out.Kind = ErrNotFound
		return out
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		out.Constraint = pgErr.ConstraintName
		switch pgErr.Code {
		case codeUniqueViolation:
			out.Kind = ErrDuplicateKey
		case codeForeignKeyViolation:
			out.Kind = ErrForeignKeyViolation
		case codeNotNullViolation:
			out.Kind = ErrNotNullViolation
			if out.Constraint == "" {
				out.Constraint = pgErr.ColumnName
			}
		}
	}

	return out
}

// MigrationError represents a migration error.
type MigrationError struct {
	Version string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration error (version %s): %s: %v", e.Version, e.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}
