package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/yepso-store/api/internal/repositories"
)

type repoError struct {
	err         error
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repoError) Error() string       { return e.err.Error() }
func (e *repoError) Unwrap() error       { return e.err }
func (e *repoError) IsNotFound() bool    { return e.notFound }
func (e *repoError) IsConflict() bool    { return e.conflict }
func (e *repoError) IsUnavailable() bool { return e.unavailable }

var _ repositories.RepositoryError = (*repoError)(nil)

const uniqueViolation = "23505"

// classify maps driver errors onto the repository error categories. Anything
// not recognised as a data condition counts as a transport failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("%s: %w", op, err)

	if errors.Is(err, sql.ErrNoRows) {
		return &repoError{err: wrapped, notFound: true}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return &repoError{err: wrapped, conflict: true}
	}

	return &repoError{err: wrapped, unavailable: true}
}

func notFoundError(op string) error {
	return &repoError{err: fmt.Errorf("%s: %w", op, sql.ErrNoRows), notFound: true}
}
