package services

import (
	"errors"

	"github.com/yepso-store/api/internal/repositories"
)

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isRepoConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

func isRepoUnavailable(err error) bool {
	var repoErr repositories.RepositoryError
	if !errors.As(err, &repoErr) {
		return false
	}
	// Uncategorised repository failures count as transport failures.
	return repoErr.IsUnavailable() || (!repoErr.IsNotFound() && !repoErr.IsConflict())
}
