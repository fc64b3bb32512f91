// Package scm resolves git refs of a project's source repository to commits.
package scm

import "context"

// Repository looks up the commit a ref currently points at.
type Repository interface {
	// CommitFromRef returns the full commit sha of ref, or a
	// *errors.RevisionNotFoundError when the repository has no such ref.
	CommitFromRef(ctx context.Context, ref string) (string, error)
}

// Source hands out the Repository behind a repository URL.
type Source interface {
	Repository(url string) Repository
}
