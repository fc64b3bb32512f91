package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/iac-studio/rolecfg/internal/scm"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
	"github.com/iac-studio/rolecfg/pkg/logger"
)

// DefaultBranch is used when neither a ref nor a sha is requested.
const DefaultBranch = "master"

// Revision is a resolved git ref and commit.
type Revision struct {
	Ref string `json:"git_ref"`
	SHA string `json:"git_sha"`
}

type RevisionResolver interface {
	// Resolve picks the revision to render. A requested sha is authoritative
	// and is also used as the ref when no ref is given. Otherwise the ref,
	// or the default branch, is looked up in repo.
	Resolve(ctx context.Context, repo scm.Repository, ref, sha string) (Revision, error)
}

type revisionResolver struct {
	defaultBranch string
}

func NewRevisionResolver(defaultBranch string) RevisionResolver {
	if defaultBranch == "" {
		defaultBranch = DefaultBranch
	}
	return &revisionResolver{defaultBranch: defaultBranch}
}

var _ RevisionResolver = (*revisionResolver)(nil)

func (r *revisionResolver) Resolve(ctx context.Context, repo scm.Repository, ref, sha string) (Revision, error) {
	if sha != "" {
		if ref == "" {
			ref = sha
		}
		return Revision{Ref: ref, SHA: sha}, nil
	}

	if ref == "" {
		ref = r.defaultBranch
	}
	if repo == nil {
		return Revision{}, &appErr.RevisionNotFoundError{Ref: ref}
	}

	resolved, err := repo.CommitFromRef(ctx, ref)
	if err != nil {
		logger.L().Info("resolve revision failed", zap.String("ref", ref), zap.Error(err))
		return Revision{}, err
	}
	return Revision{Ref: ref, SHA: resolved}, nil
}
