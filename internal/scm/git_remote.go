package scm

import (
	"context"
	"errors"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"
	"go.uber.org/zap"

	appErr "github.com/iac-studio/rolecfg/pkg/errors"
	"github.com/iac-studio/rolecfg/pkg/logger"
)

// GitRemote resolves refs by listing the advertised references of a remote.
// Nothing is cloned.
type GitRemote struct {
	URL  string
	Auth transport.AuthMethod
}

func NewGitRemote(url string) *GitRemote {
	return &GitRemote{URL: url}
}

func (g *GitRemote) CommitFromRef(ctx context.Context, ref string) (string, error) {
	if plumbing.IsHash(ref) {
		return strings.ToLower(ref), nil
	}
	if g.URL == "" {
		return "", &appErr.RevisionNotFoundError{Ref: ref, Err: errors.New("project has no repository")}
	}

	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{g.URL},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{
		Auth:          g.Auth,
		PeelingOption: git.AppendPeeled,
	})
	if err != nil {
		if errors.Is(err, transport.ErrRepositoryNotFound) || errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return "", &appErr.RevisionNotFoundError{Ref: ref, Err: err}
		}
		logger.L().Warn("list remote refs failed", zap.String("url", g.URL), zap.Error(err))
		return "", appErr.Wrap(err, appErr.CodeUnavailable, "list remote refs failed")
	}

	sha, ok := matchRef(refs, ref)
	if !ok {
		return "", &appErr.RevisionNotFoundError{Ref: ref}
	}
	return sha, nil
}

// matchRef finds ref among the advertised references. Branches win over tags;
// annotated tags resolve to the commit they point at.
func matchRef(refs []*plumbing.Reference, ref string) (string, bool) {
	byName := make(map[plumbing.ReferenceName]plumbing.Hash, len(refs))
	for _, r := range refs {
		if r.Type() == plumbing.HashReference {
			byName[r.Name()] = r.Hash()
		}
	}

	candidates := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(ref),
		plumbing.ReferenceName(plumbing.NewTagReferenceName(ref).String() + "^{}"),
		plumbing.NewTagReferenceName(ref),
		plumbing.ReferenceName(ref),
	}
	for _, name := range candidates {
		if h, ok := byName[name]; ok {
			return h.String(), true
		}
	}
	return "", false
}
