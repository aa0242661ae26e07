package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// RemoteRefs is a single listing of a remote's branches and tags.
type RemoteRefs struct {
	// Heads maps branch names to commit hashes.
	Heads map[string]string
	// Tags maps tag names to the hash advertised for the tag reference.
	Tags map[string]string
}

// ListRemote lists the heads and tags advertised by remote (ls-remote).
// An empty remote yields empty maps.
func (r *Repo) ListRemote(ctx context.Context, remote string) (RemoteRefs, error) {
	out := RemoteRefs{Heads: map[string]string{}, Tags: map[string]string{}}
	if remote == "" {
		remote = DefaultRemoteName
	}

	rem, err := r.repo.Remote(remote)
	if err != nil {
		return out, WrapErrorf(ErrRemoteMissing, "remote %q", remote)
	}
	auth, err := r.authFor(rem.Config())
	if err != nil {
		return out, err
	}

	refs, err := rem.ListContext(ctx, &git.ListOptions{Auth: auth})
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return out, nil
		}
		return out, WrapErrorf(err, "failed to list remote %q", remote)
	}

	for _, ref := range refs {
		name := ref.Name()
		switch {
		case strings.HasSuffix(name.String(), "^{}"):
			continue
		case name.IsBranch():
			out.Heads[name.Short()] = ref.Hash().String()
		case name.IsTag():
			out.Tags[name.Short()] = ref.Hash().String()
		}
	}
	return out, nil
}

// FetchRefSpecs fetches the given refspecs from remote without tags.
// It returns ErrAlreadyUpToDate when nothing changed.
func (r *Repo) FetchRefSpecs(ctx context.Context, remote string, specs ...string) error {
	if remote == "" {
		remote = DefaultRemoteName
	}
	if len(specs) == 0 {
		return WrapError(ErrInvalidRef, "at least one refspec is required")
	}

	rem, err := r.repo.Remote(remote)
	if err != nil {
		return WrapErrorf(ErrRemoteMissing, "remote %q", remote)
	}
	auth, err := r.authFor(rem.Config())
	if err != nil {
		return err
	}

	refSpecs, err := parseRefSpecs(specs)
	if err != nil {
		return err
	}

	err = r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remote,
		RefSpecs:   refSpecs,
		Auth:       auth,
		Tags:       git.NoTags,
	})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		return WrapErrorf(err, "failed to fetch %v from %q", specs, remote)
	}
	return nil
}

// Push pushes the given refspecs to remote. With no refspecs the remote's
// configured push refspecs apply. ErrAlreadyUpToDate is returned when the
// remote already has everything.
func (r *Repo) Push(ctx context.Context, remote string, force bool, specs ...string) error {
	if remote == "" {
		remote = DefaultRemoteName
	}

	rem, err := r.repo.Remote(remote)
	if err != nil {
		return WrapErrorf(ErrRemoteMissing, "remote %q", remote)
	}
	auth, err := r.authFor(rem.Config())
	if err != nil {
		return err
	}

	refSpecs, err := parseRefSpecs(specs)
	if err != nil {
		return err
	}

	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   refSpecs,
		Force:      force,
		Auth:       auth,
	})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		if errors.Is(err, git.ErrNonFastForwardUpdate) {
			return ErrNotFastForward
		}
		return WrapErrorf(err, "failed to push %v to %q", specs, remote)
	}
	return nil
}

func (r *Repo) authFor(cfg *config.RemoteConfig) (transport.AuthMethod, error) {
	if r.options.Auth == nil || len(cfg.URLs) == 0 {
		return nil, nil
	}
	method, err := r.options.Auth.Method(cfg.URLs[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	return method, nil
}

func parseRefSpecs(specs []string) ([]config.RefSpec, error) {
	out := make([]config.RefSpec, 0, len(specs))
	for _, s := range specs {
		spec := config.RefSpec(s)
		if err := spec.Validate(); err != nil {
			return nil, WrapErrorf(ErrInvalidRef, "refspec %q", s)
		}
		out = append(out, spec)
	}
	return out, nil
}

// BranchRefSpec maps a remote branch onto a ref in the local repository.
func BranchRefSpec(branch, dst string) string {
	return "+" + plumbing.NewBranchReferenceName(branch).String() + ":" + dst
}

// RemoteTrackingRef returns refs/remotes/<remote>/<branch>.
func RemoteTrackingRef(remote, branch string) string {
	return plumbing.NewRemoteReferenceName(remote, branch).String()
}

// BranchRef returns refs/heads/<branch>.
func BranchRef(branch string) string {
	return plumbing.NewBranchReferenceName(branch).String()
}

// TagRef returns refs/tags/<tag>.
func TagRef(tag string) string {
	return plumbing.NewTagReferenceName(tag).String()
}
