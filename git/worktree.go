package git

import (
	"context"
	"errors"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/pjy612/ManifestAutoUpdate-bak/git/internal/fsbridge"
)

// Add stages paths in the worktree. Paths may be glob patterns; patterns
// and plain paths that match nothing are ignored.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	if r.worktree == nil {
		return WrapError(ErrInvalidRef, "cannot add files in bare repository")
	}

	billyFS, err := fsbridge.ToBillyFilesystem(r.fs)
	if err != nil {
		return WrapError(err, "failed to convert filesystem for glob operations")
	}
	workdirFS, err := billyFS.Chroot(r.options.Workdir)
	if err != nil {
		return WrapErrorf(err, "failed to chroot to workdir %q", r.options.Workdir)
	}

	var toAdd []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, "*?[") {
			matches, globErr := util.Glob(workdirFS, p)
			if globErr != nil {
				return WrapErrorf(globErr, "invalid glob pattern %q", p)
			}
			toAdd = append(toAdd, matches...)
			continue
		}
		if _, statErr := workdirFS.Stat(p); statErr == nil {
			toAdd = append(toAdd, p)
		}
	}

	for _, p := range toAdd {
		if err := ctx.Err(); err != nil {
			return WrapError(err, "context cancelled")
		}
		if _, err := r.worktree.Add(p); err != nil {
			return WrapErrorf(err, "failed to add path %q", p)
		}
	}
	return nil
}

// Commit records the staged changes on the current branch and returns the
// new commit hash. ErrEmptyCommit is returned when nothing is staged unless
// opts.AllowEmpty is set.
func (r *Repo) Commit(ctx context.Context, msg string, who Signature, opts CommitOpts) (string, error) {
	if r.worktree == nil {
		return "", WrapError(ErrInvalidRef, "cannot commit in bare repository")
	}
	if msg == "" {
		return "", WrapError(ErrInvalidRef, "commit message cannot be empty")
	}
	if who.Name == "" || who.Email == "" {
		return "", WrapError(ErrInvalidRef, "committer name and email are required")
	}

	status, err := r.worktree.Status()
	if err != nil {
		return "", WrapError(err, "failed to get worktree status")
	}
	staged := 0
	for _, st := range status {
		if st.Staging != git.Untracked && st.Staging != git.Unmodified {
			staged++
		}
	}
	if staged == 0 && !opts.AllowEmpty {
		return "", WrapError(ErrEmptyCommit, "no changes staged for commit")
	}

	sig := who.toObject()
	hash, err := r.worktree.Commit(msg, &git.CommitOptions{
		Author:            &sig,
		Committer:         &object.Signature{Name: sig.Name, Email: sig.Email, When: sig.When},
		AllowEmptyCommits: opts.AllowEmpty,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", ErrEmptyCommit
		}
		return "", WrapError(err, "failed to create commit")
	}
	return hash.String(), nil
}
