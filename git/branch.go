package git

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage"
)

// BranchExists reports whether the local branch exists.
func (r *Repo) BranchExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, WrapError(ErrInvalidRef, "branch name cannot be empty")
	}
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return false, nil
	default:
		return false, WrapErrorf(err, "failed to read branch %q", name)
	}
}

// BranchHead returns the commit hash a local branch points at.
func (r *Repo) BranchHead(ctx context.Context, name string) (string, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", WrapErrorf(ErrBranchMissing, "branch %q", name)
		}
		return "", WrapErrorf(err, "failed to read branch %q", name)
	}
	return ref.Hash().String(), nil
}

// Branches returns every local branch with the hash it points at.
func (r *Repo) Branches(ctx context.Context) (map[string]string, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, WrapError(err, "failed to list branches")
	}
	defer iter.Close()

	out := make(map[string]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out[ref.Name().Short()] = ref.Hash().String()
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to iterate branches")
	}
	return out, nil
}

// CreateBranch creates a local branch at startRev. startRev may be any
// revision go-git can resolve, including "refs/remotes/origin/<name>".
func (r *Repo) CreateBranch(ctx context.Context, name, startRev string, force bool) error {
	if err := ctx.Err(); err != nil {
		return WrapError(err, "context cancelled")
	}
	if name == "" {
		return WrapError(ErrInvalidRef, "branch name cannot be empty")
	}
	if startRev == "" {
		return WrapError(ErrInvalidRef, "start revision cannot be empty")
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(startRev))
	if err != nil {
		return WrapErrorf(ErrResolveFailed, "start revision %q", startRev)
	}

	refName := plumbing.NewBranchReferenceName(name)
	if _, err = r.repo.Reference(refName, false); err == nil && !force {
		return WrapErrorf(ErrBranchExists, "branch %q", name)
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, *hash)); err != nil {
		return WrapError(err, "failed to create branch reference")
	}
	return nil
}

// DeleteBranch removes a local branch.
func (r *Repo) DeleteBranch(ctx context.Context, name string) error {
	if name == "" {
		return WrapError(ErrInvalidRef, "branch name cannot be empty")
	}
	refName := plumbing.NewBranchReferenceName(name)
	if _, err := r.repo.Reference(refName, false); err != nil {
		return WrapErrorf(ErrBranchMissing, "branch %q", name)
	}
	if err := r.repo.Storer.RemoveReference(refName); err != nil {
		return WrapError(err, "failed to delete branch")
	}
	return nil
}

// MoveBranch points branch at newHash if it currently points at oldHash.
func (r *Repo) MoveBranch(ctx context.Context, name, oldHash, newHash string) error {
	refName := plumbing.NewBranchReferenceName(name)
	next := plumbing.NewHashReference(refName, plumbing.NewHash(newHash))
	prev := plumbing.NewHashReference(refName, plumbing.NewHash(oldHash))

	if err := r.repo.Storer.CheckAndSetReference(next, prev); err != nil {
		if errors.Is(err, storage.ErrReferenceHasChanged) {
			return WrapErrorf(ErrRefChanged, "branch %q", name)
		}
		return WrapErrorf(err, "failed to move branch %q", name)
	}
	return nil
}
