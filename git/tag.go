package git

import (
	"context"
	"errors"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
)

// TagExists reports whether a local tag exists.
func (r *Repo) TagExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, WrapError(ErrInvalidRef, "tag name cannot be empty")
	}
	_, err := r.repo.Reference(plumbing.NewTagReferenceName(name), false)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return false, nil
	default:
		return false, WrapErrorf(err, "failed to read tag %q", name)
	}
}

// CreateTag creates a lightweight tag pointing at target.
// Existing tags are never moved.
func (r *Repo) CreateTag(ctx context.Context, name, target string) error {
	if err := ctx.Err(); err != nil {
		return WrapError(err, "context cancelled")
	}
	if name == "" {
		return WrapError(ErrInvalidRef, "tag name cannot be empty")
	}
	if target == "" {
		return WrapError(ErrInvalidRef, "target revision cannot be empty")
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(target))
	if err != nil {
		return WrapErrorf(ErrResolveFailed, "tag target %q", target)
	}

	refName := plumbing.NewTagReferenceName(name)
	if _, err := r.repo.Reference(refName, false); err == nil {
		return WrapErrorf(ErrTagExists, "tag %q", name)
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, *hash)); err != nil {
		return WrapError(err, "failed to create tag")
	}
	return nil
}

// Tags lists local tag names in sorted order.
func (r *Repo) Tags(ctx context.Context) ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, WrapError(err, "failed to list tags")
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to iterate tags")
	}

	sort.Strings(tags)
	return tags, nil
}

// TagTargets returns every local tag with the hash its reference holds.
func (r *Repo) TagTargets(ctx context.Context) (map[string]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, WrapError(err, "failed to list tags")
	}
	defer iter.Close()

	out := make(map[string]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		out[ref.Name().Short()] = ref.Hash().String()
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to iterate tags")
	}
	return out, nil
}
