package git

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitFiles writes files into the root of branch's current tree and
// appends a commit on top of the branch head, without a checkout.
// Existing entries with the same name are replaced. The branch is moved with
// a compare-and-swap, so a concurrent writer yields ErrRefChanged.
// It returns the new commit hash.
func (r *Repo) CommitFiles(ctx context.Context, branch string, files map[string][]byte, message string, who Signature) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", WrapError(err, "context cancelled")
	}
	if message == "" {
		return "", WrapError(ErrInvalidRef, "commit message cannot be empty")
	}
	if len(files) == 0 {
		return "", WrapError(ErrInvalidRef, "no files to commit")
	}

	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return "", WrapErrorf(ErrBranchMissing, "branch %q", branch)
	}
	parent, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return "", WrapErrorf(err, "failed to load head of %q", branch)
	}
	tree, err := parent.Tree()
	if err != nil {
		return "", WrapErrorf(err, "failed to load tree of %q", branch)
	}

	entries := make(map[string]object.TreeEntry, len(tree.Entries)+len(files))
	for _, e := range tree.Entries {
		entries[e.Name] = e
	}
	for name, data := range files {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return "", WrapErrorf(ErrInvalidRef, "file name %q", name)
		}
		blob, err := r.writeBlob(data)
		if err != nil {
			return "", err
		}
		entries[name] = object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: blob}
	}

	treeHash, err := r.writeObject(&object.Tree{Entries: sortedEntries(entries)})
	if err != nil {
		return "", WrapError(err, "failed to write tree")
	}

	sig := who.toObject()
	commitHash, err := r.writeObject(&object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: []plumbing.Hash{parent.Hash},
	})
	if err != nil {
		return "", WrapError(err, "failed to write commit")
	}

	if err := r.MoveBranch(ctx, branch, ref.Hash().String(), commitHash.String()); err != nil {
		return "", err
	}
	return commitHash.String(), nil
}

// ReadFile returns the content of a file in the tree of rev.
func (r *Repo) ReadFile(ctx context.Context, rev, name string) ([]byte, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, WrapErrorf(ErrResolveFailed, "revision %q", rev)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, WrapErrorf(err, "failed to load commit %s", hash)
	}
	f, err := commit.File(name)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, WrapErrorf(ErrFileMissing, "%s:%s", rev, name)
		}
		return nil, WrapErrorf(err, "failed to read %s:%s", rev, name)
	}
	rd, err := f.Reader()
	if err != nil {
		return nil, WrapErrorf(err, "failed to open %s:%s", rev, name)
	}
	defer rd.Close()
	return io.ReadAll(rd)
}

// CommitMessage returns the message of the commit rev resolves to.
func (r *Repo) CommitMessage(ctx context.Context, rev string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", WrapErrorf(ErrResolveFailed, "revision %q", rev)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return "", WrapErrorf(err, "failed to load commit %s", hash)
	}
	return commit.Message, nil
}

func (r *Repo) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, WrapError(err, "failed to open blob writer")
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, WrapError(err, "failed to write blob")
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, WrapError(err, "failed to close blob")
	}
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, WrapError(err, "failed to store blob")
	}
	return hash, nil
}

type encoder interface {
	Encode(o plumbing.EncodedObject) error
}

func (r *Repo) writeObject(e encoder) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	if err := e.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return r.repo.Storer.SetEncodedObject(obj)
}

// sortedEntries orders entries the way git does: byte order, with
// directories compared as if their name ended in "/".
func sortedEntries(m map[string]object.TreeEntry) []object.TreeEntry {
	list := make([]object.TreeEntry, 0, len(m))
	for _, e := range m {
		list = append(list, e)
	}
	key := func(e object.TreeEntry) string {
		if e.Mode == filemode.Dir {
			return e.Name + "/"
		}
		return e.Name
	}
	sort.Slice(list, func(i, j int) bool { return key(list[i]) < key(list[j]) })
	return list
}

func (s Signature) toObject() object.Signature {
	when := s.When
	if when.IsZero() {
		when = time.Now()
	}
	return object.Signature{Name: s.Name, Email: s.Email, When: when}
}
