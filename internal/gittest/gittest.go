// Package gittest provides in-memory git remotes for tests. Remotes are
// served in-process through go-git's server transport under the mem://
// scheme, so fetch, ls-remote and push work without a git binary or network.
package gittest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	fsb "github.com/pjy612/ManifestAutoUpdate-bak/fs/billy"
	gitpkg "github.com/pjy612/ManifestAutoUpdate-bak/git"
)

var (
	installOnce sync.Once
	registry    = &loader{repos: map[string]storer.Storer{}}
)

type loader struct {
	mu    sync.Mutex
	repos map[string]storer.Storer
}

func (l *loader) Load(ep *transport.Endpoint) (storer.Storer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.repos[ep.String()]
	if !ok {
		return nil, transport.ErrRepositoryNotFound
	}
	return s, nil
}

// Signature is the identity used for seeded commits.
var Signature = object.Signature{Name: "seed", Email: "seed@example.com", When: time.Unix(1700000000, 0)}

// Remote is an in-memory repository reachable at URL.
type Remote struct {
	URL  string
	Repo *git.Repository
}

// NewRemote creates an empty in-memory remote.
func NewRemote(t testing.TB) *Remote {
	t.Helper()
	installOnce.Do(func() {
		client.InstallProtocol("mem", server.NewClient(registry))
	})

	st := memory.NewStorage()
	repo, err := git.Init(st, memfs.New())
	require.NoError(t, err)

	url := "mem://origin/" + uuid.NewString()
	ep, err := transport.NewEndpoint(url)
	require.NoError(t, err)

	registry.mu.Lock()
	registry.repos[ep.String()] = st
	registry.mu.Unlock()

	return &Remote{URL: url, Repo: repo}
}

// Seed commits files on branch, creating the branch from the current HEAD
// (or as the first commit) when needed. It returns the commit hash.
func (r *Remote) Seed(t testing.TB, branch string, files map[string]string) plumbing.Hash {
	t.Helper()
	return Seed(t, r.Repo, branch, files)
}

// Tag creates a lightweight tag at hash.
func (r *Remote) Tag(t testing.TB, name string, hash plumbing.Hash) {
	t.Helper()
	require.NoError(t, r.Repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewTagReferenceName(name), hash)))
}

// Head returns the hash of branch, or the zero hash when it is missing.
func (r *Remote) Head(t testing.TB, branch string) plumbing.Hash {
	t.Helper()
	ref, err := r.Repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return plumbing.ZeroHash
	}
	return ref.Hash()
}

// HasTag reports whether the remote holds tag name.
func (r *Remote) HasTag(t testing.TB, name string) bool {
	t.Helper()
	_, err := r.Repo.Reference(plumbing.NewTagReferenceName(name), false)
	return err == nil
}

// Seed commits files on branch of repo. See Remote.Seed.
func Seed(t testing.TB, repo *git.Repository, branch string, files map[string]string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)

	ref := plumbing.NewBranchReferenceName(branch)
	_, refErr := repo.Reference(ref, false)
	head, headErr := repo.Head()
	switch {
	case refErr == nil:
		require.NoError(t, wt.Checkout(&git.CheckoutOptions{Branch: ref, Force: true}))
	case headErr == nil:
		require.NoError(t, wt.Checkout(&git.CheckoutOptions{Branch: ref, Hash: head.Hash(), Create: true, Force: true}))
	default:
		require.NoError(t, repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, ref)))
	}

	for name, content := range files {
		require.NoError(t, util.WriteFile(wt.Filesystem, name, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}

	sig := Signature
	hash, err := wt.Commit("seed "+branch, &git.CommitOptions{
		Author:            &sig,
		Committer:         &sig,
		AllowEmptyCommits: true,
	})
	require.NoError(t, err)
	return hash
}

// NewLocal creates an in-memory repository through the git package with
// origin pointing at remote.
func NewLocal(t testing.TB, remote *Remote) (*gitpkg.Repo, *fsb.FS) {
	t.Helper()
	ctx := context.Background()
	memFS := fsb.NewInMemoryFS()

	repo, err := gitpkg.Init(ctx, &gitpkg.Options{FS: memFS})
	require.NoError(t, err)
	if remote != nil {
		require.NoError(t, repo.AddRemote(ctx, gitpkg.DefaultRemoteName, remote.URL))
	}
	return repo, memFS
}
