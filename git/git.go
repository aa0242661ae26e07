// Package git is a task-oriented wrapper over go-git used as the artifact
// store's version log. It works exclusively through the module's filesystem
// abstraction, so repositories can live on disk or entirely in memory.
//
// Besides the usual branch, tag and worktree operations, the package can
// write commits directly onto a branch from in-memory file contents
// (CommitFiles) without touching a checkout. Many goroutines may therefore
// prepare commits for different branches of the same repository, provided
// callers serialize the calls that mutate references.
package git

import (
	"context"
	"fmt"
	"time"

	gobilly "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/pjy612/ManifestAutoUpdate-bak/fs"
	"github.com/pjy612/ManifestAutoUpdate-bak/git/internal/fsbridge"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// DefaultWorkdir is the default worktree directory name.
	DefaultWorkdir = "."

	// DefaultRemoteName is the default remote name used for operations.
	DefaultRemoteName = "origin"
)

// Options configures repository discovery/creation.
type Options struct {
	// FS is the REQUIRED filesystem root (OS or in-memory).
	FS fs.Filesystem

	// Workdir is the path within FS for the worktree root. Defaults to ".".
	Workdir string

	// Bare indicates a repository without a worktree.
	Bare bool

	// StorerCacheSize sets the LRU objects cache entries.
	StorerCacheSize int

	// Auth resolves per-URL credentials for fetch, list and push. Optional.
	Auth AuthProvider
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidRef, "FS is required")
	}
	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidRef, "StorerCacheSize cannot be negative")
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}
	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}
}

// AuthProvider resolves authentication methods for git operations.
type AuthProvider interface {
	// Method returns the transport.AuthMethod for the given remote URL.
	// A nil method means no authentication is needed.
	Method(remoteURL string) (transport.AuthMethod, error)
}

// Signature identifies the author/committer of a commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitOpts configures worktree commits.
type CommitOpts struct {
	// AllowEmpty allows creating commits with no staged changes.
	AllowEmpty bool
}

// Repo represents a git repository and provides high-level operations.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
	fs       fs.Filesystem
	options  Options
}

// Init creates a new git repository at the configured location.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	return openOrInit(ctx, opts, true)
}

// Open opens an existing git repository.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	return openOrInit(ctx, opts, false)
}

func openOrInit(ctx context.Context, opts *Options, create bool) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapError(err, "context cancelled")
	}
	opts.applyDefaults()

	billyFS, err := fsbridge.ToBillyFilesystem(opts.FS)
	if err != nil {
		return nil, fmt.Errorf("filesystem conversion failed: %w", err)
	}

	scopedFS, err := billyFS.Chroot(opts.Workdir)
	if err != nil {
		return nil, fmt.Errorf("failed to chroot to workdir %q: %w", opts.Workdir, err)
	}

	var storage *filesystem.Storage
	var worktreeFS gobilly.Filesystem
	if opts.Bare {
		storage = fsbridge.NewStorage(scopedFS, opts.StorerCacheSize)
	} else {
		dotGitFS, chrootErr := scopedFS.Chroot(".git")
		if chrootErr != nil {
			return nil, fmt.Errorf("failed to access .git directory: %w", chrootErr)
		}
		storage = fsbridge.NewStorage(dotGitFS, opts.StorerCacheSize)
		worktreeFS = scopedFS
	}

	var repo *git.Repository
	if create {
		repo, err = git.Init(storage, worktreeFS)
		if err != nil {
			return nil, WrapError(err, "failed to initialize repository")
		}
	} else {
		repo, err = git.Open(storage, worktreeFS)
		if err != nil {
			return nil, WrapError(err, "failed to open repository")
		}
	}

	r := &Repo{
		repo:    repo,
		fs:      opts.FS,
		options: *opts,
	}
	if !opts.Bare {
		wt, wtErr := repo.Worktree()
		if wtErr != nil {
			return nil, WrapError(wtErr, "failed to get worktree")
		}
		r.worktree = wt
	}
	return r, nil
}

// AddRemote registers a remote with a single URL.
func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	if name == "" || url == "" {
		return WrapError(ErrInvalidRef, "remote name and url are required")
	}
	_, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return WrapErrorf(err, "failed to create remote %q", name)
	}
	return nil
}
