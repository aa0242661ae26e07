package depotstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/git"
)

// DataBranch is the branch the state directory is checked out on.
const DataBranch = "data"

// DataPaths are the state directory entries published by SyncData.
var DataPaths = []string{"client/ssfn*", "appinfo.json", "userinfo.json", "users.json"}

// SyncOptions configures SyncData.
type SyncOptions struct {
	// Branch defaults to DataBranch.
	Branch string
	// Paths defaults to DataPaths. Glob patterns are allowed.
	Paths     []string
	Signature git.Signature
	// Pusher defaults to pushing through the repository's origin.
	Pusher Pusher
	Logger *slog.Logger
}

// SyncData commits the state files of the repository checked out in the
// state directory as "update" and pushes the data branch. Nothing to commit
// is not an error. Push failures are logged and otherwise ignored.
func SyncData(ctx context.Context, repo *git.Repo, opts SyncOptions) (string, error) {
	if opts.Branch == "" {
		opts.Branch = DataBranch
	}
	if len(opts.Paths) == 0 {
		opts.Paths = DataPaths
	}
	if opts.Signature.Name == "" {
		opts.Signature.Name, opts.Signature.Email = DefaultSignature.Name, DefaultSignature.Email
	}
	if opts.Signature.When.IsZero() {
		opts.Signature.When = time.Now()
	}
	if opts.Pusher == nil {
		opts.Pusher = &GoGitPusher{Repo: repo, Remote: git.DefaultRemoteName}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := repo.Add(ctx, opts.Paths...); err != nil {
		return "", errors.Wrap(err, errors.CodeStoreMutation, "staging state files")
	}
	commit, err := repo.Commit(ctx, "update", opts.Signature, git.CommitOpts{})
	switch {
	case errors.Is(err, git.ErrEmptyCommit):
		logger.InfoContext(ctx, "state files unchanged")
	case err != nil:
		return "", errors.Wrap(err, errors.CodeStoreMutation, "committing state files")
	default:
		logger.InfoContext(ctx, "state files committed", "commit", commit)
	}

	ref := git.BranchRef(opts.Branch)
	if err := opts.Pusher.Push(ctx, ref); err != nil {
		logger.ErrorContext(ctx, "pushing state files failed", "branch", opts.Branch, "error", err)
	}
	return commit, nil
}
