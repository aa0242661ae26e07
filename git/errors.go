package git

import (
	"errors"
	"fmt"
)

// Sentinel errors that can be checked with errors.Is().

// ErrAlreadyUpToDate is returned when fetch or push had nothing to transfer.
var ErrAlreadyUpToDate = errors.New("already up to date")

// ErrAuthRequired is returned when credentials could not be resolved for a remote.
var ErrAuthRequired = errors.New("authentication required")

// ErrBranchExists is returned when creating a branch that already exists.
var ErrBranchExists = errors.New("branch already exists")

// ErrBranchMissing is returned when operating on a branch that does not exist.
var ErrBranchMissing = errors.New("branch does not exist")

// ErrTagExists is returned when creating a tag that already exists.
var ErrTagExists = errors.New("tag already exists")

// ErrTagMissing is returned when operating on a tag that does not exist.
var ErrTagMissing = errors.New("tag does not exist")

// ErrNotFastForward is returned when a push is rejected as non fast-forward.
var ErrNotFastForward = errors.New("not a fast-forward")

// ErrInvalidRef is returned for malformed names, paths or arguments.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a revision cannot be resolved.
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrRemoteMissing is returned when a named remote is not configured.
var ErrRemoteMissing = errors.New("remote not configured")

// ErrRefChanged is returned when a reference moved under a compare-and-swap update.
var ErrRefChanged = errors.New("reference changed concurrently")

// ErrEmptyCommit is returned when a worktree commit has nothing staged.
var ErrEmptyCommit = errors.New("nothing to commit")

// ErrFileMissing is returned when a path is absent from a commit's tree.
var ErrFileMissing = errors.New("file not found in tree")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context.
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
