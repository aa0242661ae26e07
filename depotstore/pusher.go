package depotstore

import (
	"context"

	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/executor"
	"github.com/pjy612/ManifestAutoUpdate-bak/git"
)

// Pusher publishes one fully qualified ref (refs/heads/<n> or refs/tags/<t>)
// to the remote under the same name.
type Pusher interface {
	Push(ctx context.Context, ref string) error
}

// GoGitPusher pushes through the in-process repository.
type GoGitPusher struct {
	Repo   *git.Repo
	Remote string
}

// Push implements Pusher. A remote that is already up to date counts as success.
func (p *GoGitPusher) Push(ctx context.Context, ref string) error {
	err := p.Repo.Push(ctx, p.Remote, false, ref+":"+ref)
	if err != nil && !errors.Is(err, git.ErrAlreadyUpToDate) {
		return errors.WrapWithContext(err, errors.CodePushFailed, "push failed",
			map[string]interface{}{"ref": ref})
	}
	return nil
}

// CLIPusher pushes by running the git binary in Dir. Unlike GoGitPusher it
// can run many pushes at once. Git never prompts for credentials; a remote
// that needs them fails the push.
type CLIPusher struct {
	Runner executor.Runner
	Dir    string
	Remote string
}

// NewCLIPusher returns a pusher running "git push" in dir.
func NewCLIPusher(dir, remote string) *CLIPusher {
	if remote == "" {
		remote = git.DefaultRemoteName
	}
	return &CLIPusher{Runner: executor.New("git"), Dir: dir, Remote: remote}
}

// Push implements Pusher.
func (p *CLIPusher) Push(ctx context.Context, ref string) error {
	res, err := p.Runner.Run(ctx, []string{"push", p.Remote, ref + ":" + ref},
		executor.WithWorkingDir(p.Dir),
		executor.WithEnvVar("GIT_TERMINAL_PROMPT", "0"),
	)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodePushFailed, "git push failed",
			map[string]interface{}{"ref": ref, "output": res.Output()})
	}
	return nil
}

// Push publishes ref through the configured Pusher. Pushes through the
// in-process repository are serialized with every other store operation.
func (s *Store) Push(ctx context.Context, ref string) error {
	if _, inProcess := s.pusher.(*GoGitPusher); inProcess {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return s.pusher.Push(ctx, ref)
}
