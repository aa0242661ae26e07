package main

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pjy612/ManifestAutoUpdate-bak/applock"
	"github.com/pjy612/ManifestAutoUpdate-bak/dedup"
	"github.com/pjy612/ManifestAutoUpdate-bak/engine"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs/billy"
	"github.com/pjy612/ManifestAutoUpdate-bak/secrets"
)

func newRunCmd(g *globalOptions, stderr io.Writer) *cobra.Command {
	var push bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one pass over every account",
		Long: `Run logs in every enabled account, fetches the manifests of the depots it
owns that are not captured yet, and commits each one to the application's
branch with a <depot>_<manifest> tag. State files are flushed every second
and once more on exit, also when interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.setup(cmd, stderr)
			if err != nil {
				return err
			}
			if err := e.run(cmd.Context()); err != nil {
				return err
			}
			if !push {
				return nil
			}
			if err := e.push(cmd.Context()); err != nil {
				return err
			}
			return e.pushData(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&push, "push", false, "push refs and state files after the pass")
	return cmd
}

func (e *env) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.serveMetrics(ctx)

	stateFS, err := e.stateFS()
	if err != nil {
		return err
	}
	st, err := e.openState(stateFS)
	if err != nil {
		return err
	}
	accounts, err := e.accounts(ctx, stateFS)
	if err != nil {
		return err
	}
	store, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	dialer, err := e.dialer()
	if err != nil {
		return err
	}

	deps := engine.Deps{
		Accounts: accounts,
		Dialer:   dialer,
		Store:    store,
		State:    st,
		Locks:    applock.New(applock.WithObserver(e.metrics.LockObserver())),
		Dedup:    dedup.New(store.RemoteTags, store.LocalTags),
		Tokens:   e.tokens(stateFS),
		Recorder: e.metrics,
		Logger:   e.logger,
		RunID:    e.runID,
	}
	if p := e.publisher(); p != nil {
		defer p.Close()
		deps.Publisher = p
	}

	eng, err := engine.New(deps, e.cfg.Engine())
	if err != nil {
		return err
	}
	sum, err := eng.Run(ctx)
	e.logger.Info("pass finished",
		"accounts", sum.Accounts,
		"captured", sum.Captured,
		"failed", sum.Failed,
		"interrupted", sum.Interrupted,
	)
	return err
}

// tokens returns the token store for the credential location. A relative
// location is resolved inside the state directory.
func (e *env) tokens(stateFS fs.Filesystem) *secrets.TokenStore {
	loc := e.cfg.Credentials.Location
	if filepath.IsAbs(loc) {
		return secrets.NewTokenStore(billy.NewOSFS(loc), ".")
	}
	return secrets.NewTokenStore(stateFS, loc)
}
