package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/pjy612/ManifestAutoUpdate-bak/depotstore"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs"
	"github.com/pjy612/ManifestAutoUpdate-bak/git"
	"github.com/pjy612/ManifestAutoUpdate-bak/reconcile"
)

func newPushCmd(g *globalOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Push application branches and tags missing on the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.setup(cmd, stderr)
			if err != nil {
				return err
			}
			return e.push(cmd.Context())
		},
	}
}

func newPushDataCmd(g *globalOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "push-data",
		Short: "Commit and push the state files on the data branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.setup(cmd, stderr)
			if err != nil {
				return err
			}
			return e.pushData(cmd.Context())
		},
	}
}

func (e *env) push(ctx context.Context) error {
	store, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	r := reconcile.New(store,
		reconcile.WithWorkers(e.cfg.Push.Workers),
		reconcile.WithMaxPasses(e.cfg.Push.MaxPasses),
		reconcile.WithBaseline(store.Baseline()),
		reconcile.WithLogger(e.logger),
		reconcile.WithRecorder(e.metrics),
	)
	report, err := r.Run(ctx)
	e.logger.Info("push finished", "passes", report.Passes, "branches", report.Branches, "tags", report.Tags)
	return err
}

func (e *env) pushData(ctx context.Context) error {
	stateFS, err := e.stateFS()
	if err != nil {
		return err
	}
	repo, err := git.Open(ctx, &git.Options{FS: stateFS, Auth: e.gitAuth()})
	if err != nil {
		return errors.Wrap(err, errors.CodeStorage, "opening state repository")
	}

	var pusher depotstore.Pusher
	if e.cfg.Push.Mode == "cli" {
		dir, err := fs.GetAbs(e.cfg.StateDir)
		if err != nil {
			return errors.Wrap(err, errors.CodeInvalidConfig, "resolving state directory")
		}
		pusher = depotstore.NewCLIPusher(dir, e.cfg.Repo.Remote)
	}
	_, err = depotstore.SyncData(ctx, repo, depotstore.SyncOptions{Pusher: pusher, Logger: e.logger})
	return err
}
