package main

import (
	"context"
	"net/http"
	"os"

	"github.com/pjy612/ManifestAutoUpdate-bak/depotstore"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs/billy"
	"github.com/pjy612/ManifestAutoUpdate-bak/git"
	"github.com/pjy612/ManifestAutoUpdate-bak/notify"
	"github.com/pjy612/ManifestAutoUpdate-bak/secrets"
	awssecrets "github.com/pjy612/ManifestAutoUpdate-bak/services/aws/secrets"
	"github.com/pjy612/ManifestAutoUpdate-bak/session/gateway"
	"github.com/pjy612/ManifestAutoUpdate-bak/state"
)

func (e *env) stateFS() (*billy.FS, error) {
	dir, err := fs.GetAbs(e.cfg.StateDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "resolving state directory")
	}
	return billy.NewOSFS(dir), nil
}

func (e *env) openState(fsys fs.Filesystem) (*state.Store, error) {
	st, err := state.Open(fsys,
		state.WithLogger(e.logger),
		state.WithFlushObserver(e.metrics.FlushObserved),
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (e *env) gitAuth() git.AuthProvider {
	a := e.cfg.Repo.Auth
	var token string
	if a.TokenEnv != "" {
		token = os.Getenv(a.TokenEnv)
	}
	return git.NewAuthProvider(git.AuthConfig{
		Username:                 a.Username,
		Token:                    token,
		SSHKeyPath:               a.SSHKey,
		SSHInsecureIgnoreHostKey: a.SSHInsecureIgnoreHostKey,
	})
}

// openStore opens the artifact repository. With push mode "cli" refs are
// pushed by the git binary instead of the in-process client.
func (e *env) openStore(ctx context.Context) (*depotstore.Store, error) {
	dir, err := fs.GetAbs(e.cfg.Repo.Dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "resolving repository directory")
	}
	fsys := billy.NewOSFS(dir)
	repo, err := git.Open(ctx, &git.Options{FS: fsys, Auth: e.gitAuth()})
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeStorage, "opening artifact repository",
			map[string]interface{}{"dir": dir})
	}

	var pusher depotstore.Pusher
	if e.cfg.Push.Mode == "cli" {
		pusher = depotstore.NewCLIPusher(dir, e.cfg.Repo.Remote)
	}
	store, err := depotstore.Open(ctx, depotstore.Options{
		Repo:     repo,
		Staging:  fsys,
		Remote:   e.cfg.Repo.Remote,
		Baseline: e.cfg.Repo.Baseline,
		Pusher:   pusher,
		Logger:   e.logger,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// accounts reads the credential list from the configured source.
func (e *env) accounts(ctx context.Context, stateFS fs.Filesystem) ([]secrets.Account, error) {
	c := e.cfg.Credentials
	mgr := secrets.NewManager(c.Source)
	if err := mgr.Register(secrets.NewFileSource(stateFS, c.File)); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "registering credential source")
	}
	if c.Source == "aws" {
		opts := []awssecrets.Option{awssecrets.WithLogger(e.logger)}
		if c.Region != "" {
			opts = append(opts, awssecrets.WithRegion(c.Region))
		}
		if c.Endpoint != "" {
			opts = append(opts, awssecrets.WithEndpoint(c.Endpoint))
		}
		client, err := awssecrets.NewClient(ctx, opts...)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "creating secrets manager client")
		}
		if err := mgr.Register(awssecrets.NewAccountSource(client, c.SecretID)); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "registering credential source")
		}
	}

	accounts, err := mgr.Accounts(ctx)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig, "reading credentials",
			map[string]interface{}{"source": c.Source})
	}
	return accounts, nil
}

func (e *env) dialer() (*gateway.Dialer, error) {
	return gateway.New(gateway.Options{
		BaseURL:    e.cfg.Gateway.URL,
		HTTPClient: &http.Client{Timeout: e.cfg.GatewayTimeout()},
		Logger:     e.logger,
	})
}

// publisher connects to NATS when an events URL is configured. A failed
// connection only disables events.
func (e *env) publisher() *notify.Publisher {
	if e.cfg.Events.URL == "" {
		return nil
	}
	p, err := notify.Connect(notify.Options{
		URL:    e.cfg.Events.URL,
		Stream: e.cfg.Events.Stream,
		Logger: e.logger,
	})
	if err != nil {
		e.logger.Warn("events disabled", "url", e.cfg.Events.URL, "error", err)
		return nil
	}
	return p
}

func (e *env) serveMetrics(ctx context.Context) {
	if e.cfg.Metrics.Addr == "" {
		return
	}
	go func() {
		if err := e.metrics.Serve(ctx, e.cfg.Metrics.Addr, e.logger); err != nil {
			e.logger.Error("metrics server stopped", "error", err)
		}
	}()
}
