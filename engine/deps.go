package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/pjy612/ManifestAutoUpdate-bak/applock"
	"github.com/pjy612/ManifestAutoUpdate-bak/dedup"
	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/secrets"
	"github.com/pjy612/ManifestAutoUpdate-bak/session"
	"github.com/pjy612/ManifestAutoUpdate-bak/state"
)

// Store is the part of the artifact store the engine mutates.
// *depotstore.Store implements it.
type Store interface {
	Stage(ctx context.Context, app domain.AppID, depot domain.DepotID, gid domain.ManifestGID, manifest []byte) error
	Discard(app domain.AppID, depot domain.DepotID, gid domain.ManifestGID) error
	TagExists(ctx context.Context, depot domain.DepotID, gid domain.ManifestGID) (bool, error)
	EnsureNamespace(ctx context.Context, app domain.AppID) (bool, error)
	DeleteNamespace(ctx context.Context, app domain.AppID) error
	Capture(ctx context.Context, app domain.AppID, depot domain.DepotID, gid domain.ManifestGID, key []byte) (string, error)
}

// Tokens persists login tokens and reads sentry files.
// *secrets.TokenStore implements it.
type Tokens interface {
	Token(user string) (string, error)
	SaveToken(user, token string) error
	Sentry(name string) ([]byte, error)
}

// Recorder receives engine measurements. *metrics.Metrics implements it.
type Recorder interface {
	AccountFinished(state domain.AccountState)
	AuthAttempt(code errors.ErrorCode)
	TaskFinished(outcome domain.TaskOutcome, elapsed time.Duration)
}

// Publisher emits domain events. *notify.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

// Deps are the collaborators of an Engine.
type Deps struct {
	// Accounts are driven in order.
	Accounts []secrets.Account

	Dialer session.Dialer
	Store  Store
	State  *state.Store
	Locks  *applock.Table
	Dedup  *dedup.Index

	// Tokens, Recorder and Publisher are optional.
	Tokens    Tokens
	Recorder  Recorder
	Publisher Publisher

	Logger *slog.Logger

	// RunID is attached to published events.
	RunID string

	// Now defaults to time.Now.
	Now func() time.Time
}

func (d *Deps) validate() error {
	switch {
	case d.Dialer == nil:
		return errors.New(errors.CodeInvalidConfig, "engine: Dialer is required")
	case d.Store == nil:
		return errors.New(errors.CodeInvalidConfig, "engine: Store is required")
	case d.State == nil:
		return errors.New(errors.CodeInvalidConfig, "engine: State is required")
	case d.Locks == nil:
		return errors.New(errors.CodeInvalidConfig, "engine: Locks is required")
	case d.Dedup == nil:
		return errors.New(errors.CodeInvalidConfig, "engine: Dedup is required")
	}
	return nil
}

func (d *Deps) applyDefaults() {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

type nopRecorder struct{}

func (nopRecorder) AccountFinished(domain.AccountState) {}
func (nopRecorder) AuthAttempt(errors.ErrorCode) {}
func (nopRecorder) TaskFinished(domain.TaskOutcome, time.Duration) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }
