// Package session defines the boundary to the network protocol client that
// authenticates an account and retrieves depot manifests. The engine only
// sees these interfaces; errors crossing the boundary carry codes from the
// errors package so the engine can classify them.
package session

import (
	"context"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

// Credentials identify one account for a login attempt.
type Credentials struct {
	Username string
	Password string

	// Token is a login token saved from an earlier session; may be empty.
	Token string

	// Sentry is the content of the account's sentry file; may be nil.
	Sentry []byte
}

// Dialer establishes sessions.
//
// Dial fails with CodeRateLimit, CodeUnauthorized (bad credentials),
// CodeForbidden (account disabled or logon denied),
// CodeSecondFactorRequired, or a transient code.
type Dialer interface {
	Dial(ctx context.Context, creds Credentials) (Session, error)
}

// Session is an authenticated handle scoped to one account.
type Session interface {
	// Packages lists the license packages owned by the account.
	Packages(ctx context.Context) ([]domain.Package, error)

	// AppInfo describes app and its depots, including whether the account's
	// entitlements cover each depot.
	AppInfo(ctx context.Context, app domain.AppID) (domain.AppInfo, error)

	// FetchArtifact downloads the manifest and decryption key of depot at
	// gid. It fails with CodeNotFound when the artifact does not exist.
	FetchArtifact(ctx context.Context, app domain.AppID, depot domain.DepotID, gid domain.ManifestGID) (domain.Artifact, error)

	// Token returns the current login token to persist for the next login.
	Token() string

	// Close ends the session.
	Close() error
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, creds Credentials) (Session, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, creds Credentials) (Session, error) {
	return f(ctx, creds)
}

// IsPermanentAuth reports whether err means the account can never log in.
func IsPermanentAuth(err error) bool {
	return errors.ClassOf(err) == errors.ClassPermanentAuth
}

// IsRetryable reports whether err is transient or a rate limit.
func IsRetryable(err error) bool {
	return errors.IsRetryable(err)
}

// IsUnavailable reports whether err means the artifact does not exist.
func IsUnavailable(err error) bool {
	return errors.ClassOf(err) == errors.ClassUnavailable
}
