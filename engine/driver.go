package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/secrets"
	"github.com/pjy612/ManifestAutoUpdate-bak/session"
)

// DriverResult summarizes one account's pass.
type DriverResult struct {
	Username string
	// State is the state the driver ended in: Idle, Disabled, CoolingDown
	// or Skipped.
	State domain.AccountState
	// Scheduled counts the tasks started.
	Scheduled int
	Tasks     []TaskResult
	Err       error
}

// Driver runs the session state machine of one account.
type Driver struct {
	e     *Engine
	acct  secrets.Account
	log   *slog.Logger
	state domain.AccountState
	tasks []*Task
}

func newDriver(e *Engine, acct secrets.Account) *Driver {
	return &Driver{
		e:    e,
		acct: acct,
		log:  e.deps.Logger.With("account", acct.Username),
	}
}

func (d *Driver) enter(s domain.AccountState) {
	d.state = s
	d.log.Debug("account state", "state", s.String())
}

// Run drives the account through one pass. It always waits for every task
// it started before returning.
func (d *Driver) Run(ctx context.Context) DriverResult {
	res := d.run(ctx)
	res.Username = d.acct.Username
	res.State = d.state
	d.e.deps.Recorder.AccountFinished(d.state)
	return res
}

func (d *Driver) run(ctx context.Context) DriverResult {
	e := d.e
	book := e.deps.State.Accounts()
	user := d.acct.Username

	rec := book.Ensure(user)
	if !rec.Enabled {
		d.enter(domain.AccountStateDisabled)
		return DriverResult{}
	}
	if e.cfg.Cooldown > 0 && e.deps.Now().Sub(time.Unix(rec.Update, 0)) < e.cfg.Cooldown {
		d.enter(domain.AccountStateCoolingDown)
		return DriverResult{}
	}

	sess, err := d.login(ctx)
	if err != nil {
		return DriverResult{Err: err}
	}
	defer func() {
		if err := sess.Close(); err != nil {
			d.log.Warn("closing session failed", "error", err)
		}
	}()

	d.enter(domain.AccountStateEnumerating)
	apps, err := d.ownedApps(ctx, sess)
	if err != nil {
		d.log.Error("listing packages failed", "error", err)
		d.enter(domain.AccountStateSkipped)
		return DriverResult{Err: err}
	}
	if len(apps) == 0 {
		d.log.Warn("account owns no applications, disabling")
		d.disable(ctx, "no_applications")
		return DriverResult{}
	}

	d.enter(domain.AccountStateScheduling)
	schedErr := d.schedule(ctx, sess, apps)

	d.enter(domain.AccountStateDraining)
	out := DriverResult{Scheduled: len(d.tasks), Err: schedErr}
	for _, t := range d.tasks {
		out.Tasks = append(out.Tasks, <-t.Done())
	}

	switch {
	case schedErr != nil:
		d.log.Error("scheduling failed", "error", schedErr)
		d.enter(domain.AccountStateSkipped)
	default:
		if out.Scheduled == 0 {
			book.Touch(user, e.deps.Now())
		}
		d.enter(domain.AccountStateIdle)
	}
	return out
}

// login authenticates, retrying rate limits and transient failures with a
// linearly growing wait. Permanent refusals disable the account.
func (d *Driver) login(ctx context.Context) (session.Session, error) {
	e := d.e
	creds := session.Credentials{Username: d.acct.Username, Password: d.acct.Password}
	if tok := e.deps.Tokens; tok != nil {
		var err error
		if creds.Token, err = tok.Token(d.acct.Username); err != nil {
			d.log.Warn("reading login token failed", "error", err)
		}
		if d.acct.SentryName != "" {
			if creds.Sentry, err = tok.Sentry(d.acct.SentryName); err != nil {
				d.log.Warn("reading sentry file failed", "error", err)
			}
		}
	}

	wait := linear(e.cfg.AuthBackoff)
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAuthAttempts; attempt++ {
		d.enter(domain.AccountStateAuthenticating)
		sess, err := e.deps.Dialer.Dial(ctx, creds)
		e.deps.Recorder.AuthAttempt(errors.CodeOf(err))
		if err == nil {
			d.saveToken(sess.Token())
			d.enter(domain.AccountStateLoggedIn)
			return sess, nil
		}
		lastErr = err

		switch {
		case session.IsPermanentAuth(err):
			d.log.Error("login refused, disabling account", "code", errors.CodeOf(err), "error", err)
			d.disable(ctx, string(errors.CodeOf(err)))
			return nil, err
		case session.IsRetryable(err) && ctx.Err() == nil:
			d.enter(domain.AccountStateRateLimited)
			d.log.Warn("login failed, retrying", "attempt", attempt, "code", errors.CodeOf(err), "error", err)
			if attempt < e.cfg.MaxAuthAttempts {
				if serr := sleep(ctx, wait(attempt)); serr != nil {
					d.enter(domain.AccountStateSkipped)
					return nil, serr
				}
			}
		default:
			d.log.Error("login failed, skipping account", "code", errors.CodeOf(err), "error", err)
			d.enter(domain.AccountStateSkipped)
			return nil, err
		}
	}
	d.log.Error("login attempts exhausted, skipping account", "error", lastErr)
	d.enter(domain.AccountStateSkipped)
	return nil, lastErr
}

func (d *Driver) saveToken(token string) {
	if token == "" || d.e.deps.Tokens == nil {
		return
	}
	if err := d.e.deps.Tokens.SaveToken(d.acct.Username, token); err != nil {
		d.log.Warn("saving login token failed", "error", err)
	}
}

func (d *Driver) disable(ctx context.Context, reason string) {
	e := d.e
	e.deps.State.Accounts().Disable(d.acct.Username)
	d.enter(domain.AccountStateDisabled)

	ev := domain.AccountDisabledEvent{
		EventID:   uuid.NewString(),
		RunID:     e.deps.RunID,
		Timestamp: e.deps.Now().UTC(),
		Username:  d.acct.Username,
		Reason:    reason,
	}
	if err := e.deps.Publisher.Publish(ctx, domain.SubjectAccountDisabled, ev); err != nil {
		d.log.Warn("publishing disable event failed", "error", err)
	}
}

// ownedApps returns the applications granted by key-activated or purchased
// packages that carry depots, in first-seen order.
func (d *Driver) ownedApps(ctx context.Context, sess session.Session) ([]domain.AppID, error) {
	e := d.e
	pkgs, err := retry(ctx, e.cfg.FetchRetries, fixed(e.cfg.FetchRetryDelay), sess.Packages)
	if err != nil {
		return nil, err
	}
	var apps []domain.AppID
	for _, p := range pkgs {
		if p.BillingType != domain.BillingTypeBillOnceOrCDKey || len(p.DepotIDs) == 0 {
			continue
		}
		for _, app := range p.AppIDs {
			if !slices.Contains(apps, app) {
				apps = append(apps, app)
			}
		}
	}
	return apps, nil
}

// schedule starts a task for every licensed depot with a public manifest
// that is neither captured nor in flight. It stops at the first
// enumeration failure or when ctx ends.
func (d *Driver) schedule(ctx context.Context, sess session.Session, apps []domain.AppID) error {
	e := d.e
	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := retry(ctx, e.cfg.FetchRetries, fixed(e.cfg.FetchRetryDelay),
			func(ctx context.Context) (domain.AppInfo, error) { return sess.AppInfo(ctx, app) })
		if err != nil {
			return errors.WithContext(err, map[string]interface{}{"app": app.String()})
		}
		if info.Type != domain.AppTypeGame {
			continue
		}
		for _, depot := range info.Depots {
			if depot.PublicManifest == "" || !depot.Licensed {
				continue
			}
			if d.claim(app, depot.ID, depot.PublicManifest) {
				t := newTask(e, d.acct.Username, sess, app, depot.ID, depot.PublicManifest, d.log)
				d.tasks = append(d.tasks, t)
				t.start(ctx)
			}
		}
	}
	return nil
}

// claim records app as owned by the account and registers the depot in the
// lock table unless it is already captured or in flight. The dedup check
// and the registration form one critical section.
func (d *Driver) claim(app domain.AppID, depot domain.DepotID, gid domain.ManifestGID) bool {
	e := d.e
	e.sched.Lock()
	defer e.sched.Unlock()

	e.deps.State.Accounts().AddApp(d.acct.Username, app)
	if e.deps.Dedup.Exists(depot, gid) {
		return false
	}
	return e.deps.Locks.TryAcquire(d.acct.Username, app, depot)
}
