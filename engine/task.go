package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/session"
)

// TaskResult is the outcome of one fetch-and-commit task.
type TaskResult struct {
	App      domain.AppID
	Depot    domain.DepotID
	Manifest domain.ManifestGID
	Outcome  domain.TaskOutcome
	// Commit is set for TaskOutcomeCaptured.
	Commit string
	Err    error
}

// Task captures one depot manifest. Its result is delivered exactly once
// on Done.
type Task struct {
	e     *Engine
	owner string
	sess  session.Session
	app   domain.AppID
	depot domain.DepotID
	gid   domain.ManifestGID
	log   *slog.Logger
	done  chan TaskResult
}

func newTask(e *Engine, owner string, sess session.Session, app domain.AppID, depot domain.DepotID, gid domain.ManifestGID, log *slog.Logger) *Task {
	return &Task{
		e:     e,
		owner: owner,
		sess:  sess,
		app:   app,
		depot: depot,
		gid:   gid,
		log:   log.With("app", app.String(), "depot", depot.String(), "manifest", string(gid)),
		done:  make(chan TaskResult, 1),
	}
}

// Done returns the channel the result is delivered on.
func (t *Task) Done() <-chan TaskResult { return t.done }

// start runs the task in its own goroutine. The lock table slot of the task
// must already be held; it is released when the task ends.
func (t *Task) start(ctx context.Context) {
	go func() {
		begin := time.Now()
		res := t.run(ctx)
		t.finish(res, time.Since(begin))
	}()
}

func (t *Task) finish(res TaskResult, elapsed time.Duration) {
	t.e.deps.Locks.Release(t.app, t.depot)
	t.e.deps.State.Accounts().AddApp(t.owner, t.app)
	t.e.deps.Recorder.TaskFinished(res.Outcome, elapsed)

	switch res.Outcome {
	case domain.TaskOutcomeCaptured:
		t.log.Info("depot captured", "commit", res.Commit)
	case domain.TaskOutcomeDuplicate:
		t.log.Debug("depot already captured")
	case domain.TaskOutcomeAbandoned:
		t.log.Warn("task abandoned", "error", res.Err)
	default:
		t.log.Error("task failed", "outcome", res.Outcome.String(), "error", res.Err)
	}

	t.done <- res
	close(t.done)
}

func (t *Task) result(outcome domain.TaskOutcome, err error) TaskResult {
	return TaskResult{App: t.app, Depot: t.depot, Manifest: t.gid, Outcome: outcome, Err: err}
}

// failure maps err to Abandoned when ctx ended, else to outcome.
func (t *Task) failure(ctx context.Context, outcome domain.TaskOutcome, err error) TaskResult {
	if ctx.Err() != nil {
		return t.result(domain.TaskOutcomeAbandoned, err)
	}
	return t.result(outcome, err)
}

func (t *Task) run(ctx context.Context) TaskResult {
	e := t.e
	if err := e.fetches.Acquire(ctx, 1); err != nil {
		return t.result(domain.TaskOutcomeAbandoned, err)
	}
	defer e.fetches.Release(1)

	artifact, err := retry(ctx, e.cfg.FetchRetries, fixed(e.cfg.FetchRetryDelay),
		func(ctx context.Context) (domain.Artifact, error) {
			return t.sess.FetchArtifact(ctx, t.app, t.depot, t.gid)
		})
	if err != nil {
		if session.IsUnavailable(err) {
			return t.result(domain.TaskOutcomeUnavailable, err)
		}
		return t.failure(ctx, domain.TaskOutcomeFailed, err)
	}

	if err := e.deps.Store.Stage(ctx, t.app, t.depot, t.gid, artifact.Manifest); err != nil {
		return t.failure(ctx, domain.TaskOutcomeFailed, err)
	}
	res := t.commit(ctx, artifact.DecryptionKey)
	if res.Outcome != domain.TaskOutcomeCaptured {
		if err := e.deps.Store.Discard(t.app, t.depot, t.gid); err != nil {
			t.log.Warn("cannot discard staged manifest", "error", err)
		}
	}
	return res
}

// commit performs the store mutation under the application's lock.
func (t *Task) commit(ctx context.Context, key []byte) TaskResult {
	e := t.e
	unlock, err := e.deps.Locks.Lock(ctx, t.app)
	if err != nil {
		return t.failure(ctx, domain.TaskOutcomeFailed, err)
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return t.result(domain.TaskOutcomeAbandoned, err)
	}

	exists, err := e.deps.Store.TagExists(ctx, t.depot, t.gid)
	if err != nil {
		return t.failure(ctx, domain.TaskOutcomeFailed, err)
	}
	if exists {
		e.deps.Dedup.Record(t.depot, t.gid)
		return t.result(domain.TaskOutcomeDuplicate, nil)
	}

	created, err := e.deps.Store.EnsureNamespace(ctx, t.app)
	if err != nil {
		return t.failure(ctx, domain.TaskOutcomeFailed, err)
	}

	commit, err := e.deps.Store.Capture(ctx, t.app, t.depot, t.gid, key)
	if err != nil {
		if created {
			// The namespace is removed even when ctx has ended.
			if derr := e.deps.Store.DeleteNamespace(context.WithoutCancel(ctx), t.app); derr != nil {
				t.log.Error("cannot delete namespace after failed capture", "error", derr)
			}
		}
		return t.failure(ctx, domain.TaskOutcomeFailed, err)
	}

	e.deps.State.Depots().Set(t.depot, t.gid)
	e.deps.Dedup.Record(t.depot, t.gid)

	ev := domain.DepotCapturedEvent{
		EventID:   uuid.NewString(),
		RunID:     e.deps.RunID,
		Timestamp: e.deps.Now().UTC(),
		App:       t.app,
		Depot:     t.depot,
		Manifest:  t.gid,
		Commit:    commit,
		Tag:       domain.TagName(t.depot, t.gid),
	}
	if err := e.deps.Publisher.Publish(ctx, domain.SubjectDepotCaptured, ev); err != nil {
		t.log.Warn("publishing capture event failed", "error", err)
	}

	res := t.result(domain.TaskOutcomeCaptured, nil)
	res.Commit = commit
	return res
}
