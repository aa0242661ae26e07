package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

// Summary counts the results of one run.
type Summary struct {
	Accounts    int
	Disabled    int
	Skipped     int
	Captured    int
	Duplicates  int
	Unavailable int
	Failed      int
	Abandoned   int
	Interrupted bool
}

func (s *Summary) add(r DriverResult) {
	s.Accounts++
	switch r.State {
	case domain.AccountStateDisabled:
		s.Disabled++
	case domain.AccountStateSkipped:
		s.Skipped++
	}
	for _, t := range r.Tasks {
		switch t.Outcome {
		case domain.TaskOutcomeCaptured:
			s.Captured++
		case domain.TaskOutcomeDuplicate:
			s.Duplicates++
		case domain.TaskOutcomeUnavailable:
			s.Unavailable++
		case domain.TaskOutcomeFailed:
			s.Failed++
		case domain.TaskOutcomeAbandoned:
			s.Abandoned++
		}
	}
}

// Engine runs drivers for all accounts.
type Engine struct {
	deps    Deps
	cfg     Config
	fetches *semaphore.Weighted

	// sched is the scheduling critical section shared by all drivers.
	sched sync.Mutex
}

// New returns an engine. Required Deps are Dialer, Store, State, Locks and Dedup.
func New(deps Deps, cfg Config) (*Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	deps.applyDefaults()
	if deps.RunID == "" {
		deps.RunID = uuid.NewString()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		deps:    deps,
		cfg:     cfg,
		fetches: semaphore.NewWeighted(cfg.Fetches),
	}, nil
}

// Run performs one pass over every account. It loads the dedup index,
// flushes the state files periodically and once more at the end. Driver and
// task failures are logged and counted, never returned. When ctx ends no
// new account is started, running drivers wind down, and Run returns a
// CodeCanceled error after the final flush.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	log := e.deps.Logger
	var sum Summary

	if err := e.deps.Dedup.Load(ctx); err != nil {
		return sum, errors.Wrap(err, errors.CodeStorage, "loading dedup index")
	}
	log.InfoContext(ctx, "run started", "run_id", e.deps.RunID, "accounts", len(e.deps.Accounts), "captured_tags", e.deps.Dedup.Len())

	flusher := e.deps.State.StartFlusher(ctx, e.cfg.FlushInterval)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.cfg.Accounts)
	for _, acct := range e.deps.Accounts {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res := newDriver(e, acct).Run(ctx)
			mu.Lock()
			sum.add(res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	flushErr := flusher.Stop()
	if flushErr != nil {
		log.ErrorContext(ctx, "final state flush failed", "error", flushErr)
	}

	sum.Interrupted = ctx.Err() != nil
	ev := domain.PassCompletedEvent{
		EventID:     uuid.NewString(),
		RunID:       e.deps.RunID,
		Timestamp:   e.deps.Now().UTC(),
		Accounts:    sum.Accounts,
		Captured:    sum.Captured,
		Failed:      sum.Failed + sum.Abandoned,
		Interrupted: sum.Interrupted,
	}
	if err := e.deps.Publisher.Publish(context.WithoutCancel(ctx), domain.SubjectPassCompleted, ev); err != nil {
		log.WarnContext(ctx, "publishing pass event failed", "error", err)
	}
	log.InfoContext(ctx, "run finished",
		"accounts", sum.Accounts, "captured", sum.Captured, "duplicates", sum.Duplicates,
		"unavailable", sum.Unavailable, "failed", sum.Failed, "abandoned", sum.Abandoned,
		"disabled", sum.Disabled, "skipped", sum.Skipped)

	if sum.Interrupted {
		return sum, errors.Join(errors.Wrap(ctx.Err(), errors.CodeCanceled, "run interrupted"), flushErr)
	}
	if flushErr != nil {
		return sum, flushErr
	}
	return sum, nil
}
