// Package reconcile publishes locally captured namespaces and tags to the
// remote artifact store. Each pass lists the remote once, pushes what
// differs concurrently, and on any failure starts over with a fresh listing.
package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pjy612/ManifestAutoUpdate-bak/depotstore"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/git"
)

const (
	// DefaultWorkers is the number of concurrent pushes.
	DefaultWorkers = 8
	// DefaultMaxPasses bounds the number of list-and-push passes.
	DefaultMaxPasses = 5
)

// Ref kinds reported to a Recorder.
const (
	KindBranch = "branch"
	KindTag    = "tag"
)

// Store is what the reconciler needs from the artifact store.
// *depotstore.Store implements it.
type Store interface {
	LocalRefs(ctx context.Context) (depotstore.Refs, error)
	ListRemote(ctx context.Context) (depotstore.Refs, error)
	Push(ctx context.Context, ref string) error
}

// Recorder receives the result of every push.
type Recorder interface {
	PushFinished(kind string, err error)
}

// Plan lists the refs one pass pushes.
type Plan struct {
	Branches []string
	Tags     []string
}

// Len returns the number of pushes in the plan.
func (p Plan) Len() int { return len(p.Branches) + len(p.Tags) }

// Diff computes the pushes that make remote reflect local. A namespace is
// pushed when the remote lacks it or points elsewhere, unless it still sits
// at the remote baseline. A tag is pushed when the remote lacks it.
func Diff(local, remote depotstore.Refs, baseline string) Plan {
	var p Plan
	base, hasBase := remote.Heads[baseline]
	for name, hash := range local.Heads {
		if !depotstore.IsNamespace(name) {
			continue
		}
		if r, ok := remote.Heads[name]; ok && r == hash {
			continue
		}
		if hasBase && hash == base {
			continue
		}
		p.Branches = append(p.Branches, name)
	}
	for name := range local.Tags {
		if _, ok := remote.Tags[name]; !ok {
			p.Tags = append(p.Tags, name)
		}
	}
	sort.Strings(p.Branches)
	sort.Strings(p.Tags)
	return p
}

// Report summarizes a reconciliation.
type Report struct {
	Passes   int
	Branches int
	Tags     int
}

// Reconciler pushes local captures to the remote.
type Reconciler struct {
	store     Store
	baseline  string
	workers   int
	maxPasses int
	logger    *slog.Logger
	recorder  Recorder
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithWorkers sets the number of concurrent pushes.
func WithWorkers(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithMaxPasses sets the pass limit.
func WithMaxPasses(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxPasses = n
		}
	}
}

// WithBaseline sets the baseline branch name.
func WithBaseline(name string) Option {
	return func(r *Reconciler) {
		if name != "" {
			r.baseline = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder reports every push to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Reconciler) { r.recorder = rec }
}

// New returns a reconciler over store.
func New(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:     store,
		baseline:  depotstore.DefaultBaseline,
		workers:   DefaultWorkers,
		maxPasses: DefaultMaxPasses,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reconciles until a pass completes without failure. After MaxPasses
// failing passes it returns a CodePushFailed error.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	var (
		rep     Report
		lastErr error
	)
	for pass := 1; pass <= r.maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return rep, errors.Wrap(err, errors.CodeCanceled, "reconcile interrupted")
		}
		rep.Passes = pass

		plan, err := r.plan(ctx)
		if err != nil {
			lastErr = err
			r.logger.WarnContext(ctx, "listing refs failed", "pass", pass, "error", err)
			continue
		}

		branches, tags, err := r.push(ctx, plan)
		rep.Branches += branches
		rep.Tags += tags
		r.logger.InfoContext(ctx, "reconcile pass finished", "pass", pass,
			"branches", branches, "tags", tags, "planned", plan.Len())
		if err == nil {
			return rep, nil
		}
		lastErr = err
		r.logger.WarnContext(ctx, "pushes failed, relisting", "pass", pass, "error", err)
	}
	return rep, errors.WrapWithContext(lastErr, errors.CodePushFailed, "reconcile did not converge",
		map[string]interface{}{"passes": r.maxPasses})
}

func (r *Reconciler) plan(ctx context.Context) (Plan, error) {
	remote, err := r.store.ListRemote(ctx)
	if err != nil {
		return Plan{}, err
	}
	local, err := r.store.LocalRefs(ctx)
	if err != nil {
		return Plan{}, err
	}
	return Diff(local, remote, r.baseline), nil
}

// push runs the plan and returns the number of successful branch and tag
// pushes plus the joined failures.
func (r *Reconciler) push(ctx context.Context, plan Plan) (int, int, error) {
	var (
		mu       sync.Mutex
		branches int
		tags     int
		failures []error
		g        errgroup.Group
	)
	g.SetLimit(r.workers)

	run := func(kind, name, ref string) {
		g.Go(func() error {
			err := r.store.Push(ctx, ref)
			if r.recorder != nil {
				r.recorder.PushFinished(kind, err)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.ErrorContext(ctx, "push failed", "ref", ref, "error", err)
				failures = append(failures, err)
				return nil
			}
			r.logger.DebugContext(ctx, "pushed", kind, name)
			if kind == KindBranch {
				branches++
			} else {
				tags++
			}
			return nil
		})
	}
	for _, b := range plan.Branches {
		run(KindBranch, b, git.BranchRef(b))
	}
	for _, t := range plan.Tags {
		run(KindTag, t, git.TagRef(t))
	}
	_ = g.Wait()

	return branches, tags, errors.Join(failures...)
}
