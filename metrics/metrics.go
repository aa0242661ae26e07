// Package metrics exposes engine, lock table, state flush and reconcile
// measurements as Prometheus collectors on a private registry.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pjy612/ManifestAutoUpdate-bak/applock"
	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	perrors "github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

const namespace = "manifestsync"

// Metrics holds the collectors. The zero value is not usable; call New.
type Metrics struct {
	reg *prometheus.Registry

	accounts       *prometheus.CounterVec
	authAttempts   *prometheus.CounterVec
	tasks          *prometheus.CounterVec
	taskDuration   prometheus.Histogram
	depotsInFlight prometheus.Gauge
	appsLocked     prometheus.Gauge
	pushes         *prometheus.CounterVec
	flushDuration  prometheus.Histogram
	flushErrors    prometheus.Counter
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		accounts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_total",
			Help:      "Account passes by final state.",
		}, []string{"state"}),
		authAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Login attempts by result code.",
		}, []string{"code"}),
		tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Fetch-and-commit tasks by outcome.",
		}, []string{"outcome"}),
		taskDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of fetch-and-commit tasks.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		depotsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "depots_in_flight",
			Help:      "Depots registered in the app lock table.",
		}),
		appsLocked: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "apps_mutating",
			Help:      "Applications whose namespace is being mutated.",
		}),
		pushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_total",
			Help:      "Reconcile pushes by ref kind and result.",
		}, []string{"kind", "result"}),
		flushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "state_flush_duration_seconds",
			Help:      "Duration of state file flushes.",
			Buckets:   prometheus.DefBuckets,
		}),
		flushErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_flush_errors_total",
			Help:      "Failed state file flushes.",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// AccountFinished counts an account pass.
func (m *Metrics) AccountFinished(state domain.AccountState) {
	m.accounts.WithLabelValues(state.String()).Inc()
}

// AuthAttempt counts a login attempt; an empty code is a success.
func (m *Metrics) AuthAttempt(code perrors.ErrorCode) {
	label := string(code)
	if label == "" {
		label = "OK"
	}
	m.authAttempts.WithLabelValues(label).Inc()
}

// TaskFinished counts a task and observes its duration.
func (m *Metrics) TaskFinished(outcome domain.TaskOutcome, elapsed time.Duration) {
	m.tasks.WithLabelValues(outcome.String()).Inc()
	m.taskDuration.Observe(elapsed.Seconds())
}

// PushFinished counts a reconcile push.
func (m *Metrics) PushFinished(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.pushes.WithLabelValues(kind, result).Inc()
}

// FlushObserved records a state flush.
func (m *Metrics) FlushObserved(d time.Duration, err error) {
	m.flushDuration.Observe(d.Seconds())
	if err != nil {
		m.flushErrors.Inc()
	}
}

// LockObserver returns an applock observer feeding the in-flight gauges.
func (m *Metrics) LockObserver() applock.Observer {
	return func(kind applock.EventKind, _ domain.AppID, _ domain.DepotID) {
		switch kind {
		case applock.EventAcquired:
			m.depotsInFlight.Inc()
		case applock.EventReleased:
			m.depotsInFlight.Dec()
		case applock.EventLocked:
			m.appsLocked.Inc()
		case applock.EventUnlocked:
			m.appsLocked.Dec()
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Serve exposes /metrics on addr until ctx ends.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.InfoContext(ctx, "serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return perrors.Wrap(err, perrors.CodeNetwork, "metrics server")
	}
	return nil
}
