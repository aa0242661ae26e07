// Package applock implements the app lock table: the in-memory registry of
// applications with fetch-and-commit work in flight, and the per-application
// mutex guarding each application's namespace in the artifact store.
//
// An application is present in the table while at least one depot of it is
// registered. The first registration records the owner (the account session
// that discovered the work). Other sessions may register further depots of
// the same application while it is in flight; store mutation for one
// application is serialized through Lock.
package applock

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
)

// ErrNotRegistered is returned by Lock for an application with no registered depot.
var ErrNotRegistered = errors.New("application is not registered in the lock table")

// EventKind describes a lock table transition reported to an Observer.
type EventKind int

const (
	// EventAcquired is reported after a depot was registered.
	EventAcquired EventKind = iota
	// EventReleased is reported after a depot was released.
	EventReleased
	// EventLocked is reported when store-mutation rights were granted.
	EventLocked
	// EventUnlocked is reported when store-mutation rights were returned.
	EventUnlocked
)

// Observer receives lock table transitions. It is called outside the table's
// critical section and must be safe for concurrent use.
type Observer func(kind EventKind, app domain.AppID, depot domain.DepotID)

type entry struct {
	owner  string
	depots map[domain.DepotID]struct{}
	// mutate is a one-slot semaphore granting store-mutation rights.
	mutate chan struct{}
}

// Table is the app lock table. The zero value is not usable; call New.
type Table struct {
	mu       sync.Mutex
	apps     map[domain.AppID]*entry
	observer Observer
}

// Option configures a Table.
type Option func(*Table)

// WithObserver installs an observer for lock transitions.
func WithObserver(o Observer) Option {
	return func(t *Table) { t.observer = o }
}

// New returns an empty table.
func New(opts ...Option) *Table {
	t := &Table{apps: make(map[domain.AppID]*entry)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TryAcquire registers depot under app, creating the entry when app is not
// in the table. Any owner may register further depots of an app in flight;
// it returns false only when the depot itself is already in flight.
func (t *Table) TryAcquire(owner string, app domain.AppID, depot domain.DepotID) bool {
	t.mu.Lock()
	e, ok := t.apps[app]
	if !ok {
		e = &entry{
			owner:  owner,
			depots: make(map[domain.DepotID]struct{}),
			mutate: make(chan struct{}, 1),
		}
		t.apps[app] = e
	}
	if _, busy := e.depots[depot]; busy {
		t.mu.Unlock()
		return false
	}
	e.depots[depot] = struct{}{}
	t.mu.Unlock()

	t.notify(EventAcquired, app, depot)
	return true
}

// Release removes depot from app's in-flight set and drops the application
// once the set is empty. Releasing an unknown slot does nothing.
func (t *Table) Release(app domain.AppID, depot domain.DepotID) {
	t.mu.Lock()
	e, ok := t.apps[app]
	if !ok {
		t.mu.Unlock()
		return
	}
	if _, held := e.depots[depot]; !held {
		t.mu.Unlock()
		return
	}
	delete(e.depots, depot)
	if len(e.depots) == 0 {
		delete(t.apps, app)
	}
	t.mu.Unlock()

	t.notify(EventReleased, app, depot)
}

// Lock waits for exclusive store-mutation rights on app and returns the
// function that gives them back. The caller must have a depot registered
// under app for the whole time it holds the rights.
func (t *Table) Lock(ctx context.Context, app domain.AppID) (func(), error) {
	t.mu.Lock()
	e, ok := t.apps[app]
	t.mu.Unlock()
	if !ok {
		return nil, ErrNotRegistered
	}

	select {
	case e.mutate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	t.notify(EventLocked, app, 0)

	var once sync.Once
	return func() {
		once.Do(func() {
			t.notify(EventUnlocked, app, 0)
			<-e.mutate
		})
	}, nil
}

// Locked reports whether app is present in the table.
func (t *Table) Locked(app domain.AppID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.apps[app]
	return ok
}

// Owner returns the owner whose registration created app's entry.
func (t *Table) Owner(app domain.AppID) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.apps[app]
	if !ok {
		return "", false
	}
	return e.owner, true
}

// InFlight returns the depots registered under app in ascending order.
func (t *Table) InFlight(app domain.AppID) []domain.DepotID {
	t.mu.Lock()
	e, ok := t.apps[app]
	var out []domain.DepotID
	if ok {
		out = make([]domain.DepotID, 0, len(e.depots))
		for d := range e.depots {
			out = append(out, d)
		}
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of applications in the table.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.apps)
}

func (t *Table) notify(kind EventKind, app domain.AppID, depot domain.DepotID) {
	if t.observer != nil {
		t.observer(kind, app, depot)
	}
}
