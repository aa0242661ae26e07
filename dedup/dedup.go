// Package dedup answers whether a depot manifest was already captured.
//
// The index is the union of a snapshot of the remote tag list, taken once
// per run, and the tags created locally during the run. Remote tags only
// grow while a run is in progress, so the snapshot is never refreshed.
package dedup

import (
	"context"
	"fmt"
	"sync"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
)

// Lister returns tag names.
type Lister func(ctx context.Context) ([]string, error)

// Index is the dedup index. It is safe for concurrent use.
type Index struct {
	mu     sync.Mutex
	tags   map[string]struct{}
	loaded bool

	remote Lister
	local  Lister
}

// New returns an index fed by the remote and local tag listers. Either
// lister may be nil.
func New(remote, local Lister) *Index {
	return &Index{
		tags:   make(map[string]struct{}),
		remote: remote,
		local:  local,
	}
}

// Load takes the remote snapshot and merges the current local tags. Only the
// first successful call does any work.
func (i *Index) Load(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.loaded {
		return nil
	}

	var names []string
	for _, l := range []struct {
		what string
		fn   Lister
	}{{"remote", i.remote}, {"local", i.local}} {
		if l.fn == nil {
			continue
		}
		got, err := l.fn(ctx)
		if err != nil {
			return fmt.Errorf("listing %s tags: %w", l.what, err)
		}
		names = append(names, got...)
	}

	for _, n := range names {
		i.tags[n] = struct{}{}
	}
	i.loaded = true
	return nil
}

// Exists reports whether depot at gid is captured.
func (i *Index) Exists(depot domain.DepotID, gid domain.ManifestGID) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.tags[domain.TagName(depot, gid)]
	return ok
}

// Record marks depot at gid as captured.
func (i *Index) Record(depot domain.DepotID, gid domain.ManifestGID) {
	i.mu.Lock()
	i.tags[domain.TagName(depot, gid)] = struct{}{}
	i.mu.Unlock()
}

// Len returns the number of known tags.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.tags)
}
