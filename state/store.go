package state

import (
	"context"
	"encoding/json"
	stderrors "errors"
	iofs "io/fs"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs"
)

// File names inside the state directory.
const (
	DepotIndexFile  = "appinfo.json"
	AccountBookFile = "userinfo.json"
	CredentialsFile = "users.json"
)

// DefaultFlushInterval is how often a Flusher writes the maps during a run.
const DefaultFlushInterval = time.Second

// Store loads and persists the depot index and the account book.
type Store struct {
	fs       fs.Filesystem
	dir      string
	depots   *DepotIndex
	accounts *AccountBook

	flushMu  sync.Mutex
	logger   *slog.Logger
	observer func(time.Duration, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDir places the files under dir inside the filesystem.
func WithDir(dir string) Option {
	return func(s *Store) { s.dir = dir }
}

// WithFlushObserver reports the duration and result of every flush.
func WithFlushObserver(fn func(time.Duration, error)) Option {
	return func(s *Store) { s.observer = fn }
}

// Open loads both maps. Missing files yield empty maps; unreadable or
// malformed files are a CodeStorage error.
func Open(fsys fs.Filesystem, opts ...Option) (*Store, error) {
	s := &Store{
		fs:     fsys,
		dir:    ".",
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	var depots map[domain.DepotID]domain.ManifestGID
	if err := s.load(DepotIndexFile, &depots); err != nil {
		return nil, err
	}
	var accounts map[string]*AccountRecord
	if err := s.load(AccountBookFile, &accounts); err != nil {
		return nil, err
	}
	for user, r := range accounts {
		if r == nil {
			accounts[user] = &AccountRecord{Enabled: true}
		}
	}

	s.depots = newDepotIndex(depots)
	s.accounts = newAccountBook(accounts)
	s.logger.Debug("state loaded", "depots", len(depots), "accounts", len(accounts))
	return s, nil
}

// Depots returns the depot index.
func (s *Store) Depots() *DepotIndex { return s.depots }

// Accounts returns the account book.
func (s *Store) Accounts() *AccountBook { return s.accounts }

// Path returns the path of a state file.
func (s *Store) Path(name string) string { return path.Join(s.dir, name) }

// Flush writes both maps. Each file is replaced atomically.
func (s *Store) Flush() error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	start := time.Now()
	err := errors.Join(
		s.write(DepotIndexFile, s.depots.Snapshot()),
		s.write(AccountBookFile, s.accounts.Snapshot()),
	)
	if s.observer != nil {
		s.observer(time.Since(start), err)
	}
	return err
}

func (s *Store) load(name string, v any) error {
	data, err := s.fs.ReadFile(s.Path(name))
	if err != nil {
		if stderrors.Is(err, iofs.ErrNotExist) {
			return nil
		}
		return errors.WrapWithContext(err, errors.CodeStorage, "failed to read state file",
			map[string]interface{}{"file": name})
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.WrapWithContext(err, errors.CodeStorage, "malformed state file",
			map[string]interface{}{"file": name})
	}
	return nil
}

func (s *Store) write(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeStorage, "failed to encode state file",
			map[string]interface{}{"file": name})
	}
	if err := fs.WriteFileAtomic(s.fs, s.Path(name), data, 0o644); err != nil {
		return errors.WrapWithContext(err, errors.CodeStorage, "failed to write state file",
			map[string]interface{}{"file": name})
	}
	return nil
}

// Flusher flushes a Store on an interval until stopped.
type Flusher struct {
	store  *Store
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

// StartFlusher flushes s every interval until ctx ends or Stop is called.
// A zero interval means DefaultFlushInterval.
func (s *Store) StartFlusher(ctx context.Context, interval time.Duration) *Flusher {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	f := &Flusher{store: s, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(f.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Flush(); err != nil {
					s.logger.Error("periodic state flush failed", "error", err)
				}
			}
		}
	}()
	return f
}

// Stop ends the periodic flushes and performs the final flush. It is safe
// to call more than once; later calls return the first result.
func (f *Flusher) Stop() error {
	f.once.Do(func() {
		f.cancel()
		<-f.done
		f.err = f.store.Flush()
	})
	return f.err
}
