package depotstore

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs"
	"github.com/pjy612/ManifestAutoUpdate-bak/git"
)

// DefaultBaseline is the branch new namespaces fork from.
const DefaultBaseline = "app"

// DefaultSignature is the identity used for capture commits.
var DefaultSignature = git.Signature{Name: "manifestsync", Email: "manifestsync@localhost"}

// Refs is a snapshot of namespace heads and tags.
type Refs struct {
	// Heads maps branch names to commit hashes.
	Heads map[string]string
	// Tags maps tag names to the hash of the tag reference.
	Tags map[string]string
}

// Options configures a Store.
type Options struct {
	// Repo is the REQUIRED artifact repository.
	Repo *git.Repo

	// Staging is the REQUIRED filesystem fetched manifests are staged in
	// before they are committed.
	Staging fs.Filesystem

	// Remote defaults to "origin".
	Remote string

	// Baseline defaults to DefaultBaseline.
	Baseline string

	// Signature defaults to DefaultSignature; a zero When means commit time.
	Signature git.Signature

	// Pusher publishes refs; defaults to pushing through Repo.
	Pusher Pusher

	Logger *slog.Logger
}

// Store is the artifact store. The zero value is not usable; call Open.
type Store struct {
	mu      sync.Mutex
	repo    *git.Repo
	staging fs.Filesystem
	remote  string
	base    string
	sig     git.Signature
	pusher  Pusher
	logger  *slog.Logger
	now     func() time.Time

	remoteOnce sync.Once
	remoteRefs Refs
	remoteErr  error
}

// Open prepares the store. When the baseline branch is missing locally it
// is fetched from the remote; failing to obtain it is fatal.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Repo == nil || opts.Staging == nil {
		return nil, errors.New(errors.CodeInvalidConfig, "depotstore: Repo and Staging are required")
	}
	s := &Store{
		repo:    opts.Repo,
		staging: opts.Staging,
		remote:  opts.Remote,
		base:    opts.Baseline,
		sig:     opts.Signature,
		pusher:  opts.Pusher,
		logger:  opts.Logger,
		now:     time.Now,
	}
	if s.remote == "" {
		s.remote = git.DefaultRemoteName
	}
	if s.base == "" {
		s.base = DefaultBaseline
	}
	if s.sig.Name == "" {
		s.sig.Name, s.sig.Email = DefaultSignature.Name, DefaultSignature.Email
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.pusher == nil {
		s.pusher = &GoGitPusher{Repo: s.repo, Remote: s.remote}
	}

	ok, err := s.repo.BranchExists(ctx, s.base)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorage, "reading baseline branch")
	}
	if ok {
		return s, nil
	}

	s.logger.InfoContext(ctx, "fetching baseline branch", "branch", s.base, "remote", s.remote)
	err = s.repo.FetchRefSpecs(ctx, s.remote, git.BranchRefSpec(s.base, git.BranchRef(s.base)))
	if err != nil && !errors.Is(err, git.ErrAlreadyUpToDate) {
		return nil, errors.WrapWithContext(err, errors.CodeStorage, "fetching baseline branch",
			map[string]interface{}{"branch": s.base})
	}
	if ok, err = s.repo.BranchExists(ctx, s.base); err != nil || !ok {
		return nil, errors.Newf(errors.CodeStorage, "baseline branch %q is missing on %s", s.base, s.remote)
	}
	return s, nil
}

// Baseline returns the baseline branch name.
func (s *Store) Baseline() string { return s.base }

// RemoteRefs returns the remote listing taken on first use. The listing is
// kept for the lifetime of the store.
func (s *Store) RemoteRefs(ctx context.Context) (Refs, error) {
	s.remoteOnce.Do(func() {
		s.remoteRefs, s.remoteErr = s.ListRemote(ctx)
	})
	return s.remoteRefs, s.remoteErr
}

// ListRemote lists the remote's heads and tags.
func (s *Store) ListRemote(ctx context.Context) (Refs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs, err := s.repo.ListRemote(ctx, s.remote)
	if err != nil {
		return Refs{}, errors.Wrap(err, errors.CodeNetwork, "listing remote refs")
	}
	return Refs{Heads: refs.Heads, Tags: refs.Tags}, nil
}

// RemoteTags returns the tag names of the cached remote listing.
func (s *Store) RemoteTags(ctx context.Context) ([]string, error) {
	refs, err := s.RemoteRefs(ctx)
	if err != nil {
		return nil, err
	}
	return sortedKeys(refs.Tags, nil), nil
}

// RemoteNamespaces returns the decimal branch names of the cached remote listing.
func (s *Store) RemoteNamespaces(ctx context.Context) ([]string, error) {
	refs, err := s.RemoteRefs(ctx)
	if err != nil {
		return nil, err
	}
	return sortedKeys(refs.Heads, IsNamespace), nil
}

// LocalTags returns the local tag names.
func (s *Store) LocalTags(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags, err := s.repo.Tags(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorage, "listing local tags")
	}
	return tags, nil
}

// LocalRefs returns the local namespaces and tags.
func (s *Store) LocalRefs(ctx context.Context) (Refs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	branches, err := s.repo.Branches(ctx)
	if err != nil {
		return Refs{}, errors.Wrap(err, errors.CodeStorage, "listing local branches")
	}
	tags, err := s.repo.TagTargets(ctx)
	if err != nil {
		return Refs{}, errors.Wrap(err, errors.CodeStorage, "listing local tags")
	}
	heads := make(map[string]string, len(branches))
	for name, hash := range branches {
		if IsNamespace(name) {
			heads[name] = hash
		}
	}
	return Refs{Heads: heads, Tags: tags}, nil
}

// TagExists reports whether the capture tag of depot at gid exists locally.
func (s *Store) TagExists(ctx context.Context, depot domain.DepotID, gid domain.ManifestGID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.repo.TagExists(ctx, domain.TagName(depot, gid))
	if err != nil {
		return false, errors.Wrap(err, errors.CodeStorage, "reading tag")
	}
	return ok, nil
}

// NamespaceExistsLocal reports whether app has a local branch.
func (s *Store) NamespaceExistsLocal(ctx context.Context, app domain.AppID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.BranchExists(ctx, app.String())
}

// NamespaceExistsRemote reports whether the cached remote listing has a
// branch for app.
func (s *Store) NamespaceExistsRemote(ctx context.Context, app domain.AppID) (bool, error) {
	refs, err := s.RemoteRefs(ctx)
	if err != nil {
		return false, err
	}
	_, ok := refs.Heads[app.String()]
	return ok, nil
}

// EnsureNamespace makes sure app has a local branch. An existing local
// branch is used as is; otherwise the branch is created from the remote
// namespace when the remote has one, else from the baseline. created reports
// whether this call created the branch. The caller must hold app's lock.
func (s *Store) EnsureNamespace(ctx context.Context, app domain.AppID) (created bool, err error) {
	onRemote, err := s.NamespaceExistsRemote(ctx, app)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := app.String()
	ok, err := s.repo.BranchExists(ctx, name)
	if err != nil {
		return false, errors.Wrap(err, errors.CodeStoreMutation, "reading namespace")
	}
	if ok {
		return false, nil
	}

	start := git.BranchRef(s.base)
	if onRemote {
		tracking := git.RemoteTrackingRef(s.remote, name)
		err := s.repo.FetchRefSpecs(ctx, s.remote, git.BranchRefSpec(name, tracking))
		if err != nil && !errors.Is(err, git.ErrAlreadyUpToDate) {
			return false, errors.WrapWithContext(err, errors.CodeNetwork, "fetching remote namespace",
				map[string]interface{}{"app": name})
		}
		start = tracking
	}
	if err := s.repo.CreateBranch(ctx, name, start, false); err != nil {
		return false, errors.WrapWithContext(err, errors.CodeStoreMutation, "creating namespace",
			map[string]interface{}{"app": name, "from": start})
	}
	s.logger.DebugContext(ctx, "namespace created", "app", name, "from", start)
	return true, nil
}

// DeleteNamespace removes app's local branch. A missing branch is not an error.
func (s *Store) DeleteNamespace(ctx context.Context, app domain.AppID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.repo.DeleteBranch(ctx, app.String())
	if err != nil && !errors.Is(err, git.ErrBranchMissing) {
		return errors.Wrap(err, errors.CodeStoreMutation, "deleting namespace")
	}
	return nil
}

// IsNamespace reports whether a branch name is an application namespace.
func IsNamespace(name string) bool {
	if name == "" {
		return false
	}
	_, err := strconv.ParseUint(name, 10, 32)
	return err == nil
}

func sortedKeys(m map[string]string, keep func(string) bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if keep == nil || keep(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
