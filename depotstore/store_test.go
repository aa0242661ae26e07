package depotstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/executor"
	fsb "github.com/pjy612/ManifestAutoUpdate-bak/fs/billy"
	"github.com/pjy612/ManifestAutoUpdate-bak/git"
	"github.com/pjy612/ManifestAutoUpdate-bak/internal/gittest"
)

var testSig = git.Signature{Name: "tester", Email: "tester@example.com", When: time.Unix(1700000000, 0)}

type fixture struct {
	ctx     context.Context
	remote  *gittest.Remote
	repo    *git.Repo
	staging *fsb.FS
	store   *Store
}

// newFixture seeds a remote with the baseline plus the given extra
// namespaces and opens a store over an empty local clone of it.
func newFixture(t *testing.T, remoteNamespaces ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	remote := gittest.NewRemote(t)
	remote.Seed(t, DefaultBaseline, map[string]string{"README.md": "baseline\n"})
	for _, ns := range remoteNamespaces {
		remote.Seed(t, ns, map[string]string{ns + ".txt": "remote\n"})
	}

	repo, _ := gittest.NewLocal(t, remote)
	staging := fsb.NewInMemoryFS()
	store, err := Open(ctx, Options{Repo: repo, Staging: staging, Signature: testSig})
	require.NoError(t, err)

	return &fixture{ctx: ctx, remote: remote, repo: repo, staging: staging, store: store}
}

func (f *fixture) capture(t *testing.T, app domain.AppID, depot domain.DepotID, gid domain.ManifestGID, key []byte) string {
	t.Helper()
	require.NoError(t, f.store.Stage(f.ctx, app, depot, gid, []byte("manifest "+string(gid))))
	_, err := f.store.EnsureNamespace(f.ctx, app)
	require.NoError(t, err)
	commit, err := f.store.Capture(f.ctx, app, depot, gid, key)
	require.NoError(t, err)
	return commit
}

func TestOpen(t *testing.T) {
	t.Run("fetches missing baseline", func(t *testing.T) {
		f := newFixture(t)
		head, err := f.repo.BranchHead(f.ctx, DefaultBaseline)
		require.NoError(t, err)
		assert.Equal(t, f.remote.Head(t, DefaultBaseline).String(), head)
	})

	t.Run("remote without baseline is fatal", func(t *testing.T) {
		remote := gittest.NewRemote(t)
		repo, _ := gittest.NewLocal(t, remote)
		_, err := Open(context.Background(), Options{Repo: repo, Staging: fsb.NewInMemoryFS()})
		require.Error(t, err)
		assert.Equal(t, errors.CodeStorage, errors.CodeOf(err))
	})

	t.Run("requires repo and staging", func(t *testing.T) {
		_, err := Open(context.Background(), Options{})
		assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
	})
}

func TestEnsureNamespace(t *testing.T) {
	tests := []struct {
		name     string
		remote   []string
		setup    func(*testing.T, *fixture)
		app      domain.AppID
		wantNew  bool
		validate func(*testing.T, *fixture)
	}{
		{
			name:    "forks from baseline",
			app:     730,
			wantNew: true,
			validate: func(t *testing.T, f *fixture) {
				head, err := f.repo.BranchHead(f.ctx, "730")
				require.NoError(t, err)
				assert.Equal(t, f.remote.Head(t, DefaultBaseline).String(), head)
			},
		},
		{
			name:    "forks from remote namespace",
			remote:  []string{"730"},
			app:     730,
			wantNew: true,
			validate: func(t *testing.T, f *fixture) {
				head, err := f.repo.BranchHead(f.ctx, "730")
				require.NoError(t, err)
				assert.Equal(t, f.remote.Head(t, "730").String(), head)

				data, err := f.repo.ReadFile(f.ctx, head, "730.txt")
				require.NoError(t, err)
				assert.Equal(t, "remote\n", string(data))
			},
		},
		{
			name: "existing local namespace is kept",
			setup: func(t *testing.T, f *fixture) {
				f.capture(t, 440, 441, "1", nil)
			},
			app:     440,
			wantNew: false,
			validate: func(t *testing.T, f *fixture) {
				ok, err := f.store.TagExists(f.ctx, 441, "1")
				require.NoError(t, err)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.remote...)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			created, err := f.store.EnsureNamespace(f.ctx, tt.app)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNew, created)

			local, err := f.store.NamespaceExistsLocal(f.ctx, tt.app)
			require.NoError(t, err)
			assert.True(t, local)

			again, err := f.store.EnsureNamespace(f.ctx, tt.app)
			require.NoError(t, err)
			assert.False(t, again, "second call is a no-op")

			tt.validate(t, f)
		})
	}
}

func TestCapture(t *testing.T) {
	f := newFixture(t)

	commit := f.capture(t, 730, 731, "5011", []byte{0xab, 0xcd})

	ok, err := f.store.TagExists(f.ctx, 731, "5011")
	require.NoError(t, err)
	assert.True(t, ok)

	msg, err := f.repo.CommitMessage(f.ctx, commit)
	require.NoError(t, err)
	assert.Equal(t, "Update depot: 731_5011", msg)

	manifest, err := f.repo.ReadFile(f.ctx, commit, "731_5011.manifest")
	require.NoError(t, err)
	assert.Equal(t, "manifest 5011", string(manifest))

	staged, err := f.store.Staged(730, 731, "5011")
	require.NoError(t, err)
	assert.False(t, staged)
	dirExists, err := f.staging.Exists(StagingDir(730))
	require.NoError(t, err)
	assert.False(t, dirExists, "empty staging directory is removed")

	// A second depot of the same app merges its key into config.vdf.
	second := f.capture(t, 730, 732, "6022", []byte{0x01})
	raw, err := f.repo.ReadFile(f.ctx, second, KeyFileName)
	require.NoError(t, err)
	keys, err := ParseKeyFile(raw)
	require.NoError(t, err)
	assert.Equal(t, DepotKeys{"731": "abcd", "732": "01"}, keys)

	// Both manifests are in the namespace tree.
	_, err = f.repo.ReadFile(f.ctx, second, "731_5011.manifest")
	require.NoError(t, err)

	// Captures without a key leave config.vdf untouched.
	third := f.capture(t, 730, 733, "7033", nil)
	raw3, err := f.repo.ReadFile(f.ctx, third, KeyFileName)
	require.NoError(t, err)
	assert.Equal(t, raw, raw3)
}

func TestCaptureTagConflictResetsBranch(t *testing.T) {
	f := newFixture(t)
	const app, depot, gid = domain.AppID(730), domain.DepotID(731), domain.ManifestGID("9")

	require.NoError(t, f.store.Stage(f.ctx, app, depot, gid, []byte("m")))
	_, err := f.store.EnsureNamespace(f.ctx, app)
	require.NoError(t, err)
	before, err := f.repo.BranchHead(f.ctx, "730")
	require.NoError(t, err)
	require.NoError(t, f.repo.CreateTag(f.ctx, domain.TagName(depot, gid), before))

	_, err = f.store.Capture(f.ctx, app, depot, gid, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeStoreMutation, errors.CodeOf(err))
	assert.ErrorIs(t, err, git.ErrTagExists)

	after, err := f.repo.BranchHead(f.ctx, "730")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	staged, err := f.store.Staged(app, depot, gid)
	require.NoError(t, err)
	assert.True(t, staged, "staged file is left for the caller to discard")
	require.NoError(t, f.store.Discard(app, depot, gid))
	require.NoError(t, f.store.Discard(app, depot, gid), "discard is idempotent")
}

func TestCaptureErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Capture(f.ctx, 730, 731, "1", nil)
	assert.Equal(t, errors.CodeStorage, errors.CodeOf(err), "nothing staged")

	require.NoError(t, f.store.Stage(f.ctx, 730, 731, "1", []byte("m")))
	_, err = f.store.Capture(f.ctx, 730, 731, "1", nil)
	assert.Equal(t, errors.CodeStoreMutation, errors.CodeOf(err), "no namespace")

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	assert.Error(t, f.store.Stage(ctx, 730, 732, "1", []byte("m")))
}

func TestDeleteNamespace(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.EnsureNamespace(f.ctx, 730)
	require.NoError(t, err)

	require.NoError(t, f.store.DeleteNamespace(f.ctx, 730))
	ok, err := f.store.NamespaceExistsLocal(f.ctx, 730)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.store.DeleteNamespace(f.ctx, 730))
}

func TestRefs(t *testing.T) {
	f := newFixture(t, "440")
	base := f.remote.Head(t, DefaultBaseline)
	f.remote.Tag(t, "441_1", f.remote.Head(t, "440"))

	tags, err := f.store.RemoteTags(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"441_1"}, tags)

	namespaces, err := f.store.RemoteNamespaces(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"440"}, namespaces)

	onRemote, err := f.store.NamespaceExistsRemote(f.ctx, 440)
	require.NoError(t, err)
	assert.True(t, onRemote)

	// The cached listing does not see later remote changes; a fresh one does.
	f.remote.Tag(t, "441_2", base)
	tags, err = f.store.RemoteTags(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"441_1"}, tags)
	fresh, err := f.store.ListRemote(f.ctx)
	require.NoError(t, err)
	assert.Contains(t, fresh.Tags, "441_2")

	commit := f.capture(t, 730, 731, "1", nil)
	local, err := f.store.LocalRefs(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"730": commit}, local.Heads, "baseline is not a namespace")
	assert.Equal(t, map[string]string{"731_1": commit}, local.Tags)

	localTags, err := f.store.LocalTags(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"731_1"}, localTags)
}

func TestGoGitPush(t *testing.T) {
	f := newFixture(t)
	commit := f.capture(t, 730, 731, "1", nil)

	require.NoError(t, f.store.Push(f.ctx, git.BranchRef("730")))
	require.NoError(t, f.store.Push(f.ctx, git.TagRef("731_1")))
	require.NoError(t, f.store.Push(f.ctx, git.TagRef("731_1")), "up to date is success")

	assert.Equal(t, commit, f.remote.Head(t, "730").String())
	assert.True(t, f.remote.HasTag(t, "731_1"))
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	options []executor.Options
	err     error
}

func (r *fakeRunner) Run(_ context.Context, args []string, opts ...executor.Option) (*executor.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var o executor.Options
	for _, opt := range opts {
		opt(&o)
	}
	r.calls = append(r.calls, args)
	r.options = append(r.options, o)
	if r.err != nil {
		return &executor.Result{Stderr: "rejected", ExitCode: 1}, r.err
	}
	return &executor.Result{}, nil
}

func TestCLIPusher(t *testing.T) {
	runner := &fakeRunner{}
	p := &CLIPusher{Runner: runner, Dir: "/repo", Remote: "origin"}

	require.NoError(t, p.Push(context.Background(), "refs/tags/731_1"))
	assert.Equal(t, [][]string{{"push", "origin", "refs/tags/731_1:refs/tags/731_1"}}, runner.calls)
	assert.Equal(t, "/repo", runner.options[0].WorkingDir)
	assert.Equal(t, map[string]string{"GIT_TERMINAL_PROMPT": "0"}, runner.options[0].Env)

	runner.err = stderrors.New("exit status 1")
	err := p.Push(context.Background(), "refs/heads/730")
	require.Error(t, err)
	assert.Equal(t, errors.CodePushFailed, errors.CodeOf(err))
}

func TestConcurrentCaptures(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(app domain.AppID) {
			defer wg.Done()
			for d := 1; d <= 3; d++ {
				depot := domain.DepotID(uint32(app)*10 + uint32(d))
				gid := domain.ManifestGID(fmt.Sprint(d))
				if !assert.NoError(t, f.store.Stage(f.ctx, app, depot, gid, []byte("m"))) {
					return
				}
				if _, err := f.store.EnsureNamespace(f.ctx, app); !assert.NoError(t, err) {
					return
				}
				_, err := f.store.Capture(f.ctx, app, depot, gid, []byte{byte(d)})
				assert.NoError(t, err)
			}
		}(domain.AppID(100 + i))
	}
	wg.Wait()

	tags, err := f.store.LocalTags(f.ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 24)
}
