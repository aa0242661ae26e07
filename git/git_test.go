package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsb "github.com/pjy612/ManifestAutoUpdate-bak/fs/billy"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "missing fs", opts: Options{}, wantErr: true},
		{name: "negative cache", opts: Options{FS: fsb.NewInMemoryFS(), StorerCacheSize: -1}, wantErr: true},
		{name: "valid", opts: Options{FS: fsb.NewInMemoryFS()}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRef)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitThenOpen(t *testing.T) {
	ctx := context.Background()
	memFS := fsb.NewInMemoryFS()

	_, err := Init(ctx, &Options{FS: memFS, Workdir: "store"})
	require.NoError(t, err)

	repo, err := Open(ctx, &Options{FS: memFS, Workdir: "store"})
	require.NoError(t, err)
	ok, err := repo.BranchExists(ctx, "master")
	require.NoError(t, err)
	assert.False(t, ok, "a fresh repository has no commits")

	_, err = Open(ctx, &Options{FS: fsb.NewInMemoryFS()})
	assert.Error(t, err)
}

func TestRemotes(t *testing.T) {
	tr := setupTestRepo(t)

	_, err := tr.repo.ListRemote(tr.ctx, "origin")
	assert.ErrorIs(t, err, ErrRemoteMissing)

	require.NoError(t, tr.repo.AddRemote(tr.ctx, "origin", "https://example.com/depots.git"))
	assert.Error(t, tr.repo.AddRemote(tr.ctx, "origin", "https://example.com/other.git"))
	assert.ErrorIs(t, tr.repo.AddRemote(tr.ctx, "", "https://example.com/depots.git"), ErrInvalidRef)
}

func TestBranches(t *testing.T) {
	tr := setupTestRepo(t)

	ok, err := tr.repo.BranchExists(tr.ctx, "app")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tr.repo.BranchExists(tr.ctx, "730")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tr.repo.CreateBranch(tr.ctx, "730", "app", false))
	err = tr.repo.CreateBranch(tr.ctx, "730", "app", false)
	assert.ErrorIs(t, err, ErrBranchExists)

	err = tr.repo.CreateBranch(tr.ctx, "731", "does-not-exist", false)
	assert.ErrorIs(t, err, ErrResolveFailed)

	branches, err := tr.repo.Branches(tr.ctx)
	require.NoError(t, err)
	assert.Contains(t, branches, "730")
	assert.Equal(t, branches["app"], branches["730"])

	require.NoError(t, tr.repo.DeleteBranch(tr.ctx, "730"))
	assert.ErrorIs(t, tr.repo.DeleteBranch(tr.ctx, "730"), ErrBranchMissing)

	_, err = tr.repo.BranchHead(tr.ctx, "730")
	assert.ErrorIs(t, err, ErrBranchMissing)
}

func TestTags(t *testing.T) {
	tr := setupTestRepo(t)

	require.NoError(t, tr.repo.CreateTag(tr.ctx, "731_111", "app"))
	require.NoError(t, tr.repo.CreateTag(tr.ctx, "732_222", "app"))
	assert.ErrorIs(t, tr.repo.CreateTag(tr.ctx, "731_111", "app"), ErrTagExists)
	assert.ErrorIs(t, tr.repo.CreateTag(tr.ctx, "", "app"), ErrInvalidRef)

	ok, err := tr.repo.TagExists(tr.ctx, "731_111")
	require.NoError(t, err)
	assert.True(t, ok)

	tags, err := tr.repo.Tags(tr.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"731_111", "732_222"}, tags)

	targets, err := tr.repo.TagTargets(tr.ctx)
	require.NoError(t, err)
	assert.Len(t, targets, 2)
}

func TestCommitFiles(t *testing.T) {
	tr := setupTestRepo(t)
	require.NoError(t, tr.repo.CreateBranch(tr.ctx, "730", "app", false))
	before, err := tr.repo.BranchHead(tr.ctx, "730")
	require.NoError(t, err)

	sha, err := tr.repo.CommitFiles(tr.ctx, "730", map[string][]byte{
		"731_111.manifest": []byte("manifest"),
		"config.vdf":       []byte("keys"),
	}, "Update depot: 731_111", testSig)
	require.NoError(t, err)

	after, err := tr.repo.BranchHead(tr.ctx, "730")
	require.NoError(t, err)
	assert.Equal(t, sha, after)
	assert.NotEqual(t, before, after)

	got, err := tr.repo.ReadFile(tr.ctx, "730", "731_111.manifest")
	require.NoError(t, err)
	assert.Equal(t, "manifest", string(got))

	readme, err := tr.repo.ReadFile(tr.ctx, "730", "README.md")
	require.NoError(t, err)
	assert.Equal(t, "depots\n", string(readme), "parent entries are kept")

	_, err = tr.repo.ReadFile(tr.ctx, "app", "731_111.manifest")
	assert.ErrorIs(t, err, ErrFileMissing, "other branches are untouched")

	msg, err := tr.repo.CommitMessage(tr.ctx, "730")
	require.NoError(t, err)
	assert.Equal(t, "Update depot: 731_111", msg)

	// Replacing a file keeps a single entry.
	_, err = tr.repo.CommitFiles(tr.ctx, "730", map[string][]byte{"config.vdf": []byte("keys2")}, "Update depot: 731_112", testSig)
	require.NoError(t, err)
	got, err = tr.repo.ReadFile(tr.ctx, "730", "config.vdf")
	require.NoError(t, err)
	assert.Equal(t, "keys2", string(got))
}

func TestCommitFilesRejectsBadInput(t *testing.T) {
	tr := setupTestRepo(t)

	_, err := tr.repo.CommitFiles(tr.ctx, "missing", map[string][]byte{"a": nil}, "msg", testSig)
	assert.ErrorIs(t, err, ErrBranchMissing)

	_, err = tr.repo.CommitFiles(tr.ctx, "app", map[string][]byte{"dir/a": nil}, "msg", testSig)
	assert.ErrorIs(t, err, ErrInvalidRef)

	_, err = tr.repo.CommitFiles(tr.ctx, "app", nil, "msg", testSig)
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestMoveBranchDetectsConcurrentChange(t *testing.T) {
	tr := setupTestRepo(t)
	head, err := tr.repo.BranchHead(tr.ctx, "app")
	require.NoError(t, err)

	sha, err := tr.repo.CommitFiles(tr.ctx, "app", map[string][]byte{"a": []byte("1")}, "one", testSig)
	require.NoError(t, err)

	err = tr.repo.MoveBranch(tr.ctx, "app", head, head)
	assert.ErrorIs(t, err, ErrRefChanged)

	require.NoError(t, tr.repo.MoveBranch(tr.ctx, "app", sha, head))
	now, err := tr.repo.BranchHead(tr.ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, head, now)
}

func TestWorktreeCommit(t *testing.T) {
	tr := setupTestRepo(t)

	_, err := tr.repo.Commit(tr.ctx, "nothing", testSig, CommitOpts{})
	assert.ErrorIs(t, err, ErrEmptyCommit)

	require.NoError(t, tr.fs.MkdirAll("client", 0o755))
	require.NoError(t, tr.fs.WriteFile("client/ssfn123", []byte("sentry"), 0o600))
	require.NoError(t, tr.fs.WriteFile("appinfo.json", []byte("{}"), 0o644))
	require.NoError(t, tr.repo.Add(tr.ctx, "appinfo.json", "client/ssfn*", "missing.json"))

	sha, err := tr.repo.Commit(tr.ctx, "update", testSig, CommitOpts{})
	require.NoError(t, err)
	assert.Len(t, sha, 40)

	got, err := tr.repo.ReadFile(tr.ctx, sha, "client/ssfn123")
	require.NoError(t, err)
	assert.Equal(t, "sentry", string(got))
}
