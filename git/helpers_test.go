package git

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fsb "github.com/pjy612/ManifestAutoUpdate-bak/fs/billy"
)

var testSig = Signature{Name: "tester", Email: "tester@example.com", When: time.Unix(1700000000, 0)}

// testRepo bundles a repository with its in-memory filesystem.
type testRepo struct {
	repo *Repo
	fs   *fsb.FS
	ctx  context.Context
}

// setupTestRepo creates a non-bare repository with one commit on "app".
func setupTestRepo(t *testing.T) *testRepo {
	t.Helper()

	ctx := context.Background()
	memFS := fsb.NewInMemoryFS()

	repo, err := Init(ctx, &Options{FS: memFS})
	require.NoError(t, err)

	require.NoError(t, memFS.WriteFile("README.md", []byte("depots\n"), 0o644))
	require.NoError(t, repo.Add(ctx, "README.md"))
	_, err = repo.Commit(ctx, "baseline", testSig, CommitOpts{})
	require.NoError(t, err)

	head, err := repo.repo.Head()
	require.NoError(t, err)
	require.NoError(t, repo.CreateBranch(ctx, "app", head.Hash().String(), false))

	return &testRepo{repo: repo, fs: memFS, ctx: ctx}
}
