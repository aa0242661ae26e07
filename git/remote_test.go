package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjy612/ManifestAutoUpdate-bak/git"
	"github.com/pjy612/ManifestAutoUpdate-bak/internal/gittest"
)

func TestListFetchPush(t *testing.T) {
	ctx := context.Background()
	remote := gittest.NewRemote(t)
	base := remote.Seed(t, "app", map[string]string{"README.md": "depots"})
	ns := remote.Seed(t, "730", map[string]string{"731_1.manifest": "m"})
	remote.Tag(t, "731_1", ns)

	repo, _ := gittest.NewLocal(t, remote)

	refs, err := repo.ListRemote(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, base.String(), refs.Heads["app"])
	assert.Equal(t, ns.String(), refs.Heads["730"])
	assert.Equal(t, map[string]string{"731_1": ns.String()}, refs.Tags)

	err = repo.FetchRefSpecs(ctx, "", git.BranchRefSpec("app", git.BranchRef("app")))
	require.NoError(t, err)
	head, err := repo.BranchHead(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, base.String(), head)

	err = repo.FetchRefSpecs(ctx, "", git.BranchRefSpec("730", git.RemoteTrackingRef("origin", "730")))
	require.NoError(t, err)
	got, err := repo.ReadFile(ctx, git.RemoteTrackingRef("origin", "730"), "731_1.manifest")
	require.NoError(t, err)
	assert.Equal(t, "m", string(got))

	require.NoError(t, repo.CreateBranch(ctx, "740", "app", false))
	sha, err := repo.CommitFiles(ctx, "740", map[string][]byte{"741_9.manifest": []byte("x")}, "Update depot: 741_9", git.Signature{Name: "bot", Email: "bot@example.com"})
	require.NoError(t, err)
	require.NoError(t, repo.CreateTag(ctx, "741_9", sha))

	ref := git.BranchRef("740")
	require.NoError(t, repo.Push(ctx, "", false, ref+":"+ref))
	tag := git.TagRef("741_9")
	require.NoError(t, repo.Push(ctx, "", false, tag+":"+tag))

	assert.Equal(t, sha, remote.Head(t, "740").String())
	assert.True(t, remote.HasTag(t, "741_9"))

	err = repo.Push(ctx, "", false, ref+":"+ref)
	assert.ErrorIs(t, err, git.ErrAlreadyUpToDate)
}

func TestListRemoteEmpty(t *testing.T) {
	remote := gittest.NewRemote(t)
	repo, _ := gittest.NewLocal(t, remote)

	refs, err := repo.ListRemote(context.Background(), "origin")
	require.NoError(t, err)
	assert.Empty(t, refs.Heads)
	assert.Empty(t, refs.Tags)
}

func TestMissingRemote(t *testing.T) {
	repo, _ := gittest.NewLocal(t, nil)

	_, err := repo.ListRemote(context.Background(), "origin")
	assert.ErrorIs(t, err, git.ErrRemoteMissing)
	assert.ErrorIs(t, repo.FetchRefSpecs(context.Background(), "origin", "+refs/heads/app:refs/heads/app"), git.ErrRemoteMissing)
}
