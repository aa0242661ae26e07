package depotstore

import (
	"context"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/git"
)

// Capture commits the staged manifest of depot at gid onto app's namespace,
// merging key into the namespace's key file, and tags the commit
// "<depot>_<gid>". If tagging fails the branch is moved back to its previous
// head. The staged file is removed on success. The caller must hold app's
// lock and have called EnsureNamespace.
func (s *Store) Capture(ctx context.Context, app domain.AppID, depot domain.DepotID, gid domain.ManifestGID, key []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := map[string]interface{}{"app": app.String(), "depot": depot.String(), "manifest": string(gid)}
	branch := app.String()
	tag := domain.TagName(depot, gid)

	manifest, err := s.staging.ReadFile(StagedPath(app, depot, gid))
	if err != nil {
		return "", errors.WrapWithContext(err, errors.CodeStorage, "reading staged manifest", fields)
	}
	head, err := s.repo.BranchHead(ctx, branch)
	if err != nil {
		return "", errors.WrapWithContext(err, errors.CodeStoreMutation, "reading namespace head", fields)
	}

	files := map[string][]byte{domain.ManifestFileName(depot, gid): manifest}
	if len(key) > 0 {
		existing, err := s.repo.ReadFile(ctx, head, KeyFileName)
		if err != nil && !errors.Is(err, git.ErrFileMissing) {
			return "", errors.WrapWithContext(err, errors.CodeStoreMutation, "reading key file", fields)
		}
		merged, err := MergeKey(existing, depot, key)
		if err != nil {
			return "", errors.WrapWithContext(err, errors.CodeStoreMutation, "merging key file", fields)
		}
		files[KeyFileName] = merged
	}

	sig := s.sig
	if sig.When.IsZero() {
		sig.When = s.now()
	}
	commit, err := s.repo.CommitFiles(ctx, branch, files, domain.CommitMessage(depot, gid), sig)
	if err != nil {
		return "", errors.WrapWithContext(err, errors.CodeStoreMutation, "committing manifest", fields)
	}

	if err := s.repo.CreateTag(ctx, tag, commit); err != nil {
		if rerr := s.repo.MoveBranch(ctx, branch, commit, head); rerr != nil {
			s.logger.ErrorContext(ctx, "cannot reset namespace after failed tag",
				"app", branch, "head", head, "error", rerr)
		}
		return "", errors.WrapWithContext(err, errors.CodeStoreMutation, "tagging capture", fields)
	}

	if err := s.discardLocked(app, depot, gid); err != nil {
		s.logger.WarnContext(ctx, "staged manifest left behind", "app", branch, "depot", depot.String(), "error", err)
	}
	return commit, nil
}
