package depotstore

import (
	"context"
	iofs "io/fs"
	"path"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

// StagingRoot is the directory holding one staging directory per application.
const StagingRoot = "depots"

// StagingDir returns the staging directory of app.
func StagingDir(app domain.AppID) string {
	return path.Join(StagingRoot, app.String())
}

// StagedPath returns where the manifest of depot at gid is staged.
func StagedPath(app domain.AppID, depot domain.DepotID, gid domain.ManifestGID) string {
	return path.Join(StagingDir(app), domain.ManifestFileName(depot, gid))
}

// Stage writes a fetched manifest into app's staging directory.
func (s *Store) Stage(ctx context.Context, app domain.AppID, depot domain.DepotID, gid domain.ManifestGID, manifest []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.staging.MkdirAll(StagingDir(app), 0o755); err != nil {
		return errors.Wrap(err, errors.CodeStorage, "creating staging directory")
	}
	if err := s.staging.WriteFile(StagedPath(app, depot, gid), manifest, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeStorage, "staging manifest")
	}
	return nil
}

// Discard removes a staged manifest, and app's staging directory once it is
// empty. Missing files are ignored.
func (s *Store) Discard(app domain.AppID, depot domain.DepotID, gid domain.ManifestGID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discardLocked(app, depot, gid)
}

// Staged reports whether a manifest is staged for depot at gid.
func (s *Store) Staged(app domain.AppID, depot domain.DepotID, gid domain.ManifestGID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staging.Exists(StagedPath(app, depot, gid))
}

func (s *Store) discardLocked(app domain.AppID, depot domain.DepotID, gid domain.ManifestGID) error {
	err := s.staging.Remove(StagedPath(app, depot, gid))
	if err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return errors.Wrap(err, errors.CodeStorage, "removing staged manifest")
	}

	dir := StagingDir(app)
	entries, err := s.staging.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return nil //nolint:nilerr // a missing or busy directory stays as is
	}
	if err := s.staging.Remove(dir); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return errors.Wrap(err, errors.CodeStorage, "removing staging directory")
	}
	return nil
}
