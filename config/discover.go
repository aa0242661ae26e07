package config

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "manifestsync.cue"

// Existser reports whether a path exists.
type Existser interface {
	Exists(path string) (bool, error)
}

// Candidates returns the paths searched for a configuration file, in order:
// explicit when set, then FileName and its YAML variant in dir, then the
// user's XDG config home.
func Candidates(explicit, dir string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	return []string{
		filepath.Join(dir, FileName),
		filepath.Join(dir, "manifestsync.yaml"),
		filepath.Join(xdg.ConfigHome, "manifestsync", "config.cue"),
		filepath.Join(xdg.ConfigHome, "manifestsync", "config.yaml"),
	}
}

// Discover returns the first candidate that exists, or "" when none does.
// A missing explicit path is an error.
func Discover(fsys Existser, explicit, dir string) (string, error) {
	for _, p := range Candidates(explicit, dir) {
		ok, err := fsys.Exists(p)
		if err != nil {
			return "", err
		}
		if ok {
			return p, nil
		}
	}
	if explicit != "" {
		return "", errors.Newf(errors.CodeNotFound, "configuration file %s does not exist", explicit)
	}
	return "", nil
}
