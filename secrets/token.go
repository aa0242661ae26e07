package secrets

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path"
	"strings"

	"github.com/pjy612/ManifestAutoUpdate-bak/fs"
)

// TokenStore keeps per-account login tokens and sentry files in the
// credential location.
type TokenStore struct {
	fs  fs.Filesystem
	dir string
}

// NewTokenStore returns a store rooted at dir inside fsys.
func NewTokenStore(fsys fs.Filesystem, dir string) *TokenStore {
	if dir == "" {
		dir = "."
	}
	return &TokenStore{fs: fsys, dir: dir}
}

// Token returns the saved token of user, or "" when none is saved.
func (s *TokenStore) Token(user string) (string, error) {
	p, err := s.file(user + ".token")
	if err != nil {
		return "", err
	}
	data, err := s.fs.ReadFile(p)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token of %q: %w", user, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveToken stores the token of user. An empty token is ignored.
func (s *TokenStore) SaveToken(user, token string) error {
	if token == "" {
		return nil
	}
	p, err := s.file(user + ".token")
	if err != nil {
		return err
	}
	if err := fs.WriteFileAtomic(s.fs, p, []byte(token), 0o600); err != nil {
		return fmt.Errorf("save token of %q: %w", user, err)
	}
	return nil
}

// Sentry returns the content of the named sentry file; nil when name is
// empty or the file does not exist.
func (s *TokenStore) Sentry(name string) ([]byte, error) {
	if name == "" {
		return nil, nil
	}
	p, err := s.file(name)
	if err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(p)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sentry %q: %w", name, err)
	}
	return data, nil
}

func (s *TokenStore) file(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid credential file name %q", name)
	}
	return path.Join(s.dir, name), nil
}
