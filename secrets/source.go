package secrets

import (
	"context"
	"errors"
	iofs "io/fs"

	"github.com/pjy612/ManifestAutoUpdate-bak/fs"
)

// Source yields the credential list.
type Source interface {
	// Name identifies the source, e.g. "file" or "aws".
	Name() string

	// Accounts returns every account of the credential list.
	Accounts(ctx context.Context) ([]Account, error)
}

// FileSource reads the credential list from a file.
type FileSource struct {
	fs   fs.Filesystem
	path string
}

// NewFileSource returns a source reading path from fsys.
func NewFileSource(fsys fs.Filesystem, path string) *FileSource {
	return &FileSource{fs: fsys, path: path}
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// Accounts implements Source. A missing file is an empty list.
func (s *FileSource) Accounts(ctx context.Context) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return ParseAccounts(data)
}

// StaticSource serves a fixed list.
type StaticSource []Account

// Name implements Source.
func (StaticSource) Name() string { return "static" }

// Accounts implements Source.
func (s StaticSource) Accounts(context.Context) ([]Account, error) {
	return append([]Account(nil), s...), nil
}
