// Package fs defines the filesystem abstraction used for the state files,
// the staging worktrees and the git object storage.
//
// Implementations live in subpackages; fs/billy adapts go-billy so the same
// code runs against the OS or an in-memory tree in tests.
package fs

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// File represents an open file handle.
type File interface {
	io.ReadWriteCloser
	Name() string
}

// Filesystem is the set of operations the rest of the module needs.
type Filesystem interface {
	Create(name string) (File, error)
	Exists(path string) (bool, error)
	MkdirAll(path string, perm os.FileMode) error
	Open(name string) (File, error)
	ReadDir(dirname string) ([]os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	WriteFile(filename string, data []byte, perm os.FileMode) error
}

// WriteFileAtomic writes data to a sibling temporary file and renames it over
// filename, so readers observe either the old or the new content.
func WriteFileAtomic(fsys Filesystem, filename string, data []byte, perm os.FileMode) error {
	dir := path.Dir(filepath.ToSlash(filename))
	if dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("prepare %q: %w", dir, err)
		}
	}

	tmp := filename + ".tmp"
	if err := fsys.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write %q: %w", tmp, err)
	}
	if err := fsys.Rename(tmp, filename); err != nil {
		_ = fsys.Remove(tmp)
		return fmt.Errorf("rename %q: %w", tmp, err)
	}
	return nil
}

// GetAbs returns an absolute representation of p.
func GetAbs(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	return abs, nil
}
