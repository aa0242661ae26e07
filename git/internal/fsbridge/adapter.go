// Package fsbridge adapts the module's filesystem abstraction to go-billy so
// go-git can keep its object storage and worktree inside it.
package fsbridge

import (
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/pjy612/ManifestAutoUpdate-bak/fs"
	fsb "github.com/pjy612/ManifestAutoUpdate-bak/fs/billy"
)

// ToBillyFilesystem unwraps fsys. Only filesystems built by fs/billy can
// back a repository.
//
//nolint:ireturn // go-git consumes billy.Filesystem.
func ToBillyFilesystem(fsys fs.Filesystem) (billy.Filesystem, error) {
	billyFS, ok := fsys.(*fsb.FS)
	if !ok {
		return nil, fmt.Errorf("filesystem must be a billy.FS from fs/billy package, got %T", fsys)
	}
	return billyFS.Raw(), nil
}
