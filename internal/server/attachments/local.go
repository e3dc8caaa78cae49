package attachments

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/dmitrijs2005/astroprofile/internal/filex"
)

// LocalStore writes uploads under a directory on disk. The returned path
// keeps the directory as configured, e.g. "uploads/3f2a...".
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if _, err := filex.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, r io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := newName()
	if _, err := filex.WriteNew(s.dir, name, r); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(s.dir, name)), nil
}

func (s *LocalStore) Delete(_ context.Context, p string) error {
	name := path.Base(p)
	if p != filepath.ToSlash(filepath.Join(s.dir, name)) {
		return fmt.Errorf("path %q is outside %s", p, s.dir)
	}
	return filex.Remove(s.dir, name)
}
