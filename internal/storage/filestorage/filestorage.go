// Package filestorage implements the Storage interface with files under a
// destination directory.
package filestorage

import (
	"os"
	"path/filepath"

	"github.com/cenkalti/brook/internal/storage"
)

const fileMode = 0o640

// FileStorage keeps torrent files under a destination directory. Files are
// created at their full length.
type FileStorage struct {
	dest string
}

var _ storage.Storage = (*FileStorage)(nil)

// New returns a FileStorage that keeps files under dest.
func New(dest string) (*FileStorage, error) {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}
	return &FileStorage{dest: dest}, nil
}

// Dest returns the absolute destination directory.
func (s *FileStorage) Dest() string {
	return s.dest
}

// Open opens the file with the given name under the destination directory,
// creating it at the given size if it does not exist. An existing file with
// the wrong size is truncated or extended to size.
func (s *FileStorage) Open(name string, size int64) (storage.File, bool, error) {
	name = filepath.Join(s.dest, filepath.Clean(name))
	err := os.MkdirAll(filepath.Dir(name), os.ModeDir|0o750)
	if err != nil {
		return nil, false, err
	}
	f, err := os.OpenFile(name, os.O_RDWR, fileMode) // nolint: gosec
	if os.IsNotExist(err) {
		f, err = os.OpenFile(name, os.O_RDWR|os.O_CREATE, fileMode) // nolint: gosec
		if err != nil {
			return nil, false, err
		}
		err = f.Truncate(size)
		if err != nil {
			_ = f.Close()
			return nil, false, err
		}
		return f, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, true, err
	}
	if fi.Size() != size {
		err = f.Truncate(size)
		if err != nil {
			_ = f.Close()
			return nil, true, err
		}
	}
	return f, true, nil
}
