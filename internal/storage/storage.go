// Package storage contains an interface for accessing the files of a
// torrent on disk.
package storage

import "io"

// Storage opens the files of a single torrent.
type Storage interface {
	// Open returns the file with the given relative name, creating it at
	// the given size if it does not exist. exists reports whether the
	// file was already there.
	Open(name string, size int64) (f File, exists bool, err error)
}

// File is an open torrent file.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}
