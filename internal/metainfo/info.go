package metainfo

import (
	"crypto/sha1" // nolint: gosec
	"crypto/sha256"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeebo/bencode"
)

var errInvalidPieceData = errors.New("invalid piece data")

// Info is the parsed info dictionary of a torrent. The raw bencoded bytes
// are kept in Bytes so the dictionary can be written back bit-identical and
// hashed consistently.
type Info struct {
	PieceLength uint32             `bencode:"piece length"`
	Pieces      []byte             `bencode:"pieces"`
	Private     bencode.RawMessage `bencode:"private"`
	Name        string             `bencode:"name"`
	Length      int64              `bencode:"length"`
	Files       []FileDict         `bencode:"files"`
	MetaVersion int64              `bencode:"meta version"`

	// Calculated fields
	Hash        [20]byte `bencode:"-"`
	HashV2      [32]byte `bencode:"-"`
	TotalLength int64    `bencode:"-"`
	NumPieces   uint32   `bencode:"-"`
	Bytes       []byte   `bencode:"-"`
	private     bool
}

// FileDict is one file entry of a multi-file torrent.
type FileDict struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
	Attr   string   `bencode:"attr"`
}

// IsPad reports whether the file is alignment padding.
func (f *FileDict) IsPad() bool {
	return strings.ContainsRune(f.Attr, 'p')
}

// NewInfo parses the bencoded info dictionary in b.
func NewInfo(b []byte) (*Info, error) {
	var i Info
	if err := bencode.DecodeBytes(b, &i); err != nil {
		return nil, err
	}
	hasHashTrees := i.MetaVersion == 2
	if uint32(len(i.Pieces))%sha1.Size != 0 {
		return nil, errInvalidPieceData
	}
	if len(i.Private) > 0 {
		var intVal int64
		var stringVal string
		err := bencode.DecodeBytes(i.Private, &intVal)
		if err != nil {
			err = bencode.DecodeBytes(i.Private, &stringVal)
			if err == nil {
				i.private = stringVal == "1"
			}
		} else {
			i.private = intVal == 1
		}
	}
	// ".." is not allowed in file names
	for _, file := range i.Files {
		for _, path := range file.Path {
			if strings.TrimSpace(path) == ".." {
				return nil, fmt.Errorf("invalid file name: %q", filepath.Join(file.Path...))
			}
		}
	}
	i.NumPieces = uint32(len(i.Pieces)) / sha1.Size
	if !i.MultiFile() {
		i.TotalLength = i.Length
	} else {
		for _, f := range i.Files {
			i.TotalLength += f.Length
		}
	}
	if !hasHashTrees {
		if i.NumPieces == 0 && i.TotalLength > 0 {
			return nil, errInvalidPieceData
		}
		if i.NumPieces > 0 {
			totalPieceDataLength := int64(i.PieceLength) * int64(i.NumPieces)
			delta := totalPieceDataLength - i.TotalLength
			if delta >= int64(i.PieceLength) || delta < 0 {
				return nil, errInvalidPieceData
			}
		}
	}
	i.Bytes = b
	i.Hash = sha1.Sum(b) // nolint: gosec
	if hasHashTrees {
		i.HashV2 = sha256.Sum256(b)
	}
	return &i, nil
}

// MultiFile reports whether the torrent has a files list.
func (i *Info) MultiFile() bool {
	return len(i.Files) != 0
}

// PieceHash returns the 20-byte hash of piece index.
func (i *Info) PieceHash(index uint32) []byte {
	begin := index * sha1.Size
	return i.Pieces[begin : begin+sha1.Size]
}

// GetFiles returns the files in the torrent as a slice, even for a single
// file.
func (i *Info) GetFiles() []FileDict {
	if i.MultiFile() {
		return i.Files
	}
	return []FileDict{{Length: i.Length, Path: []string{i.Name}}}
}

// IsPrivate reports the private flag.
func (i *Info) IsPrivate() bool {
	if i == nil {
		return false
	}
	return i.private
}
