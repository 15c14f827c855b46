package torrent

import (
	"bytes"
	"crypto/sha1"
	"io"
	"os"
	"path/filepath"

	"github.com/juju/ratelimit"

	"github.com/cenkalti/brook/internal/bitfield"
	"github.com/cenkalti/brook/internal/metainfo"
)

// Checker decides which pieces of a torrent exist on disk. Implementations
// must not mutate the torrent; they only report what they find.
type Checker interface {
	Check(info *metainfo.Info, mappedFiles []string, savePath string, limiter *ratelimit.Bucket) (bitfield.BitField, error)
}

// fileChecker reads pieces from the save path and compares their SHA-1
// digests with the piece hashes in the info dictionary. Reads are throttled
// by the torrent's download limiter so a check does not starve running
// transfers.
type fileChecker struct{}

func (c *fileChecker) Check(info *metainfo.Info, mappedFiles []string, savePath string, limiter *ratelimit.Bucket) (bitfield.BitField, error) {
	have := bitfield.New(info.NumPieces)
	r := &torrentReader{
		files:   filePaths(info, mappedFiles, savePath),
		lengths: fileLengths(info),
		limiter: limiter,
	}
	pieceLength := int64(info.PieceLength)
	buf := make([]byte, pieceLength)
	for i := uint32(0); i < info.NumPieces; i++ {
		offset := int64(i) * pieceLength
		length := pieceLength
		if offset+length > info.TotalLength {
			length = info.TotalLength - offset
		}
		n, err := r.ReadAt(buf[:length], offset)
		if err != nil {
			// Missing or short files mean the piece is absent, not
			// a failed check.
			continue
		}
		sum := sha1.Sum(buf[:n])
		if bytes.Equal(sum[:], info.PieceHash(i)) {
			have.Set(i)
		}
	}
	return have, nil
}

func filePaths(info *metainfo.Info, mappedFiles []string, savePath string) []string {
	base := savePath
	if info.MultiFile() {
		base = filepath.Join(savePath, info.Name)
	}
	files := info.GetFiles()
	paths := make([]string, len(files))
	for i, f := range files {
		if i < len(mappedFiles) && mappedFiles[i] != "" {
			paths[i] = filepath.Join(savePath, filepath.FromSlash(mappedFiles[i]))
			continue
		}
		parts := append([]string{base}, f.Path...)
		paths[i] = filepath.Join(parts...)
	}
	return paths
}

func fileLengths(info *metainfo.Info) []int64 {
	files := info.GetFiles()
	lengths := make([]int64, len(files))
	for i, f := range files {
		lengths[i] = f.Length
	}
	return lengths
}

// torrentReader reads the torrent's byte space that spans multiple files.
type torrentReader struct {
	files   []string
	lengths []int64
	limiter *ratelimit.Bucket
}

func (r *torrentReader) ReadAt(p []byte, off int64) (int, error) {
	if r.limiter != nil {
		r.limiter.Wait(int64(len(p)))
	}
	read := 0
	for i, length := range r.lengths {
		if off >= length {
			off -= length
			continue
		}
		n := int64(len(p) - read)
		if n > length-off {
			n = length - off
		}
		err := readFileAt(r.files[i], p[read:read+int(n)], off)
		if err != nil {
			return read, err
		}
		read += int(n)
		off = 0
		if read == len(p) {
			return read, nil
		}
	}
	return read, io.ErrUnexpectedEOF
}

func readFileAt(path string, p []byte, off int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.ReadAt(p, off)
	return err
}
