package torrent

import (
	"path"

	"github.com/cenkalti/brook/internal/metainfo"
	"github.com/cenkalti/brook/internal/storage/filestorage"
)

// allocateFiles creates the torrent's files on disk at their full length.
// Existing files keep their content. Pad files are never materialized.
func allocateFiles(info *metainfo.Info, mappedFiles []string, savePath string) error {
	sto, err := filestorage.New(savePath)
	if err != nil {
		return err
	}
	base := ""
	if info.MultiFile() {
		base = info.Name
	}
	for i, f := range info.GetFiles() {
		if f.IsPad() {
			continue
		}
		name := path.Join(append([]string{base}, f.Path...)...)
		if i < len(mappedFiles) && mappedFiles[i] != "" {
			name = mappedFiles[i]
		}
		file, _, err := sto.Open(name, f.Length)
		if err != nil {
			return err
		}
		err = file.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
