// Package metainfo supports reading torrent files.
package metainfo

import (
	"errors"
	"io"
	"strings"

	"github.com/zeebo/bencode"
)

// MetaInfo is a parsed torrent file.
type MetaInfo struct {
	Info         Info
	AnnounceList [][]string
	URLList      []string
	HTTPSeeds    []string
	Comment      string
	CreationDate int64
	CreatedBy    string

	// PieceLayers maps a file's 32-byte root to its concatenated piece
	// hashes, present in hash-tree torrents.
	PieceLayers map[string][]byte
}

// New parses a torrent file from a bencoded stream.
func New(r io.Reader) (*MetaInfo, error) {
	var ret MetaInfo
	var t struct {
		Info         bencode.RawMessage `bencode:"info"`
		Announce     bencode.RawMessage `bencode:"announce"`
		AnnounceList bencode.RawMessage `bencode:"announce-list"`
		URLList      bencode.RawMessage `bencode:"url-list"`
		HTTPSeeds    bencode.RawMessage `bencode:"httpseeds"`
		Comment      string             `bencode:"comment"`
		CreationDate int64              `bencode:"creation date"`
		CreatedBy    string             `bencode:"created by"`
		PieceLayers  map[string][]byte  `bencode:"piece layers"`
	}
	err := bencode.NewDecoder(r).Decode(&t)
	if err != nil {
		return nil, err
	}
	if len(t.Info) == 0 {
		return nil, errors.New("no info dict in torrent file")
	}
	info, err := NewInfo(t.Info)
	if err != nil {
		return nil, err
	}
	ret.Info = *info
	ret.Comment = t.Comment
	ret.CreationDate = t.CreationDate
	ret.CreatedBy = t.CreatedBy
	ret.PieceLayers = t.PieceLayers
	if len(t.AnnounceList) > 0 {
		var ll [][]string
		err = bencode.DecodeBytes(t.AnnounceList, &ll)
		if err == nil {
			for _, tier := range ll {
				var ti []string
				for _, u := range tier {
					if isTrackerSupported(u) {
						ti = append(ti, u)
					}
				}
				if len(ti) > 0 {
					ret.AnnounceList = append(ret.AnnounceList, ti)
				}
			}
		}
	} else {
		var s string
		err = bencode.DecodeBytes(t.Announce, &s)
		if err == nil && isTrackerSupported(s) {
			ret.AnnounceList = append(ret.AnnounceList, []string{s})
		}
	}
	ret.URLList = stringOrList(t.URLList, isWebseedSupported)
	ret.HTTPSeeds = stringOrList(t.HTTPSeeds, isWebseedSupported)
	return &ret, nil
}

// stringOrList decodes a value that may be a single string or a list of
// strings, keeping only entries accepted by ok.
func stringOrList(raw bencode.RawMessage, ok func(string) bool) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if raw[0] == 'l' {
		var l []string
		if err := bencode.DecodeBytes(raw, &l); err != nil {
			return nil
		}
		for _, s := range l {
			if ok(s) {
				out = append(out, s)
			}
		}
		return out
	}
	var s string
	if err := bencode.DecodeBytes(raw, &s); err != nil {
		return nil
	}
	if ok(s) {
		out = append(out, s)
	}
	return out
}

func isTrackerSupported(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "udp://")
}

func isWebseedSupported(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
