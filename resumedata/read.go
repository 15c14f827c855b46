package resumedata

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/zeebo/bencode"

	"github.com/cenkalti/brook/internal/bitfield"
	"github.com/cenkalti/brook/internal/hashtree"
)

var (
	ErrInvalidFormat      = errors.New("resumedata: not a resume file")
	ErrUnsupportedVersion = errors.New("resumedata: unsupported file version")
)

// Read parses resume data written by Write. The file-format and file-version
// keys must match; every other field is read best-effort and malformed
// fields are skipped.
func Read(b []byte) (*Params, error) {
	var raw map[string]bencode.RawMessage
	if err := bencode.DecodeBytes(b, &raw); err != nil {
		return nil, fmt.Errorf("resumedata: cannot decode: %w", err)
	}
	var format string
	if err := bencode.DecodeBytes(raw["file-format"], &format); err != nil || format != FileFormat {
		return nil, ErrInvalidFormat
	}
	var version int64
	if err := bencode.DecodeBytes(raw["file-version"], &version); err != nil || version != FileVersion {
		return nil, ErrUnsupportedVersion
	}

	p := new(Params)
	p.Info = raw["info"]
	p.Comment = str(raw, "comment")
	p.CreationDate = integer(raw, "creation date")
	p.CreatedBy = str(raw, "created by")
	p.Name = str(raw, "name")
	p.SavePath = str(raw, "save_path")
	p.StorageModeAllocate = str(raw, "allocation") == "allocate"

	p.TotalUploaded = integer(raw, "total_uploaded")
	p.TotalDownloaded = integer(raw, "total_downloaded")
	p.ActiveTime = integer(raw, "active_time")
	p.FinishedTime = integer(raw, "finished_time")
	p.SeedingTime = integer(raw, "seeding_time")
	p.LastSeenComplete = integer(raw, "last_seen_complete")
	p.LastDownload = integer(raw, "last_download")
	p.LastUpload = integer(raw, "last_upload")
	p.NumComplete = integer(raw, "num_complete")
	p.NumIncomplete = integer(raw, "num_incomplete")
	p.NumDownloaded = integer(raw, "num_downloaded")
	p.AddedTime = integer(raw, "added_time")
	p.CompletedTime = integer(raw, "completed_time")
	p.UploadLimit = integer(raw, "upload_rate_limit")
	p.DownloadLimit = integer(raw, "download_rate_limit")
	p.MaxConnections = integer(raw, "max_connections")
	p.MaxUploads = integer(raw, "max_uploads")

	for _, fl := range flagKeys {
		if integer(raw, fl.key) != 0 {
			p.Flags = p.Flags.With(fl.flag)
		}
	}

	if h := str(raw, "info-hash"); len(h) == len(p.InfoHash) {
		copy(p.InfoHash[:], h)
	}
	if h := str(raw, "info-hash2"); len(h) == len(p.InfoHash2) {
		copy(p.InfoHash2[:], h)
	}

	var trackers [][]string
	if err := bencode.DecodeBytes(raw["trackers"], &trackers); err == nil {
		for tier, urls := range trackers {
			for _, u := range urls {
				p.Trackers = append(p.Trackers, u)
				p.TrackerTiers = append(p.TrackerTiers, tier)
			}
		}
	}

	p.URLSeeds = strSlice(raw, "url-list")
	p.HTTPSeeds = strSlice(raw, "httpseeds")
	p.MappedFiles = strSlice(raw, "mapped_files")

	var trees []struct {
		Hashes   string `bencode:"hashes"`
		Verified string `bencode:"verified"`
		Mask     string `bencode:"mask"`
	}
	if err := bencode.DecodeBytes(raw["trees"], &trees); err == nil {
		for _, t := range trees {
			hashes, err := hashtree.SplitCompact([]byte(t.Hashes))
			if err != nil {
				continue
			}
			p.Trees = append(p.Trees, FileTree{
				Hashes:   hashes,
				Mask:     asciiToBools(t.Mask),
				Verified: asciiToBools(t.Verified),
			})
		}
	}

	if pieces := str(raw, "pieces"); len(pieces) > 0 {
		n := uint32(len(pieces))
		p.Have = bitfield.New(n)
		p.Verified = bitfield.New(n)
		for i := uint32(0); i < n; i++ {
			if pieces[i]&1 != 0 {
				p.Have.Set(i)
			}
			if pieces[i]&2 != 0 {
				p.Verified.Set(i)
			}
		}
	}

	var unfinished []struct {
		Piece   int64  `bencode:"piece"`
		Bitmask string `bencode:"bitmask"`
	}
	if err := bencode.DecodeBytes(raw["unfinished"], &unfinished); err == nil {
		for _, u := range unfinished {
			if u.Piece < 0 {
				continue
			}
			b := []byte(u.Bitmask)
			p.Unfinished = append(p.Unfinished, UnfinishedPiece{
				Piece:  uint32(u.Piece),
				Blocks: bitfield.BlocksFromBytes(b, uint32(len(b)*8)),
			})
		}
	}

	p.Peers = append(p.Peers, unpackEndpoints(str(raw, "peers"), 4)...)
	p.Peers = append(p.Peers, unpackEndpoints(str(raw, "peers6"), 16)...)
	p.BannedPeers = append(p.BannedPeers, unpackEndpoints(str(raw, "banned_peers"), 4)...)
	p.BannedPeers = append(p.BannedPeers, unpackEndpoints(str(raw, "banned_peers6"), 16)...)

	var filePrio []int64
	if err := bencode.DecodeBytes(raw["file_priority"], &filePrio); err == nil {
		for _, v := range filePrio {
			p.FilePriorities = append(p.FilePriorities, byte(v))
		}
	}
	if s := str(raw, "piece_priority"); len(s) > 0 {
		p.PiecePriorities = []byte(s)
	}

	return p, nil
}

func str(raw map[string]bencode.RawMessage, key string) string {
	var s string
	if err := bencode.DecodeBytes(raw[key], &s); err != nil {
		return ""
	}
	return s
}

func integer(raw map[string]bencode.RawMessage, key string) int64 {
	var v int64
	if err := bencode.DecodeBytes(raw[key], &v); err != nil {
		return 0
	}
	return v
}

// strSlice keeps the present-but-empty distinction: a present empty list
// decodes as an empty non-nil slice, an absent key as nil.
func strSlice(raw map[string]bencode.RawMessage, key string) []string {
	r, ok := raw[key]
	if !ok {
		return nil
	}
	var l []string
	if err := bencode.DecodeBytes(r, &l); err != nil {
		return nil
	}
	if l == nil {
		l = []string{}
	}
	return l
}

func asciiToBools(s string) []bool {
	if len(s) == 0 {
		return nil
	}
	bits := make([]bool, len(s))
	for i := range s {
		bits[i] = s[i] == '1'
	}
	return bits
}

func unpackEndpoints(s string, addrLen int) []netip.AddrPort {
	size := addrLen + 2
	var out []netip.AddrPort
	for len(s) >= size {
		var addr netip.Addr
		if addrLen == 4 {
			var a [4]byte
			copy(a[:], s)
			addr = netip.AddrFrom4(a)
		} else {
			var a [16]byte
			copy(a[:], s)
			addr = netip.AddrFrom16(a)
		}
		port := uint16(s[addrLen])<<8 | uint16(s[addrLen+1])
		out = append(out, netip.AddrPortFrom(addr, port))
		s = s[size:]
	}
	return out
}
