package resumedata

import (
	"net/netip"

	"github.com/cenkalti/brook/bencode"
	"github.com/cenkalti/brook/internal/hashtree"
	"github.com/cenkalti/brook/internal/metainfo"
)

// Write returns the complete resume dictionary for p.
func Write(p *Params) *bencode.Entry { return write(p, false) }

// WriteTorrent returns only the fields that belong in a torrent file.
func WriteTorrent(p *Params) *bencode.Entry { return write(p, true) }

// WriteBuf returns the bencoded resume data for p.
func WriteBuf(p *Params) []byte { return Write(p).Bencode() }

func write(p *Params, torrentOnly bool) *bencode.Entry {
	ret := bencode.NewDict()

	if len(p.Info) > 0 {
		ret.Set("info", bencode.NewPreformatted(p.Info))
		if p.Comment != "" {
			ret.Set("comment", bencode.Str(p.Comment))
		}
		if p.CreationDate != 0 {
			ret.Set("creation date", bencode.Int(p.CreationDate))
		}
		if p.CreatedBy != "" {
			ret.Set("created by", bencode.Str(p.CreatedBy))
		}
	}

	var trees *bencode.Entry
	if len(p.Trees) > 0 {
		trees = bencode.NewList()
		for i := range p.Trees {
			ft := &p.Trees[i]
			d := bencode.NewDict()
			d.Set("hashes", bencode.Bytes(hashtree.JoinCompact(ft.Hashes)))
			if len(ft.Verified) > 0 {
				d.Set("verified", bencode.Str(boolsToASCII(ft.Verified)))
			}
			if len(ft.Mask) > 0 {
				d.Set("mask", bencode.Str(boolsToASCII(ft.Mask)))
			}
			trees.Append(d)
		}
		if layers := pieceLayers(p); layers.Len() > 0 {
			ret.Set("piece layers", layers)
		}
	}

	if len(p.URLSeeds) > 0 {
		ret.Set("url-list", strList(p.URLSeeds))
	}
	if len(p.HTTPSeeds) > 0 {
		ret.Set("httpseeds", strList(p.HTTPSeeds))
	}

	if p.Name != "" {
		ret.Set("name", bencode.Str(p.Name))
	}

	if len(p.Trackers) == 1 {
		ret.Set("announce", bencode.Str(p.Trackers[0]))
	} else if len(p.Trackers) > 1 {
		al := bencode.NewList(bencode.NewList())
		tier := 0
		for i, tr := range p.Trackers {
			if i < len(p.TrackerTiers) {
				tier = clampTier(p.TrackerTiers[i])
			}
			for al.Len() <= tier {
				al.Append(bencode.NewList())
			}
			al.List()[tier].Append(bencode.Str(tr))
		}
		ret.Set("announce-list", al)
	}

	// torrent file fields above, resume data below

	if torrentOnly {
		return ret
	}

	if trees != nil {
		ret.Set("trees", trees)
	}

	switch len(p.Trackers) {
	case 0:
		ret.Set("trackers", bencode.NewList())
	case 1:
		ret.Set("trackers", bencode.NewList(bencode.NewList(bencode.Str(p.Trackers[0]))))
	default:
		ret.Set("trackers", ret.Get("announce-list"))
	}

	// A web seed list the user emptied must survive the round trip, so the
	// empty list is still written.
	if len(p.URLSeeds) == 0 {
		ret.Set("url-list", bencode.NewList())
	}
	if len(p.HTTPSeeds) == 0 {
		ret.Set("httpseeds", bencode.NewList())
	}

	ret.Set("file-format", bencode.Str(FileFormat))
	ret.Set("file-version", bencode.Int(FileVersion))
	ret.Set("libtorrent-version", bencode.Str(Version))
	if p.StorageModeAllocate {
		ret.Set("allocation", bencode.Str("allocate"))
	} else {
		ret.Set("allocation", bencode.Str("sparse"))
	}

	ret.Set("total_uploaded", bencode.Int(p.TotalUploaded))
	ret.Set("total_downloaded", bencode.Int(p.TotalDownloaded))

	ret.Set("active_time", bencode.Int(p.ActiveTime))
	ret.Set("finished_time", bencode.Int(p.FinishedTime))
	ret.Set("seeding_time", bencode.Int(p.SeedingTime))
	ret.Set("last_seen_complete", bencode.Int(p.LastSeenComplete))
	ret.Set("last_download", bencode.Int(p.LastDownload))
	ret.Set("last_upload", bencode.Int(p.LastUpload))

	ret.Set("num_complete", bencode.Int(p.NumComplete))
	ret.Set("num_incomplete", bencode.Int(p.NumIncomplete))
	ret.Set("num_downloaded", bencode.Int(p.NumDownloaded))

	for _, fl := range flagKeys {
		ret.Set(fl.key, boolEntry(p.Flags.Has(fl.flag)))
	}

	ret.Set("added_time", bencode.Int(p.AddedTime))
	ret.Set("completed_time", bencode.Int(p.CompletedTime))

	ret.Set("save_path", bencode.Str(p.SavePath))

	ret.Set("info-hash", bencode.Bytes(p.InfoHash[:]))
	ret.Set("info-hash2", bencode.Bytes(p.InfoHash2[:]))

	if len(p.Unfinished) > 0 {
		up := bencode.NewList()
		for i := range p.Unfinished {
			u := &p.Unfinished[i]
			d := bencode.NewDict()
			d.Set("piece", bencode.Int(int64(u.Piece)))
			d.Set("bitmask", bencode.Bytes(u.Blocks.Bytes()[:(u.Blocks.Len()+7)/8]))
			up.Append(d)
		}
		ret.Set("unfinished", up)
	}

	// one byte per piece, bit 0 have, bit 1 verified
	n := p.Have.Len()
	if p.Verified.Len() > n {
		n = p.Verified.Len()
	}
	pieces := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		if i < p.Have.Len() && p.Have.Test(i) {
			pieces[i] |= 1
		}
		if i < p.Verified.Len() && p.Verified.Test(i) {
			pieces[i] |= 2
		}
	}
	ret.Set("pieces", bencode.Bytes(pieces))

	if len(p.MappedFiles) > 0 {
		ret.Set("mapped_files", strList(p.MappedFiles))
	}

	if len(p.Peers) > 0 {
		v4, v6 := packEndpoints(p.Peers)
		ret.Set("peers", bencode.Bytes(v4))
		ret.Set("peers6", bencode.Bytes(v6))
	}
	if len(p.BannedPeers) > 0 {
		v4, v6 := packEndpoints(p.BannedPeers)
		ret.Set("banned_peers", bencode.Bytes(v4))
		ret.Set("banned_peers6", bencode.Bytes(v6))
	}

	ret.Set("upload_rate_limit", bencode.Int(p.UploadLimit))
	ret.Set("download_rate_limit", bencode.Int(p.DownloadLimit))
	ret.Set("max_connections", bencode.Int(p.MaxConnections))
	ret.Set("max_uploads", bencode.Int(p.MaxUploads))

	if len(p.FilePriorities) > 0 {
		prio := bencode.NewList()
		for _, v := range p.FilePriorities {
			prio.Append(bencode.Int(int64(v)))
		}
		ret.Set("file_priority", prio)
	}
	if len(p.PiecePriorities) > 0 {
		ret.Set("piece_priority", bencode.Bytes(p.PiecePriorities))
	}

	return ret
}

var flagKeys = []struct {
	key  string
	flag Flags
}{
	{"seed_mode", FlagSeedMode},
	{"upload_mode", FlagUploadMode},
	{"share_mode", FlagShareMode},
	{"apply_ip_filter", FlagApplyIPFilter},
	{"paused", FlagPaused},
	{"auto_managed", FlagAutoManaged},
	{"super_seeding", FlagSuperSeeding},
	{"sequential_download", FlagSequentialDownload},
	{"stop_when_ready", FlagStopWhenReady},
	{"disable_dht", FlagDisableDHT},
	{"disable_lsd", FlagDisableLSD},
	{"disable_pex", FlagDisablePEX},
}

// pieceLayers derives the piece-layer dictionary from the stored trees. Pad
// files and files that fit in a single piece have no layer.
func pieceLayers(p *Params) *bencode.Entry {
	layers := bencode.NewDict()
	if len(p.Info) == 0 {
		return layers
	}
	info, err := metainfo.NewInfo(p.Info)
	if err != nil || info.PieceLength < hashtree.BlockSize {
		return layers
	}
	blocksPerPiece := int(info.PieceLength) / hashtree.BlockSize
	files := info.GetFiles()
	for f := range p.Trees {
		if f >= len(files) {
			break
		}
		fd := &files[f]
		if fd.IsPad() || fd.Length <= int64(info.PieceLength) {
			continue
		}
		numBlocks := int((fd.Length + hashtree.BlockSize - 1) / hashtree.BlockSize)
		var t *hashtree.Tree
		if len(p.Trees[f].Mask) > 0 {
			t, err = hashtree.LoadSparse(p.Trees[f].Hashes, p.Trees[f].Mask, numBlocks)
		} else {
			t, err = hashtree.Load(p.Trees[f].Hashes, numBlocks)
		}
		if err != nil {
			continue
		}
		root := t.Root()
		layer := t.PieceLayer(blocksPerPiece)
		layers.Set(string(root[:]), bencode.Bytes(hashtree.JoinCompact(layer)))
	}
	return layers
}

func packEndpoints(eps []netip.AddrPort) (v4, v6 []byte) {
	for _, ep := range eps {
		addr := ep.Addr().Unmap()
		port := ep.Port()
		if addr.Is4() {
			b := addr.As4()
			v4 = append(v4, b[:]...)
			v4 = append(v4, byte(port>>8), byte(port))
		} else {
			b := addr.As16()
			v6 = append(v6, b[:]...)
			v6 = append(v6, byte(port>>8), byte(port))
		}
	}
	return v4, v6
}

func strList(ss []string) *bencode.Entry {
	l := bencode.NewList()
	for _, s := range ss {
		l.Append(bencode.Str(s))
	}
	return l
}

func boolEntry(b bool) *bencode.Entry {
	if b {
		return bencode.Int(1)
	}
	return bencode.Int(0)
}

func boolsToASCII(bits []bool) string {
	b := make([]byte, len(bits))
	for i, v := range bits {
		if v {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

func clampTier(t int) int {
	if t < 0 {
		return 0
	}
	if t > 1024 {
		return 1024
	}
	return t
}
