// Package resumedata serializes the full state of a torrent into the
// bencoded resume file format and reads it back. The same writer produces
// plain torrent files by stopping before the session-kept fields.
package resumedata

import (
	"net/netip"

	"github.com/cenkalti/brook/internal/bitfield"
	"github.com/cenkalti/brook/internal/hashtree"
)

// FileFormat is the required value of the "file-format" key. Readers reject
// anything else.
const FileFormat = "libtorrent resume file"

// FileVersion is the required value of the "file-version" key.
const FileVersion = 1

// Version is written under the "libtorrent-version" key.
var Version = "2.0.9.0"

// Flags is the persisted per-torrent flag bitset.
type Flags uint32

const (
	FlagSeedMode Flags = 1 << iota
	FlagUploadMode
	FlagShareMode
	FlagApplyIPFilter
	FlagPaused
	FlagAutoManaged
	FlagSuperSeeding
	FlagSequentialDownload
	FlagStopWhenReady
	FlagDisableDHT
	FlagDisableLSD
	FlagDisablePEX
)

// Has reports whether all bits in f are set.
func (f Flags) Has(bits Flags) bool { return f&bits == bits }

// With returns f with bits set.
func (f Flags) With(bits Flags) Flags { return f | bits }

// Without returns f with bits cleared.
func (f Flags) Without(bits Flags) Flags { return f &^ bits }

// UnfinishedPiece records the downloaded blocks of one incomplete piece.
type UnfinishedPiece struct {
	Piece  uint32
	Blocks bitfield.BlockField
}

// FileTree is the stored Merkle tree of one file. Mask is empty for a dense
// tree whose Hashes cover every node. Verified has one flag per leaf block.
type FileTree struct {
	Hashes   []hashtree.Hash
	Mask     []bool
	Verified []bool
}

// Params is the complete add-parameters record of a torrent: everything the
// session needs to re-create the torrent after a restart.
type Params struct {
	// Metadata
	Info         []byte // raw bencoded info dictionary, passed through verbatim
	Comment      string
	CreationDate int64
	CreatedBy    string
	Name         string

	Trackers     []string
	TrackerTiers []int
	URLSeeds     []string
	HTTPSeeds    []string
	Trees        []FileTree

	SavePath            string
	StorageModeAllocate bool

	// Counters, in bytes and seconds
	TotalUploaded    int64
	TotalDownloaded  int64
	ActiveTime       int64
	FinishedTime     int64
	SeedingTime      int64
	LastSeenComplete int64
	LastDownload     int64
	LastUpload       int64

	// Swarm statistics from the last scrape
	NumComplete   int64
	NumIncomplete int64
	NumDownloaded int64

	Flags         Flags
	AddedTime     int64
	CompletedTime int64

	InfoHash  [20]byte
	InfoHash2 [32]byte

	Have       bitfield.BitField
	Verified   bitfield.BitField
	Unfinished []UnfinishedPiece

	MappedFiles []string // index = file index, empty string = not renamed

	Peers       []netip.AddrPort
	BannedPeers []netip.AddrPort

	UploadLimit    int64
	DownloadLimit  int64
	MaxConnections int64
	MaxUploads     int64

	FilePriorities  []byte
	PiecePriorities []byte
}
