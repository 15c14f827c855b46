package metainfo

import (
	"bytes"
	"crypto/sha1" // nolint: gosec
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/bencode"
)

func encodeTorrent(t *testing.T, m map[string]any) []byte {
	t.Helper()
	b, err := bencode.EncodeBytes(m)
	require.NoError(t, err)
	return b
}

func singleFileInfo() map[string]any {
	return map[string]any{
		"name":         "a.bin",
		"piece length": 16384,
		"length":       20000,
		"pieces":       string(bytes.Repeat([]byte{'x'}, 2*sha1.Size)),
	}
}

func TestParseSingleFile(t *testing.T) {
	raw := encodeTorrent(t, map[string]any{
		"info":          singleFileInfo(),
		"announce":      "http://tracker.example/announce",
		"comment":       "test torrent",
		"creation date": 1700000000,
		"created by":    "brook",
	})
	mi, err := New(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "a.bin", mi.Info.Name)
	assert.Equal(t, int64(20000), mi.Info.TotalLength)
	assert.Equal(t, uint32(2), mi.Info.NumPieces)
	assert.Equal(t, [][]string{{"http://tracker.example/announce"}}, mi.AnnounceList)
	assert.Equal(t, "test torrent", mi.Comment)
	assert.Equal(t, int64(1700000000), mi.CreationDate)
	assert.Equal(t, "brook", mi.CreatedBy)
	assert.False(t, mi.Info.MultiFile())
	assert.Equal(t, []FileDict{{Length: 20000, Path: []string{"a.bin"}}}, mi.Info.GetFiles())

	infoBytes, err := bencode.EncodeBytes(singleFileInfo())
	require.NoError(t, err)
	assert.Equal(t, infoBytes, mi.Info.Bytes)
	assert.Equal(t, sha1.Sum(infoBytes), mi.Info.Hash) // nolint: gosec
}

func TestParseAnnounceListFiltersTiers(t *testing.T) {
	raw := encodeTorrent(t, map[string]any{
		"info": singleFileInfo(),
		"announce-list": [][]string{
			{"http://a.example/ann", "wss://unsupported.example"},
			{"wss://also.unsupported"},
			{"udp://b.example:1337/ann"},
		},
	})
	mi, err := New(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"http://a.example/ann"},
		{"udp://b.example:1337/ann"},
	}, mi.AnnounceList)
}

func TestParseWebseedsStringOrList(t *testing.T) {
	raw := encodeTorrent(t, map[string]any{
		"info":     singleFileInfo(),
		"url-list": "http://seed.example/a.bin",
		"httpseeds": []string{
			"http://h1.example/", "ftp://nope.example/",
		},
	})
	mi, err := New(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://seed.example/a.bin"}, mi.URLList)
	assert.Equal(t, []string{"http://h1.example/"}, mi.HTTPSeeds)
}

func TestParseMultiFile(t *testing.T) {
	raw := encodeTorrent(t, map[string]any{
		"info": map[string]any{
			"name":         "dir",
			"piece length": 16384,
			"pieces":       string(bytes.Repeat([]byte{'x'}, sha1.Size)),
			"files": []map[string]any{
				{"length": 5000, "path": []string{"sub", "a"}},
				{"length": 1000, "path": []string{".pad", "1000"}, "attr": "p"},
				{"length": 6000, "path": []string{"b"}},
			},
		},
	})
	mi, err := New(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.True(t, mi.Info.MultiFile())
	assert.Equal(t, int64(12000), mi.Info.TotalLength)
	files := mi.Info.GetFiles()
	assert.Len(t, files, 3)
	assert.False(t, files[0].IsPad())
	assert.True(t, files[1].IsPad())
}

func TestParseRejectsDotDot(t *testing.T) {
	raw := encodeTorrent(t, map[string]any{
		"info": map[string]any{
			"name":         "dir",
			"piece length": 16384,
			"pieces":       string(bytes.Repeat([]byte{'x'}, sha1.Size)),
			"files": []map[string]any{
				{"length": 5000, "path": []string{"..", "a"}},
			},
		},
	})
	_, err := New(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestParseRejectsMissingInfo(t *testing.T) {
	raw := encodeTorrent(t, map[string]any{"announce": "http://x/ann"})
	_, err := New(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestParseRejectsBadPieces(t *testing.T) {
	info := singleFileInfo()
	info["pieces"] = "short"
	raw := encodeTorrent(t, map[string]any{"info": info})
	_, err := New(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestPrivateFlagVariants(t *testing.T) {
	for _, tc := range []struct {
		value   any
		private bool
	}{
		{1, true},
		{0, false},
		{"1", true},
		{"0", false},
	} {
		info := singleFileInfo()
		info["private"] = tc.value
		raw := encodeTorrent(t, map[string]any{"info": info})
		mi, err := New(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, tc.private, mi.Info.IsPrivate(), "private=%v", tc.value)
	}
}

func TestHashTreeTorrent(t *testing.T) {
	root := string(bytes.Repeat([]byte{'r'}, 32))
	layer := bytes.Repeat([]byte{'h'}, 64)
	info := singleFileInfo()
	info["meta version"] = 2
	raw := encodeTorrent(t, map[string]any{
		"info":         info,
		"piece layers": map[string][]byte{root: layer},
	})
	mi, err := New(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, int64(2), mi.Info.MetaVersion)
	assert.NotEqual(t, [32]byte{}, mi.Info.HashV2)
	assert.Equal(t, layer, mi.PieceLayers[root])
}

func TestPieceHash(t *testing.T) {
	info := singleFileInfo()
	pieces := append(bytes.Repeat([]byte{'a'}, sha1.Size), bytes.Repeat([]byte{'b'}, sha1.Size)...)
	info["pieces"] = string(pieces)
	raw := encodeTorrent(t, map[string]any{"info": info})
	mi, err := New(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, pieces[:sha1.Size], mi.Info.PieceHash(0))
	assert.Equal(t, pieces[sha1.Size:], mi.Info.PieceHash(1))
}
