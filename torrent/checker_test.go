package torrent

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cenkalti/brook/internal/metainfo"
)

func TestFileCheckerSingleFile(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{'a'}, 16384)
	sum := sha1.Sum(content)
	b := fmt.Sprintf("d6:lengthi16384e4:name5:check12:piece lengthi16384e6:pieces20:%se", sum[:])
	info, err := metainfo.NewInfo([]byte(b))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "check"), content, 0o600))

	c := &fileChecker{}
	have, err := c.Check(info, nil, dir, nil)
	require.NoError(t, err)
	assert.True(t, have.All())
}

func TestFileCheckerMissingFile(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{'a'}, 16384)
	sum := sha1.Sum(content)
	b := fmt.Sprintf("d6:lengthi16384e4:name5:check12:piece lengthi16384e6:pieces20:%se", sum[:])
	info, err := metainfo.NewInfo([]byte(b))
	require.NoError(t, err)

	c := &fileChecker{}
	have, err := c.Check(info, nil, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), have.Count())
}

func TestFileCheckerShortLastPiece(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{'b'}, 20000)
	sum1 := sha1.Sum(content[:16384])
	sum2 := sha1.Sum(content[16384:])
	pieces := append(sum1[:], sum2[:]...)
	b := fmt.Sprintf("d6:lengthi20000e4:name4:last12:piece lengthi16384e6:pieces40:%se", pieces)
	info, err := metainfo.NewInfo([]byte(b))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "last"), content, 0o600))

	c := &fileChecker{}
	have, err := c.Check(info, nil, dir, nil)
	require.NoError(t, err)
	assert.True(t, have.All())
}

func TestFileCheckerMultiFile(t *testing.T) {
	dir := t.TempDir()
	f1 := bytes.Repeat([]byte{'x'}, 10000)
	f2 := bytes.Repeat([]byte{'y'}, 6384)
	sum := sha1.Sum(append(append([]byte{}, f1...), f2...))
	b := fmt.Sprintf("d5:filesld6:lengthi10000e4:pathl2:f1eed6:lengthi6384e4:pathl2:f2eee4:name5:multi12:piece lengthi16384e6:pieces20:%se", sum[:])
	info, err := metainfo.NewInfo([]byte(b))
	require.NoError(t, err)
	base := filepath.Join(dir, "multi")
	require.NoError(t, os.MkdirAll(base, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(base, "f1"), f1, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "f2"), f2, 0o600))

	c := &fileChecker{}
	have, err := c.Check(info, nil, dir, nil)
	require.NoError(t, err)
	assert.True(t, have.All())
}

func TestFileCheckerCorruptPiece(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{'a'}, 16384)
	sum := sha1.Sum(content)
	b := fmt.Sprintf("d6:lengthi16384e4:name5:check12:piece lengthi16384e6:pieces20:%se", sum[:])
	info, err := metainfo.NewInfo([]byte(b))
	require.NoError(t, err)
	content[0] = 'z'
	require.NoError(t, os.WriteFile(filepath.Join(dir, "check"), content, 0o600))

	c := &fileChecker{}
	have, err := c.Check(info, nil, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), have.Count())
}
