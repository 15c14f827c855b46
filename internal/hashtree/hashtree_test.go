package hashtree

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(b byte) Hash {
	var h Hash
	h[0] = b
	return h
}

func TestRootSingle(t *testing.T) {
	h := leaf(1)
	assert.Equal(t, h, Root([]Hash{h}, Hash{}))
}

func TestRootEmpty(t *testing.T) {
	assert.Equal(t, Hash(sha256.Sum256(nil)), Root(nil, Hash{}))
}

func TestRootPadsToPowerOfTwo(t *testing.T) {
	a, b, c := leaf(1), leaf(2), leaf(3)
	pad := leaf(9)
	want := combine(combine(a, b), combine(c, pad))
	assert.Equal(t, want, Root([]Hash{a, b, c}, pad))
}

func TestPadHash(t *testing.T) {
	assert.Equal(t, Hash{}, PadHash(0))
	assert.Equal(t, combine(Hash{}, Hash{}), PadHash(1))
	assert.Equal(t, combine(PadHash(1), PadHash(1)), PadHash(2))
}

func TestCompactRoundTrip(t *testing.T) {
	hashes := []Hash{leaf(1), leaf(2), leaf(3)}
	b := JoinCompact(hashes)
	assert.Len(t, b, 3*HashSize)
	got, err := SplitCompact(b)
	require.NoError(t, err)
	assert.Equal(t, hashes, got)

	_, err = SplitCompact(b[:HashSize+1])
	assert.Error(t, err)
}

func TestTreeShape(t *testing.T) {
	tr := New(5)
	// 5 blocks round up to 8 leaves, 15 nodes.
	assert.Equal(t, 15, tr.NumNodes())
	assert.Equal(t, 5, tr.NumBlocks())
	assert.False(t, tr.Full())
}

func TestLoadFull(t *testing.T) {
	nodes := make([]Hash, 7)
	for i := range nodes {
		nodes[i] = leaf(byte(i))
	}
	tr, err := Load(nodes, 4)
	require.NoError(t, err)
	assert.True(t, tr.Full())
	assert.Equal(t, nodes[0], tr.Root())
	assert.Equal(t, nodes, tr.Nodes())

	_, err = Load(nodes[:6], 4)
	assert.ErrorIs(t, err, ErrNodeCount)
}

func TestLoadSparse(t *testing.T) {
	mask := make([]bool, 7)
	mask[0] = true
	mask[3] = true
	nodes := []Hash{leaf(1), leaf(2)}
	tr, err := LoadSparse(nodes, mask, 4)
	require.NoError(t, err)
	assert.Equal(t, leaf(1), tr.Root())
	assert.Equal(t, nodes, tr.Nodes())
	assert.False(t, tr.Full())

	_, err = LoadSparse(nodes, mask[:5], 4)
	assert.ErrorIs(t, err, ErrMaskCount)
	_, err = LoadSparse(nodes[:1], mask, 4)
	assert.ErrorIs(t, err, ErrNodeCount)
}

func TestSetPieceLayerAndRoot(t *testing.T) {
	// 8 blocks, 2 blocks per piece: 4 pieces one level above the leaves.
	tr := New(8)
	layer := []Hash{leaf(1), leaf(2), leaf(3), leaf(4)}
	require.NoError(t, tr.SetPieceLayer(layer, 2))
	want := combine(combine(leaf(1), leaf(2)), combine(leaf(3), leaf(4)))
	assert.Equal(t, want, tr.Root())
	assert.Equal(t, layer, tr.PieceLayer(2))
	require.NoError(t, VerifyPieceLayer(tr.Root(), layer, 2, 8))
}

func TestSetPieceLayerPadsShortRow(t *testing.T) {
	// 5 blocks, 2 per piece: 3 pieces, row of 4 padded with PadHash(1).
	tr := New(5)
	layer := []Hash{leaf(1), leaf(2), leaf(3)}
	require.NoError(t, tr.SetPieceLayer(layer, 2))
	want := combine(combine(leaf(1), leaf(2)), combine(leaf(3), PadHash(1)))
	assert.Equal(t, want, tr.Root())
	assert.Equal(t, layer, tr.PieceLayer(2))
}

func TestSetPieceLayerWrongCount(t *testing.T) {
	tr := New(8)
	assert.ErrorIs(t, tr.SetPieceLayer([]Hash{leaf(1)}, 2), ErrLayerCount)
}

func TestVerifyPieceLayerMismatch(t *testing.T) {
	layer := []Hash{leaf(1), leaf(2)}
	root := Root(layer, PadHash(1))
	require.NoError(t, VerifyPieceLayer(root, layer, 2, 4))
	bad := []Hash{leaf(1), leaf(9)}
	assert.ErrorIs(t, VerifyPieceLayer(root, bad, 2, 4), ErrRoot)
	assert.ErrorIs(t, VerifyPieceLayer(root, layer, 2, 8), ErrLayerCount)
}

func TestVerifiedFlags(t *testing.T) {
	tr := New(3)
	assert.Equal(t, []bool{false, false, false}, tr.Verified())
	tr.SetVerified(1)
	tr.SetVerified(5) // out of range, ignored
	assert.Equal(t, []bool{false, true, false}, tr.Verified())
}
