// Package hashtree implements the SHA-256 Merkle trees that hash-tree
// torrents build over 16 KiB blocks. A Tree holds the flat node array for one
// file together with a node presence mask and per-block verified flags, the
// same shape the resume format stores.
package hashtree

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/bits"
)

// HashSize is the size of a tree node in bytes.
const HashSize = sha256.Size

// BlockSize is the leaf block size.
const BlockSize = 1 << 14

// A Hash is a single tree node.
type Hash = [HashSize]byte

var (
	ErrNodeCount  = errors.New("hashtree: node count does not match tree shape")
	ErrMaskCount  = errors.New("hashtree: mask length does not match tree shape")
	ErrLayerCount = errors.New("hashtree: piece layer length does not match file")
	ErrRoot       = errors.New("hashtree: piece layer does not produce expected root")
)

func combine(left, right Hash) Hash {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func roundUpPowerOfTwo(n uint) uint {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(n-1)
}

// Root reduces a complete layer to its root, padding to a power of two with
// pad.
func Root(layer []Hash, pad Hash) Hash {
	if len(layer) == 0 {
		return sha256.Sum256(nil)
	}
	for uint(len(layer)) < roundUpPowerOfTwo(uint(len(layer))) {
		layer = append(layer, pad)
	}
	for len(layer) > 1 {
		next := layer[:0:0]
		for i := 0; i < len(layer); i += 2 {
			next = append(next, combine(layer[i], layer[i+1]))
		}
		layer = next
	}
	return layer[0]
}

// PadHash returns the root of a subtree of 2^levels zero leaf hashes. It is
// the padding value for a layer that many levels above the blocks.
func PadHash(levels int) Hash {
	var h Hash
	for i := 0; i < levels; i++ {
		h = combine(h, h)
	}
	return h
}

// SplitCompact splits concatenated node bytes into hashes.
func SplitCompact(b []byte) ([]Hash, error) {
	if len(b)%HashSize != 0 {
		return nil, fmt.Errorf("hashtree: compact layer length %d is not a multiple of %d", len(b), HashSize)
	}
	hashes := make([]Hash, len(b)/HashSize)
	for i := range hashes {
		copy(hashes[i][:], b[i*HashSize:])
	}
	return hashes, nil
}

// JoinCompact concatenates hashes into one byte slice.
func JoinCompact(hashes []Hash) []byte {
	b := make([]byte, 0, len(hashes)*HashSize)
	for i := range hashes {
		b = append(b, hashes[i][:]...)
	}
	return b
}

// Tree is the Merkle tree of one file. Nodes are stored in a flat array with
// the root at index 0 and the children of node i at 2i+1 and 2i+2. The leaf
// row is the block hashes padded to a power of two.
type Tree struct {
	nodes    []Hash
	mask     []bool
	verified []bool
	blocks   int
	leafRow  int
}

// New returns an empty tree for a file of numBlocks 16 KiB blocks.
func New(numBlocks int) *Tree {
	leaves := int(roundUpPowerOfTwo(uint(numBlocks)))
	n := 2*leaves - 1
	return &Tree{
		nodes:    make([]Hash, n),
		mask:     make([]bool, n),
		verified: make([]bool, numBlocks),
		blocks:   numBlocks,
		leafRow:  leaves - 1,
	}
}

// NumBlocks returns the number of blocks in the file.
func (t *Tree) NumBlocks() int { return t.blocks }

// NumNodes returns the size of the flat node array.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// Root returns the root node.
func (t *Tree) Root() Hash { return t.nodes[0] }

// Mask returns the node presence mask.
func (t *Tree) Mask() []bool { return t.mask }

// Full reports whether every node is present.
func (t *Tree) Full() bool {
	for _, ok := range t.mask {
		if !ok {
			return false
		}
	}
	return true
}

// Nodes returns the present nodes in index order. For a full tree that is
// the entire flat array.
func (t *Tree) Nodes() []Hash {
	out := make([]Hash, 0, len(t.nodes))
	for i, ok := range t.mask {
		if ok {
			out = append(out, t.nodes[i])
		}
	}
	return out
}

// Verified returns the per-block verified flags.
func (t *Tree) Verified() []bool { return t.verified }

// SetVerified marks block i as hash-checked.
func (t *Tree) SetVerified(i int) {
	if i >= 0 && i < len(t.verified) {
		t.verified[i] = true
	}
}

// Load fills the tree from a complete flat node array.
func Load(nodes []Hash, numBlocks int) (*Tree, error) {
	t := New(numBlocks)
	if len(nodes) != len(t.nodes) {
		return nil, ErrNodeCount
	}
	copy(t.nodes, nodes)
	for i := range t.mask {
		t.mask[i] = true
	}
	return t, nil
}

// LoadSparse fills the tree from the present nodes and their mask. The
// number of true mask entries must equal len(nodes).
func LoadSparse(nodes []Hash, mask []bool, numBlocks int) (*Tree, error) {
	t := New(numBlocks)
	if len(mask) != len(t.mask) {
		return nil, ErrMaskCount
	}
	j := 0
	for i, ok := range mask {
		if !ok {
			continue
		}
		if j >= len(nodes) {
			return nil, ErrNodeCount
		}
		t.nodes[i] = nodes[j]
		t.mask[i] = true
		j++
	}
	if j != len(nodes) {
		return nil, ErrNodeCount
	}
	return t, nil
}

// SetPieceLayer places the piece row of the tree and computes everything
// above it. blocksPerPiece must be a power of two. The layer must cover the
// file's pieces exactly.
func (t *Tree) SetPieceLayer(layer []Hash, blocksPerPiece int) error {
	levels := bits.Len(uint(blocksPerPiece)) - 1
	numPieces := (t.blocks + blocksPerPiece - 1) / blocksPerPiece
	if len(layer) != numPieces {
		return ErrLayerCount
	}
	rowLen := (t.leafRow + 1) >> levels
	if rowLen < 1 {
		rowLen = 1
	}
	rowStart := rowLen - 1
	pad := PadHash(levels)
	for i := 0; i < rowLen; i++ {
		if i < len(layer) {
			t.nodes[rowStart+i] = layer[i]
		} else {
			t.nodes[rowStart+i] = pad
		}
		t.mask[rowStart+i] = true
	}
	for i := rowStart - 1; i >= 0; i-- {
		t.nodes[i] = combine(t.nodes[2*i+1], t.nodes[2*i+2])
		t.mask[i] = true
	}
	return nil
}

// PieceLayer returns the piece row hashes covering the file's pieces.
func (t *Tree) PieceLayer(blocksPerPiece int) []Hash {
	levels := bits.Len(uint(blocksPerPiece)) - 1
	numPieces := (t.blocks + blocksPerPiece - 1) / blocksPerPiece
	rowLen := (t.leafRow + 1) >> levels
	if rowLen < 1 {
		rowLen = 1
	}
	rowStart := rowLen - 1
	if numPieces > rowLen {
		numPieces = rowLen
	}
	out := make([]Hash, numPieces)
	copy(out, t.nodes[rowStart:rowStart+numPieces])
	return out
}

// VerifyPieceLayer checks that a piece layer reduces to root for a file of
// numBlocks blocks.
func VerifyPieceLayer(root Hash, layer []Hash, blocksPerPiece, numBlocks int) error {
	numPieces := (numBlocks + blocksPerPiece - 1) / blocksPerPiece
	if len(layer) != numPieces {
		return ErrLayerCount
	}
	levels := bits.Len(uint(blocksPerPiece)) - 1
	if Root(layer, PadHash(levels)) != root {
		return ErrRoot
	}
	return nil
}
