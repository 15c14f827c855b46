package bitfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitFieldSetTest(t *testing.T) {
	b := New(10)
	assert.Equal(t, uint32(10), b.Len())
	assert.False(t, b.Test(0))
	b.Set(0)
	assert.True(t, b.Test(0))
	assert.Equal(t, byte(0x80), b.Bytes()[0])
	b.Set(9)
	assert.Equal(t, byte(0x40), b.Bytes()[1])
	assert.Equal(t, uint32(2), b.Count())
	b.Clear(0)
	assert.False(t, b.Test(0))
	assert.Equal(t, uint32(1), b.Count())
}

func TestBitFieldAll(t *testing.T) {
	b := New(9)
	for i := uint32(0); i < 9; i++ {
		b.SetTo(i, true)
	}
	assert.True(t, b.All())
	b.Clear(8)
	assert.False(t, b.All())
	b.ClearAll()
	assert.Equal(t, uint32(0), b.Count())
}

func TestNewBytesClearsSpareBits(t *testing.T) {
	raw := []byte{0xff, 0xff}
	b := NewBytes(raw, 9)
	assert.Equal(t, byte(0x80), b.Bytes()[1])
	assert.Equal(t, uint32(9), b.Count())
}

func TestNewBytesPanicsOnShortSlice(t *testing.T) {
	assert.Panics(t, func() { NewBytes([]byte{0}, 9) })
}

func TestBlockFieldOrder(t *testing.T) {
	f := NewBlocks(12)
	f.Set(0)
	f.Set(3)
	f.Set(8)
	// LSB-first: block j maps to bit j%8 of byte j/8.
	assert.Equal(t, []byte{0x09, 0x01}, f.Bytes())
	assert.True(t, f.Test(3))
	assert.False(t, f.Test(4))
	assert.Equal(t, uint32(3), f.Count())
}

func TestBlockFieldMinimumOneByte(t *testing.T) {
	f := NewBlocks(0)
	assert.Len(t, f.Bytes(), 1)
}

func TestBlocksFromBytesCopies(t *testing.T) {
	raw := []byte{0x03}
	f := BlocksFromBytes(raw, 8)
	raw[0] = 0
	assert.True(t, f.Test(0))
	assert.True(t, f.Test(1))
	assert.Equal(t, uint32(2), f.Count())
}
