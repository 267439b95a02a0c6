package slots

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitmapAllocate(t *testing.T) {
	b := NewBitmap(70)

	allocated := make(map[uint32]bool)
	for i := 0; i < 70; i++ {
		slot, ok := b.Allocate()
		require.True(t, ok, "failed to allocate slot %d", i)
		require.False(t, allocated[slot], "duplicate slot %d", slot)
		allocated[slot] = true
	}

	_, ok := b.Allocate()
	require.False(t, ok, "should not allocate when full")
	require.Equal(t, uint32(70), b.Count())
}

func TestBitmapFree(t *testing.T) {
	b := NewBitmap(10)

	for i := 0; i < 10; i++ {
		_, ok := b.Allocate()
		require.True(t, ok)
	}
	b.Free(3)
	b.Free(42) // out of range, ignored
	require.False(t, b.IsAllocated(3))

	slot, ok := b.Allocate()
	require.True(t, ok)
	require.Equal(t, uint32(3), slot)
}

func TestBitmapEmpty(t *testing.T) {
	b := NewBitmap(0)
	_, ok := b.Allocate()
	require.False(t, ok)
	require.Equal(t, uint32(0), b.Capacity())
}

func TestBitmapMarkAndClone(t *testing.T) {
	b := NewBitmap(8)
	require.True(t, b.Mark(5))
	require.False(t, b.Mark(5))
	require.False(t, b.Mark(8))

	c := b.Clone()
	slot, ok := c.Allocate()
	require.True(t, ok)
	require.Equal(t, uint32(0), slot)
	require.False(t, b.IsAllocated(0), "clone allocation leaked into original")
	require.True(t, c.IsAllocated(5))
}
