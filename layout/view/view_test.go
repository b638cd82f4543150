package view

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/layoutkit/pkg/types"
)

// spreadImage builds a 64-byte image holding a spread placement of four
// 4-byte elements every 16 bytes, each element filled with its index+1.
func spreadImage() (types.LayoutEntry, []byte) {
	e := types.LayoutEntry{Base: 0, Stride: 16, ElemSize: 4, Count: 4}
	img := make([]byte, 64)
	for i := uint64(0); i < e.Count; i++ {
		er := e.ElemRange(i)
		for off := er.Start; off < er.End; off++ {
			img[off] = byte(i + 1)
		}
	}
	return e, img
}

func TestScopedCopiesElementsGapFree(t *testing.T) {
	src, img := spreadImage()

	v, err := NewScoped(src, img, 2)
	require.NoError(t, err)
	defer v.Close()

	// 16 element bytes reinterpreted as 2-byte elements.
	require.Equal(t, uint64(8), v.Count())

	data, err := v.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}, data)

	el, err := v.Elem(2)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 2}, el)

	_, err = v.Elem(8)
	require.Error(t, err)
}

func TestScopedIsACopy(t *testing.T) {
	src, img := spreadImage()

	v, err := NewScoped(src, img, 4)
	require.NoError(t, err)
	defer v.Close()

	// Mutating the arena image afterwards does not leak into the view.
	img[0] = 0xFF
	el, err := v.Elem(0)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 1, 1, 1}, el)
}

func TestScopedCloseIsIdempotent(t *testing.T) {
	src, img := spreadImage()

	v, err := NewScoped(src, img, 4)
	require.NoError(t, err)

	require.NoError(t, v.Close())
	require.NoError(t, v.Close())

	_, err = v.Bytes()
	require.ErrorIs(t, err, ErrClosed)
	_, err = v.Elem(0)
	require.ErrorIs(t, err, ErrClosed)
	require.Equal(t, uint64(0), v.Count())
}

func TestScopedRejectsBadArguments(t *testing.T) {
	src, img := spreadImage()

	_, err := NewScoped(src, img, 0)
	require.Error(t, err)

	_, err = NewScoped(src, img[:32], 4)
	require.Error(t, err)
}

func TestAliasSharesStorageAndAlwaysWarns(t *testing.T) {
	src, img := spreadImage()

	a, warn, err := NewAlias(src, img)
	require.NoError(t, err)
	require.NotNil(t, warn)
	require.Equal(t, types.KindUnsafeAlias, warn.Kind)
	require.Equal(t, types.SevWarning, warn.Severity)

	// Shared storage: a write through the image shows in the alias.
	require.Equal(t, byte(1), a.Bytes()[0])
	img[0] = 0x7F
	require.Equal(t, byte(0x7F), a.Bytes()[0])

	// The alias spans the whole footprint, spread gaps included.
	require.Len(t, a.Bytes(), 64)
}

func TestAliasStaleness(t *testing.T) {
	src, img := spreadImage()

	a, _, err := NewAlias(src, img)
	require.NoError(t, err)

	require.False(t, a.Stale(src))

	moved := src
	moved.Base = 128
	require.True(t, a.Stale(moved))
}
