package imgfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteThenMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "origin.img")
	payload := []byte{0xFF, 0xFF, 0x00, 0x00, 0xFF, 0x00}

	require.NoError(t, Write(path, payload))

	data, cleanup, err := Map(path)
	require.NoError(t, err)
	defer cleanup()

	require.Equal(t, payload, data)
}

func TestWriteReplacesExistingImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "origin.img")

	require.NoError(t, Write(path, []byte{1, 2, 3}))
	require.NoError(t, Write(path, []byte{9}))

	data, cleanup, err := Map(path)
	require.NoError(t, err)
	defer cleanup()

	require.Equal(t, []byte{9}, data)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestMapEmptyImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.img")
	require.NoError(t, Write(path, nil))

	data, cleanup, err := Map(path)
	require.NoError(t, err)
	defer cleanup()
	require.Empty(t, data)
}

func TestMapMissingImage(t *testing.T) {
	_, _, err := Map(filepath.Join(t.TempDir(), "absent.img"))
	require.Error(t, err)
}
