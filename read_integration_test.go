package sdfat_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdfat/sdfat"
	"github.com/sdfat/sdfat/imggen"
)

func TestReadFileSpanningClusters(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789ABCDEF"), 60) // 960 bytes

	volume := imggen.New()
	volume.Chain(5, 9)
	volume.AddFile(volume.RootCluster, "SPAN.TXT", 5, uint32(len(content)), content)

	fs, err := sdfat.New(volume.Device())
	require.NoError(t, err)

	got, err := fs.ReadFile(shortName(t, "SPAN.TXT"), nil)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestReadFileMultiSectorCluster(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 3*sdfat.SectorSize+17)

	volume := imggen.New()
	volume.SectorsPerCluster = 4
	volume.AddFile(volume.RootCluster, "FAT.BIN", 5, uint32(len(content)), content)

	fs, err := sdfat.New(volume.Device())
	require.NoError(t, err)

	got, err := fs.ReadFile(shortName(t, "FAT.BIN"), nil)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestReadFileInSubdirectory(t *testing.T) {
	content := []byte("hello from below\r\n")

	volume := imggen.New()
	volume.AddDir(volume.RootCluster, "SUB", 4)
	volume.AddFile(4, "HELLO.TXT", 5, uint32(len(content)), content)

	fs, err := sdfat.New(volume.Device())
	require.NoError(t, err)

	got, err := fs.ReadFile(shortName(t, "HELLO.TXT"), [][11]byte{shortName(t, "SUB")})
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestReadFileEmpty(t *testing.T) {
	volume := imggen.New()
	volume.AddFile(volume.RootCluster, "EMPTY.TXT", 0, 0, nil)

	fs, err := sdfat.New(volume.Device())
	require.NoError(t, err)

	got, err := fs.ReadFile(shortName(t, "EMPTY.TXT"), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadFileNotFound(t *testing.T) {
	fs, err := sdfat.New(imggen.New().Device())
	require.NoError(t, err)

	_, err = fs.ReadFile(shortName(t, "NOPE.TXT"), nil)
	assert.True(t, errors.Is(err, sdfat.ErrNotFound), "err = %v", err)
}

func TestReadFileTruncatedChain(t *testing.T) {
	// The directory records 600 bytes but the chain ends after one
	// 512-byte cluster.
	content := bytes.Repeat([]byte("y"), sdfat.SectorSize)

	volume := imggen.New()
	volume.AddFile(volume.RootCluster, "CUT.TXT", 5, 600, content)

	fs, err := sdfat.New(volume.Device())
	require.NoError(t, err)

	got, err := fs.ReadFile(shortName(t, "CUT.TXT"), nil)
	assert.True(t, errors.Is(err, sdfat.ErrReadFile), "err = %v", err)
	assert.Equal(t, content, got)
}

func TestReadFileAfterDeleteNotFound(t *testing.T) {
	content := []byte("short lived")

	volume := imggen.New()
	volume.AddFile(volume.RootCluster, "TEMP.TXT", 5, uint32(len(content)), content)

	fs, err := sdfat.New(volume.Device())
	require.NoError(t, err)

	name := shortName(t, "TEMP.TXT")
	require.NoError(t, fs.Delete(name, nil))

	_, err = fs.ReadFile(name, nil)
	assert.True(t, errors.Is(err, sdfat.ErrNotFound), "err = %v", err)
}
