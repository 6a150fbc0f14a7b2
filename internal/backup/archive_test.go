package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "backup.tar.gz")

	in := []Entry{
		{Name: "database/groups.json", Data: []byte(`[{"name":"default"}]`)},
		{Name: "xray/config.json", Data: []byte(`{"inbounds":[]}`), ModTime: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		{Name: "metadata.json", Data: []byte(`{}`)},
	}

	size, err := WriteArchive(path, in)
	require.NoError(t, err)
	assert.Greater(t, size, int64(0))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, size, info.Size())

	out, err := ReadArchive(path)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, entry := range out {
		assert.Equal(t, in[i].Name, entry.Name)
		assert.Equal(t, string(in[i].Data), string(entry.Data))
	}
	assert.True(t, out[1].ModTime.Equal(in[1].ModTime))

	// No temp files left behind.
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".backup-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteArchiveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tar.gz")

	size, err := WriteArchive(path, nil)
	require.NoError(t, err)
	assert.Greater(t, size, int64(0))

	out, err := ReadArchive(path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadArchiveMissingFile(t *testing.T) {
	_, err := ReadArchive(filepath.Join(t.TempDir(), "nope.tar.gz"))
	assert.Error(t, err)
}
