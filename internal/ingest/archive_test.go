package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festmap/internal/models"
	"festmap/internal/structures"
	"festmap/internal/testutil"
)

func newTestArchive(t *testing.T, ttl time.Duration) *PinArchive {
	t.Helper()
	conf := &structures.Config{
		Archive: structures.ArchiveConfig{Dir: t.TempDir(), TTL: ttl},
	}
	return NewPinArchive(conf, &testutil.MockCompressor{}, &testutil.MockLogger{})
}

func readArchiveFile(t *testing.T, path string) *archiveFile {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	af := &archiveFile{}
	require.NoError(t, json.Unmarshal(data, af))
	return af
}

func TestPinArchive_DisabledWithoutDir(t *testing.T) {
	pa := NewPinArchive(&structures.Config{}, &testutil.MockCompressor{}, &testutil.MockLogger{})

	assert.False(t, pa.Enabled())
	pa.Append(&models.PostRecord{ID: "a"})
	assert.NoError(t, pa.Flush())
	assert.Empty(t, pa.pending)
}

func TestPinArchive_AppendIsBufferedUntilFlush(t *testing.T) {
	pa := newTestArchive(t, 0)

	pa.Append(&models.PostRecord{ID: "a"}, &models.PostRecord{ID: "b"})

	entries, err := filepath.Glob(filepath.Join(pa.dir, "pins-*"+archiveSuffix))
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, pa.Flush())

	day := time.Now().Format("2006-01-02")
	af := readArchiveFile(t, filepath.Join(pa.dir, "pins-"+day+archiveSuffix))
	require.Len(t, af.Entries, 2)
	assert.Equal(t, "a", af.Entries[0].Post.ID)
	assert.Empty(t, pa.pending)
}

func TestPinArchive_FlushMergesIntoExistingDayFile(t *testing.T) {
	pa := newTestArchive(t, 0)

	pa.Append(&models.PostRecord{ID: "a"})
	require.NoError(t, pa.Flush())
	pa.Append(&models.PostRecord{ID: "b"})
	require.NoError(t, pa.Flush())

	day := time.Now().Format("2006-01-02")
	af := readArchiveFile(t, filepath.Join(pa.dir, "pins-"+day+archiveSuffix))
	require.Len(t, af.Entries, 2)
}

func TestPinArchive_CleanupRemovesExpiredDayFiles(t *testing.T) {
	pa := newTestArchive(t, 48*time.Hour)
	require.NoError(t, os.MkdirAll(pa.dir, 0755))

	oldDay := time.Now().Add(-10 * 24 * time.Hour).Format("2006-01-02")
	oldPath := filepath.Join(pa.dir, "pins-"+oldDay+archiveSuffix)
	require.NoError(t, os.WriteFile(oldPath, []byte(`{"entries":[]}`), 0644))

	pa.Append(&models.PostRecord{ID: "fresh"})
	require.NoError(t, pa.Flush())

	_, err := os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))

	day := time.Now().Format("2006-01-02")
	_, err = os.Stat(filepath.Join(pa.dir, "pins-"+day+archiveSuffix))
	assert.NoError(t, err)
}
