package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary directory and returns a filesystem
// backed Store for testing.
func setupTestStore(t *testing.T) (Store, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	require.NoError(t, err)
	return store, tempDir
}

func createTestRecord() *RunRecord {
	r := NewRunRecord("host", 1024)
	r.Platform = "Host Emulation"
	r.Device = "host-cpu"
	r.Duration = 3 * time.Millisecond
	r.Verified = true
	r.Stage = "completed"
	return r
}

func TestSaveRun(t *testing.T) {
	store, tempDir := setupTestStore(t)
	record := createTestRecord()

	require.NoError(t, store.SaveRun(record))

	expectedPath := filepath.Join(tempDir, "runs", record.ID, "run.json")
	assert.FileExists(t, expectedPath)
	assert.NoFileExists(t, expectedPath+".tmp", "temp file was left behind")
}

func TestSaveRun_Invalid(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.Error(t, store.SaveRun(nil))

	record := createTestRecord()
	record.ID = "not-a-uuid"
	var verr *ValidationError
	assert.ErrorAs(t, store.SaveRun(record), &verr)
}

func TestLoadRun(t *testing.T) {
	store, _ := setupTestStore(t)
	record := createTestRecord()
	require.NoError(t, store.SaveRun(record))

	loaded, err := store.LoadRun(record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, loaded.ID)
	assert.Equal(t, record.Device, loaded.Device)
	assert.Equal(t, record.Elements, loaded.Elements)
	assert.True(t, loaded.Timestamp.Equal(record.Timestamp), "timestamp = %v, want %v", loaded.Timestamp, record.Timestamp)
	assert.Equal(t, record.Duration, loaded.Duration)
}

func TestLoadRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadRun("missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "run not found: missing")

	_, err = store.LoadRun("")
	assert.Error(t, err)
}

func TestListRuns_Empty(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestListRuns_SortedAndSkipsInvalid(t *testing.T) {
	store, tempDir := setupTestStore(t)

	older := createTestRecord()
	older.Timestamp = time.Now().Add(-time.Hour)
	failed := createTestRecord()
	failed.Error = "boom"
	for _, r := range []*RunRecord{failed, older} {
		require.NoError(t, store.SaveRun(r))
	}

	// A directory without a record and a corrupted record.
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "runs", "empty"), 0755))
	corrupt := filepath.Join(tempDir, "runs", "corrupt")
	require.NoError(t, os.MkdirAll(corrupt, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(corrupt, "run.json"), []byte("{"), 0644))

	infos, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, older.ID, infos[0].ID, "runs sorted by timestamp")
	assert.Equal(t, failed.ID, infos[1].ID)
	assert.True(t, infos[0].OK)
	assert.False(t, infos[1].OK)
}

func TestDeleteRun(t *testing.T) {
	store, tempDir := setupTestStore(t)
	record := createTestRecord()
	require.NoError(t, store.SaveRun(record))
	tw, err := NewTraceWriter(tempDir, record.ID)
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	require.NoError(t, store.DeleteRun(record.ID))
	assert.NoDirExists(t, filepath.Join(tempDir, "runs", record.ID))
	assert.ErrorIs(t, store.DeleteRun(record.ID), ErrNotFound)
	assert.Error(t, store.DeleteRun(""))
}

func TestConcurrentSave(t *testing.T) {
	store, _ := setupTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.SaveRun(createTestRecord()))
		}()
	}
	wg.Wait()

	infos, err := store.ListRuns()
	require.NoError(t, err)
	assert.Len(t, infos, 10)
}
