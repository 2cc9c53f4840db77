package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/clvecsum/internal/config"
	"github.com/cwbudde/clvecsum/internal/store"
)

// useSettings swaps the resolved settings for the duration of a test.
func useSettings(t *testing.T, cfg config.Config) {
	t.Helper()
	original := settings
	settings = cfg
	t.Cleanup(func() { settings = original })
}

func saveRun(t *testing.T, dir string, age time.Duration) *store.RunRecord {
	t.Helper()
	s, err := openRunStore(dir)
	require.NoError(t, err)
	r := store.NewRunRecord("host", 16)
	r.Device = "host-cpu"
	r.Timestamp = time.Now().Add(-age)
	require.NoError(t, s.SaveRun(r))
	return r
}

func runIDs(infos []store.RunInfo) []string {
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	return ids
}

func TestSelectRunsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{ID: "run1", Timestamp: now.AddDate(0, 0, -10)},
		{ID: "run2", Timestamp: now.AddDate(0, 0, -5)},
		{ID: "run3", Timestamp: now.AddDate(0, 0, -1)},
		{ID: "run4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectRunsForDeletion(infos, 0, 7, now)
	assert.Equal(t, []string{"run1", "run4"}, runIDs(toDelete))
}

func TestSelectRunsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{ID: "run1", Timestamp: now.AddDate(0, 0, -10)},
		{ID: "run2", Timestamp: now.AddDate(0, 0, -5)},
		{ID: "run3", Timestamp: now.AddDate(0, 0, -1)},
		{ID: "run4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectRunsForDeletion(infos, 2, 0, now)
	assert.Equal(t, []string{"run4", "run1"}, runIDs(toDelete), "the oldest two go first")
}

func TestSelectRunsForDeletion_CombinedHasNoDuplicates(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{ID: "run1", Timestamp: now.AddDate(0, 0, -10)},
		{ID: "run2", Timestamp: now.AddDate(0, 0, -8)},
		{ID: "run3", Timestamp: now.AddDate(0, 0, -1)},
	}

	toDelete := selectRunsForDeletion(infos, 1, 7, now)
	assert.Len(t, toDelete, 2)
}

func TestListRuns_Empty(t *testing.T) {
	useSettings(t, config.Config{DataDir: t.TempDir()})

	var out bytes.Buffer
	require.NoError(t, runListRuns(&out))
	assert.Contains(t, out.String(), "No runs found.")
}

func TestListRuns_WithRuns(t *testing.T) {
	dir := t.TempDir()
	useSettings(t, config.Config{DataDir: dir})
	r := saveRun(t, dir, time.Hour)

	var out bytes.Buffer
	require.NoError(t, runListRuns(&out))
	for _, want := range []string{r.ID[:8], "host-cpu", "ok", "Total runs: 1"} {
		assert.Contains(t, out.String(), want)
	}
}

func TestCleanRuns_NoFlags(t *testing.T) {
	useSettings(t, config.Config{DataDir: t.TempDir()})
	keepLast, olderThanDays = 0, 0

	err := runCleanRuns(&bytes.Buffer{}, strings.NewReader(""))
	assert.Error(t, err, "no selection flags given")
}

func TestCleanRuns_PromptDeclined(t *testing.T) {
	dir := t.TempDir()
	useSettings(t, config.Config{DataDir: dir})
	r := saveRun(t, dir, 30*24*time.Hour)
	keepLast, olderThanDays, forceClean = 0, 7, false

	var out bytes.Buffer
	require.NoError(t, runCleanRuns(&out, strings.NewReader("n\n")))
	assert.Contains(t, out.String(), "Aborted.")

	s, err := openRunStore(dir)
	require.NoError(t, err)
	_, err = s.LoadRun(r.ID)
	assert.NoError(t, err, "run should still exist")
}

func TestCleanRuns_WithForce(t *testing.T) {
	dir := t.TempDir()
	useSettings(t, config.Config{DataDir: dir})
	old := saveRun(t, dir, 30*24*time.Hour)
	recent := saveRun(t, dir, time.Minute)
	keepLast, olderThanDays, forceClean = 0, 7, true
	t.Cleanup(func() { forceClean = false })

	require.NoError(t, runCleanRuns(&bytes.Buffer{}, strings.NewReader("")))

	s, err := openRunStore(dir)
	require.NoError(t, err)
	_, err = s.LoadRun(old.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.LoadRun(recent.ID)
	assert.NoError(t, err, "recent run should remain")
}
