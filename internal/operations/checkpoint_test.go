package operations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finscrape/internal/errors"
)

func TestCheckpointStore_MissingFileIsNotStarted(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "log_hello.csv.txt"))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, state.NextIndex)
	assert.Equal(t, JobStatusNotStarted, state.Status())
}

func TestCheckpointStore_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "log_hello.csv.txt")
	store := NewCheckpointStore(path)

	require.NoError(t, store.Save(JobState{NextIndex: 4}))
	assert.Equal(t, "4", readCheckpoint(t, path))

	state, err := NewCheckpointStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 4, state.NextIndex)
	assert.Equal(t, JobStatusInProgress, state.Status())
}

func TestCheckpointStore_CompletedMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_hello.csv.txt")
	store := NewCheckpointStore(path)

	require.NoError(t, store.Save(JobState{NextIndex: 3}))
	require.NoError(t, store.Save(JobState{Completed: true}))
	assert.Equal(t, "-1", readCheckpoint(t, path))

	state, err := ReadJobState(path)
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Equal(t, JobStatusCompleted, state.Status())
}

func TestCheckpointStore_Corrupt(t *testing.T) {
	for _, content := range []string{"abc", "", "0", "-7", "1.5"} {
		t.Run(content, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "log_hello.csv.txt")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			store := NewCheckpointStore(path)
			state, err := store.Load()
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeJobStateCorrupt))
			assert.Equal(t, InitialJobState(), state)

			require.NoError(t, store.Save(JobState{NextIndex: 1}))
			assert.Equal(t, "1", readCheckpoint(t, path))
		})
	}
}

func TestCheckpointStore_ToleratesWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_hello.csv.txt")
	require.NoError(t, os.WriteFile(path, []byte(" 12\n"), 0o644))

	state, err := ReadJobState(path)
	require.NoError(t, err)
	assert.Equal(t, 12, state.NextIndex)
}

func TestCheckpointStore_NeverMovesBackwards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_hello.csv.txt")
	store := NewCheckpointStore(path)

	require.NoError(t, store.Save(JobState{NextIndex: 5}))
	assert.Error(t, store.Save(JobState{NextIndex: 3}))
	assert.Equal(t, "5", readCheckpoint(t, path))

	require.NoError(t, store.Save(JobState{NextIndex: 5}))
	require.NoError(t, store.Save(JobState{Completed: true}))
	assert.Error(t, store.Save(JobState{NextIndex: 6}))
	assert.Equal(t, "-1", readCheckpoint(t, path))
}

func TestCheckpointStore_LoadedStateGuardsSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_hello.csv.txt")
	require.NoError(t, os.WriteFile(path, []byte("8"), 0o644))

	store := NewCheckpointStore(path)
	_, err := store.Load()
	require.NoError(t, err)
	assert.Error(t, store.Save(JobState{NextIndex: 2}))
}

func TestCheckpointStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointStore(filepath.Join(dir, "log_hello.csv.txt"))
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Save(JobState{NextIndex: i}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "log_hello.csv.txt", entries[0].Name())
}

func TestCheckpointStore_UnreadableIsWorkListIO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_hello.csv.txt")
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err := NewCheckpointStore(path).Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeWorkListIO))
}
