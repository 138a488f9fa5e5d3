package operations

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	apperrors "finscrape/internal/errors"
)

const completedMarker = "-1"

// CheckpointStore persists the JobState of one work list as a single integer:
// the next row to process, or -1 once every row is done. NextIndex never moves
// backwards through a store.
type CheckpointStore struct {
	path string
	last JobState
}

// NewCheckpointStore creates a store for the checkpoint file at path
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path, last: InitialJobState()}
}

// Path returns the checkpoint file location
func (s *CheckpointStore) Path() string {
	return s.path
}

// Load reads the persisted state. A missing file is a fresh work list. An
// unparsable file returns the initial state together with a JobStateCorrupt error.
func (s *CheckpointStore) Load() (JobState, error) {
	state, err := ReadJobState(s.path)
	switch {
	case err == nil:
		s.last = state
	case apperrors.IsType(err, apperrors.ErrTypeJobStateCorrupt):
		s.last = InitialJobState()
		state = s.last
	}
	return state, err
}

// Save atomically replaces the checkpoint
func (s *CheckpointStore) Save(state JobState) error {
	if s.last.Completed && !state.Completed {
		return fmt.Errorf("checkpoint %s: work list already completed", s.path)
	}
	if !state.Completed && state.NextIndex < s.last.NextIndex {
		return fmt.Errorf("checkpoint %s: refusing to move next index from %d back to %d",
			s.path, s.last.NextIndex, state.NextIndex)
	}
	if !state.Completed && state.NextIndex < 1 {
		return fmt.Errorf("checkpoint %s: invalid next index %d", s.path, state.NextIndex)
	}

	text := strconv.Itoa(state.NextIndex)
	if state.Completed {
		text = completedMarker
	}
	if err := writeFileAtomic(s.path, []byte(text), 0o644); err != nil {
		return apperrors.NewWorkListIOError(s.path, err)
	}

	state.Started = true
	s.last = state
	return nil
}

// ReadJobState reads a checkpoint file without holding a store
func ReadJobState(path string) (JobState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return InitialJobState(), nil
	}
	if err != nil {
		return JobState{}, apperrors.NewWorkListIOError(path, err)
	}
	state, err := parseJobState(string(data))
	if err != nil {
		return InitialJobState(), apperrors.NewJobStateCorruptError(path, err)
	}
	return state, nil
}

func parseJobState(text string) (JobState, error) {
	text = strings.TrimSpace(text)
	if text == completedMarker {
		return JobState{NextIndex: -1, Completed: true, Started: true}, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return JobState{}, fmt.Errorf("not an integer: %q", text)
	}
	if n < 1 {
		return JobState{}, fmt.Errorf("next index %d out of range", n)
	}
	return JobState{NextIndex: n, Started: true}, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

// syncDir makes the rename durable. Directories cannot be synced on Windows.
func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
