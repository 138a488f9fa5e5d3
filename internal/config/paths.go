package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the resolved directories of one run. It is the single place
// that knows how checkpoint and result files are named.
type Paths struct {
	DataDir    string
	LogsDir    string
	ResultsDir string
}

// Resolve makes every configured directory absolute relative to base
func (p PathsConfig) Resolve(base string) (*Paths, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	abs := func(dir string) string {
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir)
		}
		return filepath.Join(base, dir)
	}
	return &Paths{
		DataDir:    abs(p.DataDir),
		LogsDir:    abs(p.LogsDir),
		ResultsDir: abs(p.ResultsDir),
	}, nil
}

// EnsureDirectories creates the logs and results directories. The data
// directory is input and is never created.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.LogsDir, p.ResultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// WorkListPath returns the path of a work list file in the data directory
func (p *Paths) WorkListPath(name string) string {
	return filepath.Join(p.DataDir, filepath.Base(name))
}

// CheckpointPath returns the job state file of a work list
func (p *Paths) CheckpointPath(workList string) string {
	return filepath.Join(p.LogsDir, "log_"+filepath.Base(workList)+".txt")
}

// ResultPath returns the output file of a work list
func (p *Paths) ResultPath(workList string) string {
	return filepath.Join(p.ResultsDir, "result_"+filepath.Base(workList))
}

// LogPath resolves a log file name inside the logs directory
func (p *Paths) LogPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.LogsDir, name)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
