package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsConfig_Resolve(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(base, "elsewhere")

	paths, err := PathsConfig{DataDir: "data", LogsDir: "logs", ResultsDir: abs}.Resolve(base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)
	assert.Equal(t, abs, paths.ResultsDir)
}

func TestPaths_FileNaming(t *testing.T) {
	p := &Paths{DataDir: "/d", LogsDir: "/l", ResultsDir: "/r"}

	assert.Equal(t, filepath.Join("/l", "log_hello.csv.txt"), p.CheckpointPath("hello.csv"))
	assert.Equal(t, filepath.Join("/l", "log_hello.csv.txt"), p.CheckpointPath("/d/hello.csv"))
	assert.Equal(t, filepath.Join("/r", "result_hello.csv"), p.ResultPath("hello.csv"))
	assert.Equal(t, filepath.Join("/d", "hello.csv"), p.WorkListPath("hello.csv"))
	assert.Equal(t, filepath.Join("/l", "scraper.log"), p.LogPath("scraper.log"))
	assert.Equal(t, "/var/log/x.log", p.LogPath("/var/log/x.log"))
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths, err := PathsConfig{DataDir: "data", LogsDir: "logs/nested", ResultsDir: "results"}.Resolve(base)
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories())

	assert.DirExists(t, paths.LogsDir)
	assert.DirExists(t, paths.ResultsDir)
	_, err = os.Stat(paths.DataDir)
	assert.True(t, os.IsNotExist(err))
	assert.True(t, FileExists(paths.LogsDir))
}
