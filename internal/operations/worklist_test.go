package operations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finscrape/internal/errors"
	"finscrape/pkg/contracts/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hello.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadWorkList(t *testing.T) {
	path := writeFile(t, "Symbol\tRegistry\nAAPL\tnasdaq\nMSFT\n  GOOG  \t NASDAQ \n")

	wl, err := ReadWorkList(path, '\t')
	require.NoError(t, err)

	assert.Equal(t, "hello.csv", wl.Name)
	assert.Equal(t, []domain.WorkItem{
		{Index: 1, Identifier: "AAPL", Registry: "NASDAQ"},
		{Index: 2, Identifier: "MSFT"},
		{Index: 3, Identifier: "GOOG", Registry: "NASDAQ"},
	}, wl.Items)
	assert.Equal(t, 3, wl.Len())
}

func TestReadWorkList_BlankIdentifierKeepsPosition(t *testing.T) {
	path := writeFile(t, "Symbol\tRegistry\nAAPL\t\n\tNYSE\nMSFT\t\n")

	wl, err := ReadWorkList(path, '\t')
	require.NoError(t, err)
	require.Len(t, wl.Items, 3)
	assert.Equal(t, "", wl.Items[1].Identifier)
	assert.Equal(t, 2, wl.Items[1].Index)
	assert.Equal(t, "MSFT", wl.Items[2].Identifier)
	assert.Equal(t, 3, wl.Items[2].Index)
}

func TestReadWorkList_HeaderOnly(t *testing.T) {
	wl, err := ReadWorkList(writeFile(t, "Symbol\n"), '\t')
	require.NoError(t, err)
	assert.Zero(t, wl.Len())
}

func TestReadWorkList_CustomDelimiterAndStrayQuotes(t *testing.T) {
	wl, err := ReadWorkList(writeFile(t, "Symbol;Registry\nBRK'B;NYSE\nO\"Reilly;NASDAQ\n"), ';')
	require.NoError(t, err)
	require.Len(t, wl.Items, 2)
	assert.Equal(t, "BRK'B", wl.Items[0].Identifier)
	assert.Equal(t, `O"Reilly`, wl.Items[1].Identifier)
}

func TestReadWorkList_Missing(t *testing.T) {
	_, err := ReadWorkList(filepath.Join(t.TempDir(), "absent.csv"), '\t')
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeWorkListIO))
}
