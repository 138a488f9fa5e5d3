package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finscrape/internal/errors"
	"finscrape/pkg/contracts/domain"
)

func sampleRecord(index int, symbol string) *domain.Record {
	values := map[domain.Field]domain.Value{
		domain.FieldStockSymbol: domain.Text(symbol),
		domain.FieldExchange:    domain.Text("NASDAQ"),
		domain.FieldStockName:   domain.Text(`Apple "Inc"`),
		domain.FieldMarketCap:   domain.Number(2500000),
		domain.FieldCurrentYear: domain.Date(time.Date(2016, 9, 24, 0, 0, 0, 0, time.UTC)),
	}
	item := domain.WorkItem{Index: index, Identifier: symbol}
	return domain.NewRecord(item, domain.ResolutionMatched, values, nil)
}

func TestFormatRow(t *testing.T) {
	assert.Equal(t, "\"a\",\"b,c\",\"d\"\"e\"\n", FormatRow([]string{"a", "b,c", `d"e`}))
	assert.Equal(t, "\"\"\n", FormatRow([]string{""}))
}

func TestRecordSink_CreatesHeaderAndQuotesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "result_hello.csv")

	sink, err := OpenRecordSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Write(sampleRecord(1, "AAPL")))
	require.NoError(t, sink.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, strings.TrimSuffix(FormatRow(domain.Header()), "\n"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"AAPL","NASDAQ","Apple ""Inc""","2500000"`))
	assert.Contains(t, lines[1], `"2016-09-24"`)
	assert.Contains(t, lines[1], `"N/A"`)
	assert.True(t, strings.HasSuffix(lines[1], `"MATCHED"`))
}

func TestRecordSink_AppendsWithoutSecondHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result_hello.csv")

	sink, err := OpenRecordSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Write(sampleRecord(1, "AAPL")))
	require.NoError(t, sink.Close())

	sink, err = OpenRecordSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Write(sampleRecord(2, "MSFT")))
	assert.Equal(t, 1, sink.Rows())
	require.NoError(t, sink.Close())

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.Header(), rows[0])
	assert.Equal(t, "AAPL", rows[1][0])
	assert.Equal(t, "MSFT", rows[2][0])
	for _, row := range rows {
		assert.Len(t, row, len(domain.Schema))
	}
}

func TestRecordSink_EmptyFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result_hello.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	sink, err := OpenRecordSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.Header(), rows[0])
}

func TestRecordSink_DropsUnterminatedLastRow(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
	}{
		{"cut inside a field", `"MSFT","NASD`},
		{"cut before the newline", strings.TrimSuffix(FormatRow(sampleRecord(2, "MSFT").Row()), "\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "result_hello.csv")
			content := FormatRow(domain.Header()) + FormatRow(sampleRecord(1, "AAPL").Row()) + tt.fragment
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			sink, err := OpenRecordSink(path, nil)
			require.NoError(t, err)
			require.NoError(t, sink.Write(sampleRecord(2, "GOOG")))
			require.NoError(t, sink.Close())

			rows, err := ReadRows(path)
			require.NoError(t, err)
			require.Len(t, rows, 3)
			assert.Equal(t, "AAPL", rows[1][0])
			assert.Equal(t, "GOOG", rows[2][0])
			for _, row := range rows {
				assert.Len(t, row, len(domain.Schema))
			}
		})
	}
}

func TestRecordSink_RewritesUnterminatedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result_hello.csv")
	require.NoError(t, os.WriteFile(path, []byte(`"Stock Sym`), 0o644))

	sink, err := OpenRecordSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Write(sampleRecord(1, "AAPL")))
	require.NoError(t, sink.Close())

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.Header(), rows[0])
	assert.Equal(t, "AAPL", rows[1][0])
}

func TestRecordSink_RejectsForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result_hello.csv")
	require.NoError(t, os.WriteFile(path, []byte("\"a\",\"b\"\n"), 0o644))

	_, err := OpenRecordSink(path, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeWorkListIO))
}

func TestRecordSink_WriteAfterClose(t *testing.T) {
	sink, err := OpenRecordSink(filepath.Join(t.TempDir(), "result_hello.csv"), nil)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	err = sink.Write(sampleRecord(1, "AAPL"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeWorkListIO))
}

func TestOpenRecordSink_UnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := OpenRecordSink(filepath.Join(blocker, "result_hello.csv"), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeWorkListIO))
}
