package operations

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "finscrape/internal/errors"
	"finscrape/internal/exporter"
	"finscrape/pkg/contracts/domain"
)

// MockExtractor is a mock for the Extractor interface
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, item domain.WorkItem) *domain.Record {
	args := m.Called(ctx, item)
	return args.Get(0).(*domain.Record)
}

// MockAttemptRecorder is a mock for the AttemptRecorder interface
type MockAttemptRecorder struct {
	mock.Mock
}

func (m *MockAttemptRecorder) RecordAttempt(ctx context.Context, attempt domain.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func fullRecord(item domain.WorkItem) *domain.Record {
	values := map[domain.Field]domain.Value{
		domain.FieldStockSymbol: domain.Text(item.Identifier),
		domain.FieldExchange:    domain.Text("NASDAQ"),
		domain.FieldStockName:   domain.Text(item.Identifier + " Corp"),
		domain.FieldGrossProfit: domain.Number(100),
		domain.FieldTotalAssets: domain.Number(1000),
		domain.FieldShareEquity: domain.Number(10),
		domain.FieldOther:       domain.Number(5),
	}
	return domain.NewRecord(item, domain.ResolutionMatched, values, nil)
}

// summaryOnlyRecord is what the extractor yields when both statement tabs are unreachable
func summaryOnlyRecord(item domain.WorkItem) *domain.Record {
	values := map[domain.Field]domain.Value{
		domain.FieldStockSymbol: domain.Text(item.Identifier),
		domain.FieldExchange:    domain.Text("NASDAQ"),
		domain.FieldStockName:   domain.Text(item.Identifier + " Corp"),
		domain.FieldMarketCap:   domain.Number(42),
	}
	failures := []error{
		apperrors.NewSectionUnavailableError(string(domain.SectionIncomeStatement), nil),
		apperrors.NewSectionUnavailableError(string(domain.SectionBalanceSheet), nil),
	}
	return domain.NewRecord(item, domain.ResolutionMatched, values, failures)
}

type workspace struct {
	dir     string
	data    string
	logs    string
	results string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:     dir,
		data:    filepath.Join(dir, "data"),
		logs:    filepath.Join(dir, "logs"),
		results: filepath.Join(dir, "results"),
	}
	require.NoError(t, os.MkdirAll(ws.data, 0o755))
	return ws
}

// writeWorkList writes a tab-delimited work list with a header row
func (ws *workspace) writeWorkList(t *testing.T, name string, identifiers ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Symbol\tRegistry\n")
	for _, id := range identifiers {
		b.WriteString(id + "\tNASDAQ\n")
	}
	path := filepath.Join(ws.data, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func (ws *workspace) job(name string) Job {
	return Job{
		Name:           name,
		WorkListPath:   filepath.Join(ws.data, name),
		CheckpointPath: filepath.Join(ws.logs, "log_"+name+".txt"),
		ResultPath:     filepath.Join(ws.results, "result_"+name),
	}
}

func readCheckpoint(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func readResult(t *testing.T, path string) [][]string {
	t.Helper()
	rows, err := exporter.ReadRows(path)
	require.NoError(t, err)
	return rows
}

func items(ids ...string) []domain.WorkItem {
	out := make([]domain.WorkItem, len(ids))
	for i, id := range ids {
		out[i] = domain.WorkItem{Index: i + 1, Identifier: id, Registry: "NASDAQ"}
	}
	return out
}

func column(field domain.Field) int {
	for i, col := range domain.Schema {
		if col.Field == field {
			return i
		}
	}
	panic("unknown field " + string(field))
}
