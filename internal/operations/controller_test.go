package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finscrape/internal/extractor"
	"finscrape/internal/infrastructure"
	"finscrape/internal/shared/testutil"
	"finscrape/pkg/contracts/domain"
)

func newTestController(t *testing.T, extractor Extractor, opts ...ControllerOption) (*Controller, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	opts = append([]ControllerOption{WithControllerLogger(logger)}, opts...)
	return NewController(extractor, CSVSinks(logger), opts...), handler
}

func tenIdentifiers() []string {
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = "SYM" + strconv.Itoa(i+1)
	}
	return ids
}

func TestController_FreshRun(t *testing.T) {
	ws := newWorkspace(t)
	ws.writeWorkList(t, "hello.csv", "AAPL", "MSFT")
	job := ws.job("hello.csv")

	ext := new(MockExtractor)
	for _, item := range items("AAPL", "MSFT") {
		ext.On("Extract", mock.Anything, item).Return(fullRecord(item)).Once()
	}

	controller, handler := newTestController(t, ext)
	summary, err := controller.Run(context.Background(), job)
	require.NoError(t, err)

	ext.AssertExpectations(t)
	assert.Equal(t, Summary{Job: "hello.csv", Status: JobStatusCompleted, Total: 2, Processed: 2}, summary)
	assert.Equal(t, "-1", readCheckpoint(t, job.CheckpointPath))

	rows := readResult(t, job.ResultPath)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.Header(), rows[0])
	assert.Equal(t, "AAPL", rows[1][0])
	assert.Equal(t, "MSFT", rows[2][0])

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Work list completed")
	testutil.AssertNoErrors(t, handler)
}

func TestController_CreatesCheckpointBeforeFirstItem(t *testing.T) {
	ws := newWorkspace(t)
	ws.writeWorkList(t, "hello.csv", "AAPL")
	job := ws.job("hello.csv")

	var during string
	item := items("AAPL")[0]
	ext := new(MockExtractor)
	ext.On("Extract", mock.Anything, item).Return(fullRecord(item)).Run(func(mock.Arguments) {
		during = readCheckpoint(t, job.CheckpointPath)
	})

	controller, _ := newTestController(t, ext)
	_, err := controller.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "1", during)
}

func TestController_ResumesFromCheckpoint(t *testing.T) {
	ws := newWorkspace(t)
	ids := tenIdentifiers()
	ws.writeWorkList(t, "hello.csv", ids...)
	job := ws.job("hello.csv")

	require.NoError(t, os.MkdirAll(ws.logs, 0o755))
	require.NoError(t, os.WriteFile(job.CheckpointPath, []byte("5"), 0o644))

	ext := new(MockExtractor)
	for _, item := range items(ids...)[4:] {
		ext.On("Extract", mock.Anything, item).Return(fullRecord(item)).Once()
	}

	controller, _ := newTestController(t, ext)
	summary, err := controller.Run(context.Background(), job)
	require.NoError(t, err)

	ext.AssertExpectations(t)
	ext.AssertNumberOfCalls(t, "Extract", 6)
	assert.Equal(t, 6, summary.Processed)
	assert.Equal(t, 4, summary.Skipped)

	rows := readResult(t, job.ResultPath)
	require.Len(t, rows, 7)
	for i, row := range rows[1:] {
		assert.Equal(t, ids[i+4], row[0])
	}
	assert.Equal(t, "-1", readCheckpoint(t, job.CheckpointPath))
}

func TestController_CompletedRunIsNoOp(t *testing.T) {
	ws := newWorkspace(t)
	ws.writeWorkList(t, "hello.csv", "AAPL", "MSFT", "GOOG")
	job := ws.job("hello.csv")

	first := new(MockExtractor)
	for _, item := range items("AAPL", "MSFT", "GOOG") {
		first.On("Extract", mock.Anything, item).Return(fullRecord(item)).Once()
	}
	controller, _ := newTestController(t, first)
	_, err := controller.Run(context.Background(), job)
	require.NoError(t, err)

	before, err := os.ReadFile(job.ResultPath)
	require.NoError(t, err)

	second := new(MockExtractor)
	controller, handler := newTestController(t, second)
	summary, err := controller.Run(context.Background(), job)
	require.NoError(t, err)

	second.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	assert.True(t, summary.AlreadyCompleted)
	assert.Equal(t, JobStatusCompleted, summary.Status)
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Work list already completed")

	after, err := os.ReadFile(job.ResultPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestController_UnreachableStatementsStillWriteRow(t *testing.T) {
	ws := newWorkspace(t)
	ws.writeWorkList(t, "hello.csv", "AAPL", "MSFT", "GOOG")
	job := ws.job("hello.csv")

	all := items("AAPL", "MSFT", "GOOG")
	ext := new(MockExtractor)
	ext.On("Extract", mock.Anything, all[0]).Return(fullRecord(all[0]))
	ext.On("Extract", mock.Anything, all[1]).Return(summaryOnlyRecord(all[1]))
	ext.On("Extract", mock.Anything, all[2]).Return(fullRecord(all[2]))

	controller, _ := newTestController(t, ext)
	_, err := controller.Run(context.Background(), job)
	require.NoError(t, err)

	rows := readResult(t, job.ResultPath)
	require.Len(t, rows, 4)

	row := rows[2]
	assert.Equal(t, "MSFT", row[column(domain.FieldStockSymbol)])
	assert.Equal(t, "MSFT Corp", row[column(domain.FieldStockName)])
	assert.Equal(t, "42", row[column(domain.FieldMarketCap)])
	for _, section := range []domain.SectionID{domain.SectionIncomeStatement, domain.SectionBalanceSheet, domain.SectionDerived} {
		for _, field := range domain.FieldsInSection(section) {
			assert.Equal(t, domain.MissingText, row[column(field)], field)
		}
	}
	assert.Equal(t, "100", rows[3][column(domain.FieldGrossProfit)])
}

func TestController_CorruptCheckpointRestarts(t *testing.T) {
	ws := newWorkspace(t)
	ws.writeWorkList(t, "hello.csv", "AAPL", "MSFT")
	job := ws.job("hello.csv")

	require.NoError(t, os.MkdirAll(ws.logs, 0o755))
	require.NoError(t, os.WriteFile(job.CheckpointPath, []byte("garbage"), 0o644))

	ext := new(MockExtractor)
	for _, item := range items("AAPL", "MSFT") {
		ext.On("Extract", mock.Anything, item).Return(fullRecord(item)).Once()
	}

	controller, handler := newTestController(t, ext)
	summary, err := controller.Run(context.Background(), job)
	require.NoError(t, err)

	ext.AssertExpectations(t)
	assert.Equal(t, 2, summary.Processed)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Checkpoint unreadable, restarting work list from the first row")
	assert.Equal(t, "-1", readCheckpoint(t, job.CheckpointPath))
}

func TestController_CancellationResumes(t *testing.T) {
	ws := newWorkspace(t)
	ws.writeWorkList(t, "hello.csv", "AAPL", "MSFT", "GOOG")
	job := ws.job("hello.csv")
	all := items("AAPL", "MSFT", "GOOG")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := new(MockExtractor)
	first.On("Extract", mock.Anything, all[0]).Return(fullRecord(all[0])).Run(func(mock.Arguments) { cancel() })

	controller, _ := newTestController(t, first)
	summary, err := controller.Run(ctx, job)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, JobStatusInProgress, summary.Status)
	assert.Equal(t, "2", readCheckpoint(t, job.CheckpointPath))

	second := new(MockExtractor)
	second.On("Extract", mock.Anything, all[1]).Return(fullRecord(all[1])).Once()
	second.On("Extract", mock.Anything, all[2]).Return(fullRecord(all[2])).Once()

	controller, _ = newTestController(t, second)
	_, err = controller.Run(context.Background(), job)
	require.NoError(t, err)
	second.AssertExpectations(t)

	rows := readResult(t, job.ResultPath)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, []string{rows[1][0], rows[2][0], rows[3][0]})
}

func TestController_InterruptDuringExtractionFinishesItem(t *testing.T) {
	ws := newWorkspace(t)
	ws.writeWorkList(t, "hello.csv", "AAPL", "MSFT")
	job := ws.job("hello.csv")

	layout := extractor.DefaultLayout()
	page := testutil.NewFakePage()
	page.Fields[layout.Identifier()] = "(NASDAQ:AAPL)"
	for _, sel := range layout.Summary() {
		if sel.Field == domain.FieldStockName {
			page.Fields[sel.XPath] = "Apple Inc."
		}
	}
	site := testutil.NewFakeSite()
	site.AddPage(extractor.DefaultLocator.Summary("NASDAQ", "AAPL"), page)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	site.OnNavigate = func(string) { cancel() }

	logger, _ := testutil.NewTestLogger(t)
	opener := extractor.OpenerFunc(func(ctx context.Context) (extractor.DocumentSource, error) {
		s, err := site.Open(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
	ext := extractor.New(opener, layout, extractor.WithLogger(logger))
	controller := NewController(ext, CSVSinks(logger), WithControllerLogger(logger))

	summary, err := controller.Run(ctx, job)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, "2", readCheckpoint(t, job.CheckpointPath))

	rows := readResult(t, job.ResultPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "AAPL", rows[1][column(domain.FieldStockSymbol)])
	assert.Equal(t, "Apple Inc.", rows[1][column(domain.FieldStockName)])
	assert.Equal(t, string(domain.ResolutionMatched), rows[1][column(domain.FieldResolution)])
	assert.Greater(t, len(site.Navigations()), 1)

	site.OnNavigate = nil
	_, err = controller.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "-1", readCheckpoint(t, job.CheckpointPath))
	assert.Len(t, readResult(t, job.ResultPath), 3)
}

type failingSink struct{}

func (failingSink) Write(*domain.Record) error { return errors.New("disk full") }
func (failingSink) Close() error               { return nil }

func TestController_SinkFailureKeepsCheckpoint(t *testing.T) {
	ws := newWorkspace(t)
	ws.writeWorkList(t, "hello.csv", "AAPL", "MSFT")
	job := ws.job("hello.csv")

	item := items("AAPL")[0]
	ext := new(MockExtractor)
	ext.On("Extract", mock.Anything, item).Return(fullRecord(item)).Once()

	sinks := func(string) (RecordSink, error) { return failingSink{}, nil }
	controller := NewController(ext, sinks, WithControllerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := controller.Run(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, "1", readCheckpoint(t, job.CheckpointPath))
	ext.AssertExpectations(t)
}

func TestController_MissingWorkList(t *testing.T) {
	ws := newWorkspace(t)
	ext := new(MockExtractor)

	controller, _ := newTestController(t, ext)
	summary, err := controller.Run(context.Background(), ws.job("absent.csv"))
	require.Error(t, err)
	assert.Equal(t, JobStatusNotStarted, summary.Status)
	assert.NoFileExists(t, ws.job("absent.csv").CheckpointPath)
}

func TestController_EmptyWorkListCompletes(t *testing.T) {
	ws := newWorkspace(t)
	ws.writeWorkList(t, "hello.csv")
	job := ws.job("hello.csv")

	controller, _ := newTestController(t, new(MockExtractor))
	summary, err := controller.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, summary.Status)
	assert.Equal(t, "-1", readCheckpoint(t, job.CheckpointPath))
	assert.NoFileExists(t, job.ResultPath)
}

func TestController_RecordsAttempts(t *testing.T) {
	ws := newWorkspace(t)
	ws.writeWorkList(t, "hello.csv", "AAPL", "MSFT")
	job := ws.job("hello.csv")
	all := items("AAPL", "MSFT")

	ext := new(MockExtractor)
	ext.On("Extract", mock.Anything, all[0]).Return(fullRecord(all[0]))
	ext.On("Extract", mock.Anything, all[1]).Return(summaryOnlyRecord(all[1]))

	recorder := new(MockAttemptRecorder)
	recorder.On("RecordAttempt", mock.Anything, mock.MatchedBy(func(a domain.Attempt) bool {
		return a.ItemIndex == 1 && a.Identifier == "AAPL" && a.RunID == "run-7" && a.WorkList == "hello.csv"
	})).Return(nil).Once()
	recorder.On("RecordAttempt", mock.Anything, mock.MatchedBy(func(a domain.Attempt) bool {
		return a.ItemIndex == 2 && a.MissingFields == summaryOnlyRecord(all[1]).MissingCount()
	})).Return(fmt.Errorf("database is locked")).Once()

	controller, handler := newTestController(t, ext, WithAttemptRecorder(recorder))
	ctx := infrastructure.WithRunID(context.Background(), "run-7")
	summary, err := controller.Run(ctx, job)
	require.NoError(t, err)

	recorder.AssertExpectations(t)
	assert.Equal(t, 2, summary.Processed)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Failed to record attempt")
}
