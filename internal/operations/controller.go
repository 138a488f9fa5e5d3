package operations

import (
	"context"
	"log/slog"
	"time"

	apperrors "finscrape/internal/errors"
	"finscrape/internal/infrastructure"
	"finscrape/pkg/contracts/domain"
)

// Extractor turns one work item into a complete record. It never fails: every
// failure is already folded into MISSING slots of the record.
type Extractor interface {
	Extract(ctx context.Context, item domain.WorkItem) *domain.Record
}

// RecordSink durably appends records in the order they are written
type RecordSink interface {
	Write(rec *domain.Record) error
	Close() error
}

// SinkFactory opens the sink for a result file
type SinkFactory func(path string) (RecordSink, error)

// AttemptRecorder is told about every persisted item
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt domain.Attempt) error
}

// Job names the files one work-list run touches
type Job struct {
	Name           string
	WorkListPath   string
	CheckpointPath string
	ResultPath     string
}

// Summary reports what one Run did
type Summary struct {
	Job       string    `json:"job"`
	Status    JobStatus `json:"status"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	// AlreadyCompleted is set when the run found the work list finished and did nothing
	AlreadyCompleted bool `json:"already_completed"`
}

// Controller runs one work list at a time, strictly in order, and persists
// progress after every item so an interrupted run resumes where it stopped.
type Controller struct {
	extractor Extractor
	sinks     SinkFactory
	recorder  AttemptRecorder
	tracer    *BatchTracer
	delimiter rune
	logger    *slog.Logger
	now       func() time.Time
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithControllerLogger sets the logger
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// WithAttemptRecorder reports every persisted item to recorder
func WithAttemptRecorder(recorder AttemptRecorder) ControllerOption {
	return func(c *Controller) { c.recorder = recorder }
}

// WithBatchTracer sets the telemetry instruments
func WithBatchTracer(tracer *BatchTracer) ControllerOption {
	return func(c *Controller) { c.tracer = tracer }
}

// WithDelimiter sets the work-list column delimiter
func WithDelimiter(delimiter rune) ControllerOption {
	return func(c *Controller) { c.delimiter = delimiter }
}

// NewController creates a controller
func NewController(extractor Extractor, sinks SinkFactory, opts ...ControllerOption) *Controller {
	c := &Controller{
		extractor: extractor,
		sinks:     sinks,
		delimiter: '\t',
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = noopBatchTracer()
	}
	c.logger = infrastructure.WithComponent(c.logger, "controller")
	return c
}

// Run processes the pending items of one work list. It returns with the
// checkpoint pointing at the first unprocessed item whenever it stops early.
func (c *Controller) Run(ctx context.Context, job Job) (summary Summary, err error) {
	summary = Summary{Job: job.Name, Status: JobStatusNotStarted}
	logger := c.logger.With(slog.String("work_list", job.Name))

	store := NewCheckpointStore(job.CheckpointPath)
	state, err := store.Load()
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrTypeJobStateCorrupt) {
			return summary, err
		}
		logger.WarnContext(ctx, "Checkpoint unreadable, restarting work list from the first row",
			slog.String("checkpoint", job.CheckpointPath),
			slog.String("error", err.Error()))
		state = InitialJobState()
	}

	if state.Completed {
		logger.InfoContext(ctx, "Work list already completed")
		summary.Status = JobStatusCompleted
		summary.AlreadyCompleted = true
		return summary, nil
	}

	wl, err := ReadWorkList(job.WorkListPath, c.delimiter)
	if err != nil {
		return summary, err
	}
	summary.Total = wl.Len()

	if !state.Started {
		if err := store.Save(state); err != nil {
			return summary, err
		}
	}
	summary.Status = JobStatusInProgress

	ctx, span := c.tracer.StartWorkList(ctx, job.Name, wl.Len(), state.NextIndex)
	defer func() { c.tracer.EndWorkList(span, summary, err) }()

	pending := wl.Len() - state.NextIndex + 1
	if pending > 0 {
		logger.InfoContext(ctx, "Processing work list",
			slog.Int("rows", wl.Len()),
			slog.Int("next_index", state.NextIndex),
			slog.Int("pending", pending))

		processed, skipped, err := c.process(ctx, logger, job, wl, store, state.NextIndex, pending)
		summary.Processed = processed
		summary.Skipped = skipped
		if err != nil {
			return summary, err
		}
	}

	if err := store.Save(JobState{Completed: true}); err != nil {
		return summary, err
	}
	summary.Status = JobStatusCompleted
	logger.InfoContext(ctx, "Work list completed",
		slog.Int("rows", wl.Len()),
		slog.Int("processed", summary.Processed))
	return summary, nil
}

func (c *Controller) process(ctx context.Context, logger *slog.Logger, job Job, wl *WorkList,
	store *CheckpointStore, nextIndex, pending int) (processed, skipped int, err error) {
	sink, err := c.sinks(job.ResultPath)
	if err != nil {
		if apperrors.TypeOf(err) == "" {
			err = apperrors.NewWorkListIOError(job.ResultPath, err)
		}
		return 0, 0, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = apperrors.NewWorkListIOError(job.ResultPath, cerr)
		}
	}()

	progress := newProgressTracker(job.Name, pending, c.now)
	for _, item := range wl.Items {
		if item.Index < nextIndex {
			skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			logger.WarnContext(ctx, "Work list interrupted",
				slog.Int("next_index", item.Index),
				slog.String("reason", err.Error()))
			return processed, skipped, err
		}

		if err := c.processItem(ctx, logger, job, item, sink, store); err != nil {
			return processed, skipped, err
		}
		processed++
		progress.Increment()

		current, total, pct := progress.GetProgress()
		logger.DebugContext(ctx, "Work list progress",
			slog.Int("done", current),
			slog.Int("pending", total),
			slog.Float64("percent", pct),
			slog.String("eta", progress.GetETA()))
	}
	return processed, skipped, nil
}

func (c *Controller) processItem(ctx context.Context, logger *slog.Logger, job Job, item domain.WorkItem,
	sink RecordSink, store *CheckpointStore) error {
	start := c.now()
	// an item that has started always finishes; cancellation is honoured between items
	itemCtx, span := c.tracer.StartItem(context.WithoutCancel(ctx), job.Name, item)

	rec := c.extractor.Extract(itemCtx, item)
	if err := sink.Write(rec); err != nil {
		c.tracer.FailItem(span, err)
		return err
	}
	if err := store.Save(JobState{NextIndex: item.Index + 1}); err != nil {
		c.tracer.FailItem(span, err)
		return err
	}

	duration := c.now().Sub(start)
	c.tracer.RecordItem(itemCtx, span, job.Name, rec, duration)

	missing := rec.MissingCount()
	logger.InfoContext(ctx, "Item processed",
		slog.Int("index", item.Index),
		slog.String("identifier", item.Identifier),
		slog.String("resolution", string(rec.Resolution)),
		slog.Int("missing_fields", missing),
		slog.Duration("duration", duration))
	for _, failure := range rec.Failures {
		logger.DebugContext(ctx, "Field unavailable",
			slog.Int("index", item.Index),
			slog.String("error", failure.Error()))
	}

	if c.recorder != nil {
		attempt := domain.Attempt{
			RunID:         infrastructure.GetRunID(ctx),
			WorkList:      job.Name,
			ItemIndex:     item.Index,
			Identifier:    item.Identifier,
			Resolution:    rec.Resolution,
			MissingFields: missing,
			DurationMS:    duration.Milliseconds(),
			CreatedAt:     c.now().UTC(),
		}
		if err := c.recorder.RecordAttempt(itemCtx, attempt); err != nil {
			logger.WarnContext(ctx, "Failed to record attempt",
				slog.Int("index", item.Index),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
