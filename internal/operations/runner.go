package operations

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"finscrape/internal/config"
	apperrors "finscrape/internal/errors"
	"finscrape/internal/files"
	"finscrape/internal/infrastructure"
)

// WorkbookExporter converts a completed result file into a workbook
type WorkbookExporter func(resultPath, workbookPath string) error

// Runner drives the controller over every work list in the data directory
type Runner struct {
	controller *Controller
	paths      *config.Paths
	patterns   []string
	export     WorkbookExporter
	logger     *slog.Logger
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithWorkbookExport converts each newly completed result file with export
func WithWorkbookExport(export WorkbookExporter) RunnerOption {
	return func(r *Runner) { r.export = export }
}

// NewRunner creates a runner over the resolved paths
func NewRunner(controller *Controller, paths *config.Paths, patterns []string, opts ...RunnerOption) *Runner {
	r := &Runner{
		controller: controller,
		paths:      paths,
		patterns:   patterns,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = infrastructure.WithComponent(r.logger, "runner")
	return r
}

// JobFor names the checkpoint and result files of a work list
func (r *Runner) JobFor(workListPath string) Job {
	name := filepath.Base(workListPath)
	return Job{
		Name:           name,
		WorkListPath:   workListPath,
		CheckpointPath: r.paths.CheckpointPath(name),
		ResultPath:     r.paths.ResultPath(name),
	}
}

// Discover lists the work lists the runner would process
func (r *Runner) Discover() ([]files.FileInfo, error) {
	return files.Discover(r.paths.DataDir, r.patterns)
}

// RunAll processes every discovered work list in name order. A failing work
// list is logged and skipped; only cancellation stops the loop.
func (r *Runner) RunAll(ctx context.Context) ([]Summary, error) {
	if err := r.paths.EnsureDirectories(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to prepare output directories", slog.String("error", err.Error()))
	}

	lists, err := r.Discover()
	if err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "Discovered work lists",
		slog.String("data_dir", r.paths.DataDir),
		slog.Int("count", len(lists)))

	summaries := make([]Summary, 0, len(lists))
	for _, wl := range lists {
		summary, err := r.RunFile(ctx, wl.Path)
		summaries = append(summaries, summary)
		if err != nil && ctx.Err() != nil {
			return summaries, ctx.Err()
		}
	}
	return summaries, nil
}

// RunFile processes one work list. Errors are logged before being returned.
func (r *Runner) RunFile(ctx context.Context, workListPath string) (Summary, error) {
	job := r.JobFor(workListPath)
	logger := r.logger.With(slog.String("work_list", job.Name))

	summary, err := r.controller.Run(ctx, job)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			logger.WarnContext(ctx, "Work list stopped, will resume from checkpoint",
				slog.Int("processed", summary.Processed))
		case apperrors.IsType(err, apperrors.ErrTypeWorkListIO):
			infrastructure.WithError(logger, err).ErrorContext(ctx, "Work list skipped")
		default:
			infrastructure.WithError(logger, err).ErrorContext(ctx, "Work list failed")
		}
		return summary, err
	}

	if summary.Status == JobStatusCompleted && !summary.AlreadyCompleted && r.export != nil {
		workbook := WorkbookPath(job.ResultPath)
		if err := r.export(job.ResultPath, workbook); err != nil {
			infrastructure.WithError(logger, err).ErrorContext(ctx, "Workbook export failed",
				slog.String("workbook", workbook))
		} else {
			logger.InfoContext(ctx, "Workbook exported", slog.String("workbook", workbook))
		}
	}
	return summary, nil
}

// WorkbookPath returns the xlsx path next to a result file
func WorkbookPath(resultPath string) string {
	return strings.TrimSuffix(resultPath, filepath.Ext(resultPath)) + ".xlsx"
}

// JobView is the checkpoint state of one work list as reported by the status server
type JobView struct {
	Name      string    `json:"name"`
	Status    JobStatus `json:"status"`
	NextIndex int       `json:"next_index"`
	Error     string    `json:"error,omitempty"`
}

// Jobs reads the checkpoint of every discovered work list without modifying it
func (r *Runner) Jobs(ctx context.Context) ([]JobView, error) {
	lists, err := r.Discover()
	if err != nil {
		return nil, err
	}

	views := make([]JobView, 0, len(lists))
	for _, wl := range lists {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		job := r.JobFor(wl.Path)
		state, err := ReadJobState(job.CheckpointPath)
		view := JobView{Name: job.Name, Status: state.Status(), NextIndex: state.NextIndex}
		if err != nil {
			view.Error = err.Error()
		}
		views = append(views, view)
	}
	return views, nil
}
