package http

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "finscrape/internal/errors"
	"finscrape/internal/operations"
	"finscrape/pkg/contracts/domain"
)

const (
	// DefaultAttemptLimit is used when the limit query parameter is absent
	DefaultAttemptLimit = 100
	// MaxAttemptLimit caps the limit query parameter
	MaxAttemptLimit = 1000
)

// JobsResponse lists the checkpoint state of every work list
type JobsResponse struct {
	Jobs []operations.JobView `json:"jobs"`
}

// AttemptsResponse lists the recorded attempts of one work list
type AttemptsResponse struct {
	WorkList string           `json:"work_list"`
	Attempts []domain.Attempt `json:"attempts"`
}

// JobsHandler serves work list state and the attempt ledger
type JobsHandler struct {
	jobs     JobLister
	attempts AttemptLister
	logger   *slog.Logger
}

// NewJobsHandler creates a jobs handler. attempts may be nil when the ledger is disabled.
func NewJobsHandler(jobs JobLister, attempts AttemptLister, logger *slog.Logger) *JobsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsHandler{
		jobs:     jobs,
		attempts: attempts,
		logger:   logger.With(slog.String("handler", "jobs")),
	}
}

// Routes sets up the jobs routes
func (h *JobsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListJobs)
	r.Get("/{name}/attempts", h.ListAttempts)
	return r
}

// ListJobs handles GET /api/v1/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	views, err := h.jobs.Jobs(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list jobs", err)
		return
	}
	render.JSON(w, r, JobsResponse{Jobs: views})
}

// ListAttempts handles GET /api/v1/jobs/{name}/attempts
func (h *JobsHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	if h.attempts == nil {
		_ = render.Render(w, r, apperrors.NewErrorResponse(apperrors.NotFoundError("attempt ledger")))
		return
	}

	name := chi.URLParam(r, "name")
	if !validWorkListName(name) {
		_ = render.Render(w, r, apperrors.NewErrorResponse(
			apperrors.NewWithDetails(http.StatusBadRequest, "BAD_REQUEST", "Invalid work list name", name)))
		return
	}

	limit := DefaultAttemptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxAttemptLimit {
			_ = render.Render(w, r, apperrors.NewErrorResponse(
				apperrors.NewWithDetails(http.StatusBadRequest, "BAD_REQUEST", "Invalid limit", raw)))
			return
		}
		limit = n
	}

	attempts, err := h.attempts.List(r.Context(), name, limit)
	if err != nil {
		h.fail(w, r, "Failed to list attempts", err)
		return
	}
	render.JSON(w, r, AttemptsResponse{WorkList: name, Attempts: attempts})
}

func (h *JobsHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, slog.String("error", err.Error()))
	_ = render.Render(w, r, apperrors.NewErrorResponse(apperrors.FromAppError(err)))
}

func validWorkListName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.HasPrefix(name, ".")
}
