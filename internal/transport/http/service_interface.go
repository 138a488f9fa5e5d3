package http

import (
	"context"

	"finscrape/internal/operations"
	"finscrape/pkg/contracts/domain"
)

// JobLister reports the checkpoint state of every work list
type JobLister interface {
	Jobs(ctx context.Context) ([]operations.JobView, error)
}

// AttemptLister reads the attempt ledger, newest first
type AttemptLister interface {
	List(ctx context.Context, workList string, limit int) ([]domain.Attempt, error)
}
