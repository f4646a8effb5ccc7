// Package ingest applies catalog imports queued in the job table. Large
// imports are accepted immediately by the API and written in the
// background, with retries on failure.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/storage"
)

// JobType is the job queue type handled by Worker.
const JobType = "catalog_import"

// JobStore abstracts the job queue operations.
type JobStore interface {
	ClaimNextJob(ctx context.Context, types []string) (*storage.Job, error)
	CompleteJob(ctx context.Context, id string) error
	FailJob(ctx context.Context, id string, errMsg string) error
}

// CatalogWriter is the catalog owner imports are written to.
type CatalogWriter interface {
	PutBooks(ctx context.Context, entries []catalog.Entry) error
	ReplaceBooks(ctx context.Context, entries []catalog.Entry) error
}

// Payload is the body of a catalog_import job.
type Payload struct {
	Books   []catalog.Entry `json:"books"`
	Replace bool            `json:"replace,omitempty"`
}

// Enqueuer is the write side of the job queue.
type Enqueuer interface {
	EnqueueJob(ctx context.Context, job storage.Job) error
}

// ValidationError reports a payload rejected before it was queued.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid import: " + e.Reason }

// Submit validates p and queues it. It returns the job id.
func Submit(ctx context.Context, store Enqueuer, p Payload) (string, error) {
	if len(p.Books) == 0 && !p.Replace {
		return "", &ValidationError{Reason: "no books"}
	}
	for i, b := range p.Books {
		b = b.Normalize()
		if b.Title == "" || b.Author == "" {
			return "", &ValidationError{Reason: fmt.Sprintf("book %d: title and author are required", i+1)}
		}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	id := uuid.NewString()
	if err := store.EnqueueJob(ctx, storage.Job{ID: id, Type: JobType, PayloadJSON: string(data)}); err != nil {
		return "", err
	}
	return id, nil
}

// Worker processes catalog_import jobs from the SQLite job queue.
type Worker struct {
	store   JobStore
	catalog CatalogWriter
	applied func()
	poll    time.Duration
	logger  *slog.Logger
}

// NewWorker creates a Worker. applied, if non-nil, runs after every
// successful import (used to invalidate the catalog view cache).
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, cat CatalogWriter, applied func(), pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:   store,
		catalog: cat,
		applied: applied,
		poll:    pollInterval,
		logger:  slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("import worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single catalog_import job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob(ctx, []string{JobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("catalog import failed", "job_id", job.ID, "attempt", job.Attempts+1, "error", err)
		if failErr := w.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(ctx, job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var p Payload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &p); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	var err error
	if p.Replace {
		err = w.catalog.ReplaceBooks(ctx, p.Books)
	} else {
		err = w.catalog.PutBooks(ctx, p.Books)
	}
	if err != nil {
		return fmt.Errorf("writing %d books: %w", len(p.Books), err)
	}

	if w.applied != nil {
		w.applied()
	}
	w.logger.Info("catalog import applied", "job_id", job.ID, "books", len(p.Books), "replace", p.Replace)
	return nil
}
