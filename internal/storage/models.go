package storage

import (
	"errors"
	"time"
)

// ErrNotFound reports a missing book, session or job.
var ErrNotFound = errors.New("not found")

// JobStatus is the lifecycle state of a queued job. A job moves from
// pending to running when claimed and ends completed or failed; a failed
// attempt with retries left returns it to pending.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the job will never run again.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// defaultMaxAttempts applies when a job is enqueued without a limit.
const defaultMaxAttempts = 3

// Job is one entry of the background queue. Catalog imports are the only
// producer today; Type keeps the table open to others.
type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      JobStatus
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

// SessionRecord is the archived header of a dialogue session.
type SessionRecord struct {
	ID          string
	Role        string
	DisplayName string
	CreatedAt   time.Time
	// EndedAt stays zero until the session is closed.
	EndedAt time.Time
}
