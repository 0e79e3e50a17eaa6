// Package collector defines the external collaborators the probe consumes:
// a source of scheduled-task metadata and a fetcher for remote log files.
//
// Implementations live in subpackages (file, s3). The core distinguishes a
// clean "not found" from a transport failure: absence is sometimes
// acceptable to the caller, a failed call never is.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for collaborator operations.
var (
	// ErrFileNotFound indicates the requested file does not exist at the
	// source. This is a clean outcome, distinct from a transport failure.
	ErrFileNotFound = errors.New("file not found")

	// ErrTaskNotFound indicates the task identity resolved to no entry.
	ErrTaskNotFound = errors.New("scheduled task not found")

	// ErrMultipleMatches indicates the task identity resolved to more
	// than one entry. The probe treats this as a hard input error.
	ErrMultipleMatches = errors.New("task identity matches multiple entries")
)

// TaskMetadata is the execution metadata of one scheduler entry.
type TaskMetadata struct {
	// TaskName is the identity the entry was resolved by.
	TaskName string `json:"taskName"`

	// DisplayName is the human-readable task name for reporting.
	DisplayName string `json:"displayName"`

	// LastRunTime is when the scheduler last launched the task.
	LastRunTime time.Time `json:"lastRunTime"`

	// NextRunTime is the next scheduled launch, if any.
	NextRunTime time.Time `json:"nextRunTime,omitempty"`

	// LastResult is the scheduler's last result code, kept verbatim as
	// reported (decimal or hex spelling included).
	LastResult string `json:"lastResult"`

	// Enabled reports whether the scheduler entry is active.
	Enabled bool `json:"enabled"`
}

// TaskScheduler resolves a task identity to exactly one scheduler entry.
type TaskScheduler interface {
	// FetchTaskMetadata returns the metadata for the given identity.
	// Returns ErrTaskNotFound when nothing matches and ErrMultipleMatches
	// when the identity is ambiguous.
	FetchTaskMetadata(ctx context.Context, identity string) (*TaskMetadata, error)

	// Close releases any session held by the scheduler source.
	Close() error
}

// FileFetcher retrieves the raw lines of a named file from a log source.
type FileFetcher interface {
	// FetchFileLines returns the file content split into lines.
	// Returns ErrFileNotFound when the file cleanly does not exist; any
	// other error is a transport failure.
	FetchFileLines(ctx context.Context, path string) ([]string, error)

	// Close releases any session held by the fetcher.
	Close() error
}

// CollectorError wraps collaborator errors with context.
type CollectorError struct {
	// Op is the operation that failed (e.g., "FetchFileLines").
	Op string

	// Source identifies the collaborator (e.g., "file", "s3").
	Source string

	// Path is the file path or task identity, if applicable.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CollectorError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Source, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CollectorError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates a cleanly absent file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}

// IsTaskNotFound returns true if the error indicates an unknown task.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsMultipleMatches returns true if the error indicates an ambiguous task
// identity.
func IsMultipleMatches(err error) bool {
	return errors.Is(err, ErrMultipleMatches)
}
