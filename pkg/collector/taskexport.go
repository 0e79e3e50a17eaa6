package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ExportScheduler reads task metadata from a JSON export shipped alongside
// the job's logs. The export is a JSON array of TaskMetadata entries,
// produced on the job host; querying the live OS scheduler is a concern of
// the export tooling, not of this probe.
//
// The export file travels through the same FileFetcher as the logs, so
// file- and bucket-backed deployments need no separate transport.
type ExportScheduler struct {
	fetcher FileFetcher
	path    string
}

// NewExportScheduler creates a scheduler source backed by the export file
// at path, retrieved through the given fetcher.
func NewExportScheduler(fetcher FileFetcher, path string) (*ExportScheduler, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("task export: fetcher is required")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("task export: path is required")
	}
	return &ExportScheduler{fetcher: fetcher, path: path}, nil
}

// FetchTaskMetadata resolves the identity against the export. Matching is
// case-insensitive on TaskName and DisplayName; anything but exactly one
// match is an error.
func (s *ExportScheduler) FetchTaskMetadata(ctx context.Context, identity string) (*TaskMetadata, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, &CollectorError{Op: "FetchTaskMetadata", Source: "taskexport", Err: fmt.Errorf("identity is required")}
	}

	lines, err := s.fetcher.FetchFileLines(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("task export %s: %w", s.path, err)
	}

	var entries []TaskMetadata
	if err := json.Unmarshal([]byte(strings.Join(lines, "\n")), &entries); err != nil {
		return nil, &CollectorError{Op: "FetchTaskMetadata", Source: "taskexport", Path: s.path, Err: err}
	}

	var matches []TaskMetadata
	for _, e := range entries {
		if strings.EqualFold(e.TaskName, identity) || strings.EqualFold(e.DisplayName, identity) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &CollectorError{Op: "FetchTaskMetadata", Source: "taskexport", Path: identity, Err: ErrTaskNotFound}
	case 1:
		m := matches[0]
		return &m, nil
	default:
		return nil, &CollectorError{Op: "FetchTaskMetadata", Source: "taskexport", Path: identity, Err: ErrMultipleMatches}
	}
}

// Close implements TaskScheduler. The fetcher is borrowed from the
// caller, who closes it; the scheduler holds no session of its own.
func (s *ExportScheduler) Close() error {
	return nil
}

// Ensure ExportScheduler implements the interface.
var _ TaskScheduler = (*ExportScheduler)(nil)
