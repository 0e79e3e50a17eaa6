// Package eventlog correlates structured job event logs into a run verdict.
//
// A batch job writes paired start/end events into a primary log and, on
// warnings or failures, a detailed inner-exception log into a secondary
// file. The Correlator ingests the primary log, derives a preliminary
// verdict for the most recent run, and resolves it once the optional
// secondary evidence is imported.
package eventlog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Well-known event identifiers written by the job runner.
const (
	// StartEventID marks the beginning of a job run.
	StartEventID = 200

	// EndEventID marks the regular completion of a job run.
	EndEventID = 201
)

// Sentinel errors for log ingestion and correlation.
var (
	// ErrInvalidInput indicates a missing or empty required argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedLog indicates content that does not parse as the
	// expected log record format at all.
	ErrMalformedLog = errors.New("malformed log content")

	// ErrNoStartEvent indicates the primary log holds no start event for
	// the configured source, so there is no run to correlate.
	ErrNoStartEvent = errors.New("no start event found")

	// ErrNotCorrelated indicates an operation that needs the most recent
	// run's correlation id before it has been established.
	ErrNotCorrelated = errors.New("no correlation id established")

	// ErrEvidenceMissing indicates a preliminary failure whose mandatory
	// inner-exception log could not be retrieved.
	ErrEvidenceMissing = errors.New("inner exception log required but not available")
)

// Record is one parsed log entry.
//
// Records are created during parsing and never mutated. RecordID is
// monotonically increasing within one log; the most recent entry among a
// set of matches is the one with the maximum RecordID.
type Record struct {
	RecordID      int64  `xml:"RecordId"`
	EventID       int    `xml:"EventId"`
	Source        string `xml:"Source"`
	CorrelationID string `xml:"CorrelationId"`

	// Timestamp is kept as written by the job; the correlation algorithm
	// orders by RecordID, not by time.
	Timestamp string `xml:"Timestamp"`

	// Optional payload fields. Absent elements stay at their zero values.
	ErrorCode  int    `xml:"ErrorCode"`
	Message    string `xml:"Message"`
	DataObject string `xml:"DataObject"`
}

// logDocument is the wire shape of a log file.
type logDocument struct {
	XMLName xml.Name `xml:"LogRecords"`
	Records []Record `xml:"LogRecord"`
}

// ParseRecords parses structured log content into records.
//
// Optional payload elements (ErrorCode, Message, DataObject) may be absent
// on any record. Content that does not parse as a LogRecords document fails
// with ErrMalformedLog.
func ParseRecords(content string) ([]Record, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedLog)
	}

	var doc logDocument
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}

	return doc.Records, nil
}

// latest returns the record with the maximum RecordID among those matching
// the filter, or false when none match.
func latest(records []Record, match func(Record) bool) (Record, bool) {
	var best Record
	found := false
	for _, r := range records {
		if !match(r) {
			continue
		}
		if !found || r.RecordID > best.RecordID {
			best = r
			found = true
		}
	}
	return best, found
}
