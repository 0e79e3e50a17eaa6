package eventlog

import (
	"fmt"
	"sort"
	"strings"
)

// Verdict is the correlation state for the most recent job run.
//
// Transitions are monotonic:
//
//	Uninitialized -> PreliminarySuccess | PreliminaryFailure
//	PreliminarySuccess -> ConfirmedSuccess | Failure
//	PreliminaryFailure -> Failure
//
// ConfirmedSuccess and Failure are terminal; re-evaluation after a terminal
// verdict is a no-op. PreliminaryFailure has no terminal self-loop: it must
// be resolved by importing the inner-exception log.
type Verdict int

const (
	VerdictUninitialized Verdict = iota
	VerdictPreliminarySuccess
	VerdictPreliminaryFailure
	VerdictConfirmedSuccess
	VerdictFailure
)

// String returns a short name for logging.
func (v Verdict) String() string {
	switch v {
	case VerdictUninitialized:
		return "uninitialized"
	case VerdictPreliminarySuccess:
		return "preliminary-success"
	case VerdictPreliminaryFailure:
		return "preliminary-failure"
	case VerdictConfirmedSuccess:
		return "confirmed-success"
	case VerdictFailure:
		return "failure"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Sentinel result codes returned by LastRunResult. Genuine failure codes
// come from the inner-exception log and are never negative; 0 is reserved
// for a confirmed success.
const (
	ResultConfirmedSuccess   = 0
	ResultNotEvaluated       = -1
	ResultPreliminarySuccess = -2
	ResultPreliminaryFailure = -3
)

// stackTraceSeparator joins the data object and message of the most recent
// inner-exception record into one stack-trace string.
const stackTraceSeparator = " -- "

// Correlator derives the verdict of the most recent run of one job from its
// primary event log and, when needed, an imported inner-exception log.
//
// A Correlator is built once per invocation and mutated in place by the
// verdict transitions. It is not safe for concurrent use.
type Correlator struct {
	namespace string
	leaf      string
	parent    string

	primary   []Record
	secondary []Record // nil until ImportInnerExceptionLog

	verdict           Verdict
	lastCorrelationID string

	failureCode        int
	inferredMessage    string
	inferredStackTrace string
}

// NewCorrelator parses the primary log content and prepares a correlator
// for the given job namespace.
//
// The namespace is a dotted identifier; its last segment is the source name
// the job uses for start events. The primary content must parse as the
// structured log format and contain at least one record.
func NewCorrelator(namespace, primaryContent string) (*Correlator, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrInvalidInput)
	}

	records, err := ParseRecords(primaryContent)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: primary log contains no records", ErrInvalidInput)
	}

	leaf := namespace
	parent := ""
	if idx := strings.LastIndex(namespace, "."); idx >= 0 {
		leaf = namespace[idx+1:]
		parent = namespace[:idx]
	}

	return &Correlator{
		namespace: namespace,
		leaf:      leaf,
		parent:    parent,
		primary:   records,
		verdict:   VerdictUninitialized,
	}, nil
}

// Namespace returns the dotted job namespace.
func (c *Correlator) Namespace() string { return c.namespace }

// Verdict returns the current correlation state.
func (c *Correlator) Verdict() Verdict { return c.verdict }

// LastCorrelationID returns the correlation id of the most recent start
// event, or the empty string before the first evaluation.
func (c *Correlator) LastCorrelationID() string { return c.lastCorrelationID }

// FailureCode returns the error code supplied by the inner-exception log.
// Meaningful only when the verdict is VerdictFailure.
func (c *Correlator) FailureCode() int { return c.failureCode }

// InnerExceptionMessage returns the message supplied by the inner-exception
// log, or the empty string when no failure has been diagnosed.
func (c *Correlator) InnerExceptionMessage() string { return c.inferredMessage }

// InnerExceptionStackTrace returns the reconstructed stack trace, or the
// empty string when the inner-exception log held only a single record.
func (c *Correlator) InnerExceptionStackTrace() string { return c.inferredStackTrace }

// Evaluate advances the verdict from the available evidence.
//
// The evaluation is idempotent except where inner-exception evidence has
// been newly imported: a preliminary verdict is then resolved to Failure.
// Once a terminal verdict (ConfirmedSuccess or Failure) has been reached,
// further calls are no-ops.
func (c *Correlator) Evaluate() error {
	if c.verdict == VerdictConfirmedSuccess || c.verdict == VerdictFailure {
		return nil
	}

	if c.lastCorrelationID == "" {
		start, ok := latest(c.primary, func(r Record) bool {
			return r.Source == c.leaf && r.EventID == StartEventID
		})
		if !ok {
			return fmt.Errorf("%w: no event %d for source %q", ErrNoStartEvent, StartEventID, c.leaf)
		}
		c.lastCorrelationID = start.CorrelationID
	}

	_, ended := latest(c.primary, func(r Record) bool {
		return r.CorrelationID == c.lastCorrelationID && r.EventID == EndEventID
	})

	// The Uninitialized gate keeps a re-evaluation after secondary import
	// from short-circuiting back to success once failure processing has
	// begun.
	if ended && c.verdict == VerdictUninitialized {
		c.verdict = VerdictPreliminarySuccess
		return nil
	}

	if c.secondary == nil {
		if c.verdict == VerdictUninitialized {
			c.verdict = VerdictPreliminaryFailure
		}
		return nil
	}

	recs := make([]Record, len(c.secondary))
	copy(recs, c.secondary)
	sort.Slice(recs, func(i, j int) bool { return recs[i].RecordID > recs[j].RecordID })

	if len(recs) == 1 {
		c.failureCode = recs[0].ErrorCode
		c.inferredMessage = recs[0].Message
		c.inferredStackTrace = ""
	} else {
		// The most recent record carries the stack trace; the one before
		// it names the actual error. Anything older is ignored.
		c.failureCode = recs[1].ErrorCode
		c.inferredMessage = recs[1].Message
		c.inferredStackTrace = recs[0].DataObject + stackTraceSeparator + recs[0].Message
	}
	c.verdict = VerdictFailure
	return nil
}

// InnerExceptionRequired reports whether the inner-exception log still has
// to be consulted. This holds after a preliminary failure, and also after a
// preliminary success: a sub-process may have logged an exception without
// disturbing the primary start/end pair.
func (c *Correlator) InnerExceptionRequired() bool {
	if c.secondary != nil {
		return false
	}
	return c.verdict == VerdictPreliminaryFailure || c.verdict == VerdictPreliminarySuccess
}

// ConfirmLastRunResult promotes a preliminary success to a confirmed one.
// Any other state is left untouched. Callers use this when the absence of
// the inner-exception log is acceptable rather than an error.
func (c *Correlator) ConfirmLastRunResult() {
	if c.verdict == VerdictPreliminarySuccess {
		c.verdict = VerdictConfirmedSuccess
	}
}

// LastRunResult returns the numeric result code for the most recent run,
// evaluating lazily on first use. 0 denotes a confirmed success; the
// negative sentinels cover the not-yet-resolved states; genuine failures
// return the code supplied by the inner-exception log.
func (c *Correlator) LastRunResult() (int, error) {
	if c.verdict == VerdictUninitialized {
		if err := c.Evaluate(); err != nil {
			return ResultNotEvaluated, err
		}
	}

	switch c.verdict {
	case VerdictConfirmedSuccess:
		return ResultConfirmedSuccess, nil
	case VerdictPreliminarySuccess:
		return ResultPreliminarySuccess, nil
	case VerdictPreliminaryFailure:
		return ResultPreliminaryFailure, nil
	case VerdictFailure:
		return c.failureCode, nil
	default:
		return ResultNotEvaluated, nil
	}
}

// InnerExceptionLogFilename derives the name of the secondary file from the
// namespace and the timestamp token embedded in the last correlation id.
//
// Correlation ids are hyphen-delimited; the second field is a 12-character
// timestamp token yyyymmddHHMM. The derived name is
// "{namespace}.{yyyymmdd}_{HHMM}.xml".
func (c *Correlator) InnerExceptionLogFilename() (string, error) {
	if c.lastCorrelationID == "" {
		return "", fmt.Errorf("%w: evaluate the primary log first", ErrNotCorrelated)
	}

	fields := strings.Split(c.lastCorrelationID, "-")
	if len(fields) < 2 || len(fields[1]) != 12 {
		return "", fmt.Errorf("%w: correlation id %q has no timestamp token", ErrInvalidInput, c.lastCorrelationID)
	}

	tok := fields[1]
	return fmt.Sprintf("%s.%s_%s.xml", c.namespace, tok[:8], tok[8:12]), nil
}

// ImportInnerExceptionLog repairs and ingests the raw lines of the
// secondary file, then re-evaluates the verdict with the new evidence.
func (c *Correlator) ImportInnerExceptionLog(lines []string) error {
	content, err := RepairInnerExceptionContent(lines)
	if err != nil {
		return err
	}

	records, err := ParseRecords(content)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: inner exception log contains no records", ErrInvalidInput)
	}

	c.secondary = records
	return c.Evaluate()
}
