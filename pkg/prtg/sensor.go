package prtg

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/astrobl1904/prtg-custom-sensors/pkg/collector"
	"github.com/astrobl1904/prtg-custom-sensors/pkg/eventlog"
)

// SensorKind selects the fixed channel template a sensor reserves.
type SensorKind int

const (
	// SensorKindGeneric reports scheduler metadata only.
	SensorKindGeneric SensorKind = iota

	// SensorKindScheduledJobWithLog additionally reports the job's own
	// run result derived from its event log.
	SensorKindScheduledJobWithLog
)

// ChannelCapacity returns the number of channel slots reserved for the kind.
func (k SensorKind) ChannelCapacity() int {
	if k == SensorKindScheduledJobWithLog {
		return 4
	}
	return 3
}

// String returns the manifest spelling of the kind.
func (k SensorKind) String() string {
	if k == SensorKindScheduledJobWithLog {
		return "scheduled-job-with-log"
	}
	return "generic"
}

// ParseSensorKind parses the manifest spelling of a sensor kind.
func ParseSensorKind(s string) (SensorKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return SensorKindGeneric, nil
	case "scheduled-job-with-log":
		return SensorKindScheduledJobWithLog, nil
	default:
		return SensorKindGeneric, fmt.Errorf("%w: unknown sensor kind %q", ErrInvalidArgument, s)
	}
}

// Channel slot names, in slot order.
const (
	ChannelTimeSinceLastRun = "Time Since Last Run"
	ChannelLastTaskResult   = "Last Task Result"
	ChannelTaskActive       = "Task Active"
	ChannelLastRunResult    = "Last Run Result"
)

// Value-lookup table ids shipped with the sensor package.
const (
	lookupTaskResult  = "prtg.customlookups.scheduledtask.taskresult"
	lookupActiveState = "prtg.standardlookups.activeinactive.stateactiveok"
	lookupRunResult   = "prtg.customlookups.scheduledtask.lastrunresult"
)

// statusSeparator replaces embedded line breaks in status text.
const statusSeparator = " -- "

// Sensor owns the fixed channel set for one monitored task and renders the
// final result document.
type Sensor struct {
	name       string
	kind       SensorKind
	channels   []*Channel
	byName     map[string]*Channel
	correlator *eventlog.Correlator

	now func() time.Time
}

// NewSensor creates a sensor with the channel template for the given kind.
func NewSensor(name string, kind SensorKind) (*Sensor, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: sensor name is required", ErrInvalidArgument)
	}

	s := &Sensor{
		name:   name,
		kind:   kind,
		byName: make(map[string]*Channel),
		now:    time.Now,
	}

	elapsed, err := s.AddChannel(ChannelTimeSinceLastRun)
	if err != nil {
		return nil, err
	}
	if err := elapsed.SetAttributes(map[string]string{
		AttrUnit:  "TimeHours",
		AttrFloat: "1",
	}); err != nil {
		return nil, err
	}

	result, err := s.AddChannel(ChannelLastTaskResult)
	if err != nil {
		return nil, err
	}
	if err := result.SetLookup(lookupTaskResult); err != nil {
		return nil, err
	}

	active, err := s.AddChannel(ChannelTaskActive)
	if err != nil {
		return nil, err
	}
	if err := active.SetLookup(lookupActiveState); err != nil {
		return nil, err
	}

	if kind == SensorKindScheduledJobWithLog {
		run, err := s.AddChannel(ChannelLastRunResult)
		if err != nil {
			return nil, err
		}
		if err := run.SetLookup(lookupRunResult); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Name returns the sensor name.
func (s *Sensor) Name() string { return s.name }

// Kind returns the sensor kind.
func (s *Sensor) Kind() SensorKind { return s.kind }

// SetCorrelator attaches the log correlator whose verdict feeds the
// run-result channel and the status line.
func (s *Sensor) SetCorrelator(c *eventlog.Correlator) { s.correlator = c }

// AddChannel reserves a channel slot. Adding an already-present name is a
// no-op returning the existing channel; exceeding the kind's slot count is
// an error.
func (s *Sensor) AddChannel(name string) (*Channel, error) {
	if existing, ok := s.byName[name]; ok {
		return existing, nil
	}
	if len(s.channels) >= s.kind.ChannelCapacity() {
		return nil, fmt.Errorf("%w: %s sensors reserve %d channels", ErrChannelCapacity, s.kind, s.kind.ChannelCapacity())
	}

	ch, err := NewChannel(name)
	if err != nil {
		return nil, err
	}
	s.channels = append(s.channels, ch)
	s.byName[name] = ch
	return ch, nil
}

// Channel returns the channel with the given name, if reserved.
func (s *Sensor) Channel(name string) (*Channel, bool) {
	ch, ok := s.byName[name]
	return ch, ok
}

// MergeTaskAndLogData populates the channel values from scheduler metadata
// and, for the scheduled-job kind, the correlator's run result.
func (s *Sensor) MergeTaskAndLogData(meta *collector.TaskMetadata) error {
	if meta == nil {
		return fmt.Errorf("%w: task metadata is required", ErrInvalidArgument)
	}

	if err := s.byName[ChannelTimeSinceLastRun].SetValue(formatElapsedHours(s.now().Sub(meta.LastRunTime))); err != nil {
		return err
	}

	lastResult := meta.LastResult
	if lastResult == "" {
		lastResult = "0"
	}
	if err := s.byName[ChannelLastTaskResult].SetValue(lastResult); err != nil {
		return err
	}

	active := "0"
	if meta.Enabled {
		active = "1"
	}
	if err := s.byName[ChannelTaskActive].SetValue(active); err != nil {
		return err
	}

	if s.kind == SensorKindScheduledJobWithLog {
		if s.correlator == nil {
			return fmt.Errorf("%w: %s sensor has no correlator attached", ErrInvalidArgument, s.kind)
		}
		code, err := s.correlator.LastRunResult()
		if err != nil {
			return err
		}
		if err := s.byName[ChannelLastRunResult].SetValue(strconv.Itoa(code)); err != nil {
			return err
		}
	}

	return nil
}

// formatElapsedHours renders the hours since the last run: two decimals
// below one hour, whole hours at or above.
func formatElapsedHours(d time.Duration) string {
	hours := d.Hours()
	if hours < 0 {
		hours = 0
	}
	if hours < 1 {
		return strconv.FormatFloat(hours, 'f', 2, 64)
	}
	return strconv.FormatInt(int64(math.Round(hours)), 10)
}

// WritePrtgXML renders the result document. A sensor whose channels were
// never populated renders the bare zero-error OK document; otherwise every
// populated channel is emitted in slot order followed by one status line.
func (s *Sensor) WritePrtgXML(w io.Writer) error {
	populated := 0
	for _, ch := range s.channels {
		if _, ok := ch.Value(); ok {
			populated++
		}
	}

	if populated == 0 {
		_, err := io.WriteString(w, "<prtg>\n  <error>0</error>\n  <text>OK</text>\n</prtg>\n")
		return err
	}

	if _, err := io.WriteString(w, "<prtg>\n"); err != nil {
		return err
	}
	for _, ch := range s.channels {
		if _, ok := ch.Value(); !ok {
			continue
		}
		if err := ch.writeXML(w); err != nil {
			return err
		}
	}
	if err := writeStatusElement(w, "text", s.statusText()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</prtg>\n")
	return err
}

// statusText builds the single human-readable status line.
func (s *Sensor) statusText() string {
	if s.kind == SensorKindGeneric || s.correlator == nil || isSuccessVerdict(s.correlator.Verdict()) {
		return fmt.Sprintf("Task %s: last run completed successfully", s.name)
	}

	c := s.correlator
	detail := c.InnerExceptionMessage()
	if st := c.InnerExceptionStackTrace(); st != "" {
		detail += statusSeparator + st
	}
	filename, err := c.InnerExceptionLogFilename()
	if err != nil {
		filename = "unknown"
	}
	return sanitizeStatusText(fmt.Sprintf("Task %s: last run failed with code %d: %s (inner exception log %s)",
		s.name, c.FailureCode(), detail, filename))
}

func isSuccessVerdict(v eventlog.Verdict) bool {
	return v == eventlog.VerdictConfirmedSuccess || v == eventlog.VerdictPreliminarySuccess
}

// WritePrtgError renders the error document variant: one numeric severity
// marker plus a free-text message.
func WritePrtgError(w io.Writer, message string) error {
	if _, err := io.WriteString(w, "<prtg>\n  <error>1</error>\n"); err != nil {
		return err
	}
	if err := writeStatusElement(w, "text", sanitizeStatusText(message)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</prtg>\n")
	return err
}

// sanitizeStatusText keeps free text safe inside the report markup: line
// breaks collapse to a separator token, angle brackets become square
// brackets.
func sanitizeStatusText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", statusSeparator)
	s = strings.ReplaceAll(s, "\n", statusSeparator)
	s = strings.ReplaceAll(s, "\r", statusSeparator)
	s = strings.ReplaceAll(s, "<", "[")
	s = strings.ReplaceAll(s, ">", "]")
	return s
}

// writeStatusElement emits a depth-one escaped leaf element.
func writeStatusElement(w io.Writer, tag, text string) error {
	if _, err := fmt.Fprintf(w, "  <%s>", tag); err != nil {
		return err
	}
	if err := xml.EscapeText(w, []byte(text)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "</%s>\n", tag)
	return err
}
