// Package probe orchestrates one sensor invocation: resolve the scheduler
// entry, correlate the job's event logs, and render the result document.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/astrobl1904/prtg-custom-sensors/pkg/collector"
	"github.com/astrobl1904/prtg-custom-sensors/pkg/eventlog"
	"github.com/astrobl1904/prtg-custom-sensors/pkg/manifest"
	"github.com/astrobl1904/prtg-custom-sensors/pkg/prtg"
)

// Probe runs sensor invocations against a pair of collaborators.
type Probe struct {
	scheduler collector.TaskScheduler
	fetcher   collector.FileFetcher
	log       *zap.Logger
}

// New creates a probe. A nil logger falls back to a no-op logger.
func New(scheduler collector.TaskScheduler, fetcher collector.FileFetcher, log *zap.Logger) (*Probe, error) {
	if scheduler == nil {
		return nil, fmt.Errorf("probe: scheduler is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("probe: fetcher is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Probe{scheduler: scheduler, fetcher: fetcher, log: log}, nil
}

// Run executes one sensor invocation and returns the rendered PRTG result
// document. On error the caller renders the error document instead; the
// two outputs are mutually exclusive.
func (p *Probe) Run(ctx context.Context, m *manifest.Manifest) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("probe: manifest is required")
	}

	kind, err := prtg.ParseSensorKind(m.Sensor.Kind)
	if err != nil {
		return nil, err
	}

	meta, err := p.scheduler.FetchTaskMetadata(ctx, m.Task.Identity)
	if err != nil {
		return nil, err
	}
	p.log.Debug("resolved scheduler entry",
		zap.String("task", meta.TaskName),
		zap.String("last_result", meta.LastResult),
		zap.Bool("enabled", meta.Enabled))

	var corr *eventlog.Correlator
	if kind == prtg.SensorKindScheduledJobWithLog {
		corr, err = p.correlate(ctx, m)
		if err != nil {
			return nil, err
		}
	}

	name := m.Name
	if meta.DisplayName != "" {
		name = meta.DisplayName
	}

	sensor, err := prtg.NewSensor(name, kind)
	if err != nil {
		return nil, err
	}
	if corr != nil {
		sensor.SetCorrelator(corr)
	}
	if err := applyLimits(sensor, m.Limits); err != nil {
		return nil, err
	}

	if err := sensor.MergeTaskAndLogData(meta); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := sensor.WritePrtgXML(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// correlate builds the correlator from the primary log and resolves the
// verdict, fetching the inner-exception log when required.
func (p *Probe) correlate(ctx context.Context, m *manifest.Manifest) (*eventlog.Correlator, error) {
	lines, err := p.fetcher.FetchFileLines(ctx, m.Log.Primary)
	if err != nil {
		return nil, err
	}

	corr, err := eventlog.NewCorrelator(m.Log.Namespace, strings.Join(lines, "\n"))
	if err != nil {
		return nil, err
	}

	if _, err := corr.LastRunResult(); err != nil {
		return nil, err
	}
	p.log.Debug("primary log evaluated",
		zap.Stringer("verdict", corr.Verdict()),
		zap.String("correlation_id", corr.LastCorrelationID()))

	if !corr.InnerExceptionRequired() {
		return corr, nil
	}

	filename, err := corr.InnerExceptionLogFilename()
	if err != nil {
		return nil, err
	}
	secondaryPath := resolveSibling(m.Log.Primary, filename)

	secondary, err := p.fetcher.FetchFileLines(ctx, secondaryPath)
	switch {
	case err == nil:
		if err := corr.ImportInnerExceptionLog(secondary); err != nil {
			return nil, err
		}
		p.log.Debug("inner exception log imported",
			zap.String("path", secondaryPath),
			zap.Stringer("verdict", corr.Verdict()))

	case collector.IsNotFound(err):
		if corr.Verdict() == eventlog.VerdictPreliminaryFailure {
			return nil, fmt.Errorf("%w: %s", eventlog.ErrEvidenceMissing, secondaryPath)
		}
		corr.ConfirmLastRunResult()
		p.log.Debug("no inner exception log, run confirmed",
			zap.String("path", secondaryPath))

	default:
		return nil, err
	}

	return corr, nil
}

// resolveSibling places the derived inner-exception filename next to the
// primary log.
func resolveSibling(primary, filename string) string {
	dir := path.Dir(strings.ReplaceAll(primary, "\\", "/"))
	if dir == "." || dir == "/" {
		return filename
	}
	return path.Join(dir, filename)
}

// applyLimits copies manifest limit overrides onto the elapsed-hours
// channel.
func applyLimits(sensor *prtg.Sensor, limits *manifest.LimitsSpec) error {
	if limits == nil {
		return nil
	}
	ch, ok := sensor.Channel(prtg.ChannelTimeSinceLastRun)
	if !ok {
		return nil
	}

	attrs := map[string]string{}
	if limits.MaxHoursWarning != "" {
		attrs[prtg.AttrLimitMaxWarning] = limits.MaxHoursWarning
	}
	if limits.MaxHoursError != "" {
		attrs[prtg.AttrLimitMaxError] = limits.MaxHoursError
	}
	if len(attrs) == 0 {
		return nil
	}
	attrs[prtg.AttrLimitMode] = "1"
	return ch.SetAttributes(attrs)
}

// Close releases the collaborator sessions. It runs unconditionally after
// an invocation, whatever the outcome was.
func (p *Probe) Close() error {
	schedErr := p.scheduler.Close()
	fetchErr := p.fetcher.Close()
	if schedErr != nil {
		return schedErr
	}
	return fetchErr
}
