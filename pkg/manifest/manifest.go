// Package manifest loads and validates sensor manifests.
//
// A manifest describes one scheduled-task sensor: the scheduler entry to
// resolve, the job's log source, and optional channel limit overrides. The
// file format is YAML or JSON; every manifest is validated against an
// embedded JSON schema before use.
package manifest

import "strings"

// DefaultTaskExport is the task-metadata export consulted when the
// manifest does not name one.
const DefaultTaskExport = "tasks.json"

// DefaultSensorKind is assumed when the manifest does not pick a kind.
const DefaultSensorKind = "scheduled-job-with-log"

// Manifest describes one sensor.
type Manifest struct {
	// Name is the sensor name used in the rendered report.
	Name string `json:"name" yaml:"name"`

	// Sensor selects the channel template.
	Sensor SensorSpec `json:"sensor,omitempty" yaml:"sensor,omitempty"`

	// Task identifies the scheduler entry.
	Task TaskSpec `json:"task" yaml:"task"`

	// Log describes the job's event-log source.
	Log LogSpec `json:"log" yaml:"log"`

	// Limits optionally overrides elapsed-hours channel thresholds.
	Limits *LimitsSpec `json:"limits,omitempty" yaml:"limits,omitempty"`
}

// SensorSpec selects the channel template.
type SensorSpec struct {
	// Kind is "generic" or "scheduled-job-with-log".
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// TaskSpec identifies the scheduler entry.
type TaskSpec struct {
	// Identity is the scheduler entry identity, e.g.
	// \Maintenance\NightlyImport.
	Identity string `json:"identity" yaml:"identity"`

	// Export is the path of the task-metadata JSON export, relative to
	// the log source.
	Export string `json:"export,omitempty" yaml:"export,omitempty"`
}

// LogSpec describes the job's event-log source.
type LogSpec struct {
	// Namespace is the dotted job namespace; its last segment is the
	// start-event source.
	Namespace string `json:"namespace" yaml:"namespace"`

	// Primary is the primary log path or glob, relative to the log
	// source. The inner-exception log is resolved into the same
	// directory.
	Primary string `json:"primary" yaml:"primary"`
}

// LimitsSpec overrides elapsed-hours channel thresholds.
type LimitsSpec struct {
	MaxHoursWarning string `json:"maxHoursWarning,omitempty" yaml:"maxHoursWarning,omitempty"`
	MaxHoursError   string `json:"maxHoursError,omitempty" yaml:"maxHoursError,omitempty"`
}

// ApplyDefaults fills optional fields with their defaults.
func (m *Manifest) ApplyDefaults() {
	if strings.TrimSpace(m.Sensor.Kind) == "" {
		m.Sensor.Kind = DefaultSensorKind
	}
	if strings.TrimSpace(m.Task.Export) == "" {
		m.Task.Export = DefaultTaskExport
	}
}
