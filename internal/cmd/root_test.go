package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersionInfo(t *testing.T) {
	origVersion := versionInfo.Version
	origCommit := versionInfo.Commit
	origBuildDate := versionInfo.BuildDate
	defer func() {
		versionInfo.Version = origVersion
		versionInfo.Commit = origCommit
		versionInfo.BuildDate = origBuildDate
	}()

	SetVersionInfo("1.0.0", "abc123", "2024-01-15")

	assert.Equal(t, "1.0.0", versionInfo.Version)
	assert.Equal(t, "abc123", versionInfo.Commit)
	assert.Equal(t, "2024-01-15", versionInfo.BuildDate)
}

// runCommand executes the root command with args and returns stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "prtgsensor")
	assert.Contains(t, out, "commit:")
}

const cmdTasksExport = `[
  {
    "taskName": "\\Maintenance\\NightlyImport",
    "displayName": "NightlyImport",
    "lastRunTime": "2024-01-15T10:30:00Z",
    "lastResult": "0",
    "enabled": true
  }
]`

const cmdPrimaryLog = `<LogRecords>
  <LogRecord>
    <RecordId>10</RecordId>
    <EventId>200</EventId>
    <Source>job</Source>
    <CorrelationId>abc-202401151030-xyz</CorrelationId>
    <Timestamp>2024-01-15T10:30:00</Timestamp>
  </LogRecord>
  <LogRecord>
    <RecordId>11</RecordId>
    <EventId>201</EventId>
    <Source>job</Source>
    <CorrelationId>abc-202401151030-xyz</CorrelationId>
    <Timestamp>2024-01-15T10:31:00</Timestamp>
  </LogRecord>
</LogRecords>`

const cmdManifest = `name: Nightly import
task:
  identity: '\Maintenance\NightlyImport'
log:
  namespace: com.example.job
  primary: logs/com.example.job.20240115.xml
`

func TestScheduledTaskCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.json"), []byte(cmdTasksExport), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "com.example.job.20240115.xml"), []byte(cmdPrimaryLog), 0o644))
	manifestPath := filepath.Join(dir, "sensor.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(cmdManifest), 0o644))

	t.Setenv("PRTGSENSOR_COLLECTOR_FILE_BASE_DIR", dir)

	t.Run("success document", func(t *testing.T) {
		out, err := runCommand(t, "scheduledtask", "--manifest", manifestPath)
		require.NoError(t, err)
		assert.Contains(t, out, "<prtg>")
		assert.Contains(t, out, "<channel>Last Run Result</channel>")
		assert.NotContains(t, out, "<error>1</error>")
	})

	t.Run("missing manifest yields an error document and exit zero", func(t *testing.T) {
		out, err := runCommand(t, "scheduledtask", "--manifest", filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Contains(t, out, "<error>1</error>")
	})

	t.Run("unknown task yields an error document", func(t *testing.T) {
		badManifest := filepath.Join(dir, "bad.yaml")
		content := `name: Other
task:
  identity: '\Maintenance\Other'
log:
  namespace: com.example.job
  primary: logs/com.example.job.20240115.xml
`
		require.NoError(t, os.WriteFile(badManifest, []byte(content), 0o644))

		out, err := runCommand(t, "scheduledtask", "--manifest", badManifest)
		require.NoError(t, err)
		assert.Contains(t, out, "<error>1</error>")
	})
}
