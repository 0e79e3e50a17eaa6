package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecords(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		content := `<?xml version="1.0" encoding="utf-8"?>
<LogRecords>
  <LogRecord>
    <RecordId>12</RecordId>
    <EventId>200</EventId>
    <Source>job</Source>
    <CorrelationId>job-202401151030-0001</CorrelationId>
    <Timestamp>2024-01-15T10:30:00</Timestamp>
    <ErrorCode>42</ErrorCode>
    <Message>import started</Message>
    <DataObject>batch-7</DataObject>
  </LogRecord>
</LogRecords>`

		records, err := ParseRecords(content)
		require.NoError(t, err)
		require.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, int64(12), r.RecordID)
		assert.Equal(t, 200, r.EventID)
		assert.Equal(t, "job", r.Source)
		assert.Equal(t, "job-202401151030-0001", r.CorrelationID)
		assert.Equal(t, "2024-01-15T10:30:00", r.Timestamp)
		assert.Equal(t, 42, r.ErrorCode)
		assert.Equal(t, "import started", r.Message)
		assert.Equal(t, "batch-7", r.DataObject)
	})

	t.Run("optional payload fields absent", func(t *testing.T) {
		content := `<LogRecords>
  <LogRecord>
    <RecordId>3</RecordId>
    <EventId>201</EventId>
    <Source>job</Source>
    <CorrelationId>job-202401151030-0001</CorrelationId>
    <Timestamp>2024-01-15T10:31:00</Timestamp>
  </LogRecord>
</LogRecords>`

		records, err := ParseRecords(content)
		require.NoError(t, err)
		require.Len(t, records, 1)

		r := records[0]
		assert.Zero(t, r.ErrorCode)
		assert.Empty(t, r.Message)
		assert.Empty(t, r.DataObject)
	})

	t.Run("empty document has no records", func(t *testing.T) {
		records, err := ParseRecords(`<LogRecords></LogRecords>`)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("malformed content", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
		}{
			{"empty string", ""},
			{"whitespace only", "   \n\t"},
			{"not xml", "last run: ok"},
			{"unclosed element", "<LogRecords><LogRecord>"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseRecords(tt.content)
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedLog)
			})
		}
	})
}
