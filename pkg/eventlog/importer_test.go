package eventlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairInnerExceptionContent(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := RepairInnerExceptionContent(nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("well-formed content passes through", func(t *testing.T) {
		lines := []string{
			`<?xml version="1.0" encoding="utf-8"?>`,
			`<LogRecords>`,
			`  <LogRecord>`,
			`    <RecordId>1</RecordId>`,
			`    <Message>all on one line</Message>`,
			`  </LogRecord>`,
			`</LogRecords>`,
		}

		content, err := RepairInnerExceptionContent(lines)
		require.NoError(t, err)
		assert.Equal(t, strings.Join(lines, "\n"), content)
	})

	t.Run("merges stranded message lines", func(t *testing.T) {
		lines := []string{
			`<LogRecords>`,
			`  <LogRecord>`,
			`    <Message>first part `,
			`second part`,
			`</Message>`,
			`  </LogRecord>`,
			`</LogRecords>`,
		}

		content, err := RepairInnerExceptionContent(lines)
		require.NoError(t, err)
		assert.Contains(t, content, `<Message>first part second part...</Message>`)
		assert.NotContains(t, content, "first part \nsecond part")
	})

	t.Run("truncates at 250 characters before ellipsis", func(t *testing.T) {
		long := strings.Repeat("a", 400)
		lines := []string{
			`<LogRecords>`,
			`    <Message>` + long,
			`</Message>`,
			`</LogRecords>`,
		}

		content, err := RepairInnerExceptionContent(lines)
		require.NoError(t, err)

		var merged string
		for _, l := range strings.Split(content, "\n") {
			if strings.Contains(l, "<Message>") {
				merged = l
			}
		}
		require.NotEmpty(t, merged)

		body := strings.TrimSuffix(merged, "</Message>")
		assert.True(t, strings.HasSuffix(body, "..."), "ellipsis marker missing: %q", body)
		assert.Len(t, strings.TrimSuffix(body, "..."), 250)
	})

	t.Run("normalizes escapes and drops NUL bytes", func(t *testing.T) {
		lines := []string{
			`<LogRecords>`,
			`    <Message>can&apos;t open A & B` + "\x00",
			`</Message>`,
			`</LogRecords>`,
		}

		content, err := RepairInnerExceptionContent(lines)
		require.NoError(t, err)
		assert.Contains(t, content, `<Message>can't open A . B...</Message>`)
		assert.NotContains(t, content, "\x00")
	})

	t.Run("repaired content parses as log records", func(t *testing.T) {
		lines := []string{
			`<?xml version="1.0" encoding="utf-8"?>`,
			`<LogRecords>`,
			`  <LogRecord>`,
			`    <RecordId>2</RecordId>`,
			`    <EventId>500</EventId>`,
			`    <Source>job</Source>`,
			`    <CorrelationId>abc-202401151030-xyz</CorrelationId>`,
			`    <Timestamp>2024-01-15T10:31:02</Timestamp>`,
			`    <ErrorCode>7</ErrorCode>`,
			`    <Message>connection refused`,
			`while opening session`,
			`</Message>`,
			`  </LogRecord>`,
			`</LogRecords>`,
		}

		content, err := RepairInnerExceptionContent(lines)
		require.NoError(t, err)

		records, err := ParseRecords(content)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 7, records[0].ErrorCode)
		assert.Equal(t, "connection refusedwhile opening session...", records[0].Message)
	})

	t.Run("blank lines stay structural", func(t *testing.T) {
		lines := []string{
			`<LogRecords>`,
			``,
			`</LogRecords>`,
		}

		content, err := RepairInnerExceptionContent(lines)
		require.NoError(t, err)
		assert.Equal(t, "<LogRecords>\n\n</LogRecords>", content)
	})
}
