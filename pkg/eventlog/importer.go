package eventlog

import (
	"fmt"
	"strings"
)

// The job runner's inner-exception writer emits the Message payload as
// free text: embedded line breaks reach the file as separate physical
// lines with no escaping, leaving the closing tag stranded on the last of
// them. RepairInnerExceptionContent reassembles those fragments into one
// logical line per record field so the result parses as a regular log
// document again.
const (
	messageCloseTag = "</Message>"

	// maxMessageRunes bounds the reassembled message before the ellipsis
	// marker is appended.
	maxMessageRunes = 250

	ellipsisMarker = "..."
)

// RepairInnerExceptionContent reassembles the raw lines of an
// inner-exception file into well-formed log content.
//
// A line is kept standalone when it is blank, an XML declaration, or any
// tag line. A closing Message tag is the exception: it completes the
// logical line accumulated so far: the accumulated text is truncated to
// its first 250 characters, escaped apostrophes are unescaped, remaining
// ampersands become periods, NUL bytes are dropped, an ellipsis marker is
// appended, and the closing tag is attached. Every other line is
// concatenated onto the current logical line without a delimiter.
func RepairInnerExceptionContent(lines []string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: inner exception content is empty", ErrInvalidInput)
	}

	out := make([]string, 0, len(lines))
	current := ""
	started := false

	flush := func() {
		if started {
			out = append(out, current)
		}
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")

		switch {
		case strings.HasPrefix(strings.TrimSpace(line), messageCloseTag):
			current = sanitizeOverflowedMessage(current) + line
			started = true

		case isStructuralLine(line):
			flush()
			current = line
			started = true

		default:
			if !started {
				current = line
				started = true
			} else {
				current += line
			}
		}
	}
	flush()

	return strings.Join(out, "\n"), nil
}

// isStructuralLine reports whether a raw line starts a new logical line.
func isStructuralLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, "<?xml") {
		return true
	}
	return strings.HasPrefix(trimmed, "<")
}

// sanitizeOverflowedMessage normalizes an overflowed multi-line message
// fragment: truncate first, then unescape, then mark the cut.
func sanitizeOverflowedMessage(s string) string {
	if runes := []rune(s); len(runes) > maxMessageRunes {
		s = string(runes[:maxMessageRunes])
	}
	s = strings.ReplaceAll(s, "&apos;", "'")
	s = strings.ReplaceAll(s, "&", ".")
	s = strings.ReplaceAll(s, "\x00", "")
	return s + ellipsisMarker
}
