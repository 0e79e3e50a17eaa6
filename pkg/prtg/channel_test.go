package prtg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChannel(t *testing.T) {
	_, err := NewChannel("")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	ch, err := NewChannel("Queue Depth")
	require.NoError(t, err)
	assert.Equal(t, "Queue Depth", ch.Name())

	_, ok := ch.Value()
	assert.False(t, ok)
}

func TestChannel_SetValue(t *testing.T) {
	ch, err := NewChannel("Queue Depth")
	require.NoError(t, err)

	assert.ErrorIs(t, ch.SetValue(""), ErrInvalidArgument)

	require.NoError(t, ch.SetValue("17"))
	v, ok := ch.Value()
	assert.True(t, ok)
	assert.Equal(t, "17", v)
}

func TestChannel_SetLookup(t *testing.T) {
	ch, err := NewChannel("State")
	require.NoError(t, err)

	assert.ErrorIs(t, ch.SetLookup(""), ErrInvalidArgument)

	require.NoError(t, ch.SetLookup("prtg.standardlookups.activeinactive.stateactiveok"))

	unit, err := ch.GetAttribute(AttrUnit)
	require.NoError(t, err)
	assert.Equal(t, "Custom", unit, "a lookup-driven channel forces the custom unit")

	lookup, err := ch.GetAttribute(AttrValueLookup)
	require.NoError(t, err)
	assert.Equal(t, "prtg.standardlookups.activeinactive.stateactiveok", lookup)
}

func TestChannel_SetAttribute(t *testing.T) {
	ch, err := NewChannel("Elapsed")
	require.NoError(t, err)

	tests := []struct {
		name    string
		attr    string
		value   string
		wantErr error
	}{
		{"valid attribute", AttrLimitMaxWarning, "26", nil},
		{"unknown name", "Color", "red", ErrUnknownAttribute},
		{"Name is not generic", "Name", "x", ErrUnknownAttribute},
		{"Value is not generic", "Value", "x", ErrUnknownAttribute},
		{"empty value", AttrLimitMaxError, "", ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ch.SetAttribute(tt.attr, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChannel_SetAttributes(t *testing.T) {
	ch, err := NewChannel("Elapsed")
	require.NoError(t, err)

	err = ch.SetAttributes(map[string]string{
		AttrLimitMaxWarning: "26",
		"Bogus":             "1",
	})
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	// Nothing applied when any entry is invalid.
	v, err := ch.GetAttribute(AttrLimitMaxWarning)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, ch.SetAttributes(map[string]string{
		AttrLimitMaxWarning: "26",
		AttrLimitMaxError:   "48",
		AttrLimitMode:       "1",
	}))
	v, err = ch.GetAttribute(AttrLimitMaxError)
	require.NoError(t, err)
	assert.Equal(t, "48", v)
}

func TestChannel_GetAttribute(t *testing.T) {
	ch, err := NewChannel("Elapsed")
	require.NoError(t, err)

	_, err = ch.GetAttribute("Nope")
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	v, err := ch.GetAttribute(AttrUnit)
	require.NoError(t, err)
	assert.Empty(t, v, "unset attributes read as empty")
}

func TestChannel_WriteXMLOrder(t *testing.T) {
	ch, err := NewChannel("Elapsed")
	require.NoError(t, err)
	require.NoError(t, ch.SetValue("5"))
	require.NoError(t, ch.SetAttributes(map[string]string{
		AttrLimitMaxWarning: "26",
		AttrUnit:            "TimeHours",
		AttrFloat:           "1",
	}))

	var b strings.Builder
	require.NoError(t, ch.writeXML(&b))
	out := b.String()

	assert.Contains(t, out, "<channel>Elapsed</channel>")
	assert.Contains(t, out, "<value>5</value>")

	// Attributes render in declaration order regardless of set order.
	unitIdx := strings.Index(out, "<Unit>")
	floatIdx := strings.Index(out, "<Float>")
	limitIdx := strings.Index(out, "<LimitMaxWarning>")
	require.True(t, unitIdx >= 0 && floatIdx >= 0 && limitIdx >= 0)
	assert.Less(t, unitIdx, floatIdx)
	assert.Less(t, floatIdx, limitIdx)
}

func TestChannel_WriteXMLEscapes(t *testing.T) {
	ch, err := NewChannel("A & B")
	require.NoError(t, err)
	require.NoError(t, ch.SetValue("1"))

	var b strings.Builder
	require.NoError(t, ch.writeXML(&b))
	assert.Contains(t, b.String(), "<channel>A &amp; B</channel>")
}
