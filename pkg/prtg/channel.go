// Package prtg models a PRTG custom-sensor result document: a bounded set
// of named metric channels plus one free-text status line, rendered as the
// XML format the PRTG probe ingests.
package prtg

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sentinel errors for channel and sensor operations.
var (
	// ErrInvalidArgument indicates an empty or otherwise unusable
	// parameter value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownAttribute indicates an attribute name outside the closed
	// set of channel attributes.
	ErrUnknownAttribute = errors.New("unknown channel attribute")

	// ErrChannelCapacity indicates an attempt to add a channel beyond the
	// slots reserved for the sensor kind.
	ErrChannelCapacity = errors.New("channel capacity exhausted")
)

// Channel attribute names. Name and Value are deliberately absent: they are
// first-class channel fields, not generic attributes.
const (
	AttrUnit            = "Unit"
	AttrCustomUnit      = "CustomUnit"
	AttrSpeedSize       = "SpeedSize"
	AttrVolumeSize      = "VolumeSize"
	AttrSpeedTime       = "SpeedTime"
	AttrMode            = "Mode"
	AttrFloat           = "Float"
	AttrDecimalMode     = "DecimalMode"
	AttrShowChart       = "ShowChart"
	AttrShowTable       = "ShowTable"
	AttrWarning         = "Warning"
	AttrValueLookup     = "ValueLookup"
	AttrNotifyChanged   = "NotifyChanged"
	AttrLimitMode       = "LimitMode"
	AttrLimitMaxError   = "LimitMaxError"
	AttrLimitMaxWarning = "LimitMaxWarning"
	AttrLimitMinError   = "LimitMinError"
	AttrLimitMinWarning = "LimitMinWarning"
	AttrLimitErrorMsg   = "LimitErrorMsg"
	AttrLimitWarningMsg = "LimitWarningMsg"
)

// customUnitSentinel is the unit value PRTG expects on channels driven by a
// value lookup.
const customUnitSentinel = "Custom"

// attributeNames is the closed attribute set in render order.
var attributeNames = []string{
	AttrUnit,
	AttrCustomUnit,
	AttrSpeedSize,
	AttrVolumeSize,
	AttrSpeedTime,
	AttrMode,
	AttrFloat,
	AttrDecimalMode,
	AttrShowChart,
	AttrShowTable,
	AttrWarning,
	AttrValueLookup,
	AttrNotifyChanged,
	AttrLimitMode,
	AttrLimitMaxError,
	AttrLimitMaxWarning,
	AttrLimitMinError,
	AttrLimitMinWarning,
	AttrLimitErrorMsg,
	AttrLimitWarningMsg,
}

var attributeSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(attributeNames))
	for _, n := range attributeNames {
		s[n] = struct{}{}
	}
	return s
}()

// Channel is one named metric slot with a value and optional descriptive
// attributes.
type Channel struct {
	name     string
	value    string
	hasValue bool
	attrs    map[string]string
}

// NewChannel creates an empty channel. The name must be non-empty.
func NewChannel(name string) (*Channel, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: channel name is required", ErrInvalidArgument)
	}
	return &Channel{name: name, attrs: make(map[string]string)}, nil
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Value returns the channel value and whether one has been set.
func (c *Channel) Value() (string, bool) { return c.value, c.hasValue }

// SetValue assigns the channel value. Empty values are rejected.
func (c *Channel) SetValue(value string) error {
	if value == "" {
		return fmt.Errorf("%w: value for channel %q is empty", ErrInvalidArgument, c.name)
	}
	c.value = value
	c.hasValue = true
	return nil
}

// SetLookup assigns a value-lookup table id. A lookup-driven channel always
// reports the custom unit sentinel, so Unit is forced alongside.
func (c *Channel) SetLookup(id string) error {
	if id == "" {
		return fmt.Errorf("%w: lookup id for channel %q is empty", ErrInvalidArgument, c.name)
	}
	c.attrs[AttrValueLookup] = id
	c.attrs[AttrUnit] = customUnitSentinel
	return nil
}

// SetAttribute assigns one descriptive attribute. The name must belong to
// the closed attribute set; Name and Value are not generic attributes and
// are rejected here.
func (c *Channel) SetAttribute(name, value string) error {
	if err := validateAttributeName(name); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%w: value for attribute %q is empty", ErrInvalidArgument, name)
	}
	c.attrs[name] = value
	return nil
}

// SetAttributes assigns several attributes, validating every entry before
// applying any of them.
func (c *Channel) SetAttributes(attrs map[string]string) error {
	for name, value := range attrs {
		if err := validateAttributeName(name); err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("%w: value for attribute %q is empty", ErrInvalidArgument, name)
		}
	}
	for name, value := range attrs {
		c.attrs[name] = value
	}
	return nil
}

// GetAttribute returns the current value of one attribute, which may be
// empty when the attribute has not been set.
func (c *Channel) GetAttribute(name string) (string, error) {
	if err := validateAttributeName(name); err != nil {
		return "", err
	}
	return c.attrs[name], nil
}

func validateAttributeName(name string) error {
	if name == "Name" || name == "Value" {
		return fmt.Errorf("%w: %q is not a generic attribute", ErrUnknownAttribute, name)
	}
	if _, ok := attributeSet[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return nil
}

// writeXML renders the channel as one <result> block: name and value
// unconditionally, then every non-empty attribute in declaration order.
func (c *Channel) writeXML(w io.Writer) error {
	if _, err := io.WriteString(w, "  <result>\n"); err != nil {
		return err
	}
	if err := writeElement(w, "channel", c.name); err != nil {
		return err
	}
	if err := writeElement(w, "value", c.value); err != nil {
		return err
	}
	for _, name := range attributeNames {
		if v := c.attrs[name]; v != "" {
			if err := writeElement(w, name, v); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, "  </result>\n")
	return err
}

// writeElement emits one indented, escaped leaf element.
func writeElement(w io.Writer, tag, text string) error {
	if _, err := fmt.Fprintf(w, "    <%s>", tag); err != nil {
		return err
	}
	if err := xml.EscapeText(w, []byte(text)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "</%s>\n", tag)
	return err
}
