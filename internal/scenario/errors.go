package scenario

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a malformed scenario file: a missing required
// attribute, an unparsable literal, or invalid XML.
// It aborts parsing; nothing is executed.
type ConfigurationError struct {
	// Element is the element being processed, if any.
	Element string

	// Attribute is the offending attribute, if any.
	Attribute string

	// Line is the input line, 0 if unknown.
	Line int

	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	var where string
	switch {
	case e.Element != "" && e.Attribute != "":
		where = fmt.Sprintf("<%s %s>", e.Element, e.Attribute)
	case e.Element != "":
		where = fmt.Sprintf("<%s>", e.Element)
	}

	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	switch {
	case where != "" && e.Line > 0:
		return fmt.Sprintf("configuration error at line %d in %s: %s", e.Line, where, msg)
	case where != "":
		return fmt.Sprintf("configuration error in %s: %s", where, msg)
	case e.Line > 0:
		return fmt.Sprintf("configuration error at line %d: %s", e.Line, msg)
	}
	return "configuration error: " + msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func missingAttribute(element, attribute string, line int) *ConfigurationError {
	return &ConfigurationError{
		Element:   element,
		Attribute: attribute,
		Line:      line,
		Message:   "required attribute is missing or empty",
	}
}
