package filter

import (
	"errors"
	"strings"
)

// Sentinel causes wrapped by [ConfigurationError].
var (
	ErrUnknownNamespace = errors.New("unknown namespace")
	ErrImportCycle      = errors.New("import cycle")
	ErrMalformedField   = errors.New("malformed field")
	ErrMalformedDoc     = errors.New("malformed document")
)

// ConfigurationError reports a filter that cannot be built. It is fatal: no
// creature is processed once a configuration error occurred.
type ConfigurationError struct {
	// Path is the filter file the problem was found in, if known.
	Path string
	// Field is the offending field, if the problem is field specific.
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder

	b.WriteString("filter")

	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}

	if e.Field != "" {
		b.WriteString(": field ")
		b.WriteString(e.Field)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
