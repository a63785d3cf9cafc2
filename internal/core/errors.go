package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline's error taxonomy. Typed errors below wrap
// them so callers can use errors.Is without caring about the concrete type.
var (
	ErrSourceNotFound    = errors.New("source not found")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInlineShape       = errors.New("inline input must be a list of records")
	ErrNoMetadata        = errors.New("no metadata")
	ErrSinkNotConfigured = errors.New("sink not configured")
	ErrWriteFailed       = errors.New("write failed")
	ErrStore             = errors.New("document store error")

	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
)

// LoadError reports a source that contributed no records.
// It is recoverable: loading continues with the remaining sources.
type LoadError struct {
	Source string // Source name as declared in metadata
	Path   string // Physical location that was read
	Line   int    // 1-based line number, 0 if not line-specific
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load source %s (%s) line %d: %v", e.Source, e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("load source %s (%s): %v", e.Source, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ConfigError reports a partition with no sink configuration.
type ConfigError struct {
	Dataflow string
	Tag      PartitionTag
}

func (e *ConfigError) Error() string {
	if e.Dataflow != "" {
		return fmt.Sprintf("%v for %q in dataflow %q", ErrSinkNotConfigured, e.Tag, e.Dataflow)
	}
	return fmt.Sprintf("%v for %q", ErrSinkNotConfigured, e.Tag)
}

func (e *ConfigError) Unwrap() error { return ErrSinkNotConfigured }

// WriteError reports a failed write to a single destination.
type WriteError struct {
	Partition   PartitionTag
	Destination string
	Err         error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%v: %s -> %s: %v", ErrWriteFailed, e.Partition, e.Destination, e.Err)
}

// Unwrap exposes both ErrWriteFailed and the underlying cause.
func (e *WriteError) Unwrap() []error { return []error{ErrWriteFailed, e.Err} }
