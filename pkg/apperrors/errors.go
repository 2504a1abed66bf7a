package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDecode          = errors.New("decode failed")
	ErrReference       = errors.New("unresolved reference")
	ErrLoad            = errors.New("source load failed")
	ErrTransform       = errors.New("transform failed")
	ErrSink            = errors.New("sink write failed")
)

// DecodeError reports a stored value that exists but cannot be decoded to its expected shape.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func (e *DecodeError) Unwrap() error { return e.Err }

// ReferenceError reports a Feature whose embedded Entity or Source reference did not resolve.
// Kind is "entity" or "source"; Ref is the human-readable reference ("clicks:1").
type ReferenceError struct {
	Kind string
	Ref  string
	Err  error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s reference %q: %v", e.Kind, e.Ref, e.Err)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrReference }

func (e *ReferenceError) Unwrap() error { return e.Err }

// LoadError reports a failure loading a Source into the query engine.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load source %s: %v", e.Source, e.Err)
}

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

func (e *LoadError) Unwrap() error { return e.Err }

// TransformError reports that the query engine rejected or failed a Feature's transform.
type TransformError struct {
	Feature string
	Err     error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Feature, e.Err)
}

func (e *TransformError) Is(target error) bool { return target == ErrTransform }

func (e *TransformError) Unwrap() error { return e.Err }

// SinkError reports a failure writing a materialized relation to its sink target.
type SinkError struct {
	Format string
	Path   string
	Err    error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("write %s sink %s: %v", e.Format, e.Path, e.Err)
}

func (e *SinkError) Is(target error) bool { return target == ErrSink }

func (e *SinkError) Unwrap() error { return e.Err }
