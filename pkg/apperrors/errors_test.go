package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceError_MatchesKindAndCause(t *testing.T) {
	cause := fmt.Errorf("entity %q: %w", "user", ErrNotFound)
	err := error(&ReferenceError{Kind: "entity", Ref: "user", Err: cause})

	assert.True(t, errors.Is(err, ErrReference))
	assert.True(t, errors.Is(err, ErrNotFound), "reference error should unwrap to the missing row")
	assert.False(t, errors.Is(err, ErrDecode))
	assert.Contains(t, err.Error(), `entity reference "user"`)
}

func TestReferenceError_WrappingDecodeError(t *testing.T) {
	decodeErr := &DecodeError{Field: "entity.join_keys", Err: errors.New("unexpected end of JSON input")}
	err := fmt.Errorf("resolve feature: %w", &ReferenceError{Kind: "entity", Ref: "user", Err: decodeErr})

	var refErr *ReferenceError
	assert.True(t, errors.As(err, &refErr))
	assert.Equal(t, "entity", refErr.Kind)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestPipelineErrors_AreDistinct(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"load", &LoadError{Source: "clicks:1", Err: cause}, ErrLoad},
		{"transform", &TransformError{Feature: "click_count:1", Err: cause}, ErrTransform},
		{"sink", &SinkError{Format: "parquet", Path: "/out/x", Err: cause}, ErrSink},
		{"decode", &DecodeError{Field: "config", Err: cause}, ErrDecode},
	}

	all := []error{ErrLoad, ErrTransform, ErrSink, ErrDecode, ErrNotFound, ErrReference}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, kind := range all {
				assert.Equal(t, kind == tt.target, errors.Is(tt.err, kind), "kind %v", kind)
			}
			assert.True(t, errors.Is(tt.err, cause))
		})
	}
}

func TestSinkError_Message(t *testing.T) {
	err := &SinkError{Format: "parquet", Path: "/out/click_count", Err: errors.New("permission denied")}
	assert.Equal(t, "write parquet sink /out/click_count: permission denied", err.Error())
}
