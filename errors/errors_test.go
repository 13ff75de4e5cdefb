package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassString(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  string
	}{
		{ErrorConflict, "conflict"},
		{ErrorNotFound, "not_found"},
		{ErrorInvalid, "invalid"},
		{ErrorInternal, "internal"},
		{ErrorClass(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.class.String())
	}
}

func TestWrapFormatsContext(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(base, "Store", "Publish", "insert")

	require.Error(t, err)
	assert.Equal(t, "Store.Publish: insert failed: boom", err.Error())
	assert.True(t, errors.Is(err, base))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "Store", "Publish", "insert"))
	assert.NoError(t, WrapConflict(nil, "Store", "Publish", "insert"))
	assert.NoError(t, WrapNotFound(nil, "Store", "Get", "lookup"))
	assert.NoError(t, WrapInvalid(nil, "Store", "Publish", "validate"))
	assert.NoError(t, WrapInternal(nil, "Server", "Start", "listen"))
}

func TestClassificationPredicates(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		isConflict bool
		isNotFound bool
		isInvalid  bool
	}{
		{
			name:       "wrapped conflict",
			err:        WrapConflict(ErrNodeTypeExists, "Store", "Publish", "duplicate key check"),
			isConflict: true,
		},
		{
			name:       "wrapped not found",
			err:        WrapNotFound(ErrNodeTypeNotFound, "Store", "Get", "exact lookup"),
			isNotFound: true,
		},
		{
			name:      "wrapped invalid",
			err:       WrapInvalid(ErrInvalidConfig, "Config", "Validate", "port range"),
			isInvalid: true,
		},
		{
			name:       "bare sentinel conflict",
			err:        ErrNodeTypeExists,
			isConflict: true,
		},
		{
			name:       "bare sentinel not found",
			err:        fmt.Errorf("lookup: %w", ErrNodeTypeNotFound),
			isNotFound: true,
		},
		{
			name:      "bare sentinel missing config",
			err:       ErrMissingConfig,
			isInvalid: true,
		},
		{
			name: "plain error classifies as internal",
			err:  errors.New("something else"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isConflict, IsConflict(tt.err))
			assert.Equal(t, tt.isNotFound, IsNotFound(tt.err))
			assert.Equal(t, tt.isInvalid, IsInvalid(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorConflict, Classify(WrapConflict(ErrNodeTypeExists, "Store", "Publish", "insert")))
	assert.Equal(t, ErrorNotFound, Classify(WrapNotFound(ErrNodeTypeNotFound, "Store", "Get", "lookup")))
	assert.Equal(t, ErrorInvalid, Classify(WrapInvalid(ErrInvalidConfig, "Config", "Validate", "check")))
	assert.Equal(t, ErrorInternal, Classify(errors.New("unknown")))
	assert.Equal(t, ErrorInternal, Classify(nil))
}

func TestClassifiedErrorUnwrap(t *testing.T) {
	err := WrapConflict(ErrNodeTypeExists, "Store", "Publish", "insert")

	var ce *ClassifiedError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Store", ce.Component)
	assert.Equal(t, "Publish", ce.Operation)
	assert.True(t, errors.Is(err, ErrNodeTypeExists))
}

func TestNilPredicates(t *testing.T) {
	assert.False(t, IsConflict(nil))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsInvalid(nil))
}
