package apperror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpstreamError_Unwrap(t *testing.T) {
	err := NewUpstreamError("doodstream", 500, "boom", context.Canceled)

	assert.ErrorIs(t, err, ErrUpstreamError)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "doodstream")

	var ue *UpstreamError
	wrapped := fmt.Errorf("fetch page: %w", err)
	assert.True(t, errors.As(wrapped, &ue))
	assert.Equal(t, 500, ue.Status)
}

func TestDataUnavailableError(t *testing.T) {
	err := &DataUnavailableError{Key: "k", Attempts: 3}

	assert.True(t, IsDataUnavailable(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "no data available for k after 3 attempts", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(fmt.Errorf("info: %w", ErrNotFound)))
	assert.True(t, IsRetryable(ErrUpstreamTimeout))
	assert.True(t, IsRetryable(ErrEmptyResult))
}
