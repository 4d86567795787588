package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := Wrap(errors.New("dial tcp: refused"), ErrUpstream.Code, ErrUpstream.Status, "fetch calendar events")
	got := FromError(wrapped)
	assert.Equal(t, http.StatusBadGateway, got.Status)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", got.Code)
	assert.Contains(t, got.Error(), "dial tcp")
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrInvalidRange, "end date is before start date")
	assert.Equal(t, "end date is before start date", clone.Message)
	assert.Equal(t, "invalid date range", ErrInvalidRange.Message)
	assert.True(t, errors.Is(Wrap(ErrCacheMiss, "X", 0, "x"), ErrCacheMiss))
}
