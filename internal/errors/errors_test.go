package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, CodeOf(NotFound("approval_level", "abc")))
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(InvalidInput("amount", "must not be negative")))
	assert.Equal(t, ErrCodeNoDefaults, CodeOf(NoDefaults("client-1")))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain error")))
}

func TestCodeOfWrappedChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeUnavailable, "backend unreachable")
	wrapped := fmt.Errorf("list levels: %w", err)

	assert.Equal(t, ErrCodeUnavailable, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodeUnavailable))
	assert.ErrorIs(t, wrapped, cause)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("approval_level", "x")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("name", "required")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(New(ErrCodeConflict, "stale update")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(New(ErrCodeUnavailable, "db down")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("boom")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "name: required", MessageOf(InvalidInput("name", "required")))
	assert.Equal(t, "boom", MessageOf(stderrors.New("boom")))
}
