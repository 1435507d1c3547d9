package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := New(NotFound, "file not registered")
	assert.Equal(t, NotFound, CodeOf(err))
	assert.True(t, IsNotFound(err))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, Internal, CodeOf(errors.New("plain error")))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(IOError, "write file", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, IOError, CodeOf(err))
}

func TestIsCancelled(t *testing.T) {
	err := New(Cancelled, "scan cancelled")
	assert.True(t, IsCancelled(err))
	assert.False(t, IsNotFound(err))
}
