package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("submit: %w", Validation("image", "image file is required"))

	require.ErrorIs(t, err, ErrValidation)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "image", vErr.Field)
	require.Equal(t, "image: image file is required", vErr.Error())
	require.Equal(t, "bad input", Validation("", "bad input").Error())
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := &StorageError{Op: "write", Key: "a.png", Err: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), `storage write "a.png"`)
}

func TestUpstream(t *testing.T) {
	require.NoError(t, Upstream(nil))
	err := Upstream(errors.New("server selection timeout"))
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.Contains(t, err.Error(), "server selection timeout")
}
