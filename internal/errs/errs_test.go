package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubKindsMatchParents(t *testing.T) {
	assert.ErrorIs(t, ErrDecryption, ErrCryptographic)
	assert.ErrorIs(t, ErrProofFormat, ErrValidation)
	assert.ErrorIs(t, ErrProofGeneration, ErrBackendUnavailable)
	assert.NotErrorIs(t, ErrProofGeneration, ErrCryptographic)
	assert.NotErrorIs(t, ErrDecryption, ErrValidation)
}

func TestWrapKeepsKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(ErrBackendUnavailable, cause, "blob put")

	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "blob put")
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{Validation("empty message"), http.StatusBadRequest},
		{fmt.Errorf("open: %w", ErrDecryption), http.StatusUnprocessableEntity},
		{Wrap(ErrProofGeneration, nil, "prove"), http.StatusServiceUnavailable},
		{ErrNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
		{ErrInitialization, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), "%v", c.err)
	}
}
