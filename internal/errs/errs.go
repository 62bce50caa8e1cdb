// Package errs defines the error taxonomy shared by the protocol core and the
// transport layer. Callers match kinds with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type kindError struct {
	msg    string
	parent error
}

func (k *kindError) Error() string { return k.msg }
func (k *kindError) Unwrap() error { return k.parent }

func subKind(msg string, parent error) error {
	return &kindError{msg: msg, parent: parent}
}

var (
	// ErrValidation marks malformed or missing input at the protocol boundary.
	ErrValidation = errors.New("validation error")

	// ErrCryptographic marks a definite cryptographic rejection.
	ErrCryptographic = errors.New("cryptographic error")

	// ErrBackendUnavailable marks an unreachable or failing collaborator
	// (proving backend, blob store, index). It never means "proof invalid".
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrInitialization marks a failed one-time initialization.
	ErrInitialization = errors.New("initialization error")

	ErrNotFound = errors.New("not found")
)

var (
	ErrProofFormat       = subKind("malformed proof input", ErrValidation)
	ErrMalformedPayload  = subKind("malformed encrypted payload", ErrValidation)
	ErrInvalidTransition = subKind("invalid status transition", ErrValidation)

	ErrDecryption         = subKind("decryption failed", ErrCryptographic)
	ErrInvalidProof       = subKind("proof verification failed", ErrCryptographic)
	ErrCommitmentMismatch = subKind("commitment mismatch", ErrCryptographic)
	ErrStaleMessage       = subKind("message outside replay window", ErrCryptographic)

	ErrProofGeneration = subKind("proof generation failed", ErrBackendUnavailable)
)

// Validation returns an ErrValidation with a formatted reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Wrap attaches kind and msg to err. A nil err yields kind with msg only.
func Wrap(kind error, err error, msg string) error {
	if err == nil {
		return fmt.Errorf("%w: %s", kind, msg)
	}
	return fmt.Errorf("%w: %s: %w", kind, msg, err)
}

// HTTPStatus maps an error to the response code the API reports for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrCryptographic):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
