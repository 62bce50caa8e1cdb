// Package blobstore holds message envelopes in content stores. Envelopes are
// opaque bytes here; blob ids are whatever the backend assigns.
package blobstore

import (
	"context"

	"zkmsg/internal/metrics"
)

const (
	BackendWalrus = "walrus"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Store is a write-once blob store. Get of an unknown id is ErrNotFound;
// transport failures are ErrBackendUnavailable.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, blobID string) ([]byte, error)
}

type instrumented struct {
	backend string
	next    Store
}

// Instrument counts operations on s under the given backend label.
func Instrument(backend string, s Store) Store {
	return &instrumented{backend: backend, next: s}
}

func (i *instrumented) Put(ctx context.Context, data []byte) (string, error) {
	id, err := i.next.Put(ctx, data)
	metrics.BlobOperations.WithLabelValues(i.backend, "put", metrics.Outcome(err)).Inc()
	return id, err
}

func (i *instrumented) Get(ctx context.Context, blobID string) ([]byte, error) {
	data, err := i.next.Get(ctx, blobID)
	metrics.BlobOperations.WithLabelValues(i.backend, "get", metrics.Outcome(err)).Inc()
	return data, err
}
