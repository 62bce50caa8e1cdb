package zkproof

import (
	"context"
	"fmt"
	"runtime"

	"zkmsg/internal/metrics"
)

// Pool bounds the number of proofs generated concurrently. Proving is
// CPU-bound and already parallel inside gnark, so a small bound is enough.
type Pool struct {
	slots chan struct{}
}

// NewPool returns a pool with the given number of workers. workers <= 0
// selects GOMAXPROCS/2, at least one.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = max(runtime.GOMAXPROCS(0)/2, 1)
	}
	return &Pool{slots: make(chan struct{}, workers)}
}

// Do runs fn on a worker. It returns ctx.Err() as soon as ctx is done, while
// fn keeps its slot until it finishes so the bound holds.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	done := make(chan error, 1)
	go func() {
		metrics.ProverInFlight.Inc()
		defer func() {
			metrics.ProverInFlight.Dec()
			<-p.slots
		}()
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("prover panic: %v", r)
			}
		}()
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
