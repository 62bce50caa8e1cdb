package model

import (
	"fmt"

	"zkmsg/internal/errs"
)

// Status is the lifecycle state of a message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// InitialStatus is the status of every freshly created envelope.
const InitialStatus = StatusPending

// rank orders the success path; failed is outside it.
var rank = map[Status]int{
	StatusPending:   0,
	StatusSending:   1,
	StatusSent:      2,
	StatusDelivered: 3,
	StatusRead:      4,
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := rank[st]; ok || st == StatusFailed {
		return st, nil
	}
	return "", errs.Validation("unknown status %q", s)
}

// Final reports whether no further transition is possible.
func (s Status) Final() bool {
	return s == StatusRead || s == StatusFailed
}

// CanTransition allows forward moves along pending, sending, sent, delivered,
// read (skipping is fine) and a move to failed from any state before
// delivered. Re-applying the current status is a no-op and allowed.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	if s.Final() {
		return false
	}
	if next == StatusFailed {
		return s != StatusDelivered
	}
	from, ok1 := rank[s]
	to, ok2 := rank[next]
	return ok1 && ok2 && to > from
}

// Transition returns next if the move is allowed, else ErrInvalidTransition.
func (s Status) Transition(next Status) (Status, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, s, next)
	}
	return next, nil
}
