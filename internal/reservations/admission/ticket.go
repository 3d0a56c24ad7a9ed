package admission

import (
	"roomres/pkg/model"
	"sync/atomic"
	"time"
)

const (
	statePending int32 = iota
	stateClaimed
	stateAbandoned
)

// Request is a reservation to be admitted by the worker.
type Request struct {
	Resource    string
	Start       time.Time
	End         time.Time
	ReservedBy  string
	RequesterID string
	Title       string
}

type Outcome struct {
	Reservation *model.Reservation
	Err         error
}

// ticket binds a queued request to the caller waiting for its outcome.
// Exactly one of claim (worker) or abandon (caller) succeeds.
type ticket struct {
	req   Request
	state atomic.Int32
	done  chan Outcome
}

func newTicket(req Request) *ticket {
	return &ticket{
		req:  req,
		done: make(chan Outcome, 1),
	}
}

func (t *ticket) claim() bool {
	return t.state.CompareAndSwap(statePending, stateClaimed)
}

func (t *ticket) abandon() bool {
	return t.state.CompareAndSwap(statePending, stateAbandoned)
}

// resolve must be called once, after a successful claim.
func (t *ticket) resolve(out Outcome) {
	t.done <- out
}
