package binui

import (
	"errors"
	"sync"
)

// ErrAccessFinished reports use of a ViewAccess after Finish.
var ErrAccessFinished = errors.New("binui: view access already finished")

// ViewAccess is a scoped handoff of a shared resource, typically a
// texture view, between two parties. The holder works with the
// resource and calls Finish; the other party calls Wait, which
// returns once Finish has run. Wait must be invoked before the holder
// finishes its scope or Finish reports the ordering violation.
type ViewAccess struct {
	mu       sync.Mutex
	done     chan struct{}
	waiting  bool
	finished bool
}

// NewViewAccess creates an access in the held state.
func NewViewAccess() *ViewAccess {
	return &ViewAccess{done: make(chan struct{})}
}

// Wait blocks until the holder calls Finish. It must be called at
// most once.
func (v *ViewAccess) Wait() {
	v.mu.Lock()
	if v.finished {
		v.mu.Unlock()
		return
	}
	v.waiting = true
	v.mu.Unlock()
	<-v.done
}

// Finish releases the access and wakes the waiter. Calling Finish
// with no waiter registered returns an error, because the rendezvous
// contract requires the other party to be waiting first.
func (v *ViewAccess) Finish() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.finished {
		return ErrAccessFinished
	}
	v.finished = true
	close(v.done)
	if !v.waiting {
		return errors.New("binui: view access finished with no waiter")
	}
	return nil
}
