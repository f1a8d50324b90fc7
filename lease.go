package binui

import "sync/atomic"

// Lease counts shared holds on a resource. TryAcquire hands out a
// guard that must be released exactly once; the count gates teardown
// of whatever the lease protects.
type Lease struct {
	active atomic.Int64
	closed atomic.Bool
}

// NewLease creates an open lease.
func NewLease() *Lease {
	return &Lease{}
}

// TryAcquire returns a guard, or nil once the lease is closed.
func (l *Lease) TryAcquire() *LeaseGuard {
	l.active.Add(1)
	if l.closed.Load() {
		l.active.Add(-1)
		return nil
	}
	return &LeaseGuard{lease: l}
}

// ActiveLeases returns the number of outstanding guards.
func (l *Lease) ActiveLeases() int {
	n := l.active.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Close stops new acquisitions. Outstanding guards stay valid until
// released.
func (l *Lease) Close() {
	l.closed.Store(true)
}

// LeaseGuard is one hold on a lease.
type LeaseGuard struct {
	lease    *Lease
	released atomic.Bool
}

// Release returns the hold. Further calls are no-ops.
func (g *LeaseGuard) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.lease.active.Add(-1)
	}
}
