package binui

import (
	"sync"
	"testing"
)

func TestLease_AcquireRelease(t *testing.T) {
	l := NewLease()
	g := l.TryAcquire()
	if g == nil {
		t.Fatal("open lease refused an acquisition")
	}
	if got := l.ActiveLeases(); got != 1 {
		t.Fatalf("active = %d, want 1", got)
	}

	g.Release()
	g.Release() // idempotent
	if got := l.ActiveLeases(); got != 0 {
		t.Fatalf("active after release = %d, want 0", got)
	}
}

func TestLease_ClosedRefuses(t *testing.T) {
	l := NewLease()
	held := l.TryAcquire()
	l.Close()

	if l.TryAcquire() != nil {
		t.Fatal("closed lease handed out a guard")
	}
	// The guard taken before Close stays valid.
	if got := l.ActiveLeases(); got != 1 {
		t.Fatalf("active = %d, want the pre-close hold", got)
	}
	held.Release()
	if got := l.ActiveLeases(); got != 0 {
		t.Fatalf("active = %d, want 0", got)
	}
}

func TestLease_ConcurrentHolds(t *testing.T) {
	l := NewLease()
	const n = 64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := l.TryAcquire()
			if g == nil {
				t.Error("acquire failed on an open lease")
				return
			}
			g.Release()
		}()
	}
	wg.Wait()

	if got := l.ActiveLeases(); got != 0 {
		t.Fatalf("active = %d after all released", got)
	}
}
