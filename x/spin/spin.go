// Package spin provides a busy-waiting lock for very short critical sections.
package spin

import (
	"runtime"

	"go.uber.org/atomic"
)

const maxSpinsBeforeYield = 16

// Lock is a test-and-set spinlock. The zero value is unlocked.
// Lock must not be held across blocking calls.
type Lock struct {
	locked atomic.Bool
}

// Lock acquires the lock, spinning until it is available.
func (l *Lock) Lock() {
	spins := 0
	for {
		// Test before test-and-set to keep the cache line shared while contended.
		if !l.locked.Load() && l.locked.CompareAndSwap(false, true) {
			return
		}
		spins++
		if spins >= maxSpinsBeforeYield {
			runtime.Gosched()
			spins = 0
		}
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *Lock) TryLock() bool {
	return l.locked.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlocking an unlocked lock panics.
func (l *Lock) Unlock() {
	if !l.locked.Swap(false) {
		panic("spin: unlock of unlocked lock")
	}
}
