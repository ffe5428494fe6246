package refcnt

import (
	"sync"

	"github.com/xichen2020/refcommons/x/debug"
	"github.com/xichen2020/refcommons/x/spin"
)

// Locker is the synchronization policy of a LockedRefCounter: a pointer to M
// that can be locked and unlocked.
type Locker[M any] interface {
	*M
	sync.Locker
}

// NullMutex is a synchronization policy that does nothing, for counters
// that are only ever used from a single goroutine.
type NullMutex struct{}

// Lock does nothing.
func (*NullMutex) Lock() {}

// Unlock does nothing.
func (*NullMutex) Unlock() {}

// Counters guarded by the shipped synchronization policies.
type (
	// MutexRefCounter is guarded by a sync.Mutex.
	MutexRefCounter = LockedRefCounter[sync.Mutex, *sync.Mutex]

	// RWMutexRefCounter is guarded by the write side of a sync.RWMutex.
	RWMutexRefCounter = LockedRefCounter[sync.RWMutex, *sync.RWMutex]

	// SpinRefCounter is guarded by a spinlock.
	SpinRefCounter = LockedRefCounter[spin.Lock, *spin.Lock]

	// UnsyncRefCounter is not synchronized at all.
	UnsyncRefCounter = LockedRefCounter[NullMutex, *NullMutex]
)

// LockedRefCounter is a reference counter whose count is guarded by a lock
// of type M. The zero value holds one reference and has no release hook.
//
// The release hook always runs after the lock is released, so it may call
// back into code guarded by the same kind of lock.
type LockedRefCounter[M any, PM Locker[M]] struct {
	mu M
	// n stores the reference count minus one.
	n        int64
	onZeroFn OnZeroRefCountFn
}

// NewLockedRefCounter creates a new reference counter guarded by a lock of
// type M, with an initial refcount of 1.
func NewLockedRefCounter[M any, PM Locker[M]](fn OnZeroRefCountFn) *LockedRefCounter[M, PM] {
	return &LockedRefCounter[M, PM]{onZeroFn: fn}
}

// NewMutexRefCounter creates a new mutex guarded reference counter.
func NewMutexRefCounter(fn OnZeroRefCountFn) *MutexRefCounter {
	return NewLockedRefCounter[sync.Mutex](fn)
}

// NewUnsyncRefCounter creates a new unsynchronized reference counter.
func NewUnsyncRefCounter(fn OnZeroRefCountFn) *UnsyncRefCounter {
	return NewLockedRefCounter[NullMutex](fn)
}

// SetOnZero sets the callback executed when the last reference is dropped.
// It must be called before the counter is shared.
func (c *LockedRefCounter[M, PM]) SetOnZero(fn OnZeroRefCountFn) { c.onZeroFn = fn }

// IncRef increments the ref count.
func (c *LockedRefCounter[M, PM]) IncRef() {
	PM(&c.mu).Lock()
	c.n++
	n := c.n
	PM(&c.mu).Unlock()
	if debug.Enabled && invalidIncRef(n) {
		panicInvalidRefCount(n + 1)
	}
}

// DecRef decrements the ref count, and executes the release hook when the
// last reference is dropped.
func (c *LockedRefCounter[M, PM]) DecRef() {
	if c.DecRefNoDelete() {
		c.Finalize()
	}
}

// DecRefNoDelete decrements the ref count without executing the release
// hook, and returns true if the last reference was dropped.
func (c *LockedRefCounter[M, PM]) DecRefNoDelete() bool {
	PM(&c.mu).Lock()
	c.n--
	n := c.n
	PM(&c.mu).Unlock()
	if debug.Enabled && n < -1 {
		panicInvalidRefCount(n + 1)
	}
	return n == -1
}

// Finalize executes the release hook. The ref count must be zero.
func (c *LockedRefCounter[M, PM]) Finalize() {
	if n := c.RefCount(); debug.Enabled && n != 0 {
		panicFinalizeBeforeZero(n)
	}
	if c.onZeroFn != nil {
		c.onZeroFn()
	}
}

// RefCount returns the current ref count.
func (c *LockedRefCounter[M, PM]) RefCount() int64 {
	PM(&c.mu).Lock()
	n := c.n
	PM(&c.mu).Unlock()
	return n + 1
}
