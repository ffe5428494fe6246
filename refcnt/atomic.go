package refcnt

import (
	"github.com/xichen2020/refcommons/x/debug"
	"github.com/xichen2020/refcommons/x/leakcheck"

	"go.uber.org/atomic"
)

// AtomicRefCounter is a lock-free reference counter.
//
// The zero value holds one reference and has no release hook, so the counter
// can be embedded by value and configured with SetOnZero before the owning
// object is shared.
type AtomicRefCounter struct {
	// n stores the reference count minus one.
	n        atomic.Int64
	onZeroFn OnZeroRefCountFn
	leaks    *leakcheck.Registry
}

// NewAtomicRefCounter creates a new reference counter, with an initial
// refcount of 1.
func NewAtomicRefCounter(fn OnZeroRefCountFn) *AtomicRefCounter {
	return &AtomicRefCounter{onZeroFn: fn}
}

// SetOnZero sets the callback executed when the last reference is dropped.
// It must be called before the counter is shared.
func (c *AtomicRefCounter) SetOnZero(fn OnZeroRefCountFn) { c.onZeroFn = fn }

// EnableLeakCheck tracks the counter in r until it is finalized.
// It must be called before the counter is shared.
func (c *AtomicRefCounter) EnableLeakCheck(r *leakcheck.Registry, owner string) {
	c.leaks = r
	r.Register(c, owner)
}

// IncRef increments the ref count.
func (c *AtomicRefCounter) IncRef() {
	if n := c.n.Inc(); debug.Enabled && invalidIncRef(n) {
		panicInvalidRefCount(n + 1)
	}
}

// DecRef decrements the ref count, and executes the release hook when the
// last reference is dropped.
func (c *AtomicRefCounter) DecRef() {
	if c.DecRefNoDelete() {
		c.Finalize()
	}
}

// DecRefNoDelete decrements the ref count without executing the release
// hook, and returns true if the last reference was dropped.
func (c *AtomicRefCounter) DecRefNoDelete() bool {
	n := c.n.Dec()
	if debug.Enabled && n < -1 {
		panicInvalidRefCount(n + 1)
	}
	return n == -1
}

// Finalize executes the release hook. The ref count must be zero.
func (c *AtomicRefCounter) Finalize() {
	if n := c.RefCount(); debug.Enabled && n != 0 {
		panicFinalizeBeforeZero(n)
	}
	if c.leaks != nil {
		c.leaks.Unregister(c)
	}
	if c.onZeroFn != nil {
		c.onZeroFn()
	}
}

// RefCount returns the current ref count.
func (c *AtomicRefCounter) RefCount() int64 {
	return c.n.Load() + 1
}

// AtomicCopyRefCounter is an AtomicRefCounter for objects that can be copied.
// A copy of the owning object gets its own counter through CopyTo rather than
// sharing or duplicating the source count.
type AtomicCopyRefCounter struct {
	AtomicRefCounter
}

// NewAtomicCopyRefCounter creates a new copyable reference counter, with an
// initial refcount of 1.
func NewAtomicCopyRefCounter(fn OnZeroRefCountFn) *AtomicCopyRefCounter {
	c := &AtomicCopyRefCounter{}
	c.onZeroFn = fn
	return c
}

// CopyTo resets dst, the counter of a copy of the owning object, to a
// refcount of 1 with release hook fn. The source count is left alone. If c
// is tracked for leaks, dst is tracked in the same registry under the same
// owner. dst must not be shared yet.
func (c *AtomicCopyRefCounter) CopyTo(dst *AtomicCopyRefCounter, fn OnZeroRefCountFn) {
	dst.n.Store(0)
	dst.onZeroFn = fn
	dst.leaks = nil
	if c.leaks == nil {
		return
	}
	owner, _ := c.leaks.Owner(&c.AtomicRefCounter)
	dst.EnableLeakCheck(c.leaks, owner)
}
