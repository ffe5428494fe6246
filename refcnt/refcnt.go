// Package refcnt provides intrusive reference counters.
//
// An object becomes reference counted by embedding one of the counters in
// this package. The object starts with a single reference owned by its
// creator; IncRef adds a reference and DecRef drops one, running the
// object's release hook exactly once when the last reference goes away.
//
// Counting bugs such as releasing a reference that is not held are caller
// contract violations. They are asserted against in default builds and are
// unchecked when building with the "release" tag.
package refcnt

import (
	"fmt"
	"math"
)

// RefCountable is an object that is reference counted.
type RefCountable interface {
	// IncRef increments the reference count.
	IncRef()

	// DecRef decrements the reference count.
	// When the reference count goes to zero,
	// an optional callback is executed.
	DecRef()
}

// OnZeroRefCountFn is a callback that gets called when the reference
// count of an object goes to zero.
type OnZeroRefCountFn func()

// MaxRefCount is the largest number of references a counter can hold.
// Incrementing past it is reported the same way as any other invalid count.
const MaxRefCount = math.MaxInt64

// invalidIncRef reports whether n, a stored count (refs-1) just incremented,
// revived a released object or went past MaxRefCount.
func invalidIncRef(n int64) bool {
	return n <= 0 || n == MaxRefCount
}

func panicInvalidRefCount(n int64) {
	panic(fmt.Errorf("invalid ref count %d", n))
}

func panicFinalizeBeforeZero(n int64) {
	panic(fmt.Errorf("finalize before zero ref count, ref=%d", n))
}
