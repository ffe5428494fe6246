package pool

import (
	"errors"

	"github.com/xichen2020/refcommons/refcnt"
	"github.com/xichen2020/refcommons/x/leakcheck"
)

var errArrayClosed = errors.New("array is closed")

// ArrayPool is a pool of arrays of E bucketed by capacity.
type ArrayPool[E any] interface {
	Get(capacity int) []E
	Put(values []E, capacity int)
}

// NewArrayPool creates a bucketized pool of empty arrays of E.
func NewArrayPool[E any](buckets []Bucket, opts *Options) *BucketizedPool[[]E] {
	return NewBucketizedPool(buckets, func(capacity int) []E {
		return make([]E, 0, capacity)
	}, opts)
}

// AppendValue appends v to arr. A full arr is copied into a pooled array of
// twice the capacity and returned to p.
func AppendValue[E any, P ArrayPool[E]](arr []E, v E, p P) []E {
	if len(arr) < cap(arr) {
		return append(arr, v)
	}
	grown := append(p.Get(growCapacity(cap(arr)))[:0], arr...)
	p.Put(arr[:0], cap(arr))
	return append(grown, v)
}

func growCapacity(capacity int) int {
	if capacity == 0 {
		return 1
	}
	return capacity * 2
}

// block is the pooled storage shared by an Array and its snapshots. Its
// values go back to the pool when the last reference is dropped.
type block[E any] struct {
	refcnt.AtomicRefCounter

	vals    []E
	pool    ArrayPool[E]
	resetFn func(values []E)
}

func (b *block[E]) release() {
	if b.resetFn != nil {
		b.resetFn(b.vals)
	}
	vals := b.vals[:0]
	b.vals = nil
	b.pool.Put(vals, cap(vals))
}

// Array is an append-only array backed by pooled storage. Only the owner
// appends; readers take snapshots, which keep the storage alive after the
// array has outgrown or closed it.
type Array[E any] struct {
	b       *block[E]
	pool    ArrayPool[E]
	resetFn func(values []E)
	leaks   *leakcheck.Registry
	owner   string
}

// NewArray creates an array on top of vals, which must come from p.
// resetFn, if set, sees the values of each storage block before the block
// returns to the pool.
func NewArray[E any](vals []E, p ArrayPool[E], resetFn func(values []E)) *Array[E] {
	a := &Array[E]{pool: p, resetFn: resetFn}
	a.b = a.newBlock(vals[:0])
	return a
}

// TrackLeaks registers the current and every future storage block in r.
func (a *Array[E]) TrackLeaks(r *leakcheck.Registry, owner string) {
	a.leaks, a.owner = r, owner
	if a.b != nil {
		a.b.EnableLeakCheck(r, owner)
	}
}

func (a *Array[E]) newBlock(vals []E) *block[E] {
	b := &block[E]{vals: vals, pool: a.pool, resetFn: a.resetFn}
	b.SetOnZero(b.release)
	if a.leaks != nil {
		b.EnableLeakCheck(a.leaks, a.owner)
	}
	return b
}

// Values returns the current values, or nil once the array is closed.
func (a *Array[E]) Values() []E {
	if a.b == nil {
		return nil
	}
	return a.b.vals
}

// Len returns the number of values.
func (a *Array[E]) Len() int { return len(a.Values()) }

// Append appends v. Growing moves the values into a larger pooled block and
// drops the array's reference to the old one.
func (a *Array[E]) Append(v E) {
	if a.b == nil {
		panic(errArrayClosed)
	}
	if vals := a.b.vals; len(vals) == cap(vals) {
		grown := append(a.pool.Get(growCapacity(cap(vals)))[:0], vals...)
		old := a.b
		a.b = a.newBlock(grown)
		old.DecRef()
	}
	a.b.vals = append(a.b.vals, v)
}

// Snapshot returns the current values as a snapshot holding one reference to
// the storage. Later appends are invisible to it.
func (a *Array[E]) Snapshot() *Snapshot[E] {
	if a.b == nil {
		panic(errArrayClosed)
	}
	a.b.IncRef()
	return &Snapshot[E]{b: a.b, vals: a.b.vals}
}

// Close drops the array's reference to its storage. Closing more than once
// does nothing.
func (a *Array[E]) Close() {
	if a.b == nil {
		return
	}
	b := a.b
	a.b = nil
	b.DecRef()
}

// Snapshot is an immutable view of an Array. It is reference counted
// together with the storage it shares, so it can be held by a refptr.Ptr or
// a refptr.Holder. The values must not be used after the last reference to
// the snapshot is dropped.
type Snapshot[E any] struct {
	b    *block[E]
	vals []E
}

// IncRef increments the storage ref count.
func (s *Snapshot[E]) IncRef() { s.b.IncRef() }

// DecRef decrements the storage ref count.
func (s *Snapshot[E]) DecRef() { s.b.DecRef() }

// RefCount returns the storage ref count.
func (s *Snapshot[E]) RefCount() int64 { return s.b.RefCount() }

// Values returns the values captured by the snapshot.
func (s *Snapshot[E]) Values() []E { return s.vals }
