// Package drain lets one goroutine wait until every other holder of an
// object has dropped its reference, and then release the object itself.
//
// An object embeds a *Last. During shutdown the owner takes an extra
// reference, hands it to NewLastPtr and blocks until the remaining holders
// are gone:
//
//	obj.IncRef()
//	lp, err := drain.NewLastPtr(obj)
//	if err != nil {
//		return err
//	}
//	defer lp.Close()
//
// A drain happens at most once per object and cannot be cancelled. A holder
// that never drops its reference blocks NewLastPtr forever.
package drain

import (
	"context"
	"errors"

	"github.com/xichen2020/refcommons/refcnt"
	"github.com/xichen2020/refcommons/refptr"

	"github.com/m3db/m3/src/x/clock"
	"github.com/modern-go/reflect2"
	"github.com/uber-go/tally"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrNullPointer is returned when draining a nil object.
	ErrNullPointer = errors.New("cannot drain a nil object")

	// ErrAlreadyDraining is returned when an object is drained more than once.
	ErrAlreadyDraining = errors.New("object is already draining")
)

// Drainable is an object that embeds a *Last.
type Drainable interface {
	refcnt.RefCountable

	// Drainer returns the drain state of the object.
	Drainer() *Last
}

type lastMetrics struct {
	drains tally.Counter
	wait   tally.Timer
}

func newLastMetrics(scope tally.Scope) lastMetrics {
	return lastMetrics{
		drains: scope.Counter("drains"),
		wait:   scope.Timer("drain-wait"),
	}
}

// Last is a reference counter whose final release can be handed to a
// LastPtr instead of destroying the object.
type Last struct {
	refcnt.AtomicRefCounter

	waiting atomic.Bool
	// drained is held until the count reaches zero in wait mode.
	drained *semaphore.Weighted
	nowFn   clock.NowFn
	logger  *zap.Logger
	metrics lastMetrics
}

// NewLast creates a counter with an initial refcount of 1 that runs destroy
// when the last reference is dropped outside of a drain.
func NewLast(destroy func(), opts *Options) *Last {
	if opts == nil {
		opts = NewOptions()
	}
	drained := semaphore.NewWeighted(1)
	drained.TryAcquire(1)
	iOpts := opts.InstrumentOptions()
	l := &Last{
		drained: drained,
		nowFn:   opts.ClockOptions().NowFn(),
		logger:  iOpts.Logger(),
		metrics: newLastMetrics(iOpts.MetricsScope()),
	}
	l.SetOnZero(destroy)
	return l
}

// Drainer returns l.
func (l *Last) Drainer() *Last { return l }

// DecRef decrements the ref count. Dropping the last reference destroys the
// object, unless a LastPtr is waiting for it.
func (l *Last) DecRef() {
	if !l.DecRefNoDelete() {
		return
	}
	if l.waiting.Load() {
		l.drained.Release(1)
		return
	}
	l.Finalize()
}

// Draining returns true once a LastPtr has been created for the object.
func (l *Last) Draining() bool { return l.waiting.Load() }

// LastPtr is the sole owner of a drained object.
type LastPtr[T Drainable] struct {
	v      T
	closed bool
}

// NewLastPtr drains v. The caller hands over one reference taken for this
// purpose; NewLastPtr drops it and blocks until every other reference is
// dropped too. The returned LastPtr is then the only owner of v. On error
// the caller keeps its reference.
func NewLastPtr[T Drainable](v T) (*LastPtr[T], error) {
	if reflect2.IsNil(v) {
		return nil, ErrNullPointer
	}
	l := v.Drainer()
	if !l.waiting.CompareAndSwap(false, true) {
		return nil, ErrAlreadyDraining
	}

	start := l.nowFn()
	l.DecRef()
	// Acquire only fails when the context is done.
	_ = l.drained.Acquire(context.Background(), 1)
	waited := l.nowFn().Sub(start)

	l.metrics.drains.Inc(1)
	l.metrics.wait.Record(waited)
	l.logger.Debug("object drained", zap.Duration("waited", waited))
	return &LastPtr[T]{v: v}, nil
}

// FromPtr drains the object p points to, transferring p's reference.
// p is nil afterwards unless an error is returned.
func FromPtr[T Drainable, P refptr.Policy](p *refptr.Ptr[T, P]) (*LastPtr[T], error) {
	if p.IsNil() {
		return nil, ErrNullPointer
	}
	lp, err := NewLastPtr(p.Raw())
	if err != nil {
		return nil, err
	}
	p.Retn()
	return lp, nil
}

// Get returns the drained object.
func (lp *LastPtr[T]) Get() T { return lp.v }

// Close destroys the drained object. Closing more than once does nothing.
func (lp *LastPtr[T]) Close() {
	if lp.closed {
		return
	}
	lp.closed = true
	lp.v.Drainer().Finalize()
}
