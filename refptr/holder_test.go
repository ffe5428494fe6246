package refptr

import (
	"sync"
	"testing"

	"github.com/xichen2020/refcommons/refcnt"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestHolderGetSet(t *testing.T) {
	first, second := newTestObject(), newTestObject()
	p1, err := New[Checked](first)
	require.NoError(t, err)

	h, err := NewHolder[*testObject, Checked](p1)
	require.NoError(t, err)
	p1.Release()
	require.Equal(t, int64(1), first.RefCount())

	got, err := h.Get()
	require.NoError(t, err)
	require.Equal(t, first, got.Raw())
	require.Equal(t, int64(2), first.RefCount())
	got.Release()

	p2, err := New[NotNull](second)
	require.NoError(t, err)
	require.NoError(t, h.Set(p2))
	p2.Release()
	require.Equal(t, 1, first.released)
	require.Equal(t, int64(1), second.RefCount())

	h.Close()
	require.Equal(t, 1, second.released)

	got, err = h.Get()
	require.NoError(t, err)
	require.True(t, got.IsNil())
}

func TestHolderZeroValueEmpty(t *testing.T) {
	var h Holder[*testObject, Asserted]
	p, err := h.Get()
	require.NoError(t, err)
	require.True(t, p.IsNil())

	require.NoError(t, h.Set(nil))
	h.Clear()
}

func TestNotNullHolder(t *testing.T) {
	var empty Ptr[*testObject, Checked]
	_, err := NewHolder[*testObject, NotNull](empty)
	require.Equal(t, ErrNullPointer, err)

	var h Holder[*testObject, NotNull]
	_, err = h.Get()
	require.Equal(t, ErrNullPointer, err)

	obj := newTestObject()
	p, err := New[Checked](obj)
	require.NoError(t, err)
	require.NoError(t, h.Set(p))
	require.Equal(t, ErrNullPointer, h.Set(empty))
	require.Equal(t, int64(2), obj.RefCount())

	got, err := h.Get()
	require.NoError(t, err)
	v, err := got.Get()
	require.NoError(t, err)
	require.Equal(t, obj, v)
	got.Release()

	h.Close()
	p.Release()
	require.Equal(t, 1, obj.released)
}

func TestHolderSetIncrementsBeforeDroppingOld(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	oldObj := refcnt.NewMockRefCountable(ctrl)
	newObj := refcnt.NewMockRefCountable(ctrl)
	gomock.InOrder(
		oldObj.EXPECT().IncRef(),
		newObj.EXPECT().IncRef(),
		oldObj.EXPECT().DecRef(),
		newObj.EXPECT().DecRef(),
	)

	var h Holder[refcnt.RefCountable, Checked]
	oldPtr, err := New[Checked, refcnt.RefCountable](oldObj)
	require.NoError(t, err)
	newPtr, err := New[Checked, refcnt.RefCountable](newObj)
	require.NoError(t, err)

	require.NoError(t, h.Set(oldPtr))
	require.NoError(t, h.Set(newPtr))
	h.Close()
}

// releaseReentrantObject sets the holder it lives in from its release hook.
type releaseReentrantObject struct {
	*refcnt.AtomicRefCounter
}

func TestHolderReleaseHookMayUseHolder(t *testing.T) {
	var (
		h       Holder[*releaseReentrantObject, Checked]
		reached bool
	)
	obj := &releaseReentrantObject{}
	obj.AtomicRefCounter = refcnt.NewAtomicRefCounter(func() {
		p, err := h.Get()
		require.NoError(t, err)
		require.True(t, p.IsNil())
		reached = true
	})
	p, err := New[Checked](obj)
	require.NoError(t, err)
	require.NoError(t, h.Set(p))
	p.Release()

	h.Clear()
	require.True(t, reached)
}

type stressObject struct {
	*refcnt.AtomicRefCounter

	released atomic.Bool
}

func TestHolderConcurrentGetSet(t *testing.T) {
	var (
		numWorkers = 8
		numIters   = 100000
		created    atomic.Int64
		destroyed  atomic.Int64
		wg         sync.WaitGroup
	)
	if testing.Short() {
		numIters = 10000
	}

	newObj := func() *stressObject {
		o := &stressObject{}
		o.AtomicRefCounter = refcnt.NewAtomicRefCounter(func() {
			if o.released.Swap(true) {
				panic("object released twice")
			}
			destroyed.Inc()
		})
		created.Inc()
		return o
	}

	var h Holder[*stressObject, Checked]
	init, err := New[Checked](newObj())
	require.NoError(t, err)
	require.NoError(t, h.Set(init))
	init.Release()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < numIters; j++ {
				if (j+worker)%4 == 0 {
					p, err := New[Checked](newObj())
					if !assert.NoError(t, err) {
						return
					}
					assert.NoError(t, h.Set(p))
					p.Release()
					continue
				}
				p, err := h.Get()
				if !assert.NoError(t, err) {
					return
				}
				v, err := p.Get()
				if !assert.NoError(t, err) {
					return
				}
				assert.False(t, v.released.Load(), "object used after release")
				assert.True(t, v.RefCount() >= 1)
				p.Release()
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, created.Load()-1, destroyed.Load())
	h.Close()
	require.Equal(t, created.Load(), destroyed.Load())
}
