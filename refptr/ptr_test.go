package refptr

import (
	"testing"

	"github.com/xichen2020/refcommons/refcnt"
	"github.com/xichen2020/refcommons/x/debug"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

type testObject struct {
	*refcnt.AtomicRefCounter

	released int
}

func newTestObject() *testObject {
	o := &testObject{}
	o.AtomicRefCounter = refcnt.NewAtomicRefCounter(func() { o.released++ })
	return o
}

func TestNewAdoptsReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No IncRef is expected when adopting.
	obj := refcnt.NewMockRefCountable(ctrl)
	p, err := New[Checked, refcnt.RefCountable](obj)
	require.NoError(t, err)
	require.False(t, p.IsNil())

	obj.EXPECT().DecRef()
	p.Release()
	require.True(t, p.IsNil())

	// Releasing again does nothing.
	p.Release()
}

func TestRetainAddsReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	obj := refcnt.NewMockRefCountable(ctrl)
	gomock.InOrder(
		obj.EXPECT().IncRef(),
		obj.EXPECT().DecRef(),
	)
	p, err := Retain[Asserted, refcnt.RefCountable](obj)
	require.NoError(t, err)
	p.Release()
}

func TestCloneMoveRetn(t *testing.T) {
	obj := newTestObject()
	p, err := New[NotNull](obj)
	require.NoError(t, err)
	require.Equal(t, int64(1), obj.RefCount())

	cloned := p.Clone()
	require.Equal(t, int64(2), obj.RefCount())

	moved := cloned.Move()
	require.True(t, cloned.IsNil())
	require.False(t, moved.IsNil())
	require.Equal(t, int64(2), obj.RefCount())

	raw := moved.Retn()
	require.True(t, moved.IsNil())
	require.Equal(t, int64(2), obj.RefCount())
	raw.DecRef()

	got, err := p.Get()
	require.NoError(t, err)
	require.Equal(t, obj, got)
	require.Equal(t, obj, p.Raw())

	p.Release()
	require.Equal(t, 1, obj.released)
}

func TestCheckedPolicy(t *testing.T) {
	p, err := New[Checked, *testObject](nil)
	require.NoError(t, err)
	require.True(t, p.IsNil())

	_, err = p.Get()
	require.Equal(t, ErrNotInitialized, err)

	// Cloning and releasing a nil pointer is allowed.
	cloned := p.Clone()
	cloned.Release()
}

func TestAssertedPolicy(t *testing.T) {
	p, err := New[Asserted, *testObject](nil)
	require.NoError(t, err)
	require.True(t, p.IsNil())

	if !debug.Enabled {
		v, err := p.Get()
		require.NoError(t, err)
		require.Nil(t, v)
		return
	}
	require.Panics(t, func() { _, _ = p.Get() })
}

func TestNotNullPolicy(t *testing.T) {
	p, err := New[NotNull, *testObject](nil)
	require.Equal(t, ErrNullPointer, err)
	require.True(t, p.IsNil())

	_, err = Retain[NotNull, *testObject](nil)
	require.Equal(t, ErrNullPointer, err)

	// A typed nil inside an interface is nil too.
	var obj *testObject
	_, err = New[NotNull, refcnt.RefCountable](obj)
	require.Equal(t, ErrNullPointer, err)

	if debug.Enabled {
		var unconstructed Ptr[*testObject, NotNull]
		require.Panics(t, func() { _, _ = unconstructed.Get() })
	}
}

func TestRebind(t *testing.T) {
	obj := newTestObject()
	checked, err := New[Checked](obj)
	require.NoError(t, err)

	notNull, err := Rebind[NotNull](checked)
	require.NoError(t, err)
	require.Equal(t, int64(2), obj.RefCount())

	checked.Release()
	got, err := notNull.Get()
	require.NoError(t, err)
	require.Equal(t, obj, got)

	notNull.Release()
	require.Equal(t, 1, obj.released)

	var empty Ptr[*testObject, Checked]
	_, err = Rebind[NotNull](empty)
	require.Equal(t, ErrNullPointer, err)
}

func TestPointerAcceptsAnyPolicy(t *testing.T) {
	obj := newTestObject()
	checked, err := New[Checked](obj)
	require.NoError(t, err)
	asserted, err := Rebind[Asserted](checked)
	require.NoError(t, err)
	notNull, err := Rebind[NotNull](checked)
	require.NoError(t, err)

	for _, p := range []Pointer[*testObject]{checked, asserted, notNull} {
		require.False(t, p.IsNil())
		require.Equal(t, obj, p.Raw())
	}

	checked.Release()
	asserted.Release()
	notNull.Release()
	require.Equal(t, 1, obj.released)
}
