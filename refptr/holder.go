package refptr

import (
	"github.com/xichen2020/refcommons/refcnt"
	"github.com/xichen2020/refcommons/x/spin"
)

// Holder is a slot holding one pointer that is read and replaced
// concurrently, such as the current logger or configuration of a process.
// Get and Set are linearizable with respect to each other. The zero value is
// an empty holder.
type Holder[T refcnt.RefCountable, P Policy] struct {
	lock spin.Lock
	v    T
	ok   bool
}

// NewHolder creates a holder with a new reference to the object init points to.
func NewHolder[T refcnt.RefCountable, P Policy](init Pointer[T]) (*Holder[T, P], error) {
	h := &Holder[T, P]{}
	if err := h.Set(init); err != nil {
		return nil, err
	}
	return h, nil
}

// Get returns a new pointer to the held object. An empty holder yields a nil
// pointer, or ErrNullPointer for NotNull holders.
func (h *Holder[T, P]) Get() (Ptr[T, P], error) {
	h.lock.Lock()
	v, ok := h.v, h.ok
	if ok {
		v.IncRef()
	}
	h.lock.Unlock()

	var policy P
	if err := policy.checkInit(!ok); err != nil {
		return Ptr[T, P]{}, err
	}
	return Ptr[T, P]{v: v, ok: ok}, nil
}

// Set replaces the held object with a new reference to the object src points
// to. The reference to the previous object is dropped after the slot is
// unlocked, so its release hook may use the holder. NotNull holders reject
// nil sources with ErrNullPointer.
func (h *Holder[T, P]) Set(src Pointer[T]) error {
	var (
		v  T
		ok bool
	)
	if src != nil && !src.IsNil() {
		v, ok = src.Raw(), true
	}
	var policy P
	if err := policy.checkInit(!ok); err != nil {
		return err
	}
	if ok {
		v.IncRef()
	}
	h.swap(v, ok)
	return nil
}

// Clear empties the holder, dropping its reference.
func (h *Holder[T, P]) Clear() {
	var zero T
	h.swap(zero, false)
}

// Close drops the held reference. The holder is empty afterwards.
func (h *Holder[T, P]) Close() {
	h.Clear()
}

func (h *Holder[T, P]) swap(v T, ok bool) {
	h.lock.Lock()
	old, oldOk := h.v, h.ok
	h.v, h.ok = v, ok
	h.lock.Unlock()

	if oldOk {
		old.DecRef()
	}
}
