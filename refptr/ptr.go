// Package refptr provides smart pointers to reference counted objects and a
// concurrent slot holding one such pointer.
//
// A Ptr owns one counted reference to an object, or is nil. How nil is
// handled is decided by the pointer's Policy type parameter, so the three
// variants are distinct types checked at compile time:
//
//	p, err := refptr.New[refptr.NotNull](obj) // err is ErrNullPointer if obj is nil
//	defer p.Release()
//
// Ptr values must not be copied by assignment once they own a reference;
// use Clone to share and Move to transfer.
package refptr

import (
	"github.com/xichen2020/refcommons/refcnt"

	"github.com/modern-go/reflect2"
)

// Pointer is the policy independent view of a smart pointer. Functions that
// accept a reference counted pointer of any policy take a Pointer.
type Pointer[T refcnt.RefCountable] interface {
	// Raw returns the pointee without any check. It is the zero value if
	// the pointer is nil.
	Raw() T

	// IsNil returns true if the pointer does not reference an object.
	IsNil() bool
}

// Ptr is a smart pointer owning one reference to a T, or nil.
type Ptr[T refcnt.RefCountable, P Policy] struct {
	v  T
	ok bool
}

// New creates a pointer adopting the caller's reference to v. No reference
// is added.
func New[P Policy, T refcnt.RefCountable](v T) (Ptr[T, P], error) {
	ok := !isNil(v)
	var policy P
	if err := policy.checkInit(!ok); err != nil {
		return Ptr[T, P]{}, err
	}
	if !ok {
		return Ptr[T, P]{}, nil
	}
	return Ptr[T, P]{v: v, ok: true}, nil
}

// Retain creates a pointer holding a new reference to v.
func Retain[P Policy, T refcnt.RefCountable](v T) (Ptr[T, P], error) {
	p, err := New[P](v)
	if err != nil {
		return p, err
	}
	if p.ok {
		p.v.IncRef()
	}
	return p, nil
}

// Rebind returns a pointer with policy P2 holding a new reference to the
// object p points to.
func Rebind[P2 Policy, T refcnt.RefCountable, P1 Policy](p Ptr[T, P1]) (Ptr[T, P2], error) {
	return Retain[P2](p.v)
}

// Get returns the pointee after applying the policy's dereference check.
func (p Ptr[T, P]) Get() (T, error) {
	var policy P
	if err := policy.checkDeref(!p.ok); err != nil {
		var zero T
		return zero, err
	}
	return p.v, nil
}

// Raw returns the pointee without any check.
func (p Ptr[T, P]) Raw() T { return p.v }

// IsNil returns true if the pointer does not reference an object.
func (p Ptr[T, P]) IsNil() bool { return !p.ok }

// Clone returns a new pointer sharing the object, adding a reference.
func (p Ptr[T, P]) Clone() Ptr[T, P] {
	if p.ok {
		p.v.IncRef()
	}
	return p
}

// Move transfers the reference to the returned pointer, leaving p nil.
func (p *Ptr[T, P]) Move() Ptr[T, P] {
	moved := *p
	*p = Ptr[T, P]{}
	return moved
}

// Retn gives up ownership of the reference without dropping it, leaving p
// nil. The caller becomes responsible for calling DecRef.
func (p *Ptr[T, P]) Retn() T {
	v := p.v
	*p = Ptr[T, P]{}
	return v
}

// Release drops the reference, if any, leaving p nil. Releasing a nil
// pointer does nothing.
func (p *Ptr[T, P]) Release() {
	if !p.ok {
		return
	}
	v := p.v
	*p = Ptr[T, P]{}
	v.DecRef()
}

func isNil(v interface{}) bool {
	return reflect2.IsNil(v)
}
