package refptr

import (
	"errors"

	"github.com/xichen2020/refcommons/x/debug"
)

var (
	// ErrNotInitialized is returned when dereferencing a nil Checked pointer.
	ErrNotInitialized = errors.New("pointer is not initialized")

	// ErrNullPointer is returned when constructing a NotNull pointer from nil.
	ErrNullPointer = errors.New("null pointer")
)

// Policy decides how a pointer treats nil at construction and dereference.
// The policies in this package are the only implementations.
type Policy interface {
	checkInit(isNil bool) error
	checkDeref(isNil bool) error
}

// Checked allows nil pointers and reports ErrNotInitialized when a nil
// pointer is dereferenced.
type Checked struct{}

func (Checked) checkInit(bool) error { return nil }

func (Checked) checkDeref(isNil bool) error {
	if isNil {
		return ErrNotInitialized
	}
	return nil
}

// Asserted allows nil pointers and asserts that a pointer is not nil when
// dereferenced. The assertion panics in default builds and is compiled out of
// release builds, where dereferencing nil yields the zero value.
type Asserted struct{}

func (Asserted) checkInit(bool) error { return nil }

func (Asserted) checkDeref(isNil bool) error {
	debug.Assert(!isNil, "dereference of nil pointer")
	return nil
}

// NotNull rejects nil at construction with ErrNullPointer, so a constructed
// pointer is never nil when dereferenced. A zero Ptr that was never
// constructed is asserted against.
type NotNull struct{}

func (NotNull) checkInit(isNil bool) error {
	if isNil {
		return ErrNullPointer
	}
	return nil
}

func (NotNull) checkDeref(isNil bool) error {
	debug.Assert(!isNil, "dereference of unconstructed not-null pointer")
	return nil
}
