// Package debug provides assertions that are compiled out of release builds.
//
// Assertions guard caller contract violations such as releasing a reference
// that was never held. They panic in default builds and disappear entirely
// when building with the "release" tag.
package debug

import "fmt"

// Assert panics with msg if cond is false and assertions are enabled.
func Assert(cond bool, msg string) {
	if Enabled && !cond {
		panic(fmt.Errorf("assertion failed: %s", msg))
	}
}

// Assertf panics with a formatted message if cond is false and assertions
// are enabled. The arguments are only formatted on failure.
func Assertf(cond bool, format string, args ...interface{}) {
	if Enabled && !cond {
		panic(fmt.Errorf("assertion failed: "+format, args...))
	}
}
