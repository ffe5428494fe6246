//go:build !release
// +build !release

package debug

// Enabled is true when assertions are checked.
const Enabled = true
