package distcount

import (
	_ "unsafe"
)

// procPin pins the calling goroutine to its P and returns the P's id.
// While pinned, no other goroutine runs on that P, so the caller is the
// sole writer of anything keyed by the id until procUnpin.

//go:linkname runtime_procPin runtime.procPin
func runtime_procPin() int

//go:linkname runtime_procUnpin runtime.procUnpin
func runtime_procUnpin()
