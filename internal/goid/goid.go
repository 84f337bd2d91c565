// Package goid exposes the identity of the calling goroutine. Sessions use
// it to detect lazy loads arriving from a goroutine other than the one that
// created the session, the trigger for falling back to an isolated
// single-use execution context.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// Current returns the numeric id of the calling goroutine, parsed from the
// runtime.Stack header line ("goroutine N [running]:"). The id is unique
// among live goroutines, which is all the cross-goroutine check needs.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := bytes.TrimPrefix(buf[:n], prefix)
	if i := bytes.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	id, err := strconv.ParseUint(string(s), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
