// Package diag provides the shared diagnostics bag and source span type used
// by every stage of the compiler pipeline. Diagnostics are never treated as
// Go errors: a stage reports structural problems (file not found, and the
// like) as errors, and reports source-level problems by appending to a Bag.
package diag

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Span is a half-open byte range within a single source file.
type Span struct {
	File FileID
	Lo   uint32
	Hi   uint32
}

// FileID identifies a source file registered with the source manager.
// FileID 0 means "unknown" and is absorbed by any other file id when spans
// are joined.
type FileID uint32

// ---------------------
// ----- functions -----
// ---------------------

// Join returns the smallest span covering both a and b. A zero FileID on
// either side is absorbed by the other side's FileID.
func Join(a, b Span) Span {
	f := a.File
	if f == 0 {
		f = b.File
	}
	lo := a.Lo
	if b.Lo < lo {
		lo = b.Lo
	}
	hi := a.Hi
	if b.Hi > hi {
		hi = b.Hi
	}
	return Span{File: f, Lo: lo, Hi: hi}
}

// String returns a print-friendly representation of the span, mainly useful
// for test failure messages.
func (s Span) String() string {
	return fmt.Sprintf("%d:[%d,%d)", s.File, s.Lo, s.Hi)
}
