// Package host defines the capability boundary the libc layer forwards
// into: a size-aware allocator and an abort primitive, both provided by
// whatever runtime embeds the sandbox. An in-process Arena implementation
// backs tests and the selfcheck tool.
package host

import (
	"fmt"

	glog "github.com/zboralski/cradle/internal/log"
)

// Allocator is the raw storage provider behind the libc layer. It deals in
// plain byte spans: Free must be handed exactly the size that was used to
// obtain the block, because the host side tracks no per-block metadata.
type Allocator interface {
	// Alloc returns the guest address of a fresh block, or 0 on exhaustion.
	Alloc(size uint64) uint64
	// Free returns a block to the host. size must equal the Alloc request.
	Free(addr, size uint64)
}

// Reallocator is an optional host capability. Hosts that implement it can
// move a block in place of the shim's allocate-copy-release sequence.
type Reallocator interface {
	// Realloc moves a block to newSize, preserving min(old, new) bytes.
	// Returns 0 on exhaustion, leaving the original block intact.
	Realloc(addr, newSize uint64) uint64
}

// AbortHandler receives unrecoverable errors raised by the parser. Abort
// must not return.
type AbortHandler interface {
	Abort(msg string)
}

// LocatedAbortHandler is an optional abort capability taking a source
// location prefix, used when the parser is compiled with diagnostics.
type LocatedAbortHandler interface {
	AbortAt(prefix, msg string)
}

// Fault is the panic payload raised by PanicAbort so an embedding runtime
// can recover it and tear down the module instance.
type Fault struct {
	Prefix string
	Msg    string
}

func (f Fault) Error() string {
	return f.Prefix + f.Msg
}

// PanicAbort is the default abort handler: log, then unwind the goroutine
// with a Fault. It never returns normally.
type PanicAbort struct{}

func (PanicAbort) Abort(msg string) {
	if glog.L != nil {
		glog.L.Error("module abort", glog.Fn("abort"))
	}
	panic(Fault{Msg: msg})
}

func (PanicAbort) AbortAt(prefix, msg string) {
	if glog.L != nil {
		glog.L.Error("module abort", glog.Fn("abort"))
	}
	panic(Fault{Prefix: prefix, Msg: msg})
}

var _ AbortHandler = PanicAbort{}
var _ LocatedAbortHandler = PanicAbort{}

// FormatLocation renders a file/line pair the way diagnostic parser builds
// prefix their abort messages.
func FormatLocation(file string, line int) string {
	return fmt.Sprintf("%s:%d: ", file, line)
}
