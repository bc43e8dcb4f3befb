// Package libc implements the C runtime surface a sandboxed parser module
// imports: the malloc/realloc/free family, the memory and string
// primitives, a minimal snprintf, and the panic trampoline. Everything
// operates on guest addresses and forwards raw storage and abort traffic
// to host-provided capabilities.
package libc

import (
	"github.com/zboralski/cradle/internal/host"
	"github.com/zboralski/cradle/internal/vm"
)

// HeaderWidth is the size of the word stored immediately before every block
// handed to the parser. It records the request size so Free and Realloc can
// return the exact span to the size-aware host allocator.
const HeaderWidth = 8

// Shim is the libc substitution layer for one module instance.
type Shim struct {
	mem   *vm.Memory
	alloc host.Allocator
	abort host.AbortHandler

	// hostRealloc selects the realloc variant: nil means allocate fresh
	// and copy (the portable variant); non-nil forwards the whole raw
	// block to the host's realloc.
	hostRealloc host.Reallocator
}

// Option configures a Shim.
type Option func(*Shim)

// WithHostRealloc makes Realloc move blocks through the host's realloc
// primitive instead of the allocate-copy-release sequence.
func WithHostRealloc(r host.Reallocator) Option {
	return func(s *Shim) {
		s.hostRealloc = r
	}
}

// NewShim creates the libc layer over guest memory and host capabilities.
func NewShim(mem *vm.Memory, alloc host.Allocator, abort host.AbortHandler, opts ...Option) *Shim {
	s := &Shim{
		mem:   mem,
		alloc: alloc,
		abort: abort,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Memory exposes the guest address space, mainly for harnesses that stage
// parser input before driving the shim.
func (s *Shim) Memory() *vm.Memory {
	return s.mem
}
