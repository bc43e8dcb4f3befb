package host

import (
	"github.com/cockroachdb/errors"

	glog "github.com/zboralski/cradle/internal/log"
	"github.com/zboralski/cradle/internal/vm"
)

// arenaAlign keeps blocks naturally word aligned.
const arenaAlign = 8

// Arena is the in-process host allocator: a bump allocator over a mapped
// guest region with exact-size free lists, since every Free arrives with
// the size the block was requested at. It tracks live allocations so the
// allocate/release round trip is observable.
type Arena struct {
	mem  *vm.Memory
	base uint64
	size uint64
	next uint64

	freelists map[uint64][]uint64 // request size -> reusable addrs
	live      map[uint64]uint64   // addr -> request size

	// failAfter > 0 makes the next failAfter-1 Allocs succeed and every
	// later one fail, for exhaustion testing. 0 disables injection.
	failAfter int

	stats ArenaStats
}

// ArenaStats counts allocator traffic.
type ArenaStats struct {
	Allocs     uint64
	Frees      uint64
	Reallocs   uint64
	LiveBytes  uint64
	PeakBytes  uint64
	Mismatches uint64 // frees with an unknown addr or a wrong size
}

// NewArena maps a heap region at [base, base+size) and returns an allocator
// over it.
func NewArena(mem *vm.Memory, base, size uint64) (*Arena, error) {
	if err := mem.Map(base, size, "heap"); err != nil {
		return nil, errors.Wrap(err, "arena heap")
	}
	return &Arena{
		mem:       mem,
		base:      base,
		size:      size,
		next:      base,
		freelists: make(map[uint64][]uint64),
		live:      make(map[uint64]uint64),
	}, nil
}

// Alloc returns a block of size bytes, or 0 when the region is exhausted.
func (a *Arena) Alloc(size uint64) uint64 {
	if size == 0 {
		return 0
	}
	if a.failAfter > 0 {
		a.failAfter--
		if a.failAfter == 0 {
			a.failAfter = -1
		}
	}
	if a.failAfter < 0 {
		return 0
	}

	addr := a.takeFree(size)
	if addr == 0 {
		rounded := (size + arenaAlign - 1) &^ uint64(arenaAlign-1)
		if a.next+rounded < a.next || a.next+rounded > a.base+a.size {
			return 0
		}
		addr = a.next
		a.next += rounded
	}

	a.live[addr] = size
	a.stats.Allocs++
	a.stats.LiveBytes += size
	if a.stats.LiveBytes > a.stats.PeakBytes {
		a.stats.PeakBytes = a.stats.LiveBytes
	}
	return addr
}

// Free returns a block. A free whose addr or size does not match a live
// allocation is counted as a mismatch and otherwise ignored.
func (a *Arena) Free(addr, size uint64) {
	want, ok := a.live[addr]
	if !ok || want != size {
		a.stats.Mismatches++
		if glog.L != nil {
			glog.L.Error("mismatched free", glog.Addr(addr), glog.Size(size))
		}
		return
	}
	delete(a.live, addr)
	a.freelists[size] = append(a.freelists[size], addr)
	a.stats.Frees++
	a.stats.LiveBytes -= size
}

// Realloc moves a block to newSize, copying min(old, new) bytes. On
// exhaustion it returns 0 and leaves the original block untouched.
func (a *Arena) Realloc(addr, newSize uint64) uint64 {
	oldSize, ok := a.live[addr]
	if !ok {
		a.stats.Mismatches++
		return 0
	}
	newAddr := a.Alloc(newSize)
	if newAddr == 0 {
		return 0
	}
	n := oldSize
	if newSize < n {
		n = newSize
	}
	if err := a.mem.Copy(newAddr, addr, n); err != nil && glog.L != nil {
		glog.L.Error("realloc copy", glog.Addr(addr), glog.Size(n))
	}
	a.Free(addr, oldSize)
	a.stats.Reallocs++
	return newAddr
}

func (a *Arena) takeFree(size uint64) uint64 {
	list := a.freelists[size]
	if len(list) == 0 {
		return 0
	}
	addr := list[len(list)-1]
	a.freelists[size] = list[:len(list)-1]
	return addr
}

// FailAfter makes Alloc succeed n more times and fail afterwards. n == 0
// makes every subsequent Alloc fail; a negative n clears injection.
func (a *Arena) FailAfter(n int) {
	switch {
	case n < 0:
		a.failAfter = 0
	case n == 0:
		a.failAfter = -1
	default:
		a.failAfter = n + 1
	}
}

// Stats returns a snapshot of allocator counters.
func (a *Arena) Stats() ArenaStats {
	return a.stats
}

// LiveCount returns the number of outstanding allocations.
func (a *Arena) LiveCount() int {
	return len(a.live)
}

var _ Allocator = (*Arena)(nil)
var _ Reallocator = (*Arena)(nil)
