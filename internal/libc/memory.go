package libc

// Malloc allocates size payload bytes and returns the guest address past
// the size header. A zero size allocates nothing, and host exhaustion
// propagates as 0.
func (s *Shim) Malloc(size uint64) uint64 {
	if size == 0 {
		return 0
	}

	raw := s.alloc.Alloc(size + HeaderWidth)
	if raw == 0 {
		return 0
	}

	_ = s.mem.WriteU64(raw, size)
	return raw + HeaderWidth
}

// Calloc allocates an overflow-checked count*size zeroed bytes.
func (s *Shim) Calloc(count, size uint64) uint64 {
	if count != 0 && (count*size)/count != size {
		return 0
	}
	total := count * size

	ptr := s.Malloc(total)
	if ptr == 0 {
		return 0
	}
	_ = s.mem.Fill(ptr, 0, total)
	return ptr
}

// Realloc resizes a block. A nil ptr behaves as Malloc, a zero newSize
// behaves as Free. On host exhaustion it returns 0 and the original block
// is left untouched.
func (s *Shim) Realloc(ptr, newSize uint64) uint64 {
	if ptr == 0 {
		return s.Malloc(newSize)
	}

	if newSize == 0 {
		s.Free(ptr)
		return 0
	}

	if s.hostRealloc != nil {
		return s.reallocViaHost(ptr, newSize)
	}

	raw := s.alloc.Alloc(newSize + HeaderWidth)
	if raw == 0 {
		return 0
	}
	_ = s.mem.WriteU64(raw, newSize)

	// The copy is bounded by the old block's recorded size. Copying
	// newSize would read past the original allocation when growing.
	oldSize, _ := s.mem.ReadU64(ptr - HeaderWidth)
	n := oldSize
	if newSize < n {
		n = newSize
	}
	s.Memcpy(raw+HeaderWidth, ptr, n)

	s.Free(ptr)
	return raw + HeaderWidth
}

// reallocViaHost moves the whole raw block, header included, through the
// host's realloc primitive.
func (s *Shim) reallocViaHost(ptr, newSize uint64) uint64 {
	raw := s.hostRealloc.Realloc(ptr-HeaderWidth, newSize+HeaderWidth)
	if raw == 0 {
		return 0
	}
	_ = s.mem.WriteU64(raw, newSize)
	return raw + HeaderWidth
}

// Free releases a block. The recorded size plus the header width is handed
// back to the host, which frees by exact span.
func (s *Shim) Free(ptr uint64) {
	if ptr == 0 {
		return
	}

	raw := ptr - HeaderWidth
	size, _ := s.mem.ReadU64(raw)
	s.alloc.Free(raw, size+HeaderWidth)
}
