package libc

// The string and memory primitives restate the usual libc contracts over
// guest addresses. The parser is trusted: misuse (bad pointers, overlapping
// memcpy) is undefined here exactly as it is in C, and guest memory faults
// are ignored the way a stub layer for internal callers can afford to.

// negOne is the uint64 encoding of a C int -1 return.
const negOne = ^uint64(0)

// Memcpy copies count bytes from src to dest and returns dest.
func (s *Shim) Memcpy(dest, src, count uint64) uint64 {
	if count > 0 {
		data, err := s.mem.Read(src, count)
		if err == nil {
			_ = s.mem.Write(dest, data)
		}
	}
	return dest
}

// Memmove copies count bytes between possibly overlapping ranges.
func (s *Shim) Memmove(dest, src, count uint64) uint64 {
	if count > 0 {
		_ = s.mem.Copy(dest, src, count)
	}
	return dest
}

// Memset fills count bytes at dest with ch and returns dest.
func (s *Shim) Memset(dest, ch, count uint64) uint64 {
	if count > 0 {
		_ = s.mem.Fill(dest, byte(ch), count)
	}
	return dest
}

// Memcmp compares count bytes.
func (s *Shim) Memcmp(a, b, count uint64) uint64 {
	if count == 0 {
		return 0
	}
	da, errA := s.mem.Read(a, count)
	db, errB := s.mem.Read(b, count)
	if errA != nil || errB != nil {
		return 0
	}
	for i := uint64(0); i < count; i++ {
		if da[i] < db[i] {
			return negOne
		}
		if da[i] > db[i] {
			return 1
		}
	}
	return 0
}

// Strlen returns the length of the null-terminated string at addr.
func (s *Shim) Strlen(addr uint64) uint64 {
	str, _ := s.mem.ReadString(addr, 0)
	return uint64(len(str))
}

// Strcmp compares two null-terminated strings.
func (s *Shim) Strcmp(a, b uint64) uint64 {
	sa, _ := s.mem.ReadString(a, 0)
	sb, _ := s.mem.ReadString(b, 0)
	switch {
	case sa < sb:
		return negOne
	case sa > sb:
		return 1
	}
	return 0
}

// Strncmp compares at most count bytes of two strings.
func (s *Shim) Strncmp(a, b, count uint64) uint64 {
	sa, _ := s.mem.ReadString(a, int(count))
	sb, _ := s.mem.ReadString(b, int(count))
	if uint64(len(sa)) > count {
		sa = sa[:count]
	}
	if uint64(len(sb)) > count {
		sb = sb[:count]
	}
	switch {
	case sa < sb:
		return negOne
	case sa > sb:
		return 1
	}
	return 0
}

// Strdup returns a freshly Malloc'd copy of the string at src, terminator
// included, or 0 on exhaustion.
func (s *Shim) Strdup(src uint64) uint64 {
	n := s.Strlen(src) + 1
	ptr := s.Malloc(n)
	if ptr == 0 {
		return 0
	}
	return s.Memcpy(ptr, src, n)
}

// Strndup duplicates at most count bytes of the string at src, always
// terminating the copy.
func (s *Shim) Strndup(src, count uint64) uint64 {
	n := s.Strlen(src)
	if count < n {
		n = count
	}
	ptr := s.Malloc(n + 1)
	if ptr == 0 {
		return 0
	}
	s.Memcpy(ptr, src, n)
	_ = s.mem.WriteU8(ptr+n, 0)
	return ptr
}

// Strncpy copies at most count bytes of src into dest and zero-fills the
// remaining width when src is shorter. Like its C counterpart it does not
// terminate a copy that fills the whole width.
func (s *Shim) Strncpy(dest, src, count uint64) uint64 {
	n := s.Strlen(src)
	if count < n {
		n = count
	}

	s.Memcpy(dest, src, n)
	s.Memset(dest+n, 0, count-n)

	return dest
}
