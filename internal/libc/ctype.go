package libc

// IsSpace classifies the six ASCII whitespace characters. No locale; the
// parser only ever feeds it ASCII.
func (s *Shim) IsSpace(c uint64) uint64 {
	switch byte(c) {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return 1
	}
	return 0
}
