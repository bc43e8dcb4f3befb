package libc

import "strconv"

// Snprintf is the formatted-print substitute for the parser's diagnostics.
// It interprets the conversions the parser actually emits (%s %c %d %i %u
// %x %X %p %%); anything else is copied through verbatim. The C contract is
// kept: output truncates at size-1, is always terminated when size > 0, and
// the return value is the untruncated length.
func (s *Shim) Snprintf(dest, size, format uint64, args ...uint64) uint64 {
	f, _ := s.mem.ReadString(format, 0)
	out := s.format(f, args)

	if size > 0 {
		truncated := out
		if uint64(len(truncated)) >= size {
			truncated = truncated[:size-1]
		}
		_ = s.mem.Write(dest, []byte(truncated))
		_ = s.mem.WriteU8(dest+uint64(len(truncated)), 0)
	}
	return uint64(len(out))
}

func (s *Shim) format(f string, args []uint64) string {
	var out []byte
	next := 0
	arg := func() uint64 {
		if next >= len(args) {
			return 0
		}
		v := args[next]
		next++
		return v
	}

	for i := 0; i < len(f); i++ {
		if f[i] != '%' || i+1 == len(f) {
			out = append(out, f[i])
			continue
		}
		i++
		switch f[i] {
		case '%':
			out = append(out, '%')
		case 's':
			str, _ := s.mem.ReadString(arg(), 0)
			out = append(out, str...)
		case 'c':
			out = append(out, byte(arg()))
		case 'd', 'i':
			out = strconv.AppendInt(out, int64(arg()), 10)
		case 'u':
			out = strconv.AppendUint(out, arg(), 10)
		case 'x':
			out = strconv.AppendUint(out, arg(), 16)
		case 'X':
			hex := strconv.FormatUint(arg(), 16)
			for j := 0; j < len(hex); j++ {
				c := hex[j]
				if c >= 'a' && c <= 'f' {
					c -= 'a' - 'A'
				}
				out = append(out, c)
			}
		case 'p':
			out = append(out, '0', 'x')
			out = strconv.AppendUint(out, arg(), 16)
		default:
			out = append(out, '%', f[i])
		}
	}
	return string(out)
}
