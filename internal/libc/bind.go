package libc

import "github.com/zboralski/cradle/internal/stubs"

// Bind registers the shim's libc surface on a registry under the names the
// parser module imports. Each wrapper unpacks the sandbox calling
// convention and reports the call for tracing.
func Bind(r *stubs.Registry, s *Shim) {
	r.Register(stubs.Def{Name: "malloc", Category: "libc", Func: func(args []uint64) uint64 {
		size := stubs.Arg(args, 0)
		ptr := s.Malloc(size)
		r.Log("libc", "malloc", stubs.FormatPtrPair("size", size, "->", ptr))
		return ptr
	}})

	r.Register(stubs.Def{Name: "calloc", Category: "libc", Func: func(args []uint64) uint64 {
		count, size := stubs.Arg(args, 0), stubs.Arg(args, 1)
		ptr := s.Calloc(count, size)
		r.Log("libc", "calloc", stubs.FormatPtrPair("total", count*size, "->", ptr))
		return ptr
	}})

	r.Register(stubs.Def{Name: "realloc", Category: "libc", Func: func(args []uint64) uint64 {
		old, size := stubs.Arg(args, 0), stubs.Arg(args, 1)
		ptr := s.Realloc(old, size)
		r.Log("libc", "realloc", stubs.FormatPtrPair("size", size, "->", ptr))
		return ptr
	}})

	r.Register(stubs.Def{Name: "free", Category: "libc", Func: func(args []uint64) uint64 {
		ptr := stubs.Arg(args, 0)
		s.Free(ptr)
		r.Log("libc", "free", stubs.FormatPtr("ptr", ptr))
		return 0
	}})

	r.Register(stubs.Def{Name: "memcpy", Category: "libc", Func: func(args []uint64) uint64 {
		return s.Memcpy(stubs.Arg(args, 0), stubs.Arg(args, 1), stubs.Arg(args, 2))
	}})

	r.Register(stubs.Def{Name: "memmove", Category: "libc", Func: func(args []uint64) uint64 {
		return s.Memmove(stubs.Arg(args, 0), stubs.Arg(args, 1), stubs.Arg(args, 2))
	}})

	r.Register(stubs.Def{Name: "memset", Category: "libc", Func: func(args []uint64) uint64 {
		return s.Memset(stubs.Arg(args, 0), stubs.Arg(args, 1), stubs.Arg(args, 2))
	}})

	r.Register(stubs.Def{Name: "memcmp", Category: "libc", Func: func(args []uint64) uint64 {
		return s.Memcmp(stubs.Arg(args, 0), stubs.Arg(args, 1), stubs.Arg(args, 2))
	}})

	r.Register(stubs.Def{Name: "strlen", Category: "libc", Func: func(args []uint64) uint64 {
		return s.Strlen(stubs.Arg(args, 0))
	}})

	r.Register(stubs.Def{Name: "strcmp", Category: "libc", Func: func(args []uint64) uint64 {
		return s.Strcmp(stubs.Arg(args, 0), stubs.Arg(args, 1))
	}})

	r.Register(stubs.Def{Name: "strncmp", Category: "libc", Func: func(args []uint64) uint64 {
		return s.Strncmp(stubs.Arg(args, 0), stubs.Arg(args, 1), stubs.Arg(args, 2))
	}})

	r.Register(stubs.Def{Name: "strdup", Category: "libc", Func: func(args []uint64) uint64 {
		src := stubs.Arg(args, 0)
		ptr := s.Strdup(src)
		r.Log("libc", "strdup", stubs.FormatPtrPair("src", src, "->", ptr))
		return ptr
	}})

	r.Register(stubs.Def{Name: "strndup", Category: "libc", Func: func(args []uint64) uint64 {
		return s.Strndup(stubs.Arg(args, 0), stubs.Arg(args, 1))
	}})

	r.Register(stubs.Def{Name: "strncpy", Category: "libc", Func: func(args []uint64) uint64 {
		return s.Strncpy(stubs.Arg(args, 0), stubs.Arg(args, 1), stubs.Arg(args, 2))
	}})

	r.Register(stubs.Def{Name: "isspace", Category: "libc", Func: func(args []uint64) uint64 {
		return s.IsSpace(stubs.Arg(args, 0))
	}})

	// The parser's header aliases snprintf to the substitute printf.
	r.Register(stubs.Def{Name: "snprintf", Aliases: []string{"npf_snprintf"}, Category: "libc", Func: func(args []uint64) uint64 {
		var varargs []uint64
		if len(args) > 3 {
			varargs = args[3:]
		}
		return s.Snprintf(stubs.Arg(args, 0), stubs.Arg(args, 1), stubs.Arg(args, 2), varargs...)
	}})

	r.Register(stubs.Def{Name: "panic", Aliases: []string{"abort"}, Category: "libc", Func: func(args []uint64) uint64 {
		if len(args) >= 2 {
			s.PanicAt(stubs.Arg(args, 0), stubs.Arg(args, 1))
		} else {
			s.Panic(stubs.Arg(args, 0))
		}
		return 0 // unreachable
	}})
}
