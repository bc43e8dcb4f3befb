package libc

import (
	"testing"

	"github.com/zboralski/cradle/internal/stubs"
)

func newBoundRegistry(t *testing.T) (*stubs.Registry, *Shim) {
	t.Helper()
	s, _ := newTestShim(t)
	r := stubs.NewRegistry()
	Bind(r, s)
	return r, s
}

func TestBindResolvesParserImports(t *testing.T) {
	r, _ := newBoundRegistry(t)

	// The import table of the parser module.
	imports := []string{
		"malloc", "realloc", "free",
		"memcpy", "memset",
		"strlen", "strdup", "strncpy",
		"isspace", "snprintf", "panic",
	}
	_, resolved := r.Bind(imports)
	if resolved != len(imports) {
		t.Errorf("resolved %d of %d imports", resolved, len(imports))
	}
}

func TestBoundAllocThunks(t *testing.T) {
	r, s := newBoundRegistry(t)

	ptr := r.Call("malloc", 32)
	if ptr == 0 {
		t.Fatal("malloc thunk failed")
	}
	header, _ := s.Memory().ReadU64(ptr - HeaderWidth)
	if header != 32 {
		t.Errorf("header = %d, want 32", header)
	}

	moved := r.Call("realloc", ptr, 64)
	if moved == 0 {
		t.Fatal("realloc thunk failed")
	}
	r.Call("free", moved)
}

func TestBoundSnprintfVarargs(t *testing.T) {
	r, s := newBoundRegistry(t)

	dest := uint64(testDataBase) + 0x800
	fmtAddr := stage(t, s, 0x900, "%d+%d")

	n := r.Call("snprintf", dest, 32, fmtAddr, 1, 2)
	if n != 3 {
		t.Errorf("snprintf thunk returned %d, want 3", n)
	}
	got, _ := s.Memory().ReadString(dest, 0)
	if got != "1+2" {
		t.Errorf("wrote %q", got)
	}

	// The header aliases the substitute printf's exported name.
	if _, ok := r.Resolve("npf_snprintf"); !ok {
		t.Error("npf_snprintf alias not bound")
	}
}

func TestBoundPanicThunk(t *testing.T) {
	s, _ := newTestShim(t)
	r := stubs.NewRegistry()
	Bind(r, s)

	msg := stage(t, s, 0, "boom")

	reached := false
	func() {
		defer func() { _ = recover() }()
		r.Call("panic", msg)
		reached = true
	}()
	if reached {
		t.Error("panic thunk returned")
	}

	prefix := stage(t, s, 0x100, "p.c:1: ")
	func() {
		defer func() { _ = recover() }()
		r.Call("panic", prefix, msg)
		reached = true
	}()
	if reached {
		t.Error("two-argument panic thunk returned")
	}
}
