package libc

import (
	"testing"

	"github.com/zboralski/cradle/internal/host"
	"github.com/zboralski/cradle/internal/vm"
)

// hookAbort is a non-returning test hook: it records the call and unwinds.
type hookAbort struct {
	calls   int
	lastMsg string
	lastLoc string
	located bool
}

func (h *hookAbort) Abort(msg string) {
	h.calls++
	h.lastMsg = msg
	panic(host.Fault{Msg: msg})
}

func (h *hookAbort) AbortAt(prefix, msg string) {
	h.calls++
	h.located = true
	h.lastLoc = prefix
	h.lastMsg = msg
	panic(host.Fault{Prefix: prefix, Msg: msg})
}

func newPanicShim(t *testing.T, abort host.AbortHandler) *Shim {
	t.Helper()
	mem := vm.NewMemory()
	if err := mem.Map(testDataBase, testDataSize, "data"); err != nil {
		t.Fatalf("map data: %v", err)
	}
	alloc := &testAllocator{next: testHeapBase, end: testHeapBase}
	return NewShim(mem, alloc, abort)
}

func TestPanicTransfersControlOnce(t *testing.T) {
	hook := &hookAbort{}
	s := newPanicShim(t, hook)
	msg := stage(t, s, 0, "invariant violated")

	returned := false
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("Panic unwound without a fault")
			}
		}()
		s.Panic(msg)
		returned = true
	}()

	if returned {
		t.Error("Panic returned to its caller")
	}
	if hook.calls != 1 {
		t.Errorf("abort hook fired %d times, want 1", hook.calls)
	}
	if hook.lastMsg != "invariant violated" {
		t.Errorf("abort message = %q", hook.lastMsg)
	}
}

func TestPanicAtForwardsPrefix(t *testing.T) {
	hook := &hookAbort{}
	s := newPanicShim(t, hook)
	prefix := stage(t, s, 0, host.FormatLocation("parse.c", 217))
	msg := stage(t, s, 0x100, "unexpected token")

	func() {
		defer func() { _ = recover() }()
		s.PanicAt(prefix, msg)
	}()

	if !hook.located {
		t.Fatal("PanicAt did not use the located abort capability")
	}
	if hook.lastLoc != "parse.c:217: " {
		t.Errorf("prefix = %q", hook.lastLoc)
	}
	if hook.lastMsg != "unexpected token" {
		t.Errorf("message = %q", hook.lastMsg)
	}
}

// plainAbort lacks the located capability; PanicAt must fold the prefix in.
type plainAbort struct {
	lastMsg string
}

func (p *plainAbort) Abort(msg string) {
	p.lastMsg = msg
	panic(host.Fault{Msg: msg})
}

func TestPanicAtFoldsPrefixWithoutCapability(t *testing.T) {
	hook := &plainAbort{}
	s := newPanicShim(t, hook)
	prefix := stage(t, s, 0, "lexer.c:9: ")
	msg := stage(t, s, 0x100, "bad state")

	func() {
		defer func() { _ = recover() }()
		s.PanicAt(prefix, msg)
	}()

	if hook.lastMsg != "lexer.c:9: bad state" {
		t.Errorf("folded message = %q", hook.lastMsg)
	}
}

func TestPanicAbortFault(t *testing.T) {
	hook := host.PanicAbort{}
	s := newPanicShim(t, hook)
	msg := stage(t, s, 0, "fatal")

	var fault host.Fault
	func() {
		defer func() {
			r := recover()
			f, ok := r.(host.Fault)
			if !ok {
				t.Fatalf("recovered %T, want host.Fault", r)
			}
			fault = f
		}()
		s.Panic(msg)
	}()

	if fault.Error() != "fatal" {
		t.Errorf("fault = %q", fault.Error())
	}
}
