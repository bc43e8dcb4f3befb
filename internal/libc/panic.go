package libc

import (
	"github.com/zboralski/cradle/internal/host"
	glog "github.com/zboralski/cradle/internal/log"
)

// Panic forwards an unrecoverable parser error to the host abort handler.
// It does not return: the handler's contract is to end the module's
// execution with no cleanup and no unwinding back into the parser.
func (s *Shim) Panic(msgAddr uint64) {
	msg, _ := s.mem.ReadString(msgAddr, 0)
	if glog.L != nil {
		glog.L.Trace("libc", "panic", msg)
	}
	s.abort.Abort(msg)
	// The handler broke its contract if we get here.
	panic("abort handler returned")
}

// PanicAt is the diagnostic variant carrying a source-location prefix. The
// pair is forwarded as two arguments when the host supports it, otherwise
// the prefix is folded into the message.
func (s *Shim) PanicAt(prefixAddr, msgAddr uint64) {
	prefix, _ := s.mem.ReadString(prefixAddr, 0)
	msg, _ := s.mem.ReadString(msgAddr, 0)
	if glog.L != nil {
		glog.L.Trace("libc", "panic", prefix+msg)
	}
	if located, ok := s.abort.(host.LocatedAbortHandler); ok {
		located.AbortAt(prefix, msg)
	} else {
		s.abort.Abort(prefix + msg)
	}
	panic("abort handler returned")
}
