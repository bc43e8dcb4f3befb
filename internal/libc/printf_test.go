package libc

import "testing"

func TestSnprintf(t *testing.T) {
	s, _ := newTestShim(t)
	dest := uint64(testDataBase) + 0x800

	tests := []struct {
		name   string
		format string
		args   []uint64
		want   string
	}{
		{"plain", "no conversions", nil, "no conversions"},
		{"percent", "100%%", nil, "100%"},
		{"decimal", "line %d", []uint64{42}, "line 42"},
		{"negative", "%d", []uint64{^uint64(0)}, "-1"},
		{"unsigned", "%u", []uint64{^uint64(0)}, "18446744073709551615"},
		{"hex", "%x %X", []uint64{0xbeef, 0xbeef}, "beef BEEF"},
		{"char", "[%c]", []uint64{'q'}, "[q]"},
		{"pointer", "%p", []uint64{0x90000008}, "0x90000008"},
		{"unknown verb", "%q", []uint64{1}, "%q"},
		{"missing args", "%d %d", []uint64{7}, "7 0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fmtAddr := stage(t, s, 0x900, tc.format)
			n := s.Snprintf(dest, 256, fmtAddr, tc.args...)
			if n != uint64(len(tc.want)) {
				t.Errorf("returned %d, want %d", n, len(tc.want))
			}
			got, _ := s.Memory().ReadString(dest, 0)
			if got != tc.want {
				t.Errorf("wrote %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSnprintfString(t *testing.T) {
	s, _ := newTestShim(t)
	dest := uint64(testDataBase) + 0x800

	str := stage(t, s, 0x900, "rholang")
	fmtAddr := stage(t, s, 0x980, "parse error near %s")

	n := s.Snprintf(dest, 256, fmtAddr, str)
	got, _ := s.Memory().ReadString(dest, 0)
	if got != "parse error near rholang" {
		t.Errorf("wrote %q", got)
	}
	if n != uint64(len("parse error near rholang")) {
		t.Errorf("returned %d", n)
	}
}

func TestSnprintfTruncation(t *testing.T) {
	s, _ := newTestShim(t)
	dest := uint64(testDataBase) + 0x800
	fmtAddr := stage(t, s, 0x900, "0123456789")

	// Truncates at size-1 and terminates, returning the full length.
	n := s.Snprintf(dest, 5, fmtAddr)
	if n != 10 {
		t.Errorf("returned %d, want 10", n)
	}
	got, _ := s.Memory().ReadString(dest, 0)
	if got != "0123" {
		t.Errorf("wrote %q, want %q", got, "0123")
	}

	// Size zero writes nothing at all.
	s.Memory().WriteString(dest, "sentinel")
	n = s.Snprintf(dest, 0, fmtAddr)
	if n != 10 {
		t.Errorf("returned %d, want 10", n)
	}
	got, _ = s.Memory().ReadString(dest, 0)
	if got != "sentinel" {
		t.Errorf("size 0 mutated dest: %q", got)
	}
}
