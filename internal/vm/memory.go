// Package vm provides the sandboxed guest address space the parser module
// runs against. Memory is a set of mapped regions addressed by uint64 guest
// pointers, with typed accessors for the word and C-string traffic the libc
// layer generates.
package vm

import (
	"encoding/binary"
	"sort"

	"github.com/cockroachdb/errors"
)

// Default layout for a parser sandbox. Callers may map additional regions.
const (
	DataBase = 0x10000000
	DataSize = 0x00100000 // 1MB for parser statics and staged input
	HeapBase = 0x90000000
	HeapSize = 0x10000000 // 256MB heap
)

// ErrUnmapped is returned when an access touches an address outside every
// mapped region.
var ErrUnmapped = errors.New("unmapped guest address")

// ErrOverlap is returned when a new region would intersect an existing one.
var ErrOverlap = errors.New("region overlaps existing mapping")

type region struct {
	base uint64
	size uint64
	name string
	data []byte
}

func (r *region) contains(addr uint64) bool {
	return addr >= r.base && addr < r.base+r.size
}

// Memory is a region-mapped guest address space.
type Memory struct {
	regions []*region // sorted by base
}

// NewMemory creates an empty address space.
func NewMemory() *Memory {
	return &Memory{}
}

// NewSandboxMemory creates an address space with the default data and heap
// regions mapped.
func NewSandboxMemory() (*Memory, error) {
	m := NewMemory()
	if err := m.Map(DataBase, DataSize, "data"); err != nil {
		return nil, err
	}
	if err := m.Map(HeapBase, HeapSize, "heap"); err != nil {
		return nil, err
	}
	return m, nil
}

// Map adds a region to the address space.
func (m *Memory) Map(base, size uint64, name string) error {
	if size == 0 {
		return errors.Newf("map %s: zero-sized region", name)
	}
	if base+size < base {
		return errors.Newf("map %s: region wraps address space", name)
	}
	for _, r := range m.regions {
		if base < r.base+r.size && r.base < base+size {
			return errors.Wrapf(ErrOverlap, "map %s (0x%x) against %s (0x%x)", name, base, r.name, r.base)
		}
	}
	m.regions = append(m.regions, &region{
		base: base,
		size: size,
		name: name,
		data: make([]byte, size),
	})
	sort.Slice(m.regions, func(i, j int) bool {
		return m.regions[i].base < m.regions[j].base
	})
	return nil
}

// find returns the region containing addr, or nil.
func (m *Memory) find(addr uint64) *region {
	i := sort.Search(len(m.regions), func(i int) bool {
		return m.regions[i].base+m.regions[i].size > addr
	})
	if i < len(m.regions) && m.regions[i].contains(addr) {
		return m.regions[i]
	}
	return nil
}

// span returns the region backing [addr, addr+size), or an error if the
// range is not fully inside one region.
func (m *Memory) span(addr, size uint64) (*region, error) {
	r := m.find(addr)
	if r == nil {
		return nil, errors.Wrapf(ErrUnmapped, "0x%x", addr)
	}
	if addr+size < addr || addr+size > r.base+r.size {
		return nil, errors.Wrapf(ErrUnmapped, "0x%x+0x%x crosses end of %s", addr, size, r.name)
	}
	return r, nil
}

// Read reads size bytes from guest memory.
func (m *Memory) Read(addr, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	r, err := m.span(addr, size)
	if err != nil {
		return nil, err
	}
	off := addr - r.base
	out := make([]byte, size)
	copy(out, r.data[off:off+size])
	return out, nil
}

// Write writes bytes to guest memory.
func (m *Memory) Write(addr uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	r, err := m.span(addr, uint64(len(data)))
	if err != nil {
		return err
	}
	copy(r.data[addr-r.base:], data)
	return nil
}

// ReadU64 reads a uint64 from memory (little endian).
func (m *Memory) ReadU64(addr uint64) (uint64, error) {
	data, err := m.Read(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// WriteU64 writes a uint64 to memory (little endian).
func (m *Memory) WriteU64(addr, val uint64) error {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, val)
	return m.Write(addr, data)
}

// ReadU32 reads a uint32 from memory (little endian).
func (m *Memory) ReadU32(addr uint64) (uint32, error) {
	data, err := m.Read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// WriteU32 writes a uint32 to memory (little endian).
func (m *Memory) WriteU32(addr uint64, val uint32) error {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, val)
	return m.Write(addr, data)
}

// ReadU8 reads a single byte from memory.
func (m *Memory) ReadU8(addr uint64) (uint8, error) {
	data, err := m.Read(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// WriteU8 writes a single byte to memory.
func (m *Memory) WriteU8(addr uint64, val uint8) error {
	return m.Write(addr, []byte{val})
}

// ReadString reads a null-terminated string from memory. maxLen bounds the
// scan; maxLen <= 0 scans to the end of the containing region.
func (m *Memory) ReadString(addr uint64, maxLen int) (string, error) {
	r := m.find(addr)
	if r == nil {
		return "", errors.Wrapf(ErrUnmapped, "0x%x", addr)
	}
	off := addr - r.base
	data := r.data[off:]
	if maxLen > 0 && uint64(maxLen) < uint64(len(data)) {
		data = data[:maxLen]
	}
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), nil
		}
	}
	return string(data), nil
}

// WriteString writes a null-terminated string to memory.
func (m *Memory) WriteString(addr uint64, s string) error {
	data := append([]byte(s), 0)
	return m.Write(addr, data)
}

// Fill writes count copies of b starting at addr.
func (m *Memory) Fill(addr uint64, b byte, count uint64) error {
	if count == 0 {
		return nil
	}
	r, err := m.span(addr, count)
	if err != nil {
		return err
	}
	off := addr - r.base
	dst := r.data[off : off+count]
	for i := range dst {
		dst[i] = b
	}
	return nil
}

// Copy moves count bytes from src to dst inside guest memory. Overlapping
// ranges are handled like memmove.
func (m *Memory) Copy(dst, src, count uint64) error {
	if count == 0 {
		return nil
	}
	sr, err := m.span(src, count)
	if err != nil {
		return err
	}
	dr, err := m.span(dst, count)
	if err != nil {
		return err
	}
	// copy() is memmove-safe even when sr == dr.
	copy(dr.data[dst-dr.base:dst-dr.base+count], sr.data[src-sr.base:src-sr.base+count])
	return nil
}

// Regions returns the mapped region names and bounds, for diagnostics.
func (m *Memory) Regions() []RegionInfo {
	out := make([]RegionInfo, 0, len(m.regions))
	for _, r := range m.regions {
		out = append(out, RegionInfo{Name: r.name, Base: r.base, Size: r.size})
	}
	return out
}

// RegionInfo describes a mapped region.
type RegionInfo struct {
	Name string
	Base uint64
	Size uint64
}
