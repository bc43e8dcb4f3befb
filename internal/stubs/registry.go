// Package stubs provides a registry binding the symbol names a sandboxed
// module imports ("malloc", "strlen", ...) to Go-side implementations.
// Stub providers register defs under a category; a module loader resolves
// its import table against the registry and calls through the returned
// functions.
package stubs

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	glog "github.com/zboralski/cradle/internal/log"
)

// HostFunc is the calling convention for functions exported into the
// sandbox: integer arguments in, a single integer result out. Pointers
// travel as guest addresses.
type HostFunc func(args []uint64) uint64

// Def defines a stub with its symbol name and implementation.
type Def struct {
	Name     string   // Symbol name (e.g., "malloc", "strncpy")
	Aliases  []string // Alternative symbol names
	Func     HostFunc
	Category string // For logging: "libc", "parser", etc.
}

// Registry holds all registered stub definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Def // symbol name -> stub definition

	// OnCall, when set, receives every logged stub call.
	OnCall func(category, name, detail string)
}

// DefaultRegistry is the global registry used by convenience functions.
var DefaultRegistry = NewRegistry()

// Debug enables verbose logging during registration and binding.
var Debug = false

// BindFallbacks enables fallback stubs for unresolved imports. When true,
// every unknown import binds to a stub that returns 0.
var BindFallbacks = true

// NewRegistry creates a new stub registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]*Def),
	}
}

// Register adds a stub definition to the registry.
func (r *Registry) Register(def Def) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defs[def.Name] = &def
	for _, alias := range def.Aliases {
		r.defs[alias] = &def
	}

	if Debug && glog.L != nil {
		glog.L.Debug("registered",
			zap.String("cat", def.Category),
			zap.String("fn", def.Name),
			zap.Strings("aliases", def.Aliases),
		)
	}
}

// RegisterFunc is a convenience method to register a simple stub.
func (r *Registry) RegisterFunc(category, name string, fn HostFunc, aliases ...string) {
	r.Register(Def{
		Name:     name,
		Aliases:  aliases,
		Func:     fn,
		Category: category,
	})
}

// Resolve looks up the implementation for a symbol name.
func (r *Registry) Resolve(name string) (HostFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return nil, false
	}
	return def.Func, true
}

// Call dispatches a symbol by name, the way a loaded module's import thunk
// would. Unresolved symbols return 0.
func (r *Registry) Call(name string, args ...uint64) uint64 {
	fn, ok := r.Resolve(name)
	if !ok {
		if Debug && glog.L != nil {
			glog.L.FallbackLog(name)
		}
		return 0
	}
	return fn(args)
}

// Bind resolves a module's import table against the registry. Every
// resolved name maps to its implementation; with BindFallbacks set,
// unresolved names bind to a zero-returning stub. Returns the table and
// the number of imports resolved against real defs.
func (r *Registry) Bind(imports []string) (map[string]HostFunc, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table := make(map[string]HostFunc, len(imports))
	resolved := 0

	for _, name := range imports {
		if def, ok := r.defs[name]; ok {
			table[name] = def.Func
			resolved++
			if Debug && glog.L != nil {
				glog.L.BindLog(def.Category, name, "import")
			}
			continue
		}

		if BindFallbacks {
			symName := name
			table[name] = func(args []uint64) uint64 {
				if Debug && glog.L != nil {
					glog.L.FallbackLog(symName)
				}
				return 0
			}
		}
	}

	return table, resolved
}

// Log calls the OnCall callback and logs via zap. This is the primary
// method for stubs to report their activity.
func (r *Registry) Log(category, name, detail string) {
	r.mu.RLock()
	cb := r.OnCall
	r.mu.RUnlock()

	if cb != nil {
		cb(category, name, detail)
	}

	if glog.L != nil {
		glog.L.Trace(category, name, detail)
	}
}

// Count returns the number of registered symbol names, aliases included.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// List returns all registered primary stub names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	names := make([]string, 0, len(r.defs))
	for _, def := range r.defs {
		if seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}

// Convenience functions for the default registry

// Register adds a stub to the default registry.
func Register(def Def) {
	DefaultRegistry.Register(def)
}

// RegisterFunc adds a simple stub to the default registry.
func RegisterFunc(category, name string, fn HostFunc, aliases ...string) {
	DefaultRegistry.RegisterFunc(category, name, fn, aliases...)
}

// Helper functions for stubs

// Arg returns args[i], or 0 when the caller passed fewer arguments.
func Arg(args []uint64, i int) uint64 {
	if i < 0 || i >= len(args) {
		return 0
	}
	return args[i]
}

// FormatHex formats a value as hex string.
func FormatHex(v uint64) string {
	if v == 0 {
		return "0"
	}
	return fmt.Sprintf("0x%x", v)
}

// FormatPtr formats name=value pairs.
func FormatPtr(name string, val uint64) string {
	return name + "=" + FormatHex(val)
}

// FormatPtrPair formats two name=value pairs.
func FormatPtrPair(name1 string, val1 uint64, name2 string, val2 uint64) string {
	if name2 == "" {
		return FormatPtr(name1, val1)
	}
	return FormatPtr(name1, val1) + " " + FormatPtr(name2, val2)
}
