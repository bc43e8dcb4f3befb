package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zboralski/cradle/internal/host"
	"github.com/zboralski/cradle/internal/libc"
	glog "github.com/zboralski/cradle/internal/log"
	"github.com/zboralski/cradle/internal/stubs"
	"github.com/zboralski/cradle/internal/trace"
	"github.com/zboralski/cradle/internal/vm"
)

var (
	verbose  bool
	quiet    bool
	heapSize uint64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cradle",
		Short: "Host-side libc substrate for sandboxed parser modules",
		Long: `Cradle supplies the libc surface a foreign parser module imports when it
runs without an operating system: the malloc/realloc/free family backed by a
size-aware host allocator, the string and memory primitives, and the panic
trampoline.

The selfcheck command drives the whole surface against the in-process host
allocator and verifies the allocator round-trip invariants; exports lists
the symbols a module loader can resolve.

Examples:
  cradle selfcheck          # Exercise the libc surface, print arena stats
  cradle selfcheck -v       # Verbose call trace
  cradle exports            # List exported symbols`,
		DisableFlagsInUseLine: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet mode (result only)")

	selfcheckCmd := &cobra.Command{
		Use:   "selfcheck",
		Short: "Exercise the libc surface against the in-process host",
		Args:  cobra.NoArgs,
		RunE:  runSelfcheck,
	}
	selfcheckCmd.Flags().Uint64Var(&heapSize, "heap", vm.HeapSize, "host heap size in bytes")
	rootCmd.AddCommand(selfcheckCmd)

	exportsCmd := &cobra.Command{
		Use:   "exports",
		Short: "List the symbols the libc layer exports",
		Args:  cobra.NoArgs,
		RunE:  showExports,
	}
	rootCmd.AddCommand(exportsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSandbox() (*libc.Shim, *host.Arena, *stubs.Registry, error) {
	mem := vm.NewMemory()
	if err := mem.Map(vm.DataBase, vm.DataSize, "data"); err != nil {
		return nil, nil, nil, err
	}
	arena, err := host.NewArena(mem, vm.HeapBase, heapSize)
	if err != nil {
		return nil, nil, nil, err
	}

	shim := libc.NewShim(mem, arena, host.PanicAbort{}, libc.WithHostRealloc(arena))
	reg := stubs.NewRegistry()
	libc.Bind(reg, shim)
	return shim, arena, reg, nil
}

func runSelfcheck(cmd *cobra.Command, args []string) error {
	glog.Init(verbose)
	stubs.Debug = verbose

	runID := uuid.NewString()
	if !quiet {
		fmt.Printf("selfcheck %s\n", runID)
	}

	shim, arena, reg, err := newSandbox()
	if err != nil {
		return err
	}
	mem := shim.Memory()

	collector := trace.NewCollector()
	reg.OnCall = collector.Hook()

	// Drive calls the way a loaded module's import thunks would: by
	// symbol name through the registry.
	var failures int
	check := func(name string, ok bool) {
		if ok {
			if !quiet {
				fmt.Printf("  ok   %s\n", name)
			}
			return
		}
		failures++
		fmt.Printf("  FAIL %s\n", name)
	}

	p := reg.Call("malloc", 64)
	check("malloc returns a block", p != 0)
	check("malloc(0) is null", reg.Call("malloc", 0) == 0)

	mem.WriteString(vm.DataBase, "new P(x) | x!(42)")
	dup := reg.Call("strdup", vm.DataBase)
	check("strdup copies to a new block", dup != 0 && dup != vm.DataBase)
	check("strlen agrees", reg.Call("strlen", dup) == 17)

	grown := reg.Call("realloc", dup, 4096)
	head, _ := mem.Read(grown, 17)
	check("realloc preserves payload", grown != 0 && string(head) == "new P(x) | x!(42)")

	check("isspace(' ')", reg.Call("isspace", uint64(' ')) == 1)
	check("isspace('x')", reg.Call("isspace", uint64('x')) == 0)

	dest := uint64(vm.DataBase) + 0x800
	mem.WriteString(vm.DataBase+0x400, "heap %u bytes")
	reg.Call("snprintf", dest, 64, vm.DataBase+0x400, heapSize)
	line, _ := mem.ReadString(dest, 0)
	check("snprintf formats", line == fmt.Sprintf("heap %d bytes", heapSize))

	reg.Call("free", grown)
	reg.Call("free", p)

	stats := arena.Stats()
	check("no leaked blocks", arena.LiveCount() == 0)
	check("no mismatched frees", stats.Mismatches == 0)

	if verbose {
		for _, e := range collector.Events() {
			fmt.Printf("  %-8s %-10s %s\n", e.PrimaryTag(), e.Name, e.Detail)
		}
	}
	if !quiet {
		fmt.Printf("arena: %d allocs, %d frees, %d reallocs, peak %d bytes\n",
			stats.Allocs, stats.Frees, stats.Reallocs, stats.PeakBytes)
	}

	if failures > 0 {
		return fmt.Errorf("selfcheck: %d checks failed", failures)
	}
	if !quiet {
		fmt.Println("selfcheck passed")
	}
	return nil
}

func showExports(cmd *cobra.Command, args []string) error {
	glog.Init(verbose)

	heapSize = vm.HeapSize
	_, _, reg, err := newSandbox()
	if err != nil {
		return err
	}

	for _, name := range reg.List() {
		fmt.Println(name)
	}
	if !quiet {
		fmt.Printf("%d symbols\n", len(reg.List()))
	}
	return nil
}
