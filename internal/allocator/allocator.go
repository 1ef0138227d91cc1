package allocator

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	allocerrors "github.com/oslab-go/memalloc/internal/errors"
)

const (
	defaultAlignment     uintptr = 8
	defaultMMapThreshold uintptr = 128 * 1024
)

// FatalHandler is invoked when an OS primitive (advance-break, map-anon,
// unmap) fails. The allocator has no recovery path for such a failure;
// the default handler prints diagnostics and terminates the process.
// Tests substitute a handler that records the call instead of exiting,
// relying on the guaranteed panic described on Allocator.fatal.
type FatalHandler func(err error)

func defaultFatalHandler(err error) {
	fmt.Fprintln(os.Stderr, "allocator: unrecoverable:", err)
	os.Exit(1)
}

type options struct {
	alignment     uintptr
	mmapThreshold uintptr
	fatalHandler  FatalHandler
	osPrimitives  osPrimitives
}

func defaultOptions() options {
	return options{
		alignment:     defaultAlignment,
		mmapThreshold: defaultMMapThreshold,
		fatalHandler:  defaultFatalHandler,
		osPrimitives:  newHostOSPrimitives(),
	}
}

// Option configures an Allocator constructed with NewAllocator.
type Option func(*options)

// WithAlignment overrides the payload alignment, in bytes. Must be a
// power of two; NewAllocator replaces a zero value with the default
// alignment of 8.
func WithAlignment(n uintptr) Option {
	return func(o *options) { o.alignment = n }
}

// WithMMapThreshold overrides the payload size, in bytes, at or above
// which requests are served by their own anonymous mapping rather than
// the brk arena.
func WithMMapThreshold(n uintptr) Option {
	return func(o *options) { o.mmapThreshold = n }
}

// WithFatalHandler overrides how the allocator reports an unrecoverable
// OS-primitive failure. The handler is always followed by a panic
// regardless of whether it returns, so it cannot be used to resume
// allocator use after a fatal failure; it exists for diagnostics and for
// tests that need to observe the failure without killing the process.
func WithFatalHandler(h FatalHandler) Option {
	return func(o *options) { o.fatalHandler = h }
}

// WithOSPrimitives substitutes the OS primitives implementation backing
// the allocator. osPrimitives is unexported, so this option is only ever
// satisfiable from within this package: it exists so the core
// block-management logic can be exercised deterministically in tests
// against an in-memory fake of brk/mmap. Production code never calls it.
func WithOSPrimitives(p osPrimitives) Option {
	return func(o *options) { o.osPrimitives = p }
}

// fatalSignal marks a panic raised after a FatalHandler runs, so that a
// recover() in test code can distinguish "the handler was invoked and we
// unwound on purpose" from an unrelated bug.
type fatalSignal struct{ err error }

// Allocator is a single logical heap: a brk-backed arena plus whatever
// anonymous mappings its large allocations have acquired, described by
// one intrusive singly-linked list of blocks. The zero value is not
// usable; construct with NewAllocator.
type Allocator struct {
	head       block
	headerSize uintptr
	opts       options
}

// NewAllocator constructs an empty Allocator. No memory is obtained from
// the OS until the first allocation.
func NewAllocator(opts ...Option) *Allocator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.alignment == 0 {
		o.alignment = defaultAlignment
	}

	return &Allocator{
		headerSize: alignUp(unsafe.Sizeof(blockHeader{}), o.alignment),
		opts:       o,
	}
}

// fatal reports that primitive failed with err, invokes the configured
// FatalHandler, and then unconditionally panics. The panic runs even if
// the handler returns normally (as a test handler will), guaranteeing
// the allocator never continues operating over a block list it could not
// finish mutating.
func (a *Allocator) fatal(primitive string, err error) {
	wrapped := allocerrors.OSPrimitiveFailure(primitive, err)
	a.opts.fatalHandler(wrapped)

	panic(fatalSignal{err: wrapped})
}

// Malloc returns a pointer to size bytes of uninitialized memory, or nil
// if size is zero. A best-fit FREE brk-backed block is tried first
// regardless of size; only on a miss does the request fall through to
// addBlockMalloc, which routes requests at or above the configured mmap
// threshold to a dedicated anonymous mapping and smaller ones to the brk
// arena.
func (a *Allocator) Malloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	asize := alignUp(size, a.opts.alignment)

	if b := a.bestFit(asize); b.valid() {
		a.splitOrAlloc(b, asize)
		return b.payload(a.headerSize)
	}

	b, err := a.addBlockMalloc(asize)
	if err != nil {
		a.fatal("advanceBreak/mapAnon", err)
		return nil
	}

	return b.payload(a.headerSize)
}

// Calloc returns a pointer to n*size bytes of zeroed memory, or nil if n
// or size is zero. Calloc routes against the system page size rather
// than the mmap threshold used by Malloc, since a fresh anonymous
// mapping comes pre-zeroed from the kernel and so is attractive for
// medium-sized requests too. The decision is made on two different
// quantities depending on path, mirroring an asymmetry in the routing
// logic this allocator's design is modeled on: the best-fit attempt
// below is gated on the raw per-element size plus one header against
// the page size, while addBlockCalloc's own mapped-vs-arena choice is
// gated on the aligned total block size against the page size.
// Preserving this asymmetry is deliberate, not an oversight; see
// DESIGN.md's Open Question decisions.
func (a *Allocator) Calloc(n, size uintptr) unsafe.Pointer {
	if n == 0 || size == 0 {
		return nil
	}

	total := n * size
	asize := alignUp(total, a.opts.alignment)
	page := a.opts.osPrimitives.pageSize()

	if size+a.headerSize < page {
		if b := a.bestFit(asize); b.valid() {
			a.splitOrAlloc(b, asize)
			zeroBytes(b.payload(a.headerSize), b.size())

			return b.payload(a.headerSize)
		}
	}

	b, err := a.addBlockCalloc(asize, page)
	if err != nil {
		a.fatal("advanceBreak/mapAnon", err)
		return nil
	}

	zeroBytes(b.payload(a.headerSize), b.size())

	return b.payload(a.headerSize)
}

// Free releases the allocation at ptr. A nil ptr, or a ptr this
// allocator did not hand out, is a no-op. MAPPED blocks are unmapped and
// unlinked immediately; brk-backed blocks are marked FREE and coalesced
// with any FREE neighbors.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	b := a.findByAddress(uintptr(ptr) - a.headerSize)
	if !b.valid() {
		return
	}

	if b.status() == statusMapped {
		a.deleteNode(b)
		return
	}

	if b.status() == statusFree {
		return
	}

	b.setStatus(statusFree)
	a.coalesce()
}

// DumpBlocks renders the block list as a sequence of "addr size status"
// lines, in list order, for interactive inspection by cmd/memalloc-demo.
// It is a diagnostic aid, grounded in the teacher package's leak-report
// formatting; it does not mutate allocator state.
func (a *Allocator) DumpBlocks() string {
	if !a.head.valid() {
		return "(empty)"
	}

	var sb strings.Builder

	for b, i := a.head, 0; b.valid(); b, i = b.next(), i+1 {
		fmt.Fprintf(&sb, "[%d] addr=0x%x size=%d status=%s\n", i, b.addr, b.size(), b.status())
	}

	return strings.TrimRight(sb.String(), "\n")
}
