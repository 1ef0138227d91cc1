// Command memalloc-demo exercises the allocator from outside the test
// suite and prints its internal block list for inspection.
package main

import (
	"flag"
	"fmt"
	"strings"
	"unsafe"

	"github.com/oslab-go/memalloc/internal/allocator"
)

func main() {
	var (
		showDemo      bool
		mallocSize    int
		callocCount   int
		callocSize    int
		reallocSize   int
		mmapThreshold int
	)

	flag.BoolVar(&showDemo, "demo", false, "walk through malloc/calloc/realloc/free, printing the block list after each step")
	flag.IntVar(&mallocSize, "malloc", 0, "allocate this many bytes and print the resulting block list")
	flag.IntVar(&callocCount, "calloc-n", 0, "element count for -calloc-size")
	flag.IntVar(&callocSize, "calloc-size", 0, "element size for a zero-allocate request")
	flag.IntVar(&reallocSize, "realloc", -1, "resize the most recent allocation to this many bytes")
	flag.IntVar(&mmapThreshold, "mmap-threshold", 0, "override the mmap routing threshold, in bytes")

	flag.Parse()

	fmt.Println("memalloc Demo")
	fmt.Println("=============")

	var opts []allocator.Option
	if mmapThreshold > 0 {
		opts = append(opts, allocator.WithMMapThreshold(uintptr(mmapThreshold)))
	}

	a := allocator.NewAllocator(opts...)

	if showDemo {
		runDemo(a)
		return
	}

	var last unsafe.Pointer

	if mallocSize > 0 {
		last = a.Malloc(uintptr(mallocSize))
		fmt.Printf("Malloc(%d) -> %p\n", mallocSize, last)
	}

	if callocCount > 0 && callocSize > 0 {
		last = a.Calloc(uintptr(callocCount), uintptr(callocSize))
		fmt.Printf("Calloc(%d, %d) -> %p\n", callocCount, callocSize, last)
	}

	if reallocSize >= 0 {
		prev := last
		last = a.Realloc(prev, uintptr(reallocSize))
		fmt.Printf("Realloc(%p, %d) -> %p\n", prev, reallocSize, last)
	}

	if last == nil && !showDemo {
		fmt.Println("Usage:")
		fmt.Println("  -demo                 Walk through a scripted allocation sequence")
		fmt.Println("  -malloc <n>           Allocate n bytes")
		fmt.Println("  -calloc-n <n> -calloc-size <s>   Zero-allocate n elements of s bytes")
		fmt.Println("  -realloc <n>          Resize the last allocation to n bytes")
		fmt.Println("  -mmap-threshold <n>   Override the brk/mmap routing threshold")
		return
	}

	dumpBlocks(a)
}

func runDemo(a *allocator.Allocator) {
	step := func(label string, fn func()) {
		fmt.Printf("\n-- %s --\n", label)
		fn()
		dumpBlocks(a)
	}

	var p1, p2, p3 unsafe.Pointer

	step("malloc(128) x3", func() {
		p1 = a.Malloc(128)
		p2 = a.Malloc(128)
		p3 = a.Malloc(128)
	})

	step("free the first block", func() {
		a.Free(p1)
	})

	step("free the second block, which coalesces with the first", func() {
		a.Free(p2)
	})

	step("malloc(256) reuses the coalesced region", func() {
		a.Malloc(256)
	})

	step("free the third block", func() {
		a.Free(p3)
	})

	step("calloc(1000, 1) zeroes its payload", func() {
		a.Calloc(1000, 1)
	})
}

func dumpBlocks(a *allocator.Allocator) {
	fmt.Println(strings.Repeat("-", 50))
	fmt.Println(a.DumpBlocks())
	fmt.Println(strings.Repeat("-", 50))
}
