//go:build linux

package allocator

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// hostOSPrimitives backs osPrimitives with the real brk and mmap
// syscalls via golang.org/x/sys/unix, following the same
// raw-syscall-through-x/sys style this allocator's ambient stack uses
// elsewhere for OS-specific code.
type hostOSPrimitives struct{}

func newHostOSPrimitives() osPrimitives { return hostOSPrimitives{} }

// currentBreak queries the program break without moving it, by calling
// brk(2) with an address of zero; Linux's raw brk syscall always
// returns the resulting break, so a no-op call reports the current one.
func currentBreak() (uintptr, error) {
	addr, _, errno := unix.Syscall(unix.SYS_BRK, 0, 0, 0)
	if errno != 0 {
		return 0, fmt.Errorf("brk(0): %w", errno)
	}

	return addr, nil
}

func (hostOSPrimitives) advanceBreak(n uintptr) (uintptr, error) {
	start, err := currentBreak()
	if err != nil {
		return 0, err
	}

	want := start + n

	got, _, errno := unix.Syscall(unix.SYS_BRK, want, 0, 0)
	if errno != 0 {
		return 0, fmt.Errorf("brk(%d): %w", want, errno)
	}

	if got < want {
		return 0, fmt.Errorf("brk: kernel refused to grow break to %d (got %d)", want, got)
	}

	return start, nil
}

func (hostOSPrimitives) mapAnon(n uintptr) (uintptr, error) {
	data, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, fmt.Errorf("mmap(%d): %w", n, err)
	}

	return uintptr(unsafe.Pointer(&data[0])), nil
}

func (hostOSPrimitives) unmap(addr, n uintptr) error {
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(n))
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap(%d, %d): %w", addr, n, err)
	}

	return nil
}

func (hostOSPrimitives) pageSize() uintptr {
	return uintptr(unix.Getpagesize())
}
