//go:build !linux

package allocator

import "fmt"

// hostOSPrimitives is unsupported outside Linux: the brk syscall this
// allocator's arena growth depends on is Linux-specific. Construction
// succeeds so the package still builds everywhere; every primitive
// fails immediately instead of allocating through it silently.
type hostOSPrimitives struct{}

func newHostOSPrimitives() osPrimitives { return hostOSPrimitives{} }

var errUnsupportedPlatform = fmt.Errorf("allocator: brk-backed arena is only supported on linux")

func (hostOSPrimitives) advanceBreak(uintptr) (uintptr, error) { return 0, errUnsupportedPlatform }
func (hostOSPrimitives) mapAnon(uintptr) (uintptr, error)      { return 0, errUnsupportedPlatform }
func (hostOSPrimitives) unmap(uintptr, uintptr) error          { return errUnsupportedPlatform }
func (hostOSPrimitives) pageSize() uintptr                     { return 4096 }
