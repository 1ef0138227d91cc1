package allocator

import "unsafe"

// defaultAllocator backs the package-level Malloc/Free/Calloc/Realloc
// functions. It is constructed lazily so that importing this package
// never touches the OS break on its own.
var defaultAllocator *Allocator

func global() *Allocator {
	if defaultAllocator == nil {
		defaultAllocator = NewAllocator()
	}

	return defaultAllocator
}

// Malloc allocates size bytes from the package-level default Allocator.
func Malloc(size uintptr) unsafe.Pointer { return global().Malloc(size) }

// Free releases ptr, previously obtained from the package-level default
// Allocator.
func Free(ptr unsafe.Pointer) { global().Free(ptr) }

// Calloc allocates n*size zeroed bytes from the package-level default
// Allocator.
func Calloc(n, size uintptr) unsafe.Pointer { return global().Calloc(n, size) }

// Realloc resizes ptr to newSize bytes using the package-level default
// Allocator.
func Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	return global().Realloc(ptr, newSize)
}
