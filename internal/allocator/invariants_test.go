package allocator

import (
	"fmt"
	"testing"

	allocerrors "github.com/oslab-go/memalloc/internal/errors"
)

// checkInvariants walks a's block list and fails t if any of the
// properties the allocator is supposed to maintain at rest do not hold:
// no two consecutive FREE brk-backed blocks (coalescing should have
// merged them), every recorded size is non-zero, and the list is
// acyclic within a generous bound. Each failure is built through
// allocerrors.InvariantViolation so test output carries the same
// structured shape as the allocator's own fatal reports.
func checkInvariants(t *testing.T, a *Allocator) {
	t.Helper()

	seen := make(map[uintptr]bool)
	prevFree := false

	for b, steps := a.head, 0; b.valid(); b, steps = b.next(), steps+1 {
		if steps > 1_000_000 {
			t.Fatal(allocerrors.InvariantViolation("acyclic-list", "block list exceeds sane length; suspected cycle"))
		}

		if seen[b.addr] {
			t.Fatal(allocerrors.InvariantViolation("acyclic-list", fmt.Sprintf("block list contains a cycle at address %d", b.addr)))
		}

		seen[b.addr] = true

		if b.size() == 0 {
			t.Fatal(allocerrors.InvariantViolation("nonzero-size", fmt.Sprintf("block at %d has zero size", b.addr)))
		}

		isFree := b.status() == statusFree
		if isFree && prevFree {
			t.Fatal(allocerrors.InvariantViolation("no-adjacent-free", fmt.Sprintf("two consecutive FREE blocks were not coalesced (block at %d)", b.addr)))
		}

		prevFree = isFree && b.status() != statusMapped
	}
}
