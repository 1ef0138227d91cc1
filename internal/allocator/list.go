package allocator

// findByAddress returns the block whose header starts at addr, or the
// invalid block if no such block exists in the list. Correctness under a
// freed or foreign address is not required: a miss simply returns the
// sentinel.
func (a *Allocator) findByAddress(addr uintptr) block {
	for b := a.head; b.valid(); b = b.next() {
		if b.addr == addr {
			return b
		}
	}

	return block{}
}

// split partitions b into a front block of aligned size s, marked ALLOC,
// and a trailing FREE remainder. Callers must only call split when
// b.size() leaves room for a non-empty remainder; use splitOrAlloc when
// that has not already been checked.
func (a *Allocator) split(b block, s uintptr) {
	h := b.header()
	remainderAddr := b.addr + a.headerSize + s
	remainder := blockFromAddr(remainderAddr)
	rh := remainder.header()

	rh.size = h.size - s - a.headerSize
	rh.status = statusFree
	rh.next = h.next

	h.next = remainderAddr
	h.size = s
	h.status = statusAlloc
}

// splitOrAlloc splits b if the remainder would be strictly more than
// headerSize bytes, otherwise marks the whole block ALLOC.
func (a *Allocator) splitOrAlloc(b block, s uintptr) {
	if b.size() > s+a.headerSize {
		a.split(b, s)
		return
	}

	b.setStatus(statusAlloc)
}

// coalesce walks the list and merges every maximal run of consecutive
// FREE brk-backed blocks into a single FREE block. ALLOC and MAPPED
// blocks act as barriers.
func (a *Allocator) coalesce() {
	if !a.head.valid() {
		return
	}

	cur := a.head
	next := cur.next()

	for next.valid() {
		if cur.status() != statusFree {
			cur = cur.next()
			next = next.next()

			continue
		}

		total := cur.size()
		for next.valid() && next.status() == statusFree {
			total += next.size() + a.headerSize
			next = next.next()
			cur.setNext(next)
		}

		cur.setSize(total)
		cur = next

		if next.valid() {
			next = next.next()
		}
	}
}

// coalesceForwardUntil absorbs start's successive FREE successors into
// start itself, stopping as soon as the cumulative size reaches target or
// the next block is no longer FREE. Blocks already absorbed stay absorbed
// even if target is never reached. start's own status is irrelevant: only
// its successors are examined. A no-op if start is the sentinel.
func (a *Allocator) coalesceForwardUntil(start block, target uintptr) {
	if !start.valid() {
		return
	}

	total := start.size()
	next := start.next()

	for next.valid() && next.status() == statusFree {
		total += next.size() + a.headerSize
		next = next.next()
		start.setNext(next)

		if !next.valid() || total >= target {
			break
		}
	}

	start.setSize(total)
}

// lastBrkBlock returns the last brk-backed block in the list: the last
// block whose successor is either the sentinel or a MAPPED block. It
// returns the invalid block when no brk-backed block exists yet, which
// happens both when the list is empty and when it holds only MAPPED
// blocks.
func (a *Allocator) lastBrkBlock() block {
	if !a.head.valid() || a.head.status() == statusMapped {
		return block{}
	}

	b := a.head
	for {
		n := b.next()
		if !n.valid() || n.status() == statusMapped {
			return b
		}

		b = n
	}
}

// deleteNode unlinks a MAPPED block from the list and releases its
// backing mapping. It is used exclusively when freeing MAPPED blocks.
func (a *Allocator) deleteNode(b block) {
	if a.head.addr == b.addr {
		a.head = b.next()
	} else {
		prev := a.head
		for prev.valid() && prev.next().addr != b.addr {
			prev = prev.next()
		}

		if !prev.valid() {
			return
		}

		prev.setNext(b.next())
	}

	if err := a.opts.osPrimitives.unmap(b.addr, b.size()+a.headerSize); err != nil {
		a.fatal("unmap", err)
	}
}
