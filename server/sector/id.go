package sector

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ID is an opaque 64-bit identifier handed out to voxjects and structures. The low 12 bits are a per-allocator counter, the next 5 bits
// the allocator's ordinal, and the high 47 bits seconds since Epoch. The
// layout makes allocation wait-free on the fast path and collision-free by
// construction: two allocators never share an ordinal, and a single
// allocator never repeats a counter value within the same second.
type ID uint64

const (
	idCounterBits  = 12
	idOrdinalBits  = 5
	idCounterMask  = 1<<idCounterBits - 1
	idOrdinalMask  = 1<<idOrdinalBits - 1
	idOrdinalShift = idCounterBits
	idSecondsShift = idCounterBits + idOrdinalBits
)

// Hash returns a fast, well-distributed hash of the ID.
func (id ID) Hash() int64 {
	return int64(hash64(uint64(id)))
}

// String renders the ID in hexadecimal, matching the wire/SQL bit pattern.
func (id ID) String() string {
	return fmt.Sprintf("%#x", uint64(id))
}

// nextOrdinal is shared process-wide: every IDAllocator claims a distinct
// ordinal the moment it is constructed, lock-free.
var nextOrdinal atomic.Uint32

// IDAllocator issues IDs from a single long-lived goroutine (the tick
// thread, a compute-pool worker, a connection pump). Allocation is wait-free:
// no allocator ever blocks another. The zero value is not usable; construct
// with NewIDAllocator.
type IDAllocator struct {
	epoch   time.Time
	ordinal uint64
	counter atomic.Uint32
}

// NewIDAllocator claims a fresh ordinal and returns an allocator measuring
// elapsed seconds from epoch. Ordinals wrap after 32 allocators exist
// concurrently in the process; the design assumes far fewer long-lived
// goroutines allocate IDs than that.
func NewIDAllocator(epoch time.Time) *IDAllocator {
	ord := nextOrdinal.Add(1) - 1
	return &IDAllocator{epoch: epoch, ordinal: uint64(ord) & idOrdinalMask}
}

// Next returns a fresh ID. The counter wraps within the same second after
// 4096 allocations from this allocator; callers are assumed to allocate
// below 4 kHz per allocator, per the design notes.
func (a *IDAllocator) Next() ID {
	counter := uint64(a.counter.Add(1)-1) & idCounterMask
	seconds := uint64(time.Since(a.epoch) / time.Second)
	return ID(seconds<<idSecondsShift | a.ordinal<<idOrdinalShift | counter)
}
