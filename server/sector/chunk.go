package sector

import (
	"runtime"
	"sync"
	"sync/atomic"
	"weak"
)

// lazyData is a single-writer, read-many field holding a Chunk's Data. It
// uses the double-checked-locking fallback the design notes describe for
// implementations without an atomic write-to-read lock downgrade: the fast
// path is a lock-free atomic load, and the slow path serializes generation
// behind a mutex so two callers racing on an absent value never generate it
// twice.
type lazyData struct {
	mu    sync.Mutex
	value atomic.Pointer[Data]
}

// get returns the value and whether it is present, without blocking.
func (l *lazyData) get() (*Data, bool) {
	v := l.value.Load()
	return v, v != nil
}

// ensure returns the present value, generating it via gen if absent. It
// reports whether this call performed the generation. If the value is
// already present on entry, gen is never called.
func (l *lazyData) ensure(gen func() Data) (*Data, bool) {
	if v := l.value.Load(); v != nil {
		return v, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if v := l.value.Load(); v != nil {
		return v, false
	}
	d := gen()
	l.value.Store(&d)
	return &d, true
}

// lazyCollision is the Collision analogue of lazyData.
type lazyCollision struct {
	mu    sync.Mutex
	value atomic.Pointer[Collision]
}

func (l *lazyCollision) get() (*Collision, bool) {
	v := l.value.Load()
	return v, v != nil
}

func (l *lazyCollision) ensure(gen func() Collision) (*Collision, bool) {
	if v := l.value.Load(); v != nil {
		return v, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if v := l.value.Load(); v != nil {
		return v, false
	}
	c := gen()
	l.value.Store(&c)
	return &c, true
}

// ChunkSync is what a Chunk hands to its subscribers when Data becomes
// available: a neutral, wire-format-agnostic payload. The connection layer
// that owns a Subscriber channel is responsible for translating it into a
// wire.SyncChunk frame; sector intentionally does not depend on the wire
// package, keeping the chunk lifecycle ignorant of frame encoding.
type ChunkSync struct {
	Coords Coords
	Data   *Data
}

// Subscriber is an outbound channel a connected client receives chunk
// updates on. Identity equality on the channel value is how ClientLock
// tells subscribers apart.
type Subscriber chan<- ChunkSync

// Chunk is the per-chunk runtime state described in §3/§4.2: two lazily
// generated stages (Data, Collision), a deduplicated subscriber list and a
// tick-lock reference count.
//
// A Chunk is reachable from the SharedSector's directory only through a weak
// pointer, and from live ClientLock/TickLock handles through ordinary
// (strong) *Chunk pointers. When the last strong reference is dropped and
// the garbage collector reclaims the Chunk, its registered cleanup evicts
// the directory entry — the Go analogue of the source's Drop-based
// self-eviction, since Go has no deterministic destructors.
type Chunk struct {
	coords    Coords
	sector    weak.Pointer[SharedSector]
	generator Generator

	data      lazyData
	collision lazyCollision

	subsMu sync.Mutex
	subs   []Subscriber

	tickLockCount atomic.Int32

	// lockRefs counts live ClientLock/TickLock handles referencing this
	// Chunk. It is the Go stand-in for the source's Arc strong_count check:
	// Rust can ask an Arc how many owners it has, Go cannot ask a *Chunk the
	// same question, so ClientLock/TickLock explicitly check in and out.
	// lockRefs == 0 means no lock currently owns the chunk, which is the
	// condition speculative generation needs (see unlocked).
	lockRefs atomic.Int32
}

// acquireLockRef registers a new ClientLock/TickLock holder.
func (c *Chunk) acquireLockRef() { c.lockRefs.Add(1) }

// releaseLockRef unregisters a ClientLock/TickLock holder.
func (c *Chunk) releaseLockRef() { c.lockRefs.Add(-1) }

// unlocked reports whether no ClientLock/TickLock currently references the
// chunk. The compute pool's speculative generation task uses this as the
// "only remaining reference" guard from §4.2: if some lock already exists,
// it will (or already did) demand Data itself, so the speculative task
// skips rather than duplicate that work.
func (c *Chunk) unlocked() bool { return c.refsAtMost(0) }

// refsAtMost reports whether no more than n locks reference the chunk. A
// TickLock that has just incremented its own reference and is about to
// schedule a speculative collision build checks refsAtMost(1): "is my own
// hold the only one", since it cannot exclude itself from the count.
func (c *Chunk) refsAtMost(n int32) bool { return c.lockRefs.Load() <= n }

// newChunk constructs a Chunk and registers a cleanup that evicts its
// directory entry from ss once the Chunk becomes unreachable. It does not
// itself insert into the directory; callers (SharedSector.GetChunk) do that
// under the directory lock.
func newChunk(ss *SharedSector, coords Coords, gen Generator) *Chunk {
	c := &Chunk{coords: coords, sector: weak.Make(ss), generator: gen}
	runtime.AddCleanup(c, evictDirectoryEntry, directoryEviction{sector: weak.Make(ss), coords: coords})
	return c
}

type directoryEviction struct {
	sector weak.Pointer[SharedSector]
	coords Coords
}

// evictDirectoryEntry runs after a Chunk is garbage collected. If the
// SharedSector has also been dropped, there is nothing to clean up: per the
// design notes, a dropped back-reference skips directory cleanup.
func evictDirectoryEntry(e directoryEviction) {
	if ss := e.sector.Value(); ss != nil {
		ss.evict(e.coords)
	}
}

// Coords returns the chunk's coordinates.
func (c *Chunk) Coords() Coords { return c.coords }

// Data returns the chunk's Data if already generated.
func (c *Chunk) Data() (*Data, bool) {
	return c.data.get()
}

// GenerateData ensures Data is present, invoking the voxject's Generator if
// it was absent, and broadcasting a ChunkSync to every currently subscribed
// client on the call that performed the generation. Safe to call from any
// goroutine; concurrent callers converge on a single generation.
func (c *Chunk) GenerateData() *Data {
	d, generated := c.data.ensure(func() Data { return c.generator.Generate(c.coords) })
	if generated {
		c.forEachSubscriber(func(s Subscriber) {
			select {
			case s <- ChunkSync{Coords: c.coords, Data: d}:
			default:
				// Local transient failure: a full channel is the
				// connection's problem, cleaned up on the next lock Drop.
			}
		})
	}
	return d
}

// SpeculativeGenerateData runs GenerateData only if unique reports that this
// call holds the only remaining strong reference to the Chunk, i.e. no
// synchronous caller (a ClientLock/TickLock construction already in flight)
// is racing it. This is the "skip generation otherwise" guard from §4.2: it
// is an optimization, never a correctness requirement, since any synchronous
// demander runs GenerateData itself if the speculative task loses the race
// or never runs.
func (c *Chunk) SpeculativeGenerateData(unique func() bool) {
	if !unique() {
		return
	}
	c.GenerateData()
}

// Collision returns the chunk's Collision if already generated.
func (c *Chunk) Collision() (*Collision, bool) {
	return c.collision.get()
}

// subscribe adds sub to the chunk's subscriber list if not already present,
// and reports whether Data was already available (in which case the caller
// should immediately deliver one SyncChunk so late subscribers catch up).
func (c *Chunk) subscribe(sub Subscriber) (alreadyPresent bool) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, s := range c.subs {
		if s == sub {
			_, has := c.data.get()
			return has
		}
	}
	c.subs = append(c.subs, sub)
	_, has := c.data.get()
	return has
}

// unsubscribe removes exactly one occurrence of sub, by channel identity.
func (c *Chunk) unsubscribe(sub Subscriber) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// forEachSubscriber calls fn with a snapshot of the current subscriber list.
// Snapshotting avoids holding subsMu while sends (which may block on a full
// or closed channel) happen.
func (c *Chunk) forEachSubscriber(fn func(Subscriber)) {
	c.subsMu.Lock()
	snapshot := append([]Subscriber(nil), c.subs...)
	c.subsMu.Unlock()
	for _, s := range snapshot {
		fn(s)
	}
}

// incTickLock increments the tick-lock count and reports whether it
// transitioned from 0 to 1.
func (c *Chunk) incTickLock() (becameActive bool) {
	return c.tickLockCount.Add(1) == 1
}

// decTickLock decrements the tick-lock count and reports whether it
// transitioned from 1 to 0.
func (c *Chunk) decTickLock() (becameInactive bool) {
	return c.tickLockCount.Add(-1) == 0
}

// TickLockCount returns the current tick-lock reference count.
func (c *Chunk) TickLockCount() int32 {
	return c.tickLockCount.Load()
}
