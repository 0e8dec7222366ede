package sector

import (
	"sync"
	"weak"
)

// Voxject is a single gravity well: an id, a name, and the Generator used to
// produce its chunks' Data.
type Voxject struct {
	ID        ID
	Name      string
	Generator Generator
}

// SharedSector is the thread-safe chunk directory and event sender every
// goroutine outside the tick thread is handed: connection pumps call
// Send/GetChunk, compute-pool tasks call GetChunk to resolve neighbours.
//
// Entries are weak: a Chunk's own finalizer (see newChunk) evicts its
// directory entry when the garbage collector reclaims it, mirroring the
// source's Drop-based self-eviction without needing a reference count of
// its own — ClientLock/TickLock/compute-pool goroutines holding a strong
// *Chunk are what keep it alive.
type SharedSector struct {
	mu        sync.Mutex
	directory map[Coords]weak.Pointer[Chunk]
	voxjects  map[ID]*Voxject

	events *eventQueue
}

// NewSharedSector constructs a SharedSector for the given voxjects.
func NewSharedSector(voxjects []*Voxject) *SharedSector {
	ss := &SharedSector{
		directory: make(map[Coords]weak.Pointer[Chunk]),
		voxjects:  make(map[ID]*Voxject, len(voxjects)),
		events:    newEventQueue(),
	}
	for _, v := range voxjects {
		ss.voxjects[v.ID] = v
	}
	return ss
}

// Voxjects returns the sector's voxjects.
func (ss *SharedSector) Voxjects() []*Voxject {
	out := make([]*Voxject, 0, len(ss.voxjects))
	for _, v := range ss.voxjects {
		out = append(out, v)
	}
	return out
}

// Voxject looks up a voxject by id.
func (ss *SharedSector) Voxject(id ID) (*Voxject, bool) {
	v, ok := ss.voxjects[id]
	return v, ok
}

// Send pushes event into the unbounded inbox consumed by the tick thread.
// It never blocks and never drops: per §5, events emitted before tick N
// starts are visible in tick N, and concurrent emissions are never lost,
// only possibly delayed to tick N+1.
func (ss *SharedSector) Send(event Event) {
	ss.events.push(event)
}

// drainEvents hands the tick thread every event queued since the last
// drain. Only the tick thread calls this.
func (ss *SharedSector) drainEvents() []Event {
	return ss.events.drainAll()
}

// GetChunk looks up coords in the directory, upgrading the weak entry to a
// strong handle if the Chunk is still alive. Otherwise it constructs a new
// Chunk, installs a weak entry, and schedules opportunistic generation on
// the compute pool. Concurrent callers racing on the same coords all
// observe the same Chunk identity: the directory mutex serializes the
// double-check-after-lock.
func (ss *SharedSector) GetChunk(coords Coords, pool *Pool) *Chunk {
	ss.mu.Lock()
	if wp, ok := ss.directory[coords]; ok {
		if c := wp.Value(); c != nil {
			ss.mu.Unlock()
			return c
		}
	}
	gen := ss.generatorFor(coords)
	c := newChunk(ss, coords, gen)
	ss.directory[coords] = weak.Make(c)
	ss.mu.Unlock()

	if pool != nil {
		pool.Submit(coords, func() {
			// Speculative generation is opportunistic: only run it if no
			// ClientLock/TickLock has raced us and is already (or about to
			// be) blocking on Data.
			c.SpeculativeGenerateData(c.unlocked)
		})
	}
	return c
}

// peekChunk returns the live Chunk at coords without creating one, used by
// the tick loop when handling TickLockChunk (the chunk is guaranteed to
// already exist: a TickLock can only have been constructed via GetChunk).
func (ss *SharedSector) peekChunk(coords Coords) (*Chunk, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	wp, ok := ss.directory[coords]
	if !ok {
		return nil, false
	}
	c := wp.Value()
	return c, c != nil
}

// evict removes coords from the directory. Called from a Chunk's
// finalizer; it is a no-op if the directory no longer agrees that coords
// maps to this Chunk (it may already have been replaced).
func (ss *SharedSector) evict(coords Coords) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if wp, ok := ss.directory[coords]; ok && wp.Value() == nil {
		delete(ss.directory, coords)
	}
}

// DirectoryLen reports the number of live directory entries. Exposed for
// tests asserting the single-Chunk-per-coords invariant.
func (ss *SharedSector) DirectoryLen() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for _, wp := range ss.directory {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}

func (ss *SharedSector) generatorFor(coords Coords) Generator {
	if v, ok := ss.voxjects[coords.Voxject]; ok && v.Generator != nil {
		return v.Generator
	}
	return GeneratorFunc(func(Coords) Data { return Data{} })
}
