package sector

import (
	"sync/atomic"
	"weak"
)

// TickLock is a declaration that a chunk must be resident in the physics
// world (§4.4): constructing one is what makes a chunk "ticking". As with
// ClientLock, Close stands in for the source's Drop.
type TickLock struct {
	sector weak.Pointer[SharedSector]
	pool   *Pool
	chunk  *Chunk
	closed atomic.Bool
}

// NewTickLock resolves coords to a Chunk (creating it if absent) and
// increments its tick-lock count. The first TickLock to touch a chunk (the
// 0→1 transition) sends TickLockChunk to the sector's event queue and
// schedules a speculative collision build on the compute pool, guarded by
// refsAtMost(1): at this point the only reference beyond the one this
// TickLock itself just acquired would belong to another, already-resident
// lock, in which case that lock (or the tick thread's own synchronous
// demand on TickLockChunk) already owns the work.
func NewTickLock(ss *SharedSector, coords Coords, pool *Pool) *TickLock {
	c := ss.GetChunk(coords, pool)
	c.acquireLockRef()
	if c.incTickLock() {
		ss.Send(TickLockChunk{Coords: coords})
		pool.Submit(coords, func() {
			c.SpeculativeGenerateCollision(func() bool { return c.refsAtMost(1) }, func(n Coords) *Chunk {
				return ss.GetChunk(n, pool)
			})
		})
	}
	return &TickLock{sector: weak.Make(ss), pool: pool, chunk: c}
}

// Coords returns the locked chunk's coordinates.
func (l *TickLock) Coords() Coords { return l.chunk.coords }

// Close decrements the chunk's tick-lock count. If this was the last
// TickLock on the chunk (the 1→0 transition) and the sector is still alive,
// it sends TickReleaseChunk so the tick thread removes the chunk's physics
// rigid body.
func (l *TickLock) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	if l.chunk.decTickLock() {
		if ss := l.sector.Value(); ss != nil {
			ss.Send(TickReleaseChunk{Coords: l.chunk.coords})
		}
	}
	l.chunk.releaseLockRef()
}
