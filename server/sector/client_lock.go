package sector

import "sync/atomic"

// ClientLock is a connected player's declaration that it wants streaming
// updates for one chunk (§4.3). Go has no destructors, so where the source
// relies on a Drop impl this is instead an explicit Close, the same idiom
// the rest of this codebase uses for anything that must release a resource
// deterministically.
type ClientLock struct {
	chunk   *Chunk
	channel Subscriber
	closed  atomic.Bool
}

// NewClientLock resolves coords to a Chunk (creating it if absent),
// registers channel as a subscriber, and — if Data is already present —
// immediately delivers one ChunkSync so a late subscriber catches up
// without waiting for the chunk to regenerate.
func NewClientLock(ss *SharedSector, coords Coords, pool *Pool, channel Subscriber) *ClientLock {
	c := ss.GetChunk(coords, pool)
	c.acquireLockRef()
	if hasData := c.subscribe(channel); hasData {
		if d, ok := c.Data(); ok {
			select {
			case channel <- ChunkSync{Coords: coords, Data: d}:
			default:
			}
		}
	}
	return &ClientLock{chunk: c, channel: channel}
}

// Coords returns the locked chunk's coordinates.
func (l *ClientLock) Coords() Coords { return l.chunk.coords }

// Close removes channel from the chunk's subscriber list. Safe to call more
// than once; only the first call has effect.
func (l *ClientLock) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	l.chunk.unsubscribe(l.channel)
	l.chunk.releaseLockRef()
}
