package sector

import "sync"

// Event is something the tick thread must react to, queued by any goroutine
// via SharedSector.Send and drained once per tick (§4.5). Concrete variants
// are PlayerConnected, TickLockChunk, TickReleaseChunk and
// CreateStructureRequest.
type Event interface {
	isEvent()
}

// PlayerConnected is sent once a connection has completed the handshake and
// should be admitted into the next tick's player list. Sync is invoked by
// the tick thread with the sector's current voxject list so the connection
// layer can build and send the first Clientbound Sync frame (name,
// voxjects, inventory snapshot); sector itself never constructs wire
// frames.
type PlayerConnected struct {
	Player *Player
	Sync   func(voxjects []*Voxject)
}

func (PlayerConnected) isEvent() {}

// TickLockChunk is sent by a newly constructed TickLock the first time it
// brings a chunk's tick-lock count from 0 to 1: the tick thread reacts by
// synchronously demanding the chunk's collision mesh and registering a
// physics rigid body for it.
type TickLockChunk struct {
	Coords Coords
}

func (TickLockChunk) isEvent() {}

// TickReleaseChunk is sent when a TickLock's Drop brings a chunk's tick-lock
// count from 1 to 0: the tick thread reacts by removing the chunk's physics
// rigid body.
type TickReleaseChunk struct {
	Coords Coords
}

func (TickReleaseChunk) isEvent() {}

// CreateStructureRequest asks the tick thread to materialize a Structure at
// Location with the given sparse block map. Reply is invoked synchronously
// from the tick thread once the structure has a physics body, so the
// connection layer can build the resulting SyncStructure frame.
type CreateStructureRequest struct {
	Location [3]int32
	Blocks   map[BlockPos]string
	Reply    func(Structure)
}

func (CreateStructureRequest) isEvent() {}

// eventQueue is an unbounded, multi-producer single-consumer mailbox. A
// mutex-guarded slice is the pragmatic choice here: the pack carries no
// lock-free MPSC queue, events are small value types, and the tick thread
// drains the whole backlog once per tick rather than popping one at a time,
// so contention is a single lock/unlock pair per producer and one per tick.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
}

func newEventQueue() *eventQueue {
	return &eventQueue{}
}

// push enqueues event. Never blocks, never drops.
func (q *eventQueue) push(event Event) {
	q.mu.Lock()
	q.events = append(q.events, event)
	q.mu.Unlock()
}

// drainAll returns every event queued since the last drain, leaving the
// queue empty. Only the tick thread calls this.
func (q *eventQueue) drainAll() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}
