package sector

import "github.com/google/uuid"

// Isometry is a player's pose within a single voxject: the translation
// component of the Serverbound PlayerLocation payload (an
// IsometryMatrix3<f32> on the wire). Rotation does not feed interest
// computation, so only the translation is carried into the tick loop.
type Isometry struct {
	Voxject     ID
	Translation [3]float64
}

// Player is the tick thread's view of a connected client, created on
// PlayerConnected and destroyed when its Locations stream closes. Every
// field is tick-thread-private: only the tick loop ever reads or writes
// them, matching the concurrency model's "players: tick-thread-private; no
// locks" rule.
type Player struct {
	ID uuid.UUID

	// Chunks is the outbound channel ClientLocks subscribe to deliver
	// ChunkSync payloads; the connection layer drains it and translates
	// each into a wire.SyncChunk frame.
	Chunks Subscriber

	// Locations carries Serverbound PlayerLocation messages in FIFO order;
	// its closure is how the tick loop detects disconnection.
	Locations <-chan Isometry

	// locations holds the player's latest known pose in every voxject it
	// has reported a PlayerLocation for. Interest (§4.6: "per player, per
	// voxject") is computed and unioned across every entry here, so an
	// update for one voxject never evicts another voxject's locks.
	locations map[ID]Isometry

	tickLocks   map[ID]*TickLock
	clientLocks map[Coords]*ClientLock
}

// NewPlayer constructs a Player with empty lock sets.
func NewPlayer(id uuid.UUID, chunks Subscriber, locations <-chan Isometry) *Player {
	return &Player{
		ID:          id,
		Chunks:      chunks,
		Locations:   locations,
		locations:   make(map[ID]Isometry),
		tickLocks:   make(map[ID]*TickLock),
		clientLocks: make(map[Coords]*ClientLock),
	}
}

// releaseAll closes every lock the player holds. Called when the tick loop
// prunes a disconnected player.
func (p *Player) releaseAll() {
	for voxject, l := range p.tickLocks {
		l.Close()
		delete(p.tickLocks, voxject)
	}
	for coords, l := range p.clientLocks {
		l.Close()
		delete(p.clientLocks, coords)
	}
}

// recordLocation stores loc as the player's latest known pose within its
// voxject, superseding any earlier pose reported for that same voxject.
func (p *Player) recordLocation(loc Isometry) {
	p.locations[loc.Voxject] = loc
}

// applyInterest recomputes §4.6 interest for every voxject the player has
// reported a location in, unions the per-voxject tick-lock and client-lock
// sets, and diffs the player's current locks against that union: locks no
// longer wanted by any voxject are closed, newly wanted ones are acquired,
// and locks already held are left untouched.
func (p *Player) applyInterest(ss *SharedSector, pool *Pool) {
	wantedTick := make(map[ID]Coords, len(p.locations))
	wantedClient := make(map[Coords]struct{})
	for voxject, loc := range p.locations {
		tickLock, clientLocks := computeInterest(voxject, loc.Translation, InterestMultiplier)
		wantedTick[voxject] = tickLock
		for _, c := range clientLocks {
			wantedClient[c] = struct{}{}
		}
	}

	for voxject, coords := range wantedTick {
		if l, ok := p.tickLocks[voxject]; !ok || l.Coords() != coords {
			if ok {
				l.Close()
			}
			p.tickLocks[voxject] = NewTickLock(ss, coords, pool)
		}
	}
	for voxject, l := range p.tickLocks {
		if _, ok := wantedTick[voxject]; !ok {
			l.Close()
			delete(p.tickLocks, voxject)
		}
	}

	for c := range wantedClient {
		if _, ok := p.clientLocks[c]; !ok {
			p.clientLocks[c] = NewClientLock(ss, c, pool, p.Chunks)
		}
	}
	for c, l := range p.clientLocks {
		if _, ok := wantedClient[c]; !ok {
			l.Close()
			delete(p.clientLocks, c)
		}
	}
}
