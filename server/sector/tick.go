package sector

import (
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// tickRate is the sector's fixed tick rate: 30 Hz, dt = 1/30 per §4.5.
const tickRate = 30

// tickBudget is the wall-clock time a single tick has before it is
// considered an overrun and logged (§4.5 step 5, §7 category 4).
const tickBudget = time.Second / tickRate

// Ticker drives the sector's single dedicated tick thread. It owns the
// players, ticking-chunk physics state, and structures exclusively: all
// three are tick-thread-private per the concurrency model, so none needs a
// lock.
type Ticker struct {
	sector  *SharedSector
	pool    *Pool
	physics Physics
	log     *slog.Logger
	ids     *IDAllocator

	players       map[*Player]struct{}
	tickingChunks map[Coords]tickingChunk
	structures    map[ID]*Structure
}

// tickingChunk is the physics rigid-body handle inserted for a tick-locked
// chunk, kept so TickReleaseChunk knows what to remove.
type tickingChunk struct {
	handle PhysicsHandle
}

// NewTicker constructs a Ticker. physics and log must not be nil. ids is the
// tick thread's own IDAllocator (§4.10: one allocator per long-lived
// goroutine), used to mint Structure ids.
func NewTicker(ss *SharedSector, pool *Pool, physics Physics, log *slog.Logger, ids *IDAllocator) *Ticker {
	return &Ticker{
		sector:        ss,
		pool:          pool,
		physics:       physics,
		log:           log,
		ids:           ids,
		players:       make(map[*Player]struct{}),
		tickingChunks: make(map[Coords]tickingChunk),
		structures:    make(map[ID]*Structure),
	}
}

// Run ticks at tickRate until done is closed. Ticks never skip: if one
// overruns its budget, the next begins as soon as the ticker fires again
// rather than waiting to catch up, per §7 category 4.
func (t *Ticker) Run(done <-chan struct{}) {
	tc := time.NewTicker(tickBudget)
	defer tc.Stop()
	for {
		select {
		case <-done:
			return
		case <-tc.C:
			start := time.Now()
			t.tick()
			if elapsed := time.Since(start); elapsed > tickBudget {
				t.log.Warn("tick exceeded budget", "elapsed", elapsed, "budget", tickBudget)
			}
		}
	}
}

// tick runs one iteration of the §4.5 state machine: drain events, process
// players (which folds in pruning disconnected ones), step physics.
func (t *Ticker) tick() {
	t.drainEvents()
	t.processPlayers()
	t.physics.Step(1.0 / tickRate)
}

func (t *Ticker) drainEvents() {
	for _, e := range t.sector.drainEvents() {
		switch ev := e.(type) {
		case PlayerConnected:
			t.players[ev.Player] = struct{}{}
			if ev.Sync != nil {
				ev.Sync(t.sector.Voxjects())
			}
		case TickLockChunk:
			t.handleTickLockChunk(ev.Coords)
		case TickReleaseChunk:
			t.handleTickReleaseChunk(ev.Coords)
		case CreateStructureRequest:
			t.handleCreateStructure(ev)
		}
	}
}

// handleCreateStructure mints a Structure id, inserts a fixed physics body
// at Location with the hard-coded unit-cube collider, and replies with the
// finished Structure.
func (t *Ticker) handleCreateStructure(ev CreateStructureRequest) {
	s := &Structure{
		ID:       t.ids.Next(),
		Location: ev.Location,
		Blocks:   ev.Blocks,
	}
	translation := mgl64.Vec3{float64(ev.Location[0]), float64(ev.Location[1]), float64(ev.Location[2])}
	s.Handle = t.physics.InsertFixedBody(translation)
	t.physics.AttachTrimesh(s.Handle, unitCubeCollision())
	t.structures[s.ID] = s
	if ev.Reply != nil {
		ev.Reply(*s)
	}
}

// handleTickLockChunk upgrades the weak directory entry to a strong handle,
// synchronously demands the chunk's collision mesh, and registers a fixed
// rigid body (with a trimesh collider if the mesh has any vertices).
func (t *Ticker) handleTickLockChunk(coords Coords) {
	chunk, ok := t.sector.peekChunk(coords)
	if !ok {
		return
	}
	collision := chunk.GenerateCollision(func(n Coords) *Chunk { return t.sector.GetChunk(n, t.pool) })
	handle := t.physics.InsertFixedBody(coords.Translation())
	if len(collision.Vertices) > 0 {
		t.physics.AttachTrimesh(handle, collision)
	}
	t.tickingChunks[coords] = tickingChunk{handle: handle}
}

// handleTickReleaseChunk removes the chunk's rigid body and collider.
func (t *Ticker) handleTickReleaseChunk(coords Coords) {
	tc, ok := t.tickingChunks[coords]
	if !ok {
		return
	}
	t.physics.Remove(tc.handle)
	delete(t.tickingChunks, coords)
}

// processPlayers drains every pending Serverbound message for every player
// (step 3), recomputing and diffing the interest set for each
// PlayerLocation, and prunes any player whose Locations channel has closed
// (step 2) — folded into one pass since detecting channel closure and
// draining pending messages both happen on the same receive.
func (t *Ticker) processPlayers() {
	for p := range t.players {
		disconnected := false
	drain:
		for {
			select {
			case loc, ok := <-p.Locations:
				if !ok {
					disconnected = true
					break drain
				}
				p.recordLocation(loc)
				p.applyInterest(t.sector, t.pool)
			default:
				break drain
			}
		}
		if disconnected {
			p.releaseAll()
			delete(t.players, p)
		}
	}
}
