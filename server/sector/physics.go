package sector

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// PhysicsHandle identifies a rigid body registered with a Physics engine.
type PhysicsHandle uint64

// Physics is the external collaborator boundary the tick loop drives: a
// rigid-body/trimesh-collider world that tick-locking a chunk inserts into
// and releasing it removes from. sector depends only on this interface, not
// a concrete engine, per §6's physics being an external interface this
// module consumes rather than owns.
type Physics interface {
	// InsertFixedBody registers a fixed (non-dynamic) rigid body at the
	// given voxject-relative translation and returns a handle to it.
	InsertFixedBody(translation mgl64.Vec3) PhysicsHandle

	// AttachTrimesh attaches a static triangle-mesh collider to handle.
	// Only called when the mesh has at least one vertex.
	AttachTrimesh(handle PhysicsHandle, collision *Collision)

	// Remove deletes the rigid body, and any attached collider, identified
	// by handle.
	Remove(handle PhysicsHandle)

	// Step advances the physics world by dt seconds.
	Step(dt float64)
}

// NopPhysics discards every body and never steps anything. It satisfies
// Physics for running a sector without wiring a real rigid-body engine, the
// way the teacher's player.NopProvider/world.NopProvider stand in for
// unconfigured external collaborators.
type NopPhysics struct {
	next atomic.Uint64
}

func (p *NopPhysics) InsertFixedBody(mgl64.Vec3) PhysicsHandle {
	return PhysicsHandle(p.next.Add(1))
}

func (p *NopPhysics) AttachTrimesh(PhysicsHandle, *Collision) {}

func (p *NopPhysics) Remove(PhysicsHandle) {}

func (p *NopPhysics) Step(float64) {}
