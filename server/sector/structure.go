package sector

import "github.com/go-gl/mathgl/mgl32"

// BlockPos is a structure-relative block position.
type BlockPos [3]int16

// Structure is a player-created, non-persistent fixture: a physics body at
// a location with a sparse block map. Per design note, collision insertion
// is a hard-coded 1x1x1 cuboid regardless of the block map's shape;
// composing the real shape is future work (spec Non-goal).
type Structure struct {
	ID       ID
	Location [3]int32
	Blocks   map[BlockPos]string
	Handle   PhysicsHandle
}

// unitCubeCollision is the hard-coded 1x1x1 cuboid every Structure is
// inserted into physics with.
func unitCubeCollision() *Collision {
	verts := []mgl32.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	idx := []uint32{
		0, 1, 2, 0, 2, 3, // -Z
		4, 6, 5, 4, 7, 6, // +Z
		0, 4, 5, 0, 5, 1, // -Y
		3, 2, 6, 3, 6, 7, // +Y
		0, 3, 7, 0, 7, 4, // -X
		1, 5, 6, 1, 6, 2, // +X
	}
	return &Collision{Vertices: verts, Indices: idx}
}
