package sector

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunksPerUnit is the edge length of a level-0 chunk in level-0 world
// units: a level-0 chunk is a 16x16x16 cell cube, so dividing a position by
// it gives the level-0 chunk cell containing that position.
const ChunksPerUnit = 16

// Cell is an integer 3-vector addressing a chunk within a voxject at a given
// Level.
type Cell [3]int32

// Coords addresses a single chunk: a voxject, an integer cell within it, and
// the LOD level the cell is expressed at.
type Coords struct {
	Voxject ID
	Cell    Cell
	Level   Level
}

// Upleveled returns the coordinates of the coarser-level chunk containing
// this one. It right-shifts each cell component by 1.
func (c Coords) Upleveled() (Coords, error) {
	next, err := c.Level.Upleveled()
	if err != nil {
		return Coords{}, err
	}
	return Coords{
		Voxject: c.Voxject,
		Cell:    Cell{c.Cell[0] >> 1, c.Cell[1] >> 1, c.Cell[2] >> 1},
		Level:   next,
	}, nil
}

// Downleveled returns the coordinates of a finer-level chunk that is part of
// this one (the one whose low bit, on every axis, is 0). It left-shifts each
// cell component by 1.
func (c Coords) Downleveled() (Coords, error) {
	next, err := c.Level.Downleveled()
	if err != nil {
		return Coords{}, err
	}
	return Coords{
		Voxject: c.Voxject,
		Cell:    Cell{c.Cell[0] << 1, c.Cell[1] << 1, c.Cell[2] << 1},
		Level:   next,
	}, nil
}

// Offset returns the chunk whose cell is this one's cell plus the given unit
// offset, at the same voxject and level. It is used to enumerate a chunk's
// eight downleveled children (offsets of 0/1 on each axis) and its seven
// marching-cubes neighbours (offsets of 0/1 on each axis, self excluded).
func (c Coords) Offset(dx, dy, dz int32) Coords {
	return Coords{
		Voxject: c.Voxject,
		Cell:    Cell{c.Cell[0] + dx, c.Cell[1] + dy, c.Cell[2] + dz},
		Level:   c.Level,
	}
}

// Translation returns the voxject-relative world-space translation of this
// chunk's minimum corner: cell * 16 * 2^level.
func (c Coords) Translation() mgl64.Vec3 {
	scale := float64(ChunksPerUnit) * float64(c.Level.CellSize())
	return mgl64.Vec3{float64(c.Cell[0]) * scale, float64(c.Cell[1]) * scale, float64(c.Cell[2]) * scale}
}

// Hash folds the voxject ID, cell and level into a single 64-bit value with
// xxhash, used by the compute pool to shard same-chunk work onto one
// worker.
func (c Coords) Hash() int64 {
	var buf [29]byte
	putUint64(buf[0:8], uint64(c.Voxject))
	putInt32(buf[8:12], c.Cell[0])
	putInt32(buf[12:16], c.Cell[1])
	putInt32(buf[16:20], c.Cell[2])
	buf[20] = byte(c.Level)
	return int64(hashBytes(buf[:21]))
}

func (c Coords) String() string {
	return fmt.Sprintf("Coords{voxject:%s cell:%v level:%d}", c.Voxject, c.Cell, c.Level)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func putInt32(b []byte, v int32) {
	u := uint32(v)
	for i := 0; i < 4; i++ {
		b[i] = byte(u >> (8 * i))
	}
}
