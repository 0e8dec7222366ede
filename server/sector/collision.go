package sector

import "github.com/go-gl/mathgl/mgl32"

// Collision is a chunk's triangulated surface: a flat vertex list and index
// triples naming the vertices of each triangle. Indices are always the
// natural 0,1,2,3,4,... tripled, since triangulate emits exactly three fresh
// vertices per triangle rather than sharing vertices across cells.
type Collision struct {
	Vertices []mgl32.Vec3
	Indices  []uint32
}

// windowSize is the edge length, in cells, of the densities/materials window
// assembled from the owning chunk and its seven neighbours.
const windowSize = CellsPerAxis + 1

// windowIndex returns the flat index of cell (x,y,z) in a windowSize^3
// window, per the design: x*289 + y*17 + z.
func windowIndex(x, y, z int) int {
	return x*windowSize*windowSize + y*windowSize + z
}

// windowLocalIndex returns the intra-chunk Data index of window cell
// (x,y,z) within whichever neighbour chunk owns it.
func windowLocalIndex(x, y, z int) int {
	return (x&0xF)<<8 | (y&0xF)<<4 | (z & 0xF)
}

// densityWindow is the assembled 17x17x17 neighbourhood a chunk's collision
// mesh is triangulated against.
type densityWindow struct {
	densities [windowSize * windowSize * windowSize]float32
	materials [windowSize * windowSize * windowSize]Material
}

// fill copies the given neighbour chunk's Data into every window cell it
// owns (chunkIdx is dx<<2|dy<<1|dz for the neighbour at offset (dx,dy,dz),
// see assembleCollision), translating each window cell back to the
// neighbour's own Data index via windowLocalIndex.
func (w *densityWindow) fill(chunkIdx int, d *Data) {
	xBit, yBit, zBit := (chunkIdx>>2)&1, (chunkIdx>>1)&1, chunkIdx&1
	xLo, xHi := 0, windowSize
	if xBit == 0 {
		xHi = CellsPerAxis
	} else {
		xLo = CellsPerAxis
	}
	yLo, yHi := 0, windowSize
	if yBit == 0 {
		yHi = CellsPerAxis
	} else {
		yLo = CellsPerAxis
	}
	zLo, zHi := 0, windowSize
	if zBit == 0 {
		zHi = CellsPerAxis
	} else {
		zLo = CellsPerAxis
	}
	for x := xLo; x < xHi; x++ {
		for y := yLo; y < yHi; y++ {
			for z := zLo; z < zHi; z++ {
				li := windowLocalIndex(x, y, z)
				w.densities[windowIndex(x, y, z)] = d.Densities[li]
				w.materials[windowIndex(x, y, z)] = d.Materials[li]
			}
		}
	}
}

func (w *densityWindow) at(x, y, z int) (float32, Material) {
	i := windowIndex(x, y, z)
	return w.densities[i], w.materials[i]
}

// mcWeight is the marching-cubes edge-interpolation weight described in
// §4.2: 0.5 when the two corner densities are equal (no division by zero),
// otherwise the zero-crossing fraction between them.
func mcWeight(a, b float32) float32 {
	if a == b {
		return 0.5
	}
	return (0 - a) / (b - a)
}

// triangulate runs marching cubes over a single chunk's 16^3 cells against
// the assembled window, returning the chunk's Collision. It panics only on
// internal programmer invariants (an out-of-range window index), never on
// malformed voxel data: the generator is pure and total.
func triangulate(w *densityWindow) Collision {
	var out Collision
	for cx := 0; cx < CellsPerAxis; cx++ {
		for cy := 0; cy < CellsPerAxis; cy++ {
			for cz := 0; cz < CellsPerAxis; cz++ {
				var cornerDensity [8]float32
				var mask uint8
				for i, off := range cornerOffsets {
					x, y, z := cx+int(off[0]), cy+int(off[1]), cz+int(off[2])
					d, mat := w.at(x, y, z)
					cornerDensity[i] = d
					if mat.Solid() {
						mask |= 1 << uint(i)
					}
				}
				edges := triangulationTable[mask]
				for i := 0; i+2 < len(edges); i += 3 {
					for j := 0; j < 3; j++ {
						e := edgeCorners[edges[i+j]]
						ca, cb := e[0], e[1]
						a, b := cornerDensity[ca], cornerDensity[cb]
						weight := mcWeight(a, b)
						oa := cornerOffsets[ca]
						ob := cornerOffsets[cb]
						origin := mgl32.Vec3{float32(cx), float32(cy), float32(cz)}
						cornerA := mgl32.Vec3{float32(oa[0]), float32(oa[1]), float32(oa[2])}
						cornerB := mgl32.Vec3{float32(ob[0]), float32(ob[1]), float32(ob[2])}
						pos := origin.Add(cornerA).Add(cornerB.Sub(cornerA).Mul(weight))
						out.Vertices = append(out.Vertices, pos)
						out.Indices = append(out.Indices, uint32(len(out.Indices)))
					}
				}
			}
		}
	}
	return out
}
