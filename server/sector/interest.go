package sector

import "math"

// InterestMultiplier is the tunable LOD-shell radius multiplier M from §4.6.
// The design notes call out 1 as the default and give no guidance for any
// other value, so it is a package constant rather than per-sector config
// until a caller actually needs to tune it.
const InterestMultiplier = 1

// computeInterest implements §4.6 for a single voxject: position is the
// player's voxject-local translation. It returns the level-0 chunk that
// must be tick-locked (the player's physics-resident home chunk) and the
// nested LOD shell of chunks that should be client-locked — finer near the
// player, coarser and sparser further out.
func computeInterest(voxject ID, position [3]float64, multiplier int32) (tickLock Coords, clientLocks []Coords) {
	pos := [3]float64{position[0] / ChunksPerUnit, position[1] / ChunksPerUnit, position[2] / ChunksPerUnit}
	playerChunk := floorCell(pos)
	tickLock = Coords{Voxject: voxject, Cell: playerChunk, Level: 0}

	seen := make(map[Coords]struct{})
	levelChunks := make(map[Cell]struct{})
	for l := int32(0); l < int32(Levels)-1; l++ {
		radius := shellRadius(l, multiplier)
		if radius > 0 {
			side := 2*radius + 1
			for ix := int32(0); ix < side; ix++ {
				for iy := int32(0); iy < side; iy++ {
					for iz := int32(0); iz < side; iz++ {
						cand := Cell{
							playerChunk[0] + ix - radius,
							playerChunk[1] + iy - radius,
							playerChunk[2] + iz - radius,
						}
						if cand == playerChunk || withinShellRadius(cand, pos, radius) {
							levelChunks[Cell{cand[0] >> 1, cand[1] >> 1, cand[2] >> 1}] = struct{}{}
						}
					}
				}
			}
		}
		for cell := range levelChunks {
			base := Coords{Voxject: voxject, Cell: cell, Level: Level(l + 1)}
			home, err := base.Downleveled()
			if err != nil {
				continue
			}
			for ox := int32(0); ox <= 1; ox++ {
				for oy := int32(0); oy <= 1; oy++ {
					for oz := int32(0); oz <= 1; oz++ {
						child := home.Offset(ox, oy, oz)
						if _, ok := seen[child]; !ok {
							seen[child] = struct{}{}
							clientLocks = append(clientLocks, child)
						}
					}
				}
			}
		}
		// Carry the accumulated set forward coarsened, so level l+1's
		// shell-union includes level l's accumulated cells upleveled, not
		// just its own freshly added candidates. Skipped on the final
		// iteration since there is no l+1 left to consume it.
		if l < int32(Levels)-2 {
			uplevel := make(map[Cell]struct{}, len(levelChunks))
			for cell := range levelChunks {
				uplevel[Cell{cell[0] >> 1, cell[1] >> 1, cell[2] >> 1}] = struct{}{}
			}
			levelChunks = uplevel
		}

		pos = [3]float64{pos[0] / 2, pos[1] / 2, pos[2] / 2}
		playerChunk = Cell{playerChunk[0] >> 1, playerChunk[1] >> 1, playerChunk[2] >> 1}
	}
	return tickLock, clientLocks
}

// shellRadius computes radius = ((L / LEVELS)*M + M) >> L using floating
// point for the fractional L/LEVELS term, floored before the shift.
func shellRadius(level, multiplier int32) int32 {
	f := float64(level)/float64(Levels)*float64(multiplier) + float64(multiplier)
	return int32(math.Floor(f)) >> uint(level)
}

// withinShellRadius reports whether cand's center lies within Euclidean
// radius of pos, producing the disc-shaped (rather than cube-shaped) rings
// §4.6 calls for.
func withinShellRadius(cand Cell, pos [3]float64, radius int32) bool {
	dx := pos[0] - (float64(cand[0]) + 0.5)
	dy := pos[1] - (float64(cand[1]) + 0.5)
	dz := pos[2] - (float64(cand[2]) + 0.5)
	return dx*dx+dy*dy+dz*dz <= float64(radius)*float64(radius)
}

func floorCell(pos [3]float64) Cell {
	return Cell{
		int32(math.Floor(pos[0])),
		int32(math.Floor(pos[1])),
		int32(math.Floor(pos[2])),
	}
}
