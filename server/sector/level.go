package sector

import "fmt"

// Levels is the number of LOD tiers a voxject's octree spans. The source
// tree disagrees with itself (28 in some places, 31 in others); 28 is
// authoritative here.
const Levels = 28

// Level is a level-of-detail tier. Level 0 is the finest: a level-L chunk
// spans 2^L times the edge length (8^L times the world-space volume) of a
// level-0 chunk.
type Level uint8

// ErrLevelOverflow is returned by Upleveled on the coarsest level.
var ErrLevelOverflow = fmt.Errorf("sector: level %d has no coarser level (max is %d)", Levels-1, Levels-1)

// ErrLevelUnderflow is returned by Downleveled on the finest level.
var ErrLevelUnderflow = fmt.Errorf("sector: level 0 has no finer level")

// Upleveled returns the next coarser level. It errors at the top of the
// octree (Level 27).
func (l Level) Upleveled() (Level, error) {
	if l >= Levels-1 {
		return 0, ErrLevelOverflow
	}
	return l + 1, nil
}

// Downleveled returns the next finer level. It errors at the bottom of the
// octree (Level 0).
func (l Level) Downleveled() (Level, error) {
	if l == 0 {
		return 0, ErrLevelUnderflow
	}
	return l - 1, nil
}

// CellSize returns the world-space size, in level-0 units, of a single cell
// at this level: 2^l.
func (l Level) CellSize() int32 {
	return 1 << uint(l)
}
