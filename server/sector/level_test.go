package sector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelUplevelAtTop(t *testing.T) {
	_, err := Level(Levels - 1).Upleveled()
	require.ErrorIs(t, err, ErrLevelOverflow)

	next, err := Level(Levels - 2).Upleveled()
	require.NoError(t, err)
	require.Equal(t, Level(Levels-1), next)
}

func TestLevelDownlevelAtBottom(t *testing.T) {
	_, err := Level(0).Downleveled()
	require.ErrorIs(t, err, ErrLevelUnderflow)

	prev, err := Level(1).Downleveled()
	require.NoError(t, err)
	require.Equal(t, Level(0), prev)
}

func TestLevelCellSizeDoublesPerLevel(t *testing.T) {
	require.Equal(t, int32(1), Level(0).CellSize())
	require.Equal(t, int32(2), Level(1).CellSize())
	require.Equal(t, int32(1<<10), Level(10).CellSize())
}

func TestCoordsUplevelAndDownlevelRoundTripOnEvenCells(t *testing.T) {
	c := Coords{Voxject: 1, Cell: Cell{4, -8, 2}, Level: 3}
	up, err := c.Upleveled()
	require.NoError(t, err)
	require.Equal(t, Cell{2, -4, 1}, up.Cell)
	require.Equal(t, Level(4), up.Level)

	down, err := up.Downleveled()
	require.NoError(t, err)
	require.Equal(t, Level(3), down.Level)
	require.Equal(t, c.Cell, down.Cell)
}
