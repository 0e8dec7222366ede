package sector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeInterestTickLockIsThePlayersOwnChunk(t *testing.T) {
	tickLock, clientLocks := computeInterest(7, [3]float64{17, -3, 40}, InterestMultiplier)

	require.Equal(t, ID(7), tickLock.Voxject)
	require.Equal(t, Level(0), tickLock.Level)
	require.Equal(t, Cell{1, -1, 2}, tickLock.Cell) // floor(17/16), floor(-3/16), floor(40/16)

	require.NotEmpty(t, clientLocks)
}

func TestComputeInterestClientLocksHaveNoDuplicates(t *testing.T) {
	_, clientLocks := computeInterest(1, [3]float64{0, 0, 0}, InterestMultiplier)

	seen := make(map[Coords]struct{}, len(clientLocks))
	for _, c := range clientLocks {
		_, dup := seen[c]
		require.False(t, dup, "duplicate client lock coords %v", c)
		seen[c] = struct{}{}
	}
}

func TestShellRadiusShrinksWithLevel(t *testing.T) {
	r0 := shellRadius(0, InterestMultiplier)
	r1 := shellRadius(1, InterestMultiplier)
	require.GreaterOrEqual(t, r0, r1)
}
