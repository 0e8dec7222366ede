package sector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func uniformWindow(density float32, mat Material) *densityWindow {
	w := &densityWindow{}
	for i := range w.densities {
		w.densities[i] = density
		w.materials[i] = mat
	}
	return w
}

func TestTriangulateAllEmptyProducesNoTriangles(t *testing.T) {
	w := uniformWindow(-1, Nothing)
	c := triangulate(w)
	require.Empty(t, c.Vertices)
	require.Empty(t, c.Indices)
}

func TestTriangulateAllSolidProducesNoTriangles(t *testing.T) {
	w := uniformWindow(1, Stone)
	c := triangulate(w)
	require.Empty(t, c.Vertices)
	require.Empty(t, c.Indices)
}

func TestMCWeightIsHalfOnEqualDensities(t *testing.T) {
	require.Equal(t, float32(0.5), mcWeight(0.25, 0.25))
}

func TestMCWeightInterpolatesZeroCrossing(t *testing.T) {
	// a=-1 (outside), b=1 (inside): the zero crossing sits halfway.
	require.InDelta(t, 0.5, mcWeight(-1, 1), 1e-6)
	// a=-1, b=3: zero crossing at 1/4 of the way from a to b.
	require.InDelta(t, 0.25, mcWeight(-1, 3), 1e-6)
}

func TestIndicesAreAlwaysTrailingTriples(t *testing.T) {
	// A window with a single inverted corner guarantees at least one
	// triangle, whose indices must be exactly 0,1,2 since triangulate never
	// shares vertices across cells.
	w := uniformWindow(-1, Nothing)
	w.densities[windowIndex(0, 0, 0)] = 1
	w.materials[windowIndex(0, 0, 0)] = Stone
	c := triangulate(w)
	require.NotEmpty(t, c.Indices)
	require.Equal(t, uint32(0), c.Indices[0])
	require.Equal(t, uint32(1), c.Indices[1])
	require.Equal(t, uint32(2), c.Indices[2])
}
