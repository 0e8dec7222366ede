package sector

import (
	"github.com/aquilax/go-perlin"
)

// Generator is a pure function from chunk coordinates to Data. Generators
// must be side-effect free and safe for concurrent use: the compute pool
// calls a voxject's Generator from many goroutines at once, and speculative
// generation may race a synchronous demand for the same chunk.
type Generator interface {
	Generate(c Coords) Data
}

// GeneratorFunc adapts a function to a Generator.
type GeneratorFunc func(c Coords) Data

// Generate implements Generator.
func (f GeneratorFunc) Generate(c Coords) Data {
	return f(c)
}

// PerlinGenerator produces a density field sampling a fractal (multi-octave)
// Perlin noise field, with a Stone classification below the isosurface and
// Nothing above it. cmd/sectord gives it to every configured voxject; a
// Voxject with a nil Generator gets all-empty Data instead (see
// SharedSector.generatorFor).
//
// Runtime IDs / registries have no analog here (unlike the teacher's
// block-palette generators): PerlinGenerator is fully self-contained and
// needs no post-construction binding step.
type PerlinGenerator struct {
	noise      *perlin.Perlin
	seaLevel   float64
	amplitude  float64
	octaves    int32
	wavelength float64
}

// NewPerlinGenerator builds a PerlinGenerator from a 64-bit seed. seaLevel is
// expressed in level-0 world units along Y; amplitude and wavelength tune
// the terrain's vertical relief and horizontal feature size.
func NewPerlinGenerator(seed int64, seaLevel, amplitude, wavelength float64) *PerlinGenerator {
	const (
		alpha   = 2.0
		beta    = 2.0
		octaves = int32(4)
	)
	return &PerlinGenerator{
		noise:      perlin.NewPerlin(alpha, beta, octaves, seed),
		seaLevel:   seaLevel,
		amplitude:  amplitude,
		octaves:    octaves,
		wavelength: wavelength,
	}
}

// Generate implements Generator.
func (g *PerlinGenerator) Generate(c Coords) Data {
	var d Data
	origin := c.Cell
	scale := float64(c.Level.CellSize())
	for x := uint8(0); x < CellsPerAxis; x++ {
		wx := (float64(origin[0])*CellsPerAxis + float64(x)) * scale
		for z := uint8(0); z < CellsPerAxis; z++ {
			wz := (float64(origin[2])*CellsPerAxis + float64(z)) * scale
			surface := g.seaLevel + g.amplitude*g.noise.Noise2D(wx/g.wavelength, wz/g.wavelength)
			for y := uint8(0); y < CellsPerAxis; y++ {
				wy := (float64(origin[1])*CellsPerAxis + float64(y)) * scale
				density := float32(surface - wy)
				mat := Nothing
				if density >= 0 {
					mat = Stone
				}
				d.Set(x, y, z, density, mat)
			}
		}
	}
	return d
}
