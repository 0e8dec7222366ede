package sector

import "sync"

// GenerateCollision ensures Collision is present, assembling the 17^3
// density/material window from this chunk and its seven neighbours at
// offsets (0,0,1)..(1,1,1) per §4.2. Neighbour Data is generated
// synchronously if absent. Safe to call from any goroutine.
func (c *Chunk) GenerateCollision(neighbor func(Coords) *Chunk) *Collision {
	v, generated := c.collision.ensure(func() Collision {
		return c.assembleCollision(neighbor)
	})
	_ = generated
	return v
}

// SpeculativeGenerateCollision mirrors SpeculativeGenerateData: it only
// builds the mesh if this call holds the only remaining strong reference,
// skipping otherwise so it never duplicates a synchronous demander's work.
func (c *Chunk) SpeculativeGenerateCollision(unique func() bool, neighbor func(Coords) *Chunk) {
	if !unique() {
		return
	}
	c.GenerateCollision(neighbor)
}

func (c *Chunk) assembleCollision(neighbor func(Coords) *Chunk) Collision {
	var window densityWindow
	var wg sync.WaitGroup
	for dx := int32(0); dx <= 1; dx++ {
		for dy := int32(0); dy <= 1; dy++ {
			for dz := int32(0); dz <= 1; dz++ {
				chunkIdx := int(dx<<2 | dy<<1 | dz)
				wg.Add(1)
				go func(chunkIdx int, dx, dy, dz int32) {
					defer wg.Done()
					nc := c
					if dx != 0 || dy != 0 || dz != 0 {
						nc = neighbor(c.coords.Offset(dx, dy, dz))
					}
					d := nc.GenerateData()
					window.fill(chunkIdx, d)
				}(chunkIdx, dx, dy, dz)
			}
		}
	}
	wg.Wait()
	return triangulate(&window)
}
