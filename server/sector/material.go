package sector

// Material classifies a single voxel cell.
type Material uint8

const (
	// Nothing is empty space; a cell with this Material is never solid.
	Nothing Material = iota
	Corium
	Stone
	Ground
)

// Solid reports whether the material occupies space.
func (m Material) Solid() bool {
	return m != Nothing
}

func (m Material) String() string {
	switch m {
	case Nothing:
		return "Nothing"
	case Corium:
		return "Corium"
	case Stone:
		return "Stone"
	case Ground:
		return "Ground"
	default:
		return "Unknown"
	}
}
