package sector

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// hash64 hashes a single packed 64-bit key. It backs ID.Hash; Coords.Hash
// uses hashBytes below.
func hash64(v uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return xxhash.Sum64(buf[:])
}

// hashBytes hashes an arbitrary byte slice with the same algorithm, used for
// keys wider than 64 bits (ChunkCoordinates packs voxject, cell and level
// into more than one machine word).
func hashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}
