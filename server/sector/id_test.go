package sector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIDAllocatorNeverRepeatsWithinOneAllocator(t *testing.T) {
	a := NewIDAllocator(time.Now().Add(-time.Hour))
	seen := make(map[ID]struct{}, 4096)
	for i := 0; i < 4096; i++ {
		id := a.Next()
		_, dup := seen[id]
		require.False(t, dup, "allocator repeated id %s at iteration %d", id, i)
		seen[id] = struct{}{}
	}
}

func TestIDAllocatorsClaimDistinctOrdinals(t *testing.T) {
	epoch := time.Now().Add(-time.Hour)
	a := NewIDAllocator(epoch)
	b := NewIDAllocator(epoch)
	require.NotEqual(t, a.Next(), b.Next())
}
