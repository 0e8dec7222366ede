package sector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testVoxjects() []*Voxject {
	return []*Voxject{{ID: 1, Name: "Terra", Generator: GeneratorFunc(func(c Coords) Data {
		var d Data
		return d
	})}}
}

func TestClientLockAcquiresAndReleasesReference(t *testing.T) {
	ss := NewSharedSector(testVoxjects())
	pool := NewPool()
	defer pool.Close()

	coords := Coords{Voxject: 1}
	ch := make(chan ChunkSync, 4)

	lock := NewClientLock(ss, coords, pool, ch)
	chunk, ok := ss.peekChunk(coords)
	require.True(t, ok)
	require.False(t, chunk.unlocked())

	lock.Close()
	require.True(t, chunk.unlocked())

	// Closing twice must not double-release.
	lock.Close()
	require.True(t, chunk.unlocked())
}

func TestTickLockSendsLockAndReleaseEvents(t *testing.T) {
	ss := NewSharedSector(testVoxjects())
	pool := NewPool()
	defer pool.Close()

	coords := Coords{Voxject: 1}
	lock := NewTickLock(ss, coords, pool)

	events := ss.drainEvents()
	require.Len(t, events, 1)
	_, ok := events[0].(TickLockChunk)
	require.True(t, ok)

	lock.Close()
	events = ss.drainEvents()
	require.Len(t, events, 1)
	_, ok = events[0].(TickReleaseChunk)
	require.True(t, ok)
}

func TestTickLockCountOnlyFiresEventOnFirstAndLastHold(t *testing.T) {
	ss := NewSharedSector(testVoxjects())
	pool := NewPool()
	defer pool.Close()

	coords := Coords{Voxject: 1}
	a := NewTickLock(ss, coords, pool)
	b := NewTickLock(ss, coords, pool)

	events := ss.drainEvents()
	require.Len(t, events, 1, "second TickLock on the same chunk must not re-send TickLockChunk")

	a.Close()
	require.Empty(t, ss.drainEvents(), "releasing one of two holders must not send TickReleaseChunk")

	b.Close()
	events = ss.drainEvents()
	require.Len(t, events, 1)
	_, ok := events[0].(TickReleaseChunk)
	require.True(t, ok)
}

func TestChunkUnsubscribeStopsFurtherBroadcast(t *testing.T) {
	ss := NewSharedSector(testVoxjects())
	coords := Coords{Voxject: 1}
	chunk := newChunk(ss, coords, GeneratorFunc(func(Coords) Data { return Data{} }))

	var mu sync.Mutex
	received := 0
	ch := make(chan ChunkSync, 1)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for range ch {
			mu.Lock()
			received++
			mu.Unlock()
		}
	}()

	chunk.subscribe(ch)
	chunk.GenerateData()
	chunk.unsubscribe(ch)

	remaining := 0
	chunk.forEachSubscriber(func(Subscriber) { remaining++ })
	require.Zero(t, remaining, "unsubscribed channel must not receive further broadcasts")

	close(ch)
	<-readerDone

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, received)
}
