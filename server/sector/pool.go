package sector

import (
	"context"
	"runtime"

	"github.com/segmentio/fasthash/fnv1a"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// shardFor picks the worker shard a chunk's tasks should serialize onto, so
// two tasks addressing the same chunk are never run concurrently on two
// different goroutines. That is a scheduling guard on top of, not a
// replacement for, the unique-reference check in
// SpeculativeGenerateData/SpeculativeGenerateCollision: neither guard alone
// rules out every duplicate-work race.
func shardFor(coords Coords, shards int) int {
	return int(fnv1a.HashUint64(uint64(coords.Hash())) % uint64(shards))
}

// Pool is the sector's background compute pool: the speculative generation
// and meshing work submitted by GetChunk/TickLock runs here rather than on
// the caller's goroutine. The tick thread still builds a chunk's mesh itself
// when handling TickLockChunk if no speculative build has finished it yet.
// It is sized to GOMAXPROCS-1, leaving a core free for the tick
// thread itself, and yields to it by construction rather than by priority: a
// weighted semaphore simply refuses to admit more concurrent work than that.
type Pool struct {
	sem    *semaphore.Weighted
	shards []chan func()
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewPool starts a compute pool with workers bounded to GOMAXPROCS-1 (never
// fewer than 1), supervised by an errgroup so Close can wait for every
// worker goroutine to actually exit rather than merely signalling them.
// Call Close to stop accepting work and drain in-flight tasks.
func NewPool() *Pool {
	workers := runtime.GOMAXPROCS(0) - 1
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	p := &Pool{
		sem:    semaphore.NewWeighted(int64(workers)),
		shards: make([]chan func(), workers),
		cancel: cancel,
		group:  group,
	}
	for i := range p.shards {
		shard := make(chan func(), 64)
		p.shards[i] = shard
		group.Go(func() error {
			p.run(ctx, shard)
			return nil
		})
	}
	return p
}

func (p *Pool) run(ctx context.Context, shard chan func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-shard:
			p.exec(ctx, fn)
		}
	}
}

func (p *Pool) exec(ctx context.Context, fn func()) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer p.sem.Release(1)
	fn()
}

// Submit schedules fn on the shard owned by coords, so repeated submissions
// for the same chunk serialize against one another. fn is dropped silently
// if its shard's backlog is full or Close has already been called: mirrors
// the "speculative, not a correctness contract" design note — nothing
// downstream depends on a submitted task actually running.
func (p *Pool) Submit(coords Coords, fn func()) {
	shard := p.shards[shardFor(coords, len(p.shards))]
	select {
	case shard <- fn:
	default:
	}
}

// Close stops the pool from accepting further work and blocks until every
// worker goroutine has exited. In-flight tasks run to completion;
// queued-but-not-started tasks are abandoned.
func (p *Pool) Close() {
	p.cancel()
	_ = p.group.Wait()
}
