package tilescene

import (
	"context"
	"sync"
	"time"
)

// Spawner starts background work. Work started this way must report back
// through Loop.Post and never touch layer state directly.
type Spawner func(fn func())

func GoSpawner(fn func()) { go fn() }

// Loop is the single cooperative thread that owns all layer state: viewport
// signals, network completions and frame ticks are processed one at a time
// in the order they were posted.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post schedules fn on the loop. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// RunPending runs queued callbacks on the caller's goroutine, including
// ones posted while draining, and returns how many ran.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		n++
	}
}

// Run processes posted callbacks and frame ticks until ctx is done. Posted
// work is drained before each frame so a frame always sees the latest
// completed state.
func (l *Loop) Run(ctx context.Context, frames <-chan time.Time, onFrame func(time.Time)) error {
	for {
		select {
		case <-ctx.Done():
			l.RunPending()
			return ctx.Err()
		case <-l.wake:
			l.RunPending()
		case now, ok := <-frames:
			if !ok {
				frames = nil
				continue
			}
			l.RunPending()
			if onFrame != nil {
				onFrame(now)
			}
		}
	}
}
