// File: actor/runqueue.go
package actor

import (
	"context"
	"sync"
)

// runQueue is the unbounded FIFO of scheduled processes shared by the
// workers. A process is in the queue at most once, guarded by its state.
type runQueue struct {
	mu     sync.Mutex
	items  []*process
	signal chan struct{}
}

func newRunQueue() *runQueue {
	return &runQueue{signal: make(chan struct{}, 1)}
}

func (q *runQueue) push(p *process) {
	q.mu.Lock()
	q.items = append(q.items, p)
	q.mu.Unlock()
	q.wake()
}

func (q *runQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// pop blocks until a process is available or ctx is done.
func (q *runQueue) pop(ctx context.Context) (*process, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			p := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.wake()
			}
			return p, true
		}
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, false
		case <-q.signal:
		}
	}
}
