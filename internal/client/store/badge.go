package store

import (
	"context"
	"sync"
)

// badgeWorker forwards unread counts to a BadgePublisher from its own
// goroutine. Only the latest pending value is kept.
type badgeWorker struct {
	pub BadgePublisher
	ctx context.Context

	mu     sync.Mutex
	ch     chan int
	closed bool
	done   chan struct{}
}

func newBadgeWorker(ctx context.Context, pub BadgePublisher) *badgeWorker {
	w := &badgeWorker{pub: pub, ctx: ctx, ch: make(chan int, 1), done: make(chan struct{})}
	go w.run()
	return w
}

func (w *badgeWorker) run() {
	defer close(w.done)
	for n := range w.ch {
		w.pub.SetUnreadCount(w.ctx, n)
	}
}

// publish never blocks. A value still waiting in the buffer is replaced.
func (w *badgeWorker) publish(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.ch <- n:
		return
	default:
	}
	select {
	case <-w.ch:
	default:
	}
	w.ch <- n
}

func (w *badgeWorker) close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
	w.mu.Unlock()
	<-w.done
}
