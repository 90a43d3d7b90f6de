package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
)

// TimerScheduler fires notifications with time.AfterFunc. Pending alerts
// are lost when the process exits.
type TimerScheduler struct {
	deliver Deliverer
	log     logging.Logger
	now     func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewTimerScheduler(d Deliverer, l logging.Logger) *TimerScheduler {
	return &TimerScheduler{
		deliver: d,
		log:     l.With("component", "timer-scheduler"),
		now:     time.Now,
		timers:  make(map[string]*time.Timer),
	}
}

// Schedule arms a timer for n.At. Times in the past fire immediately.
func (s *TimerScheduler) Schedule(ctx context.Context, n Notification) (string, error) {
	id, err := common.MakeRandHexString(8)
	if err != nil {
		return "", fmt.Errorf("generate notification id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("timer scheduler is closed")
	}

	delay := n.At.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, ok := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if !ok {
			return
		}
		s.deliver.Deliver(context.WithoutCancel(ctx), n)
	})

	s.log.Debug(ctx, "notification scheduled", "id", id, "at", n.At, "message_id", n.MessageID)
	return id, nil
}

// Cancel stops a pending timer. Unknown or already fired ids are ignored.
func (s *TimerScheduler) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
		s.log.Debug(ctx, "notification cancelled", "id", id)
	}
	return nil
}

// Pending returns the number of armed timers.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close stops every pending timer.
func (s *TimerScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.closed = true
}
