package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/notifications"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/google/uuid"
)

// QueueScheduler stores notifications in a repository and delivers them
// from a polling loop started with Run.
type QueueScheduler struct {
	repo     notifications.Repository
	deliver  Deliverer
	log      logging.Logger
	interval time.Duration
	now      func() time.Time
}

func NewQueueScheduler(repo notifications.Repository, d Deliverer, interval time.Duration, l logging.Logger) *QueueScheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &QueueScheduler{
		repo:     repo,
		deliver:  d,
		log:      l.With("component", "queue-scheduler"),
		interval: interval,
		now:      time.Now,
	}
}

func (s *QueueScheduler) Schedule(ctx context.Context, n Notification) (string, error) {
	id := uuid.NewString()
	err := s.repo.Insert(ctx, models.QueuedNotification{
		ID:     id,
		Title:  n.Title,
		Body:   n.Body,
		Data:   n.MessageID,
		FireAt: n.At,
	})
	if err != nil {
		return "", err
	}
	s.log.Debug(ctx, "notification queued", "id", id, "at", n.At, "message_id", n.MessageID)
	return id, nil
}

// Cancel removes a queued notification. Unknown ids are ignored.
func (s *QueueScheduler) Cancel(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Run polls the queue every interval until ctx is done. Notifications that
// came due while the process was down fire on the first tick.
func (s *QueueScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Poll(ctx); err != nil {
				s.log.Warn(ctx, "notification poll failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Poll delivers every due notification once.
func (s *QueueScheduler) Poll(ctx context.Context) error {
	due, err := s.repo.Due(ctx, s.now())
	if err != nil {
		return err
	}

	for _, q := range due {
		if err := s.repo.MarkDelivered(ctx, q.ID); err != nil {
			return fmt.Errorf("deliver %s: %w", q.ID, err)
		}
		s.deliver.Deliver(ctx, Notification{
			Title:     q.Title,
			Body:      q.Body,
			At:        q.FireAt,
			MessageID: q.Data,
		})
	}
	return nil
}
