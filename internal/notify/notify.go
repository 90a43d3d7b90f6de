// Package notify schedules one-shot local alerts. TimerScheduler keeps
// alerts in process memory; QueueScheduler persists them and survives
// restarts.
package notify

import (
	"context"
	"time"
)

// Notification is a single alert. MessageID travels with it as payload.
type Notification struct {
	Title     string
	Body      string
	At        time.Time
	MessageID string
}

// Deliverer presents a fired notification to the user.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification)
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, n Notification)

func (f DelivererFunc) Deliver(ctx context.Context, n Notification) {
	f(ctx, n)
}
