package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/calendar"
	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/notify"
	"golang.org/x/sync/errgroup"
)

const teardownParallelism = 8

// SetReminderDate schedules (or reschedules) the alert for id at the given
// time and mirrors it to the calendar.
//
// An existing alert and calendar entry are torn down first, best-effort.
// A calendar failure leaves CalendarEventID empty but keeps the alert. If
// the new alert cannot be scheduled the record ends up without a reminder
// and the error wraps common.ErrExternalService. Unknown ids are no-ops.
func (s *Store) SetReminderDate(ctx context.Context, id string, at time.Time) error {
	unlock := s.locks.lock(id)
	defer unlock()

	cur, ok := s.Get(id)
	if !ok {
		return nil
	}

	s.teardown(ctx, cur)

	if s.notifier == nil {
		s.clearReminder(ctx, id)
		return fmt.Errorf("%w: %w", common.ErrExternalService, errNoNotifier)
	}

	notificationID, err := s.notifier.Schedule(ctx, notify.Notification{
		Title:     reminderTitle,
		Body:      s.reminderBody(ctx, cur),
		At:        at,
		MessageID: id,
	})
	if err != nil {
		s.clearReminder(ctx, id)
		return fmt.Errorf("%w: schedule notification: %w", common.ErrExternalService, err)
	}

	calendarID := s.addCalendarEntry(ctx, cur, at)

	reminder := at
	_, found := s.update(id, func(m *models.Message) bool {
		m.ReminderDate = &reminder
		m.NotificationID = notificationID
		m.CalendarEventID = calendarID
		return true
	})
	if !found {
		s.teardown(ctx, models.Message{ID: id, NotificationID: notificationID, CalendarEventID: calendarID})
		return nil
	}

	s.log.Info(ctx, "reminder scheduled", "id", id, "at", at, "calendar", calendarID != "")
	s.committed(ctx, Change{Op: OpUpdate, ID: id}, false)
	return nil
}

// CancelReminder removes the active alert and calendar entry of id and
// clears its reminder fields. Records without an alert are left alone.
func (s *Store) CancelReminder(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	cur, ok := s.Get(id)
	if !ok || !cur.HasReminder() {
		return nil
	}

	s.teardown(ctx, cur)
	s.clearReminder(ctx, id)
	s.log.Info(ctx, "reminder cancelled", "id", id)
	return nil
}

// DeleteMessage tears down the external resources of id and removes it.
// Teardown failures are logged and never block the deletion.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	cur, ok := s.Get(id)
	if !ok {
		return nil
	}

	s.teardown(ctx, cur)
	if s.remove(map[string]bool{id: true}) > 0 {
		s.log.Debug(ctx, "message deleted", "id", id)
		s.committed(ctx, Change{Op: OpDelete, ID: id}, true)
	}
	return nil
}

// DeleteAllMessages deletes every record of type filter, or every record
// when filter is empty. External teardown runs in parallel; the records
// are removed in a single mutation.
func (s *Store) DeleteAllMessages(ctx context.Context, filter models.MessageType) error {
	targets := s.List(filter)
	if len(targets) == 0 {
		return nil
	}

	ids := make([]string, len(targets))
	for i, m := range targets {
		ids[i] = m.ID
	}
	sort.Strings(ids)

	unlock := s.locks.lockAll(ids)
	defer unlock()

	// re-read under the locks; earlier transitions may have changed handles
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	var current []models.Message
	for _, m := range s.List(filter) {
		if set[m.ID] {
			current = append(current, m)
		}
	}

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(teardownParallelism)
	for _, m := range current {
		g.Go(func() error {
			s.teardown(gctx, m)
			return nil
		})
	}
	_ = g.Wait()

	removed := make(map[string]bool, len(current))
	for _, m := range current {
		removed[m.ID] = true
	}
	if n := s.remove(removed); n > 0 {
		s.log.Info(ctx, "messages deleted", "count", n, "type", filter)
		s.committed(ctx, Change{Op: OpDeleteAll}, true)
	}
	return nil
}

// teardown cancels the alert and removes the calendar entry of m.
func (s *Store) teardown(ctx context.Context, m models.Message) {
	if m.NotificationID != "" && s.notifier != nil {
		if err := s.notifier.Cancel(ctx, m.NotificationID); err != nil {
			s.log.Warn(ctx, "cancel notification failed", "id", m.ID, "notification", m.NotificationID, "error", err)
		}
	}
	if m.CalendarEventID != "" && s.calendar != nil {
		if !s.calendar.RemoveEvent(ctx, m.CalendarEventID) {
			s.log.Warn(ctx, "remove calendar event failed", "id", m.ID, "event", m.CalendarEventID)
		}
	}
}

func (s *Store) clearReminder(ctx context.Context, id string) {
	_, changed := s.update(id, func(m *models.Message) bool {
		if m.ReminderDate == nil && m.NotificationID == "" && m.CalendarEventID == "" {
			return false
		}
		m.ReminderDate = nil
		m.NotificationID = ""
		m.CalendarEventID = ""
		return true
	})
	if changed {
		s.committed(ctx, Change{Op: OpUpdate, ID: id}, false)
	}
}

func (s *Store) addCalendarEntry(ctx context.Context, m models.Message, at time.Time) string {
	if s.calendar == nil {
		return ""
	}
	id, err := s.calendar.AddEvent(ctx, calendar.Event{
		Title:       s.reminderBody(ctx, m),
		Start:       at,
		End:         at.Add(calendarDuration),
		Notes:       calendarNotes,
		LeadMinutes: calendarLead,
	})
	if err != nil {
		s.log.Warn(ctx, "calendar mirror failed", "id", m.ID, "error", err)
		return ""
	}
	return id
}

// reminderBody is the text shown in alerts. Encrypted records are
// decrypted when possible.
func (s *Store) reminderBody(ctx context.Context, m models.Message) string {
	if !m.Encrypted || s.cipher == nil {
		return m.Text
	}
	plain, err := s.cipher.Decrypt(ctx, m.Text)
	if err != nil {
		return m.Text
	}
	return plain
}
