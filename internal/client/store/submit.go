package store

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/chatkeeper/internal/classify"
	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/sanitize"
	"github.com/dmitrijs2005/chatkeeper/internal/timeparse"
)

// Submit turns raw chat input into a record.
//
// The input is validated and sanitized, classified, and stored. For
// reminders the time is read from the raw input; when one is found the
// alert is scheduled right away. A scheduling failure is logged and the
// record is returned without a reminder. Validation failures create
// nothing and match common.ErrValidation.
func (s *Store) Submit(ctx context.Context, raw string) (models.Message, error) {
	text, err := sanitize.Prepare(raw)
	if err != nil {
		return models.Message{}, err
	}

	res := classify.Classify(text)
	if strings.TrimSpace(res.Text) == "" {
		return models.Message{}, common.ErrEmptyContent
	}

	m, err := s.Add(ctx, res.Text, res.Type)
	if err != nil {
		return models.Message{}, err
	}

	if res.Type != models.TypeReminder {
		return m, nil
	}

	at, ok := timeparse.Extract(raw, s.now())
	if !ok {
		s.log.Debug(ctx, "reminder without time", "id", m.ID)
		return m, nil
	}

	if err := s.SetReminderDate(ctx, m.ID, at); err != nil {
		s.log.Warn(ctx, "reminder not scheduled", "id", m.ID, "error", err)
	}

	if cur, ok := s.Get(m.ID); ok {
		return cur, nil
	}
	return m, nil
}
