package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/calendar"
	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/linkx"
	"github.com/dmitrijs2005/chatkeeper/internal/sanitize"
	"github.com/dmitrijs2005/chatkeeper/internal/timeparse"
)

// absoluteLayouts are accepted by /remind in addition to natural phrases.
var absoluteLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

// Submit classifies and stores a chat line.
func (a *App) Submit(ctx context.Context, text string) error {
	m, err := a.store.Submit(ctx, text)
	if err != nil {
		return err
	}

	a.printf("saved %s %s\n", typeLabel(m.Type), gray(shortID(m.ID)))
	switch {
	case m.ReminderDate != nil:
		a.printf("reminder set for %s\n", cyan(m.ReminderDate.Format(dateLayout)))
	case m.Type == models.TypeReminder:
		a.printf("no time recognised, use /remind %s <when>\n", shortID(m.ID))
	}
	return nil
}

// AddNote reads a multi-line note and stores it without classification.
func (a *App) AddNote(ctx context.Context) error {
	raw, err := GetMultiline(a.reader, "Enter note text:", a.out)
	if err != nil {
		return err
	}
	text, err := sanitize.Prepare(raw)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return common.ErrEmptyContent
	}

	m, err := a.store.Add(ctx, text, models.TypeNote)
	if err != nil {
		return err
	}
	a.printf("saved %s %s\n", typeLabel(m.Type), gray(shortID(m.ID)))
	return nil
}

// List prints messages newest first, optionally filtered by type.
func (a *App) List(ctx context.Context, args []string) error {
	filter, err := parseFilter(args)
	if err != nil {
		return err
	}

	msgs := a.store.List(filter)
	if len(msgs) == 0 {
		a.println("no messages")
		return nil
	}
	for _, m := range msgs {
		a.println(formatLine(m))
	}
	return nil
}

// Show prints one message with its link previews and marks it read.
func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.resolveID(args)
	if err != nil {
		return err
	}
	if err := a.store.MarkAsRead(ctx, id); err != nil {
		return err
	}

	m, ok := a.store.Get(id)
	if !ok {
		return common.ErrorNotFound
	}

	previews := make([]string, 0, len(m.Links))
	for _, l := range m.Links {
		previews = append(previews, linkx.Render(l))
	}
	a.println(formatDetails(m, previews))
	return nil
}

// Done toggles completion.
func (a *App) Done(ctx context.Context, args []string) error {
	id, err := a.resolveID(args)
	if err != nil {
		return err
	}
	if err := a.store.ToggleCompleted(ctx, id); err != nil {
		return err
	}
	if m, ok := a.store.Get(id); ok {
		a.println(formatLine(m))
	}
	return nil
}

// Remind schedules (or reschedules) a reminder for a message.
func (a *App) Remind(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	id, err := a.resolveID(args[:1])
	if err != nil {
		return err
	}

	at, err := parseWhen(strings.Join(args[1:], " "), a.clock())
	if err != nil {
		return err
	}

	if err := a.store.SetReminderDate(ctx, id, at); err != nil {
		return err
	}
	a.printf("reminder set for %s\n", cyan(at.Format(dateLayout)))
	return nil
}

// Cancel removes a reminder.
func (a *App) Cancel(ctx context.Context, args []string) error {
	id, err := a.resolveID(args)
	if err != nil {
		return err
	}
	if err := a.store.CancelReminder(ctx, id); err != nil {
		return err
	}
	a.println("reminder cancelled")
	return nil
}

// Delete removes a message and its reminder.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.resolveID(args)
	if err != nil {
		return err
	}
	if err := a.store.DeleteMessage(ctx, id); err != nil {
		return err
	}
	a.println("deleted", gray(shortID(id)))
	return nil
}

// Clear deletes every message, or every message of one type, after
// confirmation.
func (a *App) Clear(ctx context.Context, args []string) error {
	filter, err := parseFilter(args)
	if err != nil {
		return err
	}

	n := len(a.store.List(filter))
	if n == 0 {
		a.println("no messages")
		return nil
	}

	answer, err := GetSimpleText(a.reader, fmt.Sprintf("Delete %d messages? [y/N]", n), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		a.println("cancelled")
		return nil
	}

	if err := a.store.DeleteAllMessages(ctx, filter); err != nil {
		return err
	}
	a.printf("deleted %d messages\n", n)
	return nil
}

// Encrypt replaces a message text with its ciphertext.
func (a *App) Encrypt(ctx context.Context, args []string) error {
	id, err := a.resolveID(args)
	if err != nil {
		return err
	}
	if err := a.store.EncryptMessage(ctx, id); err != nil {
		return err
	}
	a.println("encrypted", gray(shortID(id)))
	return nil
}

// Decrypt restores a message text.
func (a *App) Decrypt(ctx context.Context, args []string) error {
	id, err := a.resolveID(args)
	if err != nil {
		return err
	}
	if err := a.store.DecryptMessage(ctx, id); err != nil {
		return err
	}
	a.println("decrypted", gray(shortID(id)))
	return nil
}

type eventLister interface {
	Events(ctx context.Context) ([]calendar.StoredEvent, error)
}

// Calendar lists stored calendar entries, or tells where exported files go.
func (a *App) Calendar(ctx context.Context) error {
	lister, ok := a.platform.calendar.(eventLister)
	if !ok {
		a.printf("calendar files are exported to %s\n", a.config.ExportDir)
		return nil
	}

	events, err := lister.Events(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		a.println("no calendar entries")
		return nil
	}
	for _, e := range events {
		a.printf("%s %s %s\n", gray(shortID(e.ID)), cyan(e.Start.Local().Format(dateLayout)), e.Title)
	}
	return nil
}

// resolveID maps a unique id prefix from args[0] to a full message id.
func (a *App) resolveID(args []string) (string, error) {
	if len(args) == 0 {
		return "", errUsage
	}
	prefix := strings.ToLower(args[0])

	var found string
	for _, m := range a.store.List("") {
		if !strings.HasPrefix(m.ID, prefix) {
			continue
		}
		if found != "" {
			return "", fmt.Errorf("%w: ambiguous id %q", common.ErrValidation, args[0])
		}
		found = m.ID
	}
	if found == "" {
		return "", fmt.Errorf("message %q: %w", args[0], common.ErrorNotFound)
	}
	return found, nil
}

func (a *App) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func parseFilter(args []string) (models.MessageType, error) {
	if len(args) == 0 {
		return "", nil
	}
	t, err := models.ParseMessageType(strings.ToLower(args[0]))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return t, nil
}

// parseWhen reads an absolute local date-time or a natural phrase
// ("tomorrow 9am", "um 14:30"). Absolute times in the past are rejected.
func parseWhen(s string, now time.Time) (time.Time, error) {
	for _, layout := range absoluteLayouts {
		at, err := time.ParseInLocation(layout, s, now.Location())
		if err != nil {
			continue
		}
		if at.Before(now) {
			return time.Time{}, fmt.Errorf("%w: %s is in the past", common.ErrValidation, at.Format(dateLayout))
		}
		return at, nil
	}
	if at, ok := timeparse.Extract(s, now); ok {
		return at, nil
	}
	return time.Time{}, fmt.Errorf("%w: cannot understand time %q", common.ErrValidation, s)
}
