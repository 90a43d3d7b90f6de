package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onlyMessage(t *testing.T, a *App, typ models.MessageType) models.Message {
	t.Helper()
	msgs := a.store.List(typ)
	require.Len(t, msgs, 1)
	return msgs[0]
}

func outputLines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestApp_SubmitAndList(t *testing.T) {
	a, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.Submit(ctx, "todo buy milk"))
	require.NoError(t, a.Submit(ctx, "just a thought"))
	assert.Contains(t, out.String(), "saved")

	out.Reset()
	require.NoError(t, a.List(ctx, nil))
	lines := outputLines(out.String())
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Just a thought")
	assert.Contains(t, lines[1], "[ ] Buy milk")

	out.Reset()
	require.NoError(t, a.List(ctx, []string{"todos"}))
	assert.Len(t, outputLines(out.String()), 1)

	assert.ErrorIs(t, a.List(ctx, []string{"bogus"}), common.ErrValidation)
	assert.ErrorIs(t, a.Submit(ctx, "todo"), common.ErrEmptyContent)
}

func TestApp_ListEmpty(t *testing.T) {
	a, out := newTestApp(t, "")

	require.NoError(t, a.List(context.Background(), nil))
	assert.Equal(t, "no messages\n", out.String())
}

func TestApp_ReminderWithoutTime(t *testing.T) {
	a, out := newTestApp(t, "")

	require.NoError(t, a.Submit(context.Background(), "remind me to water plants"))
	assert.Contains(t, out.String(), "no time recognised")
	assert.Nil(t, onlyMessage(t, a, models.TypeReminder).ReminderDate)
}

func TestApp_ReminderLifecycle(t *testing.T) {
	a, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.Submit(ctx, "remind me to call mom tomorrow at 3pm"))
	assert.Contains(t, out.String(), "reminder set for 2024-01-02 15:00")

	m := onlyMessage(t, a, models.TypeReminder)
	pending, err := a.db.Notifications().Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, m.ID, pending[0].Data)

	out.Reset()
	require.NoError(t, a.Calendar(ctx))
	assert.Contains(t, out.String(), "2024-01-02 15:00")
	assert.Contains(t, out.String(), "Call mom")

	require.NoError(t, a.Remind(ctx, []string{shortID(m.ID), "2024-03-05", "08:15"}))
	m = onlyMessage(t, a, models.TypeReminder)
	require.NotNil(t, m.ReminderDate)
	assert.True(t, m.ReminderDate.Equal(time.Date(2024, 3, 5, 8, 15, 0, 0, time.Local)))

	pending, err = a.db.Notifications().Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "rescheduling replaces the previous alert")

	require.NoError(t, a.Cancel(ctx, []string{shortID(m.ID)}))
	m = onlyMessage(t, a, models.TypeReminder)
	assert.Nil(t, m.ReminderDate)
	assert.Empty(t, m.NotificationID)

	pending, err = a.db.Notifications().Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	out.Reset()
	require.NoError(t, a.Calendar(ctx))
	assert.Equal(t, "no calendar entries\n", out.String())
}

func TestApp_RemindErrors(t *testing.T) {
	a, _ := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.Submit(ctx, "just a note"))
	id := shortID(onlyMessage(t, a, models.TypeNote).ID)

	assert.ErrorIs(t, a.Remind(ctx, []string{id}), common.ErrValidation)
	assert.ErrorIs(t, a.Remind(ctx, []string{id, "2023-12-31", "10:00"}), common.ErrValidation)
	assert.ErrorIs(t, a.Remind(ctx, []string{id, "whenever"}), common.ErrValidation)
	assert.ErrorIs(t, a.Remind(ctx, []string{"zzzzzzzz", "tomorrow"}), common.ErrorNotFound)
}

func TestApp_ShowMarksReadAndRendersLinks(t *testing.T) {
	a, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.Submit(ctx, "look at example.com"))
	m := onlyMessage(t, a, models.TypeNote)
	require.False(t, m.IsRead)

	out.Reset()
	require.NoError(t, a.Show(ctx, []string{shortID(m.ID)}))

	assert.Contains(t, out.String(), m.ID)
	assert.Contains(t, out.String(), "Look at example.com")
	assert.Contains(t, out.String(), "loading preview for http://example.com")
	assert.True(t, onlyMessage(t, a, models.TypeNote).IsRead)

	assert.ErrorIs(t, a.Show(ctx, nil), common.ErrValidation)
	assert.ErrorIs(t, a.Show(ctx, []string{"zzzzzzzz"}), common.ErrorNotFound)
}

func TestApp_DoneTogglesCompletion(t *testing.T) {
	a, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.Submit(ctx, "todo buy milk"))
	id := shortID(onlyMessage(t, a, models.TypeTodo).ID)

	out.Reset()
	require.NoError(t, a.Done(ctx, []string{id}))
	assert.Contains(t, out.String(), "[x] Buy milk")
	assert.True(t, onlyMessage(t, a, models.TypeTodo).IsCompleted)

	require.NoError(t, a.Done(ctx, []string{id}))
	assert.False(t, onlyMessage(t, a, models.TypeTodo).IsCompleted)
}

func TestApp_Delete(t *testing.T) {
	a, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.Submit(ctx, "remind me tomorrow 9am to stretch"))
	m := onlyMessage(t, a, models.TypeReminder)
	require.True(t, m.HasReminder())

	require.NoError(t, a.Delete(ctx, []string{shortID(m.ID)}))
	assert.Contains(t, out.String(), "deleted")
	assert.Empty(t, a.store.List(""))

	pending, err := a.db.Notifications().Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApp_Clear(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		args   []string
		remain int
	}{
		{name: "confirmed", input: "y\n", remain: 0},
		{name: "declined", input: "n\n", remain: 3},
		{name: "only notes", input: "yes\n", args: []string{"notes"}, remain: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApp(t, tt.input)
			ctx := context.Background()

			require.NoError(t, a.Submit(ctx, "todo buy milk"))
			require.NoError(t, a.Submit(ctx, "first note"))
			require.NoError(t, a.Submit(ctx, "second note"))

			require.NoError(t, a.Clear(ctx, tt.args))
			assert.Len(t, a.store.List(""), tt.remain)
		})
	}
}

func TestApp_EncryptDecrypt(t *testing.T) {
	a, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.Submit(ctx, "secret plan"))
	id := shortID(onlyMessage(t, a, models.TypeNote).ID)

	require.NoError(t, a.Encrypt(ctx, []string{id}))
	m := onlyMessage(t, a, models.TypeNote)
	assert.True(t, m.Encrypted)
	assert.NotEqual(t, "Secret plan", m.Text)

	out.Reset()
	require.NoError(t, a.List(ctx, nil))
	assert.Contains(t, out.String(), "<encrypted>")
	assert.NotContains(t, out.String(), "Secret plan")

	require.NoError(t, a.Decrypt(ctx, []string{id}))
	m = onlyMessage(t, a, models.TypeNote)
	assert.False(t, m.Encrypted)
	assert.Equal(t, "Secret plan", m.Text)
}

func TestApp_AddNote(t *testing.T) {
	a, _ := newTestApp(t, "first line\nsecond line\n\n")

	require.NoError(t, a.AddNote(context.Background()))
	assert.Equal(t, "first line\nsecond line", onlyMessage(t, a, models.TypeNote).Text)
}

func TestApp_AddNoteEmpty(t *testing.T) {
	a, _ := newTestApp(t, "\n")

	assert.ErrorIs(t, a.AddNote(context.Background()), common.ErrEmptyContent)
	assert.Empty(t, a.store.List(""))
}

func TestParseWhen(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-03-05 08:15", want: time.Date(2024, 3, 5, 8, 15, 0, 0, time.Local)},
		{in: "2024-03-05T08:15", want: time.Date(2024, 3, 5, 8, 15, 0, 0, time.Local)},
		{in: "tomorrow 9am", want: time.Date(2024, 1, 2, 9, 0, 0, 0, time.Local)},
		{in: "2023-12-31 10:00", wantErr: true},
		{in: "whenever", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseWhen(tt.in, testNow)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", got)
		})
	}
}

func TestFormatLine(t *testing.T) {
	at := time.Date(2024, 1, 2, 15, 0, 0, 0, time.Local)

	todo := models.Message{ID: "0123456789", Type: models.TypeTodo, Text: "Buy milk", IsCompleted: true, IsRead: true}
	assert.Contains(t, formatLine(todo), "[x] Buy milk")
	assert.Contains(t, formatLine(todo), "01234567")
	assert.NotContains(t, formatLine(todo), "0123456789")

	rem := models.Message{ID: "r", Type: models.TypeReminder, Text: "Call", ReminderDate: &at, NotificationID: "n"}
	assert.Contains(t, formatLine(rem), "@ 2024-01-02 15:00")

	enc := models.Message{ID: "e", Type: models.TypeNote, Text: "c2VjcmV0", Encrypted: true,
		Links: []models.LinkPreview{{URL: "http://a.example"}}}
	assert.Contains(t, formatLine(enc), "<encrypted>")
	assert.Contains(t, formatLine(enc), "(1 links)")
}
