package calendar

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() Event {
	start := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	return Event{Title: "Call mom", Start: start, End: start.Add(30 * time.Minute), Notes: "Added from reminders", LeadMinutes: 15}
}

func TestRender_ParsesBack(t *testing.T) {
	out := Render("uid-1", sampleEvent(), time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "BEGIN:VALARM")
	assert.Contains(t, out, "TRIGGER:-PT15M")
	assert.Contains(t, out, "ACTION:DISPLAY")

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	evs := cal.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "uid-1", evs[0].Id())
	assert.Equal(t, "Call mom", evs[0].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "Added from reminders", evs[0].GetProperty(ics.ComponentPropertyDescription).Value)

	start, err := evs[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(sampleEvent().Start))
	end, err := evs[0].GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, end.Sub(start))
}

func TestRender_NoAlarmWithoutLead(t *testing.T) {
	e := sampleEvent()
	e.LeadMinutes = 0
	assert.NotContains(t, Render("x", e, time.Now()), "BEGIN:VALARM")
}

func TestDirectoryCalendar_AddListRemove(t *testing.T) {
	ctx := context.Background()
	c, err := NewDirectoryCalendar(filepath.Join(t.TempDir(), "cal"), logging.NewNop())
	require.NoError(t, err)

	later := sampleEvent()
	later.Title = "Later"
	later.Start = later.Start.Add(24 * time.Hour)
	later.End = later.Start.Add(30 * time.Minute)

	id2, err := c.AddEvent(ctx, later)
	require.NoError(t, err)
	id1, err := c.AddEvent(ctx, sampleEvent())
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	evs, err := c.Events(ctx)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, id1, evs[0].ID)
	assert.Equal(t, "Call mom", evs[0].Title)
	assert.Equal(t, "Later", evs[1].Title)

	assert.True(t, c.RemoveEvent(ctx, id1))
	assert.False(t, c.RemoveEvent(ctx, id1))
	assert.False(t, c.RemoveEvent(ctx, "../../etc/passwd"))
	assert.False(t, c.RemoveEvent(ctx, ""))

	evs, err = c.Events(ctx)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, id2, evs[0].ID)
}

func TestDirectoryCalendar_AddFailsWhenDirGone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cal")
	c, err := NewDirectoryCalendar(dir, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	id, err := c.AddEvent(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Empty(t, id)
}

func TestExportCalendar(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewExportCalendar(dir, logging.NewNop())
	require.NoError(t, err)
	c.now = func() time.Time { return time.UnixMilli(1_700_000_000_123) }

	id, err := c.AddEvent(ctx, sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, ExportHandle, id)

	data, err := os.ReadFile(filepath.Join(dir, "reminder-1700000000123.ics"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:Call mom")

	assert.True(t, c.RemoveEvent(ctx, id))
	assert.True(t, c.RemoveEvent(ctx, "anything"))
}
