package calendar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/dmitrijs2005/chatkeeper/internal/filex"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/google/uuid"
)

// StoredEvent is an event read back from a DirectoryCalendar.
type StoredEvent struct {
	ID    string
	Title string
	Start time.Time
}

// DirectoryCalendar stores each event as <id>.ics in dir.
type DirectoryCalendar struct {
	dir string
	log logging.Logger
	now func() time.Time
}

func NewDirectoryCalendar(dir string, l logging.Logger) (*DirectoryCalendar, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &DirectoryCalendar{dir: abs, log: l.With("component", "calendar"), now: time.Now}, nil
}

// AddEvent writes the event file and returns its id. The id is empty when
// the write fails.
func (c *DirectoryCalendar) AddEvent(ctx context.Context, e Event) (string, error) {
	id := uuid.NewString()
	body := Render(id, e, c.now())

	if err := filex.WriteFileAtomic(c.path(id), []byte(body), 0o640); err != nil {
		return "", err
	}
	c.log.Debug(ctx, "calendar event added", "id", id, "start", e.Start)
	return id, nil
}

// RemoveEvent deletes the event file. It reports false for ids that were
// never issued here or whose file is already gone.
func (c *DirectoryCalendar) RemoveEvent(ctx context.Context, id string) bool {
	if uuid.Validate(id) != nil {
		return false
	}
	if err := os.Remove(c.path(id)); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn(ctx, "calendar event removal failed", "id", id, "error", err)
		}
		return false
	}
	c.log.Debug(ctx, "calendar event removed", "id", id)
	return true
}

// Events lists the stored events ordered by start time.
func (c *DirectoryCalendar) Events(ctx context.Context) ([]StoredEvent, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read calendar dir: %w", err)
	}

	var out []StoredEvent
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".ics") || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		evs, err := readEvents(filepath.Join(c.dir, de.Name()))
		if err != nil {
			c.log.Warn(ctx, "skipping unreadable calendar file", "file", de.Name(), "error", err)
			continue
		}
		out = append(out, evs...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (c *DirectoryCalendar) path(id string) string {
	return filepath.Join(c.dir, id+".ics")
}

func readEvents(path string) ([]StoredEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cal, err := ics.ParseCalendar(f)
	if err != nil {
		return nil, err
	}

	var out []StoredEvent
	for _, ev := range cal.Events() {
		se := StoredEvent{ID: ev.Id()}
		if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil {
			se.Title = p.Value
		}
		if start, err := ev.GetStartAt(); err == nil {
			se.Start = start
		}
		out = append(out, se)
	}
	return out, nil
}
