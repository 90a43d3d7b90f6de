package calendar

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/filex"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/google/uuid"
)

// ExportHandle is returned for every exported event. Exported files are
// not tracked, so all events share it.
const ExportHandle = "web-calendar-event"

// ExportCalendar writes reminder-<unix millis>.ics files for the user to
// import by hand.
type ExportCalendar struct {
	dir string
	log logging.Logger
	now func() time.Time
}

func NewExportCalendar(dir string, l logging.Logger) (*ExportCalendar, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &ExportCalendar{dir: abs, log: l.With("component", "calendar-export"), now: time.Now}, nil
}

func (c *ExportCalendar) AddEvent(ctx context.Context, e Event) (string, error) {
	now := c.now()
	name := fmt.Sprintf("reminder-%d.ics", now.UnixMilli())
	path := filepath.Join(c.dir, name)

	if err := filex.WriteFileAtomic(path, []byte(Render(uuid.NewString(), e, now)), 0o644); err != nil {
		return "", err
	}
	c.log.Info(ctx, "calendar file exported", "file", path)
	return ExportHandle, nil
}

// RemoveEvent cannot reach exported files and always succeeds.
func (c *ExportCalendar) RemoveEvent(ctx context.Context, id string) bool {
	return true
}
