package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/calendar"
	"github.com/dmitrijs2005/chatkeeper/internal/client/config"
	"github.com/dmitrijs2005/chatkeeper/internal/client/database"
	"github.com/dmitrijs2005/chatkeeper/internal/client/store"
	"github.com/dmitrijs2005/chatkeeper/internal/linkx"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/dmitrijs2005/chatkeeper/internal/notify"
)

// platform bundles the backends selected by config.Platform.
type platform struct {
	name     config.Platform
	notifier store.Notifier
	calendar store.Calendar
	run      func(ctx context.Context)
	close    func()
}

func newPlatform(c *config.Config, db *database.Manager, d notify.Deliverer, l logging.Logger) (*platform, error) {
	switch c.Platform {
	case config.PlatformWeb:
		cal, err := calendar.NewExportCalendar(c.ExportDir, l)
		if err != nil {
			return nil, fmt.Errorf("export calendar: %w", err)
		}
		ts := notify.NewTimerScheduler(d, l)
		return &platform{
			name:     c.Platform,
			notifier: ts,
			calendar: cal,
			run:      func(context.Context) {},
			close:    ts.Close,
		}, nil

	case config.PlatformNative:
		cal, err := calendar.NewDirectoryCalendar(c.CalendarDir, l)
		if err != nil {
			return nil, fmt.Errorf("calendar directory: %w", err)
		}
		qs := notify.NewQueueScheduler(db.Notifications(), d, c.NotificationPollInterval, l)
		return &platform{
			name:     c.Platform,
			notifier: qs,
			calendar: cal,
			run:      qs.Run,
			close:    func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown platform %q", c.Platform)
}

// newFetcher returns nil when previews are disabled.
func newFetcher(c *config.Config) (linkx.Fetcher, error) {
	client := linkx.NewHTTPClient(c.PreviewTimeout)

	var f linkx.Fetcher
	switch c.PreviewProvider {
	case config.PreviewNone:
		return nil, nil
	case config.PreviewHTML:
		f = linkx.NewHTMLFetcher(client)
	default:
		f = linkx.NewMicrolinkFetcher(client, linkx.DefaultMicrolinkEndpoint)
	}

	cached, err := linkx.NewCachedFetcher(f, c.PreviewCacheSize, c.PreviewCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("preview cache: %w", err)
	}
	return cached, nil
}
