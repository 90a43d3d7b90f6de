package cli

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/calendar"
	"github.com/dmitrijs2005/chatkeeper/internal/client/config"
	"github.com/dmitrijs2005/chatkeeper/internal/client/database"
	"github.com/dmitrijs2005/chatkeeper/internal/client/store"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/encryption"
	"github.com/dmitrijs2005/chatkeeper/internal/linkx"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/dmitrijs2005/chatkeeper/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

// newTestApp wires an App over a temporary SQLite file with the native
// backends and a fixed clock. input feeds the interactive prompts.
func newTestApp(t *testing.T, input string) (*App, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	nop := logging.NewNop()

	db, err := database.Open(ctx, filepath.Join(dir, "chat.db"))
	require.NoError(t, err)

	cal, err := calendar.NewDirectoryCalendar(filepath.Join(dir, "calendar"), nop)
	require.NoError(t, err)

	var out bytes.Buffer
	a := &App{
		config: &config.Config{ExportDir: dir},
		log:    nop,
		db:     db,
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    &out,
		now:    func() time.Time { return testNow },
	}
	a.cipher = encryption.NewService(db.Metadata())
	a.platform = &platform{
		name:     config.PlatformNative,
		notifier: notify.NewQueueScheduler(db.Notifications(), notify.DelivererFunc(a.deliver), time.Second, nop),
		calendar: cal,
		run:      func(context.Context) {},
		close:    func() {},
	}
	a.store, err = store.New(ctx,
		store.WithPersister(db.Messages()),
		store.WithNotifier(a.platform.notifier),
		store.WithCalendar(cal),
		store.WithCipher(a.cipher),
		store.WithBadge(a),
		store.WithClock(a.now),
	)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, &out
}

func testConfig(t *testing.T, p config.Platform) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = filepath.Join(dir, "chat.db")
	cfg.CalendarDir = filepath.Join(dir, "calendar")
	cfg.ExportDir = filepath.Join(dir, "export")
	cfg.Platform = p
	cfg.PreviewProvider = config.PreviewNone
	cfg.LogLevel = "error"
	return cfg
}

func TestNewApp_Platforms(t *testing.T) {
	tests := []struct {
		platform config.Platform
		notifier any
		calendar any
	}{
		{config.PlatformNative, &notify.QueueScheduler{}, &calendar.DirectoryCalendar{}},
		{config.PlatformWeb, &notify.TimerScheduler{}, &calendar.ExportCalendar{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			a, err := NewApp(context.Background(), testConfig(t, tt.platform))
			require.NoError(t, err)
			defer a.Close()

			assert.Equal(t, tt.platform, a.platform.name)
			assert.IsType(t, tt.notifier, a.platform.notifier)
			assert.IsType(t, tt.calendar, a.platform.calendar)
		})
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, "desktop")

	_, err := NewApp(context.Background(), cfg)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestApp_RunPersistsAcrossRestarts(t *testing.T) {
	printed := capturePrintln(t)
	ctx := context.Background()
	cfg := testConfig(t, config.PlatformNative)

	a, err := NewApp(ctx, cfg)
	require.NoError(t, err)
	var out bytes.Buffer
	a.out = &out
	a.reader = bufio.NewReader(strings.NewReader("todo buy milk\n/list\n/exit\n"))

	a.Run(ctx)

	assert.Contains(t, out.String(), "[ ] Buy milk")
	assert.Contains(t, strings.Join(*printed, "\n"), "Bye!")

	db, err := database.Open(ctx, cfg.DatabaseDSN)
	require.NoError(t, err)
	defer db.Close()

	msgs, err := db.Messages().Load(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Buy milk", msgs[0].Text)
}

func TestApp_UnreadStatus(t *testing.T) {
	a, _ := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.Submit(ctx, "todo buy milk"))
	require.Eventually(t, func() bool { return a.getStatus() == "(1 unread)" }, time.Second, 5*time.Millisecond)

	id := a.store.List("")[0].ID
	require.NoError(t, a.Show(ctx, []string{shortID(id)}))
	require.Eventually(t, func() bool { return a.getStatus() == "" }, time.Second, 5*time.Millisecond)
}

func TestApp_DeliverRingsBell(t *testing.T) {
	a, out := newTestApp(t, "")

	a.deliver(context.Background(), notify.Notification{Title: "Reminder", Body: "Call mom", MessageID: "0123456789abcdef"})

	assert.True(t, strings.HasPrefix(out.String(), "\a"))
	assert.Contains(t, out.String(), "Call mom")
	assert.Contains(t, out.String(), "01234567")
}

func TestNewFetcher(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	f, err := newFetcher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &linkx.CachedFetcher{}, f)

	cfg.PreviewProvider = config.PreviewHTML
	f, err = newFetcher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &linkx.CachedFetcher{}, f)

	cfg.PreviewProvider = config.PreviewNone
	f, err = newFetcher(cfg)
	require.NoError(t, err)
	assert.Nil(t, f)
}
