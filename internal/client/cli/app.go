package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/config"
	"github.com/dmitrijs2005/chatkeeper/internal/client/database"
	"github.com/dmitrijs2005/chatkeeper/internal/client/store"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/encryption"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/dmitrijs2005/chatkeeper/internal/notify"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	db       *database.Manager
	cipher   *encryption.Service
	platform *platform
	store    *store.Store

	reader *bufio.Reader
	outMu  sync.Mutex
	out    io.Writer
	now    func() time.Time

	unread      atomic.Int64
	unsubscribe func()
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewApp opens the database and builds every long-lived component once.
// With ProtectKey set the key passphrase is read from the terminal.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config: c,
		log:    logging.New(c.LogLevel, os.Stderr),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		now:    time.Now,
	}

	db, err := database.Open(ctx, c.DatabaseDSN)
	if err != nil {
		a.log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}
	a.db = db

	encOpts := []encryption.Option{encryption.WithLogger(a.log)}
	if c.ProtectKey {
		pw, err := GetPassword(a.out, "Enter key passphrase: ")
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("read passphrase: %w", err)
		}
		encOpts = append(encOpts, encryption.WithPassphrase(pw))
	}
	a.cipher = encryption.NewService(db.Metadata(), encOpts...)

	a.platform, err = newPlatform(c, db, notify.DelivererFunc(a.deliver), a.log)
	if err != nil {
		a.cipher.Close()
		_ = db.Close()
		return nil, err
	}

	fetcher, err := newFetcher(c)
	if err != nil {
		a.platform.close()
		a.cipher.Close()
		_ = db.Close()
		return nil, err
	}

	a.store, err = store.New(ctx,
		store.WithPersister(db.Messages()),
		store.WithNotifier(a.platform.notifier),
		store.WithCalendar(a.platform.calendar),
		store.WithCipher(a.cipher),
		store.WithFetcher(fetcher),
		store.WithBadge(a),
		store.WithLogger(a.log),
	)
	if err != nil {
		a.platform.close()
		a.cipher.Close()
		_ = db.Close()
		return nil, err
	}

	a.unsubscribe = a.store.Subscribe(func(ch store.Change) {
		a.log.Debug(context.Background(), "store changed", "op", ch.Op, "id", ch.ID)
	})

	return a, nil
}

// Run starts the platform background loop and blocks in the REPL until the
// user exits or input ends. Everything is closed on return.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer a.Close()
	defer cancel()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.platform.run(ctx)
	}()

	printlnFn("Welcome to chatkeeper (type /help for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close stops background work and releases the database. It waits for the
// platform loop, so the context passed to Run must be cancelled first.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.wg.Wait()
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		if a.store != nil {
			_ = a.store.Close()
		}
		if a.platform != nil {
			a.platform.close()
		}
		if a.cipher != nil {
			a.cipher.Close()
		}
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				a.log.Error(context.Background(), "error closing database", "error", err)
			}
		}
	})
}

// SetUnreadCount implements store.BadgePublisher; the count is shown in the prompt.
func (a *App) SetUnreadCount(ctx context.Context, n int) {
	a.unread.Store(int64(n))
}

func (a *App) getStatus() string {
	n := a.unread.Load()
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("(%d unread)", n)
}

// deliver presents a fired reminder. It runs on scheduler goroutines.
func (a *App) deliver(ctx context.Context, n notify.Notification) {
	a.printf("\a%s %s %s\n", bold(n.Title+":"), n.Body, gray("["+shortID(n.MessageID)+"]"))
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

var errUsage = fmt.Errorf("%w: wrong arguments", common.ErrValidation)
