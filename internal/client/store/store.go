// Package store owns the record collection and the reminder lifecycle.
//
// The collection lives in memory behind a RWMutex and is replaced wholesale
// on every mutation, so readers always see a consistent snapshot. Lifecycle
// operations that talk to the notification scheduler or the calendar hold a
// per-record lock for the whole transition, which keeps two transitions on
// the same record from committing stale external handles.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/calendar"
	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/linkx"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/dmitrijs2005/chatkeeper/internal/notify"
	"github.com/google/uuid"
)

// Notifier schedules one-shot alerts. Cancel must be idempotent.
type Notifier interface {
	Schedule(ctx context.Context, n notify.Notification) (string, error)
	Cancel(ctx context.Context, id string) error
}

// Calendar mirrors reminders as calendar entries.
type Calendar interface {
	AddEvent(ctx context.Context, e calendar.Event) (string, error)
	RemoveEvent(ctx context.Context, id string) bool
}

// Cipher encrypts record text.
type Cipher interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// BadgePublisher displays the unread count. Calls are best-effort.
type BadgePublisher interface {
	SetUnreadCount(ctx context.Context, n int)
}

// Persister loads the collection once and saves it after each mutation.
type Persister interface {
	Load(ctx context.Context) ([]models.Message, error)
	Save(ctx context.Context, msgs []models.Message) error
}

// Op names the kind of mutation reported to subscribers.
type Op string

const (
	OpAdd       Op = "add"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpDeleteAll Op = "delete-all"
)

// Change is delivered to subscribers after a mutation is committed. ID is
// empty for OpDeleteAll.
type Change struct {
	Op Op
	ID string
}

const (
	reminderTitle    = "Reminder"
	calendarNotes    = "Added from reminders"
	calendarDuration = 30 * time.Minute
	calendarLead     = 15
)

type Option func(*Store)

func WithNotifier(n Notifier) Option { return func(s *Store) { s.notifier = n } }
func WithCalendar(c Calendar) Option { return func(s *Store) { s.calendar = c } }
func WithCipher(c Cipher) Option { return func(s *Store) { s.cipher = c } }
func WithFetcher(f linkx.Fetcher) Option { return func(s *Store) { s.fetcher = f } }
func WithBadge(b BadgePublisher) Option { return func(s *Store) { s.badge = b } }
func WithPersister(p Persister) Option { return func(s *Store) { s.persister = p } }
func WithLogger(l logging.Logger) Option { return func(s *Store) { s.log = l } }
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

type Store struct {
	notifier  Notifier
	calendar  Calendar
	cipher    Cipher
	fetcher   linkx.Fetcher
	badge     BadgePublisher
	persister Persister
	log       logging.Logger
	now       func() time.Time
	newID     func() string

	mu       sync.RWMutex
	messages []models.Message // newest first

	locks *keyedMutex

	saveMu sync.Mutex

	obsMu     sync.Mutex
	observers map[int]func(Change)
	nextObs   int

	bgCtx    context.Context
	bgCancel context.CancelFunc
	enrichMu sync.Mutex
	closed   bool // guarded by enrichMu
	enrich   sync.WaitGroup

	badges *badgeWorker
}

// New builds a Store, loads the persisted collection and restarts link
// enrichment for previews that were still loading.
func New(ctx context.Context, opts ...Option) (*Store, error) {
	s := &Store{
		log:       logging.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
		locks:     newKeyedMutex(),
		observers: make(map[int]func(Change)),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "store")
	s.bgCtx, s.bgCancel = context.WithCancel(context.WithoutCancel(ctx))

	if s.persister != nil {
		msgs, err := s.persister.Load(ctx)
		if err != nil {
			s.bgCancel()
			return nil, fmt.Errorf("load messages: %w", err)
		}
		s.messages = msgs
	}

	if s.badge != nil {
		s.badges = newBadgeWorker(s.bgCtx, s.badge)
		s.publishUnread()
	}

	for _, m := range s.messages {
		for _, l := range m.Links {
			if l.Loading {
				s.startEnrichment(m.ID, l.URL)
			}
		}
	}

	return s, nil
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m.Clone(), true
		}
	}
	return models.Message{}, false
}

// List returns copies of all records of type filter, newest first. An
// empty filter returns every record.
func (s *Store) List(filter models.MessageType) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if filter == "" || m.Type == filter {
			out = append(out, m.Clone())
		}
	}
	return out
}

// UnreadCount counts records not yet opened.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages {
		if !m.IsRead {
			n++
		}
	}
	return n
}

// Add stores a new record with the given text and type and returns it.
// URLs in text get loading previews that are filled in the background.
func (s *Store) Add(ctx context.Context, text string, typ models.MessageType) (models.Message, error) {
	if err := typ.Validate(); err != nil {
		return models.Message{}, err
	}

	m := models.Message{
		ID:        s.newID(),
		Text:      text,
		Type:      typ,
		CreatedAt: s.now().Truncate(time.Second),
		Links:     linkx.Detect(text),
	}

	s.mu.Lock()
	next := make([]models.Message, 0, len(s.messages)+1)
	next = append(next, m)
	next = append(next, s.messages...)
	s.messages = next
	s.mu.Unlock()

	s.log.Debug(ctx, "message added", "id", m.ID, "type", typ, "links", len(m.Links))
	s.committed(ctx, Change{Op: OpAdd, ID: m.ID}, true)

	for _, l := range m.Links {
		s.startEnrichment(m.ID, l.URL)
	}
	return m.Clone(), nil
}

// MarkAsRead sets IsRead. Unknown ids and already read records are no-ops.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	_, changed := s.update(id, func(m *models.Message) bool {
		if m.IsRead {
			return false
		}
		m.IsRead = true
		return true
	})
	if changed {
		s.committed(ctx, Change{Op: OpUpdate, ID: id}, true)
	}
	return nil
}

// ToggleCompleted flips IsCompleted. Unknown ids are no-ops.
func (s *Store) ToggleCompleted(ctx context.Context, id string) error {
	_, changed := s.update(id, func(m *models.Message) bool {
		m.IsCompleted = !m.IsCompleted
		return true
	})
	if changed {
		s.committed(ctx, Change{Op: OpUpdate, ID: id}, false)
	}
	return nil
}

// Subscribe registers fn for committed changes and returns a function that
// removes it. fn runs synchronously on the mutating goroutine and must not
// call lifecycle operations on the store.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

// Close stops background enrichment and badge publishing and waits for
// them to finish.
func (s *Store) Close() error {
	s.enrichMu.Lock()
	s.closed = true
	s.enrichMu.Unlock()

	s.bgCancel()
	s.enrich.Wait()
	if s.badges != nil {
		s.badges.close()
	}
	return nil
}

// update applies fn to a copy of the record with id and swaps in a new
// collection when fn reports a change.
func (s *Store) update(id string, fn func(m *models.Message) bool) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID != id {
			continue
		}
		m := s.messages[i].Clone()
		if !fn(&m) {
			return m, false
		}
		next := make([]models.Message, len(s.messages))
		copy(next, s.messages)
		next[i] = m
		s.messages = next
		return m.Clone(), true
	}
	return models.Message{}, false
}

// remove drops every record whose id is in ids and returns how many went.
func (s *Store) remove(ids map[string]bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if !ids[m.ID] {
			next = append(next, m)
		}
	}
	n := len(s.messages) - len(next)
	if n > 0 {
		s.messages = next
	}
	return n
}

func (s *Store) snapshot() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Clone()
	}
	return out
}

// committed runs the after-mutation side effects: persistence, observers
// and, when the unread composition may have changed, the badge.
func (s *Store) committed(ctx context.Context, c Change, unreadChanged bool) {
	s.persist(ctx)
	if unreadChanged {
		s.publishUnread()
	}

	s.obsMu.Lock()
	fns := make([]func(Change), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.persister.Save(context.WithoutCancel(ctx), s.snapshot()); err != nil {
		s.log.Error(ctx, "persist messages failed", "error", err)
	}
}

func (s *Store) publishUnread() {
	if s.badges != nil {
		s.badges.publish(s.UnreadCount())
	}
}

var errNoNotifier = errors.New("no notification scheduler configured")
