package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/chatkeeper/internal/calendar"
	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/linkx"
	"github.com/dmitrijs2005/chatkeeper/internal/notify"
)

type fakeNotifier struct {
	mu        sync.Mutex
	seq       int
	active    map[string]notify.Notification
	cancelled []string
	failNext  bool
	cancelErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{active: map[string]notify.Notification{}}
}

func (f *fakeNotifier) Schedule(ctx context.Context, n notify.Notification) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return "", errors.New("scheduler unavailable")
	}
	f.seq++
	id := fmt.Sprintf("n-%d", f.seq)
	f.active[id] = n
	return id, nil
}

func (f *fakeNotifier) Cancel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	delete(f.active, id)
	return f.cancelErr
}

func (f *fakeNotifier) activeFor(messageID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.active {
		if a.MessageID == messageID {
			n++
		}
	}
	return n
}

func (f *fakeNotifier) cancelCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.cancelled {
		if c == id {
			n++
		}
	}
	return n
}

type fakeCalendar struct {
	mu      sync.Mutex
	seq     int
	events  map[string]calendar.Event
	removed []string
	fail    bool
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: map[string]calendar.Event{}}
}

func (f *fakeCalendar) AddEvent(ctx context.Context, e calendar.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("calendar permission denied")
	}
	f.seq++
	id := fmt.Sprintf("c-%d", f.seq)
	f.events[id] = e
	return id, nil
}

func (f *fakeCalendar) RemoveEvent(ctx context.Context, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	if _, ok := f.events[id]; !ok {
		return false
	}
	delete(f.events, id)
	return true
}

func (f *fakeCalendar) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeCalendar) removeCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.removed {
		if r == id {
			n++
		}
	}
	return n
}

// blockingFetcher releases each fetch when the test sends on release.
type blockingFetcher struct {
	release chan struct{}
	fail    map[string]bool
}

func (f *blockingFetcher) Fetch(ctx context.Context, url string) (linkx.Metadata, error) {
	select {
	case <-f.release:
	case <-ctx.Done():
		return linkx.Metadata{}, ctx.Err()
	}
	if f.fail[url] {
		return linkx.Metadata{}, errors.New("404")
	}
	return linkx.Metadata{Title: "Title of " + url, Description: "desc"}, nil
}

type fakeBadge struct {
	mu     sync.Mutex
	counts []int
}

func (b *fakeBadge) SetUnreadCount(ctx context.Context, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts = append(b.counts, n)
}

func (b *fakeBadge) last() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.counts) == 0 {
		return 0, false
	}
	return b.counts[len(b.counts)-1], true
}

type memPersister struct {
	mu      sync.Mutex
	saved   []models.Message
	saves   int
	loadErr error
	saveErr error
}

func (p *memPersister) Load(ctx context.Context) ([]models.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	out := make([]models.Message, len(p.saved))
	for i, m := range p.saved {
		out[i] = m.Clone()
	}
	return out, nil
}

func (p *memPersister) Save(ctx context.Context, msgs []models.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saved = msgs
	return nil
}

func (p *memPersister) snapshot() []models.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Message(nil), p.saved...)
}

type memKeyStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memKeyStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}
