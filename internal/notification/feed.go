package notification

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"farm-to-keells/internal/logger"
	"farm-to-keells/internal/realtime"

	"go.uber.org/zap"
)

const resyncTimeout = 15 * time.Second

// Source is the subset of Service a Feed talks to.
type Source interface {
	List(ctx context.Context, owner *int64, category Category) ([]Notification, error)
	MarkRead(ctx context.Context, id int64, owner *int64) error
	MarkAllRead(ctx context.Context, owner *int64, category Category) (int64, error)
	Remove(ctx context.Context, id int64, owner *int64) error
	AcceptPayment(ctx context.Context, id, farmerID int64) (*Acceptance, error)
}

type LiveSource interface {
	Subscribe(filter realtime.Filter, fn realtime.Handler) *realtime.Subscription
}

// Feed keeps one view's notification list in sync with the store: an
// initial load, live inserts prepended newest first, and read/accept/remove
// mutations. A change feed reconnect triggers a reload. Results that arrive
// after Close are ignored.
type Feed struct {
	src      Source
	live     LiveSource
	owner    *int64
	category Category
	onChange func()

	mu        sync.Mutex
	items     []Notification
	seen      map[int64]struct{}
	err       error
	loading   bool
	gen       uint64
	liveSince []Notification
	sub       *realtime.Subscription
	closed    bool
}

// NewFeed builds a feed for the owner's inbox (nil owner = supermarket inbox)
// restricted to category. onChange runs once per accepted live insert.
func NewFeed(src Source, live LiveSource, owner *int64, category Category, onChange func()) *Feed {
	if onChange == nil {
		onChange = func() {}
	}
	return &Feed{
		src:      src,
		live:     live,
		owner:    owner,
		category: category,
		onChange: onChange,
		seen:     make(map[int64]struct{}),
	}
}

func (f *Feed) Category() Category { return f.category }

// Load replaces the local list with the store's. On failure the list is
// emptied and Err reports the cause. A load overtaken by a newer one is discarded.
func (f *Feed) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.gen++
	gen := f.gen
	f.loading = true
	f.liveSince = nil
	f.mu.Unlock()

	items, err := f.src.List(ctx, f.owner, f.category)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.gen {
		return err
	}
	f.loading = false

	if err != nil {
		logger.FromCtx(ctx).Warn("notification load failed", zap.String("category", string(f.category)), zap.Error(err))
		f.items = nil
		f.seen = make(map[int64]struct{})
		f.err = err
		return err
	}

	f.err = nil
	f.seen = make(map[int64]struct{}, len(items))
	merged := make([]Notification, 0, len(items)+len(f.liveSince))
	for _, n := range items {
		f.seen[n.ID] = struct{}{}
	}
	// Live rows that raced the query stay on top.
	for _, n := range f.liveSince {
		if _, ok := f.seen[n.ID]; ok {
			continue
		}
		f.seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	f.items = append(merged, items...)
	f.liveSince = nil
	return nil
}

// Subscribe opens the live subscription. Calling it again is a no-op.
func (f *Feed) Subscribe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.sub != nil {
		return
	}

	filter := realtime.Filter{Table: "notifications", Type: realtime.EventInsert}
	if f.owner != nil {
		filter.Column = "farmer_id"
		filter.Value = strconv.FormatInt(*f.owner, 10)
	}
	f.sub = f.live.Subscribe(filter, f.handleEvent)
}

func (f *Feed) handleEvent(ev realtime.Event) {
	if ev.Type == realtime.EventResync {
		go f.resync()
		return
	}

	var n Notification
	if err := ev.Decode(&n); err != nil {
		logger.L().Warn("discarding undecodable notification event", zap.Error(err))
		return
	}
	n.Category = categoryOf(n)

	if !f.insert(n) {
		return
	}
	f.onChange()
}

// resync reloads the list after the change feed missed events.
func (f *Feed) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()

	f.Load(ctx)

	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if !closed {
		f.onChange()
	}
}

func (f *Feed) insert(n Notification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || !sameOwner(f.owner, n.FarmerID) {
		return false
	}
	if f.category != "" && n.Category != f.category {
		return false
	}
	if _, dup := f.seen[n.ID]; dup {
		return false
	}

	f.seen[n.ID] = struct{}{}
	f.items = append([]Notification{n}, f.items...)
	if f.loading {
		f.liveSince = append([]Notification{n}, f.liveSince...)
	}
	return true
}

// Items returns a copy of the list, newest first.
func (f *Feed) Items() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}

func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return UnreadCount(f.items, f.category)
}

func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *Feed) indexOf(id int64) int {
	for i := range f.items {
		if f.items[i].ID == id {
			return i
		}
	}
	return -1
}

// MarkRead flips the flag locally first and restores it if the store rejects the update.
func (f *Feed) MarkRead(ctx context.Context, id int64) error {
	f.mu.Lock()
	i := f.indexOf(id)
	if i < 0 {
		f.mu.Unlock()
		return ErrNotificationNotFound
	}
	prev := f.items[i].IsRead
	f.items[i].IsRead = true
	f.mu.Unlock()

	err := f.src.MarkRead(ctx, id, f.owner)
	if err == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		if i := f.indexOf(id); i >= 0 {
			f.items[i].IsRead = prev
		}
	}
	return err
}

// MarkAllRead flips every unread item locally and restores them on failure.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	var flipped []int64
	for i := range f.items {
		if !f.items[i].IsRead {
			f.items[i].IsRead = true
			flipped = append(flipped, f.items[i].ID)
		}
	}
	f.mu.Unlock()

	_, err := f.src.MarkAllRead(ctx, f.owner, f.category)
	if err == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		for _, id := range flipped {
			if i := f.indexOf(id); i >= 0 {
				f.items[i].IsRead = false
			}
		}
	}
	return err
}

// Remove deletes in the store and drops the item locally only after success.
func (f *Feed) Remove(ctx context.Context, id int64) error {
	if err := f.src.Remove(ctx, id, f.owner); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	if i := f.indexOf(id); i >= 0 {
		f.items = append(f.items[:i], f.items[i+1:]...)
	}
	return nil
}

// AcceptPayment runs the acceptance flow and updates the local item once it is confirmed.
func (f *Feed) AcceptPayment(ctx context.Context, id int64) (*Acceptance, error) {
	if f.owner == nil {
		return nil, ErrNoOwner
	}

	acc, err := f.src.AcceptPayment(ctx, id, *f.owner)
	var partial *PartialWriteError
	if err != nil && !errors.As(err, &partial) {
		return nil, err
	}

	// A partial write still committed the acceptance itself.
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		if i := f.indexOf(id); i >= 0 {
			f.items[i].IsAccepted = true
			f.items[i].IsRead = true
		}
	}
	return acc, err
}

// Close ends the live subscription; later results are ignored.
func (f *Feed) Close() {
	f.mu.Lock()
	sub := f.sub
	f.closed = true
	f.sub = nil
	f.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}
