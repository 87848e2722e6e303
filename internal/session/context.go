package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"farm-to-keells/internal/farmer"
	"farm-to-keells/internal/logger"

	"go.uber.org/zap"
)

const refreshTimeout = 10 * time.Second

var ErrNotLoggedIn = errors.New("no farmer is logged in")

// Remote is the canonical farmer record the session mirrors.
type Remote interface {
	GetByID(ctx context.Context, id int64) (*farmer.Farmer, error)
	UpdateProfile(ctx context.Context, id int64, u farmer.ProfileUpdate) (*farmer.Farmer, error)
}

// Context owns the current farmer. Login, Logout and UpdateProfile are the
// only ways to change it.
type Context struct {
	storage Storage
	remote  Remote

	mu       sync.Mutex
	current  *farmer.Farmer
	epoch    uint64
	onLogout []func()

	refreshing sync.WaitGroup
}

func New(storage Storage, remote Remote) *Context {
	return &Context{storage: storage, remote: remote}
}

// OnLogout registers fn to run after every logout, e.g. to drop caches
// scoped to the previous farmer.
func (c *Context) OnLogout(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLogout = append(c.onLogout, fn)
}

// Hydrate restores the stored session and refreshes it in the background.
// An unreadable blob is cleared and treated as logged out.
func (c *Context) Hydrate(ctx context.Context) bool {
	log := logger.FromCtx(ctx).With(zap.String("layer", "session"), zap.String("method", "Hydrate"))

	f, err := c.storage.Load()
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			log.Warn("discarding unreadable session", zap.Error(err))
			if err := c.storage.Clear(); err != nil {
				log.Warn("failed to clear session", zap.Error(err))
			}
		}
		return false
	}

	c.mu.Lock()
	c.current = f
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	c.refresh(ctx, epoch, f.ID)
	return true
}

// Login makes f the current farmer, persists it and refreshes it from the
// store in the background. A persistence failure is returned but the
// in-memory session stays.
func (c *Context) Login(ctx context.Context, f *farmer.Farmer) error {
	if f == nil || f.ID == 0 {
		return errors.New("session: login requires a stored farmer")
	}
	cp := scrub(f)

	c.mu.Lock()
	c.current = cp
	c.epoch++
	epoch := c.epoch
	err := c.storage.Save(cp)
	c.mu.Unlock()

	if err != nil {
		logger.FromCtx(ctx).Warn("failed to persist session", zap.Int64("farmer_id", f.ID), zap.Error(err))
	}
	c.refresh(ctx, epoch, f.ID)
	return err
}

// Logout clears the session and storage, then runs the logout hooks.
func (c *Context) Logout() error {
	c.mu.Lock()
	c.current = nil
	c.epoch++
	err := c.storage.Clear()
	hooks := append([]func(){}, c.onLogout...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return err
}

// UpdateProfile sends u to the store and merges the returned row. Nothing
// changes locally when the store rejects the update.
func (c *Context) UpdateProfile(ctx context.Context, u farmer.ProfileUpdate) (*farmer.Farmer, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil, ErrNotLoggedIn
	}
	id := c.current.ID
	epoch := c.epoch
	c.mu.Unlock()

	updated, err := c.remote.UpdateProfile(ctx, id, u)
	if err != nil {
		return nil, err
	}

	c.apply(ctx, epoch, updated)
	return scrub(updated), nil
}

func (c *Context) IsLoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Current returns a copy of the logged-in farmer, or nil.
func (c *Context) Current() *farmer.Farmer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

// Wait blocks until background refreshes finish.
func (c *Context) Wait() {
	c.refreshing.Wait()
}

func (c *Context) refresh(ctx context.Context, epoch uint64, id int64) {
	c.refreshing.Add(1)
	go func() {
		defer c.refreshing.Done()

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		f, err := c.remote.GetByID(rctx, id)
		if err != nil {
			logger.FromCtx(ctx).Warn("session refresh failed, keeping stored copy",
				zap.Int64("farmer_id", id),
				zap.Error(err),
			)
			return
		}
		c.apply(ctx, epoch, f)
	}()
}

// apply replaces the current farmer unless the session changed since epoch.
func (c *Context) apply(ctx context.Context, epoch uint64, f *farmer.Farmer) {
	cp := scrub(f)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.current == nil || c.current.ID != cp.ID {
		return
	}
	c.current = cp
	if err := c.storage.Save(cp); err != nil {
		logger.FromCtx(ctx).Warn("failed to persist session", zap.Int64("farmer_id", cp.ID), zap.Error(err))
	}
}

func scrub(f *farmer.Farmer) *farmer.Farmer {
	cp := *f
	cp.Password = ""
	return &cp
}
