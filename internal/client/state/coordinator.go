// Package state holds the single reactive authentication surface the
// presentation layer reads. The coordinator owns one Snapshot and replaces it
// atomically after every session-mutating operation; consumers never observe
// a half-updated state.
package state

import (
	"context"
	"errors"
	"sync"

	"github.com/olegsv/lumacli/internal/client/api"
	"github.com/olegsv/lumacli/internal/client/models"
	"github.com/olegsv/lumacli/internal/client/session"
	"github.com/olegsv/lumacli/internal/common"
	"github.com/olegsv/lumacli/internal/logging"
)

// Snapshot is the whole exposed auth state. User and Authenticated always
// change together; Loading is true only until the initial status check
// resolves.
type Snapshot struct {
	Authenticated bool
	User          *models.User
	Token         string
	Loading       bool
}

// Coordinator synchronizes the session manager with its consumers. Only the
// publication of a snapshot is serialized; the operations themselves are
// free to interleave, and whichever resolves last determines the exposed
// state (last writer wins).
type Coordinator struct {
	manager session.Manager
	logger  logging.Logger
	initial sync.Once

	mu      sync.Mutex
	current Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

// NewCoordinator builds a coordinator in the loading state. Call Start to
// run the initial status check.
func NewCoordinator(manager session.Manager, logger logging.Logger) *Coordinator {
	return &Coordinator{
		manager: manager,
		logger:  logger.With("component", "state"),
		current: Snapshot{Loading: true},
		subs:    make(map[int]chan Snapshot),
	}
}

// Start runs the initial CheckAuthStatus exactly once, no matter how many
// screens mount concurrently, and clears Loading when it resolves.
func (c *Coordinator) Start(ctx context.Context) {
	c.initial.Do(func() {
		sess := c.manager.CheckAuthStatus(ctx)
		snap := snapshotOf(sess)
		c.logger.Debug(ctx, "initial auth status resolved", "authenticated", snap.Authenticated)
		c.publish(snap)
	})
}

// Current returns the exposed state.
func (c *Coordinator) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Subscribe returns a channel that immediately yields the current snapshot
// and then every published replacement, plus a cancel func. A slow consumer
// only ever lags by one snapshot: stale values are dropped, never queued.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- c.current
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Login exchanges credentials for a session and publishes the outcome. On
// failure the exposed state becomes unauthenticated and the error is
// returned for display.
func (c *Coordinator) Login(ctx context.Context, email, password string) error {
	sess, err := c.manager.Login(ctx, email, password)
	if err != nil {
		c.publish(Snapshot{})
		return err
	}
	c.publish(snapshotOf(sess))
	return nil
}

// Register runs the compound register-then-login flow and publishes the
// outcome.
func (c *Coordinator) Register(ctx context.Context, req api.RegisterRequest) error {
	sess, err := c.manager.Register(ctx, req)
	if err != nil {
		c.publish(Snapshot{})
		return err
	}
	c.publish(snapshotOf(sess))
	return nil
}

// Logout always converges to the unauthenticated state.
func (c *Coordinator) Logout(ctx context.Context) {
	c.manager.Logout(ctx)
	c.publish(Snapshot{})
}

// Refresh re-fetches the profile for the active session. An authorization
// failure has already cascaded into a logout by the time it surfaces here,
// so the published state follows suit.
func (c *Coordinator) Refresh(ctx context.Context) error {
	user, err := c.manager.RefreshUser(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			c.publish(Snapshot{})
		}
		return err
	}
	if user == nil {
		// No active session: refreshing is a no-op.
		return nil
	}

	c.mu.Lock()
	token := c.current.Token
	c.mu.Unlock()
	c.publish(Snapshot{Authenticated: true, User: user, Token: token})
	return nil
}

// Recheck re-runs the status check and publishes the result. Used by screen
// mounts after the initial Start.
func (c *Coordinator) Recheck(ctx context.Context) {
	c.publish(snapshotOf(c.manager.CheckAuthStatus(ctx)))
}

// ApplyUser writes an updated profile snapshot back into the exposed state.
// Profile-update flows call this after the backend accepted the edit.
func (c *Coordinator) ApplyUser(user *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current.Authenticated {
		return
	}
	next := c.current
	next.User = user
	c.setAndFanOutLocked(next)
}

func snapshotOf(sess *models.Session) Snapshot {
	if sess == nil {
		return Snapshot{}
	}
	return Snapshot{Authenticated: true, User: sess.User, Token: sess.Token}
}

func (c *Coordinator) publish(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setAndFanOutLocked(snap)
}

// setAndFanOutLocked replaces the snapshot and notifies subscribers. Each
// subscriber channel holds at most one pending value; an unread stale value
// is replaced by the new one.
func (c *Coordinator) setAndFanOutLocked(snap Snapshot) {
	c.current = snap
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
