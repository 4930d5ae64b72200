package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/olegsv/lumacli/internal/client/api"
	"github.com/olegsv/lumacli/internal/client/models"
	"github.com/olegsv/lumacli/internal/common"
	"github.com/olegsv/lumacli/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeManager implements session.Manager for coordinator tests.
type fakeManager struct {
	mu sync.Mutex

	LoginRet *models.Session
	LoginErr error

	RegisterRet *models.Session
	RegisterErr error

	CheckRet   *models.Session
	CheckCalls int
	// When set, CheckAuthStatus blocks until the gate closes.
	CheckGate chan struct{}

	RefreshRet *models.User
	RefreshErr error

	LogoutCalls int

	WaitErr   error
	HealthRet bool
}

func (f *fakeManager) Login(ctx context.Context, email, password string) (*models.Session, error) {
	return f.LoginRet, f.LoginErr
}

func (f *fakeManager) Register(ctx context.Context, req api.RegisterRequest) (*models.Session, error) {
	return f.RegisterRet, f.RegisterErr
}

func (f *fakeManager) Logout(ctx context.Context) {
	f.mu.Lock()
	f.LogoutCalls++
	f.mu.Unlock()
}

func (f *fakeManager) CheckAuthStatus(ctx context.Context) *models.Session {
	f.mu.Lock()
	f.CheckCalls++
	gate := f.CheckGate
	ret := f.CheckRet
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return ret
}

func (f *fakeManager) RefreshUser(ctx context.Context) (*models.User, error) {
	return f.RefreshRet, f.RefreshErr
}

func (f *fakeManager) WaitForServer(ctx context.Context) error { return f.WaitErr }

func (f *fakeManager) Health(ctx context.Context) bool { return f.HealthRet }

func newCoordinator(m *fakeManager) *Coordinator {
	return NewCoordinator(m, logging.NewNopLogger())
}

func TestCoordinator_StartsLoading(t *testing.T) {
	c := newCoordinator(&fakeManager{})

	snap := c.Current()
	assert.True(t, snap.Loading)
	assert.False(t, snap.Authenticated)
}

func TestStart_ResolvesToAuthenticated(t *testing.T) {
	user := &models.User{ID: "u1"}
	m := &fakeManager{CheckRet: &models.Session{Token: "T", User: user}}
	c := newCoordinator(m)

	c.Start(context.Background())

	snap := c.Current()
	assert.False(t, snap.Loading)
	assert.True(t, snap.Authenticated)
	assert.Equal(t, user, snap.User)
	assert.Equal(t, "T", snap.Token)
}

func TestStart_ResolvesToUnauthenticated(t *testing.T) {
	c := newCoordinator(&fakeManager{})

	c.Start(context.Background())

	snap := c.Current()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User)
}

func TestStart_RunsExactlyOnce(t *testing.T) {
	m := &fakeManager{}
	c := newCoordinator(m)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Start(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, m.CheckCalls)
}

func TestLogin_PublishesAtomically(t *testing.T) {
	user := &models.User{ID: "u1"}
	m := &fakeManager{LoginRet: &models.Session{Token: "T", User: user}}
	c := newCoordinator(m)
	c.Start(context.Background())

	require.NoError(t, c.Login(context.Background(), "a@b.com", "secret123"))

	snap := c.Current()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, user, snap.User)
}

func TestLogin_FailurePublishesUnauthenticated(t *testing.T) {
	m := &fakeManager{LoginErr: &common.AuthError{Message: "nope"}}
	c := newCoordinator(m)
	c.Start(context.Background())

	err := c.Login(context.Background(), "a@b.com", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)

	snap := c.Current()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User)
	assert.False(t, snap.Loading)
}

func TestLogout_AlwaysConvergesToUnauthenticated(t *testing.T) {
	user := &models.User{ID: "u1"}
	m := &fakeManager{CheckRet: &models.Session{Token: "T", User: user}}
	c := newCoordinator(m)
	c.Start(context.Background())
	require.True(t, c.Current().Authenticated)

	c.Logout(context.Background())

	snap := c.Current()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Token)
	assert.Equal(t, 1, m.LogoutCalls)
}

func TestRefresh_UpdatesUserKeepingToken(t *testing.T) {
	old := &models.User{ID: "u1", FirstName: "Old"}
	fresh := &models.User{ID: "u1", FirstName: "Fresh"}
	m := &fakeManager{
		CheckRet:   &models.Session{Token: "T", User: old},
		RefreshRet: fresh,
	}
	c := newCoordinator(m)
	c.Start(context.Background())

	require.NoError(t, c.Refresh(context.Background()))

	snap := c.Current()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, "Fresh", snap.User.FirstName)
	assert.Equal(t, "T", snap.Token)
}

func TestRefresh_NoOpWhenUnauthenticated(t *testing.T) {
	c := newCoordinator(&fakeManager{})
	c.Start(context.Background())

	require.NoError(t, c.Refresh(context.Background()))
	assert.False(t, c.Current().Authenticated)
}

func TestRefresh_AuthFailurePublishesUnauthenticated(t *testing.T) {
	m := &fakeManager{
		CheckRet:   &models.Session{Token: "T", User: &models.User{ID: "u1"}},
		RefreshErr: &common.AuthError{Message: "expired"},
	}
	c := newCoordinator(m)
	c.Start(context.Background())

	err := c.Refresh(context.Background())
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.False(t, c.Current().Authenticated)
}

func TestSubscribe_YieldsCurrentThenUpdates(t *testing.T) {
	user := &models.User{ID: "u1"}
	m := &fakeManager{LoginRet: &models.Session{Token: "T", User: user}}
	c := newCoordinator(m)

	ch, cancel := c.Subscribe()
	defer cancel()

	first := <-ch
	assert.True(t, first.Loading)

	c.Start(context.Background())
	second := <-ch
	assert.False(t, second.Loading)
	assert.False(t, second.Authenticated)

	require.NoError(t, c.Login(context.Background(), "a@b.com", "secret123"))
	third := <-ch
	assert.True(t, third.Authenticated)
}

func TestSubscribe_SlowConsumerOnlySeesLatest(t *testing.T) {
	c := newCoordinator(&fakeManager{})

	ch, cancel := c.Subscribe()
	defer cancel()
	<-ch // drain the initial snapshot

	c.publish(Snapshot{Authenticated: true, Token: "stale"})
	c.publish(Snapshot{Authenticated: true, Token: "latest"})

	got := <-ch
	assert.Equal(t, "latest", got.Token)

	select {
	case extra, ok := <-ch:
		if ok {
			t.Fatalf("unexpected queued snapshot: %+v", extra)
		}
	default:
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	c := newCoordinator(&fakeManager{})

	ch, cancel := c.Subscribe()
	<-ch
	cancel()
	cancel() // idempotent

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after cancel must not panic.
	c.publish(Snapshot{})
}

func TestApplyUser_OnlyWhenAuthenticated(t *testing.T) {
	m := &fakeManager{CheckRet: &models.Session{Token: "T", User: &models.User{ID: "u1"}}}
	c := newCoordinator(m)

	// Before authentication the write-back is ignored.
	c.ApplyUser(&models.User{ID: "ignored"})
	assert.Nil(t, c.Current().User)

	c.Start(context.Background())
	c.ApplyUser(&models.User{ID: "u1", Location: "Berlin"})

	snap := c.Current()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, "Berlin", snap.User.Location)
	assert.Equal(t, "T", snap.Token)
}

func TestLastWriterWins_StaleCheckOverwritesLogin(t *testing.T) {
	user := &models.User{ID: "u1"}
	gate := make(chan struct{})
	m := &fakeManager{
		LoginRet:  &models.Session{Token: "T", User: user},
		CheckGate: gate, // the in-flight check resolves to nil, later
	}
	c := newCoordinator(m)

	done := make(chan struct{})
	go func() {
		c.Recheck(context.Background())
		close(done)
	}()

	// Login completes while the check is still in flight.
	require.NoError(t, c.Login(context.Background(), "a@b.com", "secret123"))
	require.True(t, c.Current().Authenticated)

	// The stale check resolves last and wins, as documented: no ordering is
	// enforced between independently-initiated operations.
	close(gate)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recheck did not finish")
	}
	assert.False(t, c.Current().Authenticated)
}

func TestRegister_PublishesOutcome(t *testing.T) {
	user := &models.User{ID: "u1"}
	m := &fakeManager{RegisterRet: &models.Session{Token: "T", User: user}}
	c := newCoordinator(m)
	c.Start(context.Background())

	require.NoError(t, c.Register(context.Background(), api.RegisterRequest{
		Email: "a@b.com", Password: "secret123",
	}))
	assert.True(t, c.Current().Authenticated)
}

func TestRegister_HalfDoneStateSurfaces(t *testing.T) {
	m := &fakeManager{RegisterErr: errors.Join(common.ErrAccountCreatedLoginFailed, common.ErrUnavailable)}
	c := newCoordinator(m)
	c.Start(context.Background())

	err := c.Register(context.Background(), api.RegisterRequest{Email: "a@b.com", Password: "x"})
	require.ErrorIs(t, err, common.ErrAccountCreatedLoginFailed)
	assert.False(t, c.Current().Authenticated)
}
