package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// UnauthorizedHook is notified whenever any request comes back 401. The
// session manager registers the purge here so that a revoked token self-heals
// the client on the very next request that discovers it, without the
// transport reaching into storage itself.
type UnauthorizedHook func(ctx context.Context)

// tokenSource is the slice of the credential store the transport needs.
type tokenSource interface {
	Token(ctx context.Context) (string, error)
	ClientID(ctx context.Context) (string, error)
}

// authTransport decorates every outgoing request with the bearer token (when
// one is stored at call time), the per-install client id and a fresh request
// id, and inspects every response for authorization failures.
type authTransport struct {
	base   http.RoundTripper
	source tokenSource

	mu       sync.Mutex
	hooks    []UnauthorizedHook
	clientID string
}

func newAuthTransport(base http.RoundTripper, source tokenSource) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base, source: source}
}

func (t *authTransport) onUnauthorized(hook UnauthorizedHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, hook)
}

func (t *authTransport) installID(ctx context.Context) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clientID == "" {
		id, err := t.source.ClientID(ctx)
		if err != nil {
			return ""
		}
		t.clientID = id
	}
	return t.clientID
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	out := req.Clone(ctx)
	if token, err := t.source.Token(ctx); err == nil && token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	if id := t.installID(ctx); id != "" {
		out.Header.Set("X-Client-ID", id)
	}
	out.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.mu.Lock()
		hooks := make([]UnauthorizedHook, len(t.hooks))
		copy(hooks, t.hooks)
		t.mu.Unlock()
		for _, hook := range hooks {
			hook(ctx)
		}
	}

	return resp, nil
}
