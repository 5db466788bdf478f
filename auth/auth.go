// Package auth gates the translator view behind an identity provider.
// The gate tracks three states: Unknown while the persisted session is
// being checked, then Authenticated or Unauthenticated. Identity is
// handed to consumers explicitly; nothing in this package is ambient
// process state.
package auth

import (
	"context"
	"sync"
)

type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// Identity is a signed-in user.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Provider is an identity source. Subscribe delivers the current
// identity (nil when signed out) on every change and returns an
// unsubscribe func; after unsubscribe returns, the callback is never
// invoked again.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	Subscribe(fn func(*Identity)) (unsubscribe func())
}

// Change is one gate transition.
type Change struct {
	State    State
	Identity *Identity
}

// Gate subscribes to a Provider exactly once and folds its identity
// stream into gate states. Close unsubscribes; it is safe on every
// exit path and idempotent.
type Gate struct {
	provider Provider

	mu       sync.Mutex
	state    State
	identity *Identity

	changes     chan Change
	unsubscribe func()
	closeOnce   sync.Once
}

// NewGate starts watching the provider. The gate is Unknown until the
// provider delivers its first identity snapshot.
func NewGate(p Provider) *Gate {
	g := &Gate{
		provider: p,
		state:    StateUnknown,
		changes:  make(chan Change, 8),
	}
	g.unsubscribe = p.Subscribe(g.onIdentity)
	return g
}

func (g *Gate) onIdentity(id *Identity) {
	g.mu.Lock()
	if id != nil {
		g.state = StateAuthenticated
	} else {
		g.state = StateUnauthenticated
	}
	g.identity = id
	state := g.state
	g.mu.Unlock()

	select {
	case g.changes <- Change{State: state, Identity: id}:
	default:
		// A slow reader only misses intermediate transitions; the
		// latest state is always available via State().
	}
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Identity returns the signed-in identity, or nil.
func (g *Gate) Identity() *Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity
}

// Changes delivers gate transitions. The channel is never closed;
// select against your own done channel.
func (g *Gate) Changes() <-chan Change { return g.changes }

// SignIn delegates to the provider; the resulting state arrives through
// the subscription like every other change.
func (g *Gate) SignIn(ctx context.Context, email, password string) error {
	_, err := g.provider.SignIn(ctx, email, password)
	return err
}

// SignOut delegates to the provider.
func (g *Gate) SignOut(ctx context.Context) error {
	return g.provider.SignOut(ctx)
}

// Close detaches from the provider. Idempotent.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		if g.unsubscribe != nil {
			g.unsubscribe()
		}
	})
}
