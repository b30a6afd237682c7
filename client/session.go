package client

import "sync"

// SessionGate holds the current bearer token and exposes the derived
// authentication flag as an observable signal. It is a TokenSource, so the
// same gate can back a Client's Authorization header and drive a
// CartSynchronizer's lifecycle.
type SessionGate struct {
	mu       sync.RWMutex
	token    string
	watchers []func(authenticated bool)
}

func NewSessionGate() *SessionGate {
	return &SessionGate{}
}

// Token implements TokenSource.
func (g *SessionGate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// Authenticated reports whether a token is currently held.
func (g *SessionGate) Authenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token != ""
}

// SetToken installs a new token and notifies watchers of the resulting
// authentication state. Setting the same state again still notifies:
// consumers of the signal are expected to be idempotent.
func (g *SessionGate) SetToken(token string) {
	g.mu.Lock()
	g.token = token
	watchers := make([]func(bool), len(g.watchers))
	copy(watchers, g.watchers)
	authenticated := token != ""
	g.mu.Unlock()

	for _, fn := range watchers {
		fn(authenticated)
	}
}

// Clear drops the token, returning the gate to the anonymous state.
func (g *SessionGate) Clear() {
	g.SetToken("")
}

// OnChange registers a watcher invoked after every SetToken or Clear.
// Watchers run synchronously on the calling goroutine and must not call back
// into the gate's setters.
func (g *SessionGate) OnChange(fn func(authenticated bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.watchers = append(g.watchers, fn)
}
