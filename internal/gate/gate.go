// Package gate decides whether protected content may be shown, based on the
// latest event of a session's auth-state stream.
package gate

import (
	"context"
	"sync"

	"github.com/AnshRaj112/profiledir-backend/internal/models"
)

// State is the gate's decision.
type State int

// DeniedMessage is shown once each time a session is turned away.
const DeniedMessage = "You must be logged in to access this page"

const (
	Checking State = iota
	Denied
	Granted
)

func (s State) String() string {
	switch s {
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	default:
		return "checking"
	}
}

// Hooks are called on transitions. OnDenied runs once each time the gate
// enters Denied. OnGranted runs whenever the granted identity changes.
// Nil hooks are skipped.
type Hooks struct {
	OnChecking func()
	OnDenied   func()
	OnGranted  func(userID string)
}

// Gate starts in Checking and follows the auth-state events applied to it.
// It is safe for concurrent use; hooks run outside the lock, in event order
// for a single caller of Apply.
type Gate struct {
	mu     sync.Mutex
	state  State
	userID string
	hooks  Hooks
	ready  chan struct{}
	once   sync.Once
}

func New(hooks Hooks) *Gate {
	g := &Gate{hooks: hooks, ready: make(chan struct{})}
	if hooks.OnChecking != nil {
		hooks.OnChecking()
	}
	return g
}

// State returns the current decision and, when Granted, the user id.
func (g *Gate) State() (State, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.userID
}

// Apply moves the gate according to one auth-state event.
func (g *Gate) Apply(ev models.AuthState) {
	g.mu.Lock()
	prev, prevUser := g.state, g.userID
	if ev.Authenticated() {
		g.state, g.userID = Granted, ev.UserID
	} else {
		g.state, g.userID = Denied, ""
	}
	next, nextUser := g.state, g.userID
	g.mu.Unlock()

	defer g.once.Do(func() { close(g.ready) })

	switch {
	case next == Denied && prev != Denied:
		if g.hooks.OnDenied != nil {
			g.hooks.OnDenied()
		}
	case next == Granted && (prev != Granted || prevUser != nextUser):
		if g.hooks.OnGranted != nil {
			g.hooks.OnGranted(nextUser)
		}
	}
}

// Run applies events until the stream closes or ctx ends.
func (g *Gate) Run(ctx context.Context, events <-chan models.AuthState) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			g.Apply(ev)
		}
	}
}

// Await blocks until the first event has been applied, including its hook,
// or ctx ends, and returns the resulting state. It returns Checking if ctx ended first.
func (g *Gate) Await(ctx context.Context) (State, string) {
	select {
	case <-g.ready:
		return g.State()
	case <-ctx.Done():
		return Checking, ""
	}
}
