package identity

import (
	"strings"
	"sync"
)

// DefaultTarget is where a visitor lands after signing in without a pending target.
const DefaultTarget = "/"

// State is the outcome of a guard decision.
type State int

const (
	// Resolving means the session is not resolved yet; show a placeholder.
	Resolving State = iota
	// Redirect means nobody is signed in; send the visitor to Decision.Target.
	Redirect
	// Allow means the protected page may render.
	Allow
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Redirect:
		return "redirect"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Decision is returned by Guard.Decide.
type Decision struct {
	State State
	// Target is the sign-in path for Redirect decisions.
	Target string
}

// Guard gates protected pages on the Store's session state and remembers
// where an unauthenticated visitor wanted to go.
type Guard struct {
	store      *Store
	signInPath string

	mu      sync.Mutex
	pending string
}

// NewGuard creates a Guard redirecting to signInPath.
func NewGuard(store *Store, signInPath string) *Guard {
	return &Guard{store: store, signInPath: signInPath}
}

// Decide returns the decision for a request to path. A Redirect decision
// remembers a copy of path as the pending target.
func (g *Guard) Decide(path string) Decision {
	session := g.store.Current()

	switch {
	case session.IsResolving:
		return Decision{State: Resolving}
	case session.Identity == nil:
		g.mu.Lock()
		g.pending = strings.Clone(SafeTarget(path))
		g.mu.Unlock()

		return Decision{State: Redirect, Target: g.signInPath}
	default:
		return Decision{State: Allow}
	}
}

// PendingTarget returns the pending target without consuming it.
func (g *Guard) PendingTarget() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == "" {
		return DefaultTarget
	}

	return g.pending
}

// ConsumeTarget returns the pending target, or DefaultTarget, and forgets it.
func (g *Guard) ConsumeTarget() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	target := g.pending
	g.pending = ""

	if target == "" {
		return DefaultTarget
	}

	return target
}

// SafeTarget returns path when it is a local absolute path and DefaultTarget otherwise.
func SafeTarget(path string) string {
	if path == "" || path[0] != '/' {
		return DefaultTarget
	}

	if strings.HasPrefix(path, "//") || strings.ContainsAny(path, "\\\r\n") {
		return DefaultTarget
	}

	return path
}
