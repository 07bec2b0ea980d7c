package identity

import "sync"

// Store holds the visitor's current Session.
//
// The Store subscribes to the backend once, at construction, and is the only
// writer of Session state. Subscribers receive every notification in backend
// emission order; notifications are never coalesced.
type Store struct {
	mu      sync.RWMutex
	session Session

	out Broadcaster[Session]

	resolved    chan struct{}
	resolveOnce sync.Once
	unsubscribe func()
	closeOnce   sync.Once
}

// NewStore creates a resolving Store fed by the backend's identity changes.
func NewStore(backend Backend) *Store {
	s := &Store{
		session:  Session{IsResolving: true},
		resolved: make(chan struct{}),
	}

	s.unsubscribe = backend.OnIdentityChanged(s.handle)

	return s
}

func (s *Store) handle(identity *Identity) {
	s.mu.Lock()
	s.session = Session{Identity: identity.Clone()}
	s.out.Enqueue(s.session.clone())
	s.mu.Unlock()

	s.resolveOnce.Do(func() { close(s.resolved) })
	s.out.Drain()
}

// Current returns the latest session snapshot without contacting the backend.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.clone()
}

// Subscribe registers listener for every later session change. The listener
// is not called with the current state. Unsubscribe is idempotent.
func (s *Store) Subscribe(listener func(Session)) (unsubscribe func()) {
	_, unsubscribe = s.out.Subscribe(listener)

	return unsubscribe
}

// Resolved is closed once the backend has reported the initial state.
func (s *Store) Resolved() <-chan struct{} {
	return s.resolved
}

// Close detaches the Store from the backend. The last state stays readable.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}
