package identity

// Provider bundles the Store, Auth and Guard of one visitor around one backend.
type Provider struct {
	Store *Store
	Auth  *Auth
	Guard *Guard

	backend Backend
}

// NewProvider wires a Store, an Auth and a Guard to backend.
func NewProvider(backend Backend, signInPath string) *Provider {
	store := NewStore(backend)

	return &Provider{
		Store:   store,
		Auth:    NewAuth(backend, store),
		Guard:   NewGuard(store, signInPath),
		backend: backend,
	}
}

// Backend returns the backend the provider was created with.
func (p *Provider) Backend() Backend {
	return p.backend
}

// Close detaches the provider from its backend.
func (p *Provider) Close() {
	p.Store.Close()
}
