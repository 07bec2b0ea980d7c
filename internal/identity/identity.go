package identity

// Identity is the signed-in principal as reported by the backend.
type Identity struct {
	// ID is assigned by the backend and never changes.
	ID string `json:"id"`
	// Email may be empty for federated accounts.
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Clone returns a copy of the identity, nil stays nil.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}

	c := *i

	return &c
}

// Name returns the display name, falling back to the email address.
func (i *Identity) Name() string {
	if i == nil {
		return ""
	}

	if i.DisplayName != "" {
		return i.DisplayName
	}

	return i.Email
}

// Session is a snapshot of the visitor's authentication state.
type Session struct {
	// Identity is nil while nobody is signed in.
	Identity *Identity
	// IsResolving is true until the backend has reported the initial state.
	IsResolving bool
}

// SignedIn reports whether the session is resolved and holds an identity.
func (s Session) SignedIn() bool {
	return !s.IsResolving && s.Identity != nil
}

func (s Session) clone() Session {
	return Session{Identity: s.Identity.Clone(), IsResolving: s.IsResolving}
}
