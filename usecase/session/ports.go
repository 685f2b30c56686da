package session

import (
	"context"

	"github.com/medipro/backend/domain"
)

// EventKind labels a push notification from the credential store.
type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
)

// Event is a session-change notification emitted by the credential store.
// Principal is nil for signed-out events.
type Event struct {
	Kind      EventKind
	Principal *domain.Principal
}

// CredentialStore is the hosted authentication provider surface the session
// provider depends on. Implementations classify failures as
// domain.ErrInvalidCredentials or domain.ErrServiceUnavailable.
type CredentialStore interface {
	// CurrentSession returns the principal of an existing session, or
	// (nil, nil) when no session is established.
	CurrentSession(ctx context.Context) (*domain.Principal, error)
	SignIn(ctx context.Context, email, password string) (*domain.Principal, error)
	SignOut(ctx context.Context) error
	// Events opens the push-notification stream. The channel is closed when
	// ctx is cancelled or the stream ends.
	Events(ctx context.Context) (<-chan Event, error)
}

// UserDirectory resolves an authentication principal to the full identity
// record carrying role and active status.
type UserDirectory interface {
	ResolveByPrincipal(ctx context.Context, principalID string) (*domain.User, error)
}
