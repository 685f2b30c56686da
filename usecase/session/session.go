package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
)

// Provider is the single source of truth for "who is logged in". It owns
// the subscription to the credential store's notification stream and is the
// only component that mutates the current session.
//
// Every asynchronous resolution (initialize, login, logout, push event)
// takes a monotonic sequence number when it starts and applies only if no
// higher-numbered resolution has already applied, so an older in-flight
// resolution can never overwrite a newer one.
type Provider struct {
	store     CredentialStore
	directory UserDirectory
	logger    *zap.Logger

	mu      sync.Mutex
	user    *domain.User
	loading bool
	seq     uint64
	applied uint64

	nextObserver int
	observers    map[int]func(domain.Session)
}

// New constructs a provider in the unresolved state. Callers should run
// Initialize once at startup and Run for the lifetime of the process.
func New(store CredentialStore, directory UserDirectory, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		store:     store,
		directory: directory,
		logger:    logger,
		loading:   true,
		observers: make(map[int]func(domain.Session)),
	}
}

// Current returns the session as of now. While Loading is true consumers
// must not make authorization decisions from it.
func (p *Provider) Current() domain.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.Session{User: p.user, Loading: p.loading}
}

// Subscribe registers an observer invoked after every applied session
// change. The returned disposer releases the registration and is safe to
// call more than once.
func (p *Provider) Subscribe(fn func(domain.Session)) func() {
	if fn == nil {
		return func() {}
	}
	p.mu.Lock()
	id := p.nextObserver
	p.nextObserver++
	p.observers[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.observers, id)
			p.mu.Unlock()
		})
	}
}

// Initialize queries the credential store for an existing session. Any
// failure degrades to "no session"; "not logged in yet" is a normal
// first-visit condition, not a fault, so no error is surfaced. Loading
// settles exactly once on every path.
func (p *Provider) Initialize(ctx context.Context) domain.Session {
	seq := p.begin()

	principal, err := p.store.CurrentSession(ctx)
	if err != nil {
		p.logger.Warn("session restore failed, continuing unauthenticated", zap.Error(err))
		p.apply(seq, nil)
		return p.Current()
	}
	if principal == nil {
		p.apply(seq, nil)
		return p.Current()
	}

	user, err := p.resolve(ctx, principal)
	if err != nil || !user.IsActive() {
		if err != nil {
			p.logger.Warn("identity resolution failed during restore", zap.Error(err))
		}
		p.apply(seq, nil)
		return p.Current()
	}

	p.apply(seq, user)
	return p.Current()
}

// Login submits credentials to the credential store and, on success,
// applies the resolved identity synchronously so callers never observe a
// flash of "unauthenticated" while waiting for the push notification.
// On failure the session is left unchanged.
func (p *Provider) Login(ctx context.Context, email, password string) (*domain.User, error) {
	seq := p.begin()

	principal, err := p.store.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := p.resolve(ctx, principal)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "identity resolution failed", err)
	}
	if !user.IsActive() {
		return nil, domain.ErrInactiveAccount
	}

	if !p.apply(seq, user) {
		// A newer resolution already applied; report what the store
		// returned without disturbing the current state.
		return user, nil
	}
	return user, nil
}

// Logout requests remote session termination and clears the local user
// unconditionally: a user-initiated logout must never leave the client
// believing it is still authenticated. The remote error, if any, is
// returned for logging.
func (p *Provider) Logout(ctx context.Context) error {
	seq := p.begin()
	err := p.store.SignOut(ctx)
	p.apply(seq, nil)
	if err != nil {
		p.logger.Warn("remote sign-out failed, local session cleared anyway", zap.Error(err))
	}
	return err
}

// Run consumes the credential store's notification stream until ctx is
// cancelled or the stream closes. Notifications are handled in receipt
// order; each takes its sequence number on receipt so a racing Login or
// Logout result supersedes older notifications and vice versa.
func (p *Provider) Run(ctx context.Context) error {
	events, err := p.store.Events(ctx)
	if err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "auth event stream unavailable", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ctx, ev)
		}
	}
}

// HasRole reports whether the current user holds exactly the given role.
// False whenever no user is present; never panics.
func (p *Provider) HasRole(role domain.Role) bool {
	s := p.Current()
	return s.User != nil && s.User.Role == role
}

// IsAdmin reports whether the current user is an administrator.
func (p *Provider) IsAdmin() bool {
	return p.Current().User.IsAdmin()
}

// IsDoctor reports whether the current user holds the DOCTOR role.
func (p *Provider) IsDoctor() bool {
	return p.Current().User.IsDoctor()
}

func (p *Provider) handleEvent(ctx context.Context, ev Event) {
	seq := p.begin()

	if ev.Kind == EventSignedOut || ev.Principal == nil {
		p.apply(seq, nil)
		return
	}

	// Authorization depends on role and active status, so the full record
	// is resolved before the update is published.
	user, err := p.resolve(ctx, ev.Principal)
	if err != nil || !user.IsActive() {
		if err != nil {
			p.logger.Warn("identity resolution failed for auth event",
				zap.String("kind", string(ev.Kind)), zap.Error(err))
		}
		p.apply(seq, nil)
		return
	}
	p.apply(seq, user)
}

func (p *Provider) resolve(ctx context.Context, principal *domain.Principal) (*domain.User, error) {
	if principal == nil || principal.ID == "" {
		return nil, domain.ErrUserNotFound
	}
	return p.directory.ResolveByPrincipal(ctx, principal.ID)
}

// begin hands out the next resolution sequence number.
func (p *Provider) begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	return p.seq
}

// apply installs the result of resolution seq unless a newer resolution
// already applied. Observers are notified outside the lock.
func (p *Provider) apply(seq uint64, user *domain.User) bool {
	p.mu.Lock()
	if seq < p.applied {
		p.mu.Unlock()
		return false
	}
	p.applied = seq
	p.user = user
	p.loading = false
	snapshot := domain.Session{User: p.user, Loading: p.loading}
	observers := make([]func(domain.Session), 0, len(p.observers))
	for _, fn := range p.observers {
		observers = append(observers, fn)
	}
	p.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
	return true
}
