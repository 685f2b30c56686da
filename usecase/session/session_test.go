package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipro/backend/domain"
)

type fakeStore struct {
	currentFn func(ctx context.Context) (*domain.Principal, error)
	signInFn  func(ctx context.Context, email, password string) (*domain.Principal, error)
	signOutFn func(ctx context.Context) error
	events    chan Event

	mu          sync.Mutex
	signOutSeen int
}

func (f *fakeStore) CurrentSession(ctx context.Context) (*domain.Principal, error) {
	if f.currentFn != nil {
		return f.currentFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	if f.signInFn != nil {
		return f.signInFn(ctx, email, password)
	}
	return nil, domain.ErrInvalidCredentials
}

func (f *fakeStore) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOutSeen++
	f.mu.Unlock()
	if f.signOutFn != nil {
		return f.signOutFn(ctx)
	}
	return nil
}

func (f *fakeStore) Events(ctx context.Context) (<-chan Event, error) {
	if f.events == nil {
		f.events = make(chan Event)
	}
	return f.events, nil
}

type fakeDirectory struct {
	users map[string]*domain.User
	errs  map[string]error
}

func (f *fakeDirectory) ResolveByPrincipal(ctx context.Context, principalID string) (*domain.User, error) {
	if err, ok := f.errs[principalID]; ok {
		return nil, err
	}
	if u, ok := f.users[principalID]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func doctor(principalID string) *domain.User {
	return &domain.User{
		ID:          "usr-" + principalID,
		PrincipalID: principalID,
		Email:       principalID + "@clinic.test",
		Role:        domain.RoleDoctor,
		Active:      true,
	}
}

func TestInitializeRestoresExistingSession(t *testing.T) {
	store := &fakeStore{
		currentFn: func(ctx context.Context) (*domain.Principal, error) {
			return &domain.Principal{ID: "p1"}, nil
		},
	}
	dir := &fakeDirectory{users: map[string]*domain.User{"p1": doctor("p1")}}
	p := New(store, dir, nil)

	require.True(t, p.Current().Loading)
	s := p.Initialize(context.Background())

	assert.False(t, s.Loading)
	require.NotNil(t, s.User)
	assert.Equal(t, "usr-p1", s.User.ID)
	assert.True(t, s.Authenticated())
}

func TestInitializeWithoutSessionSettlesAnonymous(t *testing.T) {
	p := New(&fakeStore{}, &fakeDirectory{}, nil)

	s := p.Initialize(context.Background())

	assert.False(t, s.Loading)
	assert.Nil(t, s.User)
}

func TestInitializeStoreFailureDegradesToNoSession(t *testing.T) {
	store := &fakeStore{
		currentFn: func(ctx context.Context) (*domain.Principal, error) {
			return nil, domain.ErrServiceUnavailable
		},
	}
	p := New(store, &fakeDirectory{}, nil)

	s := p.Initialize(context.Background())

	assert.False(t, s.Loading, "loading must settle even on failure")
	assert.Nil(t, s.User)
}

func TestInitializeInactiveAccountTreatedAsNoSession(t *testing.T) {
	store := &fakeStore{
		currentFn: func(ctx context.Context) (*domain.Principal, error) {
			return &domain.Principal{ID: "p1"}, nil
		},
	}
	inactive := doctor("p1")
	inactive.Active = false
	p := New(store, &fakeDirectory{users: map[string]*domain.User{"p1": inactive}}, nil)

	s := p.Initialize(context.Background())

	assert.False(t, s.Loading)
	assert.Nil(t, s.User, "inactive record must not become the session user")
}

func TestInitializeDirectoryFailureDegradesToNoSession(t *testing.T) {
	store := &fakeStore{
		currentFn: func(ctx context.Context) (*domain.Principal, error) {
			return &domain.Principal{ID: "p1"}, nil
		},
	}
	dir := &fakeDirectory{errs: map[string]error{"p1": errors.New("connection refused")}}
	p := New(store, dir, nil)

	s := p.Initialize(context.Background())

	assert.False(t, s.Loading)
	assert.Nil(t, s.User)
}

func TestLoginAppliesIdentitySynchronously(t *testing.T) {
	store := &fakeStore{
		signInFn: func(ctx context.Context, email, password string) (*domain.Principal, error) {
			return &domain.Principal{ID: "p1", Email: email}, nil
		},
	}
	p := New(store, &fakeDirectory{users: map[string]*domain.User{"p1": doctor("p1")}}, nil)
	p.Initialize(context.Background())

	user, err := p.Login(context.Background(), "p1@clinic.test", "pw")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, user, p.Current().User, "state must update before Login returns")
}

func TestLoginInvalidCredentialsLeavesSessionUnchanged(t *testing.T) {
	signedIn := make(chan struct{}, 1)
	store := &fakeStore{
		currentFn: func(ctx context.Context) (*domain.Principal, error) {
			return &domain.Principal{ID: "p1"}, nil
		},
		signInFn: func(ctx context.Context, email, password string) (*domain.Principal, error) {
			signedIn <- struct{}{}
			return nil, domain.ErrInvalidCredentials
		},
	}
	p := New(store, &fakeDirectory{users: map[string]*domain.User{"p1": doctor("p1")}}, nil)
	before := p.Initialize(context.Background())
	require.NotNil(t, before.User)

	_, err := p.Login(context.Background(), "p1@clinic.test", "wrong")

	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, before.User, p.Current().User, "failed login must not alter the session")
	<-signedIn
}

func TestLoginServiceUnavailableSurfaced(t *testing.T) {
	store := &fakeStore{
		signInFn: func(ctx context.Context, email, password string) (*domain.Principal, error) {
			return nil, domain.ErrServiceUnavailable
		},
	}
	p := New(store, &fakeDirectory{}, nil)
	p.Initialize(context.Background())

	_, err := p.Login(context.Background(), "a@x.com", "pw")

	require.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Nil(t, p.Current().User)
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	store := &fakeStore{
		signInFn: func(ctx context.Context, email, password string) (*domain.Principal, error) {
			return &domain.Principal{ID: "p1"}, nil
		},
	}
	inactive := doctor("p1")
	inactive.Active = false
	p := New(store, &fakeDirectory{users: map[string]*domain.User{"p1": inactive}}, nil)
	p.Initialize(context.Background())

	_, err := p.Login(context.Background(), "p1@clinic.test", "pw")

	require.ErrorIs(t, err, domain.ErrInactiveAccount)
	assert.Nil(t, p.Current().User)
}

func TestLoginUnknownPrincipalMapsToInvalidCredentials(t *testing.T) {
	store := &fakeStore{
		signInFn: func(ctx context.Context, email, password string) (*domain.Principal, error) {
			return &domain.Principal{ID: "ghost"}, nil
		},
	}
	p := New(store, &fakeDirectory{}, nil)
	p.Initialize(context.Background())

	_, err := p.Login(context.Background(), "ghost@x.com", "pw")

	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogoutClearsLocalStateEvenWhenRemoteFails(t *testing.T) {
	remoteErr := errors.New("gateway timeout")
	store := &fakeStore{
		currentFn: func(ctx context.Context) (*domain.Principal, error) {
			return &domain.Principal{ID: "p1"}, nil
		},
		signOutFn: func(ctx context.Context) error { return remoteErr },
	}
	p := New(store, &fakeDirectory{users: map[string]*domain.User{"p1": doctor("p1")}}, nil)
	require.NotNil(t, p.Initialize(context.Background()).User)

	err := p.Logout(context.Background())

	assert.ErrorIs(t, err, remoteErr)
	assert.Nil(t, p.Current().User, "local state must clear regardless of the remote outcome")
	assert.Equal(t, 1, store.signOutSeen)
}

func TestLastResolutionWins(t *testing.T) {
	// Two concurrent logins; the first network call is slower than the
	// second. The second (newer) resolution must stick even though the
	// first settles later in real time.
	release1 := make(chan struct{})
	release2 := make(chan struct{})
	started1 := make(chan struct{})
	started2 := make(chan struct{})

	store := &fakeStore{
		signInFn: func(ctx context.Context, email, password string) (*domain.Principal, error) {
			switch password {
			case "pw1":
				close(started1)
				<-release1
				return &domain.Principal{ID: "p1"}, nil
			default:
				close(started2)
				<-release2
				return &domain.Principal{ID: "p2"}, nil
			}
		},
	}
	dir := &fakeDirectory{users: map[string]*domain.User{
		"p1": doctor("p1"),
		"p2": doctor("p2"),
	}}
	p := New(store, dir, nil)
	p.Initialize(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = p.Login(context.Background(), "a@x.com", "pw1")
	}()
	<-started1
	go func() {
		defer wg.Done()
		_, _ = p.Login(context.Background(), "a@x.com", "pw2")
	}()
	<-started2

	close(release2) // newer login completes first
	require.Eventually(t, func() bool {
		u := p.Current().User
		return u != nil && u.ID == "usr-p2"
	}, time.Second, time.Millisecond)

	close(release1) // stale login settles afterwards
	wg.Wait()

	u := p.Current().User
	require.NotNil(t, u)
	assert.Equal(t, "usr-p2", u.ID, "a superseded resolution must never overwrite a newer one")
}

func TestSubscribeDeliversChangesUntilDisposed(t *testing.T) {
	store := &fakeStore{
		signInFn: func(ctx context.Context, email, password string) (*domain.Principal, error) {
			return &domain.Principal{ID: "p1"}, nil
		},
	}
	p := New(store, &fakeDirectory{users: map[string]*domain.User{"p1": doctor("p1")}}, nil)

	var mu sync.Mutex
	var seen []domain.Session
	dispose := p.Subscribe(func(s domain.Session) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	p.Initialize(context.Background())
	_, err := p.Login(context.Background(), "p1@clinic.test", "pw")
	require.NoError(t, err)

	mu.Lock()
	count := len(seen)
	mu.Unlock()
	require.Equal(t, 2, count)
	assert.Nil(t, seen[0].User)
	assert.NotNil(t, seen[1].User)

	dispose()
	dispose() // safe to call twice

	require.NoError(t, p.Logout(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, count, "disposed observer must not receive further updates")
}

func TestRunAppliesPushNotificationsInReceiptOrder(t *testing.T) {
	store := &fakeStore{events: make(chan Event)}
	dir := &fakeDirectory{users: map[string]*domain.User{
		"p1": doctor("p1"),
		"p2": doctor("p2"),
	}}
	p := New(store, dir, nil)
	p.Initialize(context.Background())

	updates := make(chan domain.Session, 8)
	defer p.Subscribe(func(s domain.Session) { updates <- s })()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	store.events <- Event{Kind: EventSignedIn, Principal: &domain.Principal{ID: "p1"}}
	s := <-updates
	require.NotNil(t, s.User)
	assert.Equal(t, "usr-p1", s.User.ID)

	store.events <- Event{Kind: EventSignedOut}
	s = <-updates
	assert.Nil(t, s.User)

	store.events <- Event{Kind: EventTokenRefreshed, Principal: &domain.Principal{ID: "p2"}}
	s = <-updates
	require.NotNil(t, s.User)
	assert.Equal(t, "usr-p2", s.User.ID)

	close(store.events)
	require.NoError(t, <-done)
}

func TestRunInactiveIdentityFromEventClearsSession(t *testing.T) {
	inactive := doctor("p1")
	inactive.Active = false
	store := &fakeStore{events: make(chan Event)}
	p := New(store, &fakeDirectory{users: map[string]*domain.User{"p1": inactive}}, nil)
	p.Initialize(context.Background())

	updates := make(chan domain.Session, 4)
	defer p.Subscribe(func(s domain.Session) { updates <- s })()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	store.events <- Event{Kind: EventSignedIn, Principal: &domain.Principal{ID: "p1"}}
	s := <-updates
	assert.Nil(t, s.User)
	assert.False(t, s.Loading)
}

func TestRolePredicates(t *testing.T) {
	p := New(&fakeStore{}, &fakeDirectory{}, nil)

	// Anonymous: every predicate is false, none panic.
	assert.False(t, p.HasRole(domain.RoleAdmin))
	assert.False(t, p.IsAdmin())
	assert.False(t, p.IsDoctor())

	admin := doctor("p1")
	admin.Role = domain.RoleAdmin
	store := &fakeStore{
		currentFn: func(ctx context.Context) (*domain.Principal, error) {
			return &domain.Principal{ID: "p1"}, nil
		},
	}
	p = New(store, &fakeDirectory{users: map[string]*domain.User{"p1": admin}}, nil)
	p.Initialize(context.Background())

	assert.True(t, p.HasRole(domain.RoleAdmin))
	assert.True(t, p.IsAdmin())
	assert.False(t, p.IsDoctor(), "IsDoctor is an exact-role predicate")
	assert.True(t, p.Current().User.CanActAsDoctor())
}
