package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/usecase"
)

type fakeProvisioner struct {
	created   []string
	deleted   []string
	createErr error
}

func (f *fakeProvisioner) CreateUser(_ context.Context, email, _ string) (*domain.Principal, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, email)
	return &domain.Principal{ID: "p-" + email, Email: email}, nil
}

func (f *fakeProvisioner) DeleteUser(_ context.Context, principalID string) error {
	f.deleted = append(f.deleted, principalID)
	return nil
}

type fakeUsers struct {
	byID      map[string]*domain.User
	upsertErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[string]*domain.User)}
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) GetByPrincipal(_ context.Context, principalID string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.PrincipalID == principalID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) List(context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) Upsert(_ context.Context, user *domain.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) SetRole(_ context.Context, id string, role domain.Role) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id string, active bool) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Active = active
	return nil
}

type fakeInvalidator struct {
	invalidated []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, principalID string) error {
	f.invalidated = append(f.invalidated, principalID)
	return nil
}

type fakeOutbox struct {
	kinds []string
}

func (f *fakeOutbox) QueueAppointmentNotice(context.Context, string, string, *domain.Appointment) error {
	return nil
}

func (f *fakeOutbox) QueueAccountNotice(_ context.Context, kind string, _ *domain.User) error {
	f.kinds = append(f.kinds, kind)
	return nil
}

func newTestUseCase() (*UseCase, *fakeProvisioner, *fakeUsers, *fakeInvalidator, *fakeOutbox) {
	accounts := &fakeProvisioner{}
	users := newFakeUsers()
	cache := &fakeInvalidator{}
	box := &fakeOutbox{}
	return New(accounts, users, cache, box, nil), accounts, users, cache, box
}

func TestInviteUserProvisionsAndNotifies(t *testing.T) {
	uc, accounts, users, _, box := newTestUseCase()

	user, err := uc.InviteUser(context.Background(), "new@clinic.test", "secret", "Dr. New", domain.RoleDoctor)
	require.NoError(t, err)

	assert.Equal(t, []string{"new@clinic.test"}, accounts.created)
	assert.Equal(t, "p-new@clinic.test", user.PrincipalID)
	assert.True(t, user.Active)

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, stored.Role)

	assert.Equal(t, []string{usecase.NoticeAccountInvite}, box.kinds)
}

func TestInviteUserRollsBackOrphanedPrincipal(t *testing.T) {
	uc, accounts, users, _, _ := newTestUseCase()
	users.upsertErr = errors.New("directory down")

	_, err := uc.InviteUser(context.Background(), "new@clinic.test", "secret", "", domain.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, []string{"p-new@clinic.test"}, accounts.deleted)
}

func TestInviteUserRejectsInvalidRole(t *testing.T) {
	uc, _, _, _, _ := newTestUseCase()

	_, err := uc.InviteUser(context.Background(), "new@clinic.test", "secret", "", domain.Role("NURSE"))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestSetRoleInvalidatesCache(t *testing.T) {
	uc, _, users, cache, _ := newTestUseCase()
	users.byID["usr-1"] = &domain.User{ID: "usr-1", PrincipalID: "p-1", Role: domain.RoleDoctor, Active: true}

	user, err := uc.SetRole(context.Background(), "usr-1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, []string{"p-1"}, cache.invalidated)
}

func TestDeactivateNotifiesAndInvalidates(t *testing.T) {
	uc, _, users, cache, box := newTestUseCase()
	users.byID["usr-1"] = &domain.User{
		ID: "usr-1", PrincipalID: "p-1", Email: "doc@clinic.test",
		Role: domain.RoleDoctor, Active: true,
	}

	user, err := uc.SetActive(context.Background(), "usr-1", false)
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.Equal(t, []string{"p-1"}, cache.invalidated)
	assert.Equal(t, []string{usecase.NoticeAccountDeactivated}, box.kinds)

	// Reactivation must not send a deactivation notice.
	_, err = uc.SetActive(context.Background(), "usr-1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{usecase.NoticeAccountDeactivated}, box.kinds)
}

func TestRemoveUserKeepsAuditRecord(t *testing.T) {
	uc, accounts, users, _, _ := newTestUseCase()
	users.byID["usr-1"] = &domain.User{ID: "usr-1", PrincipalID: "p-1", Role: domain.RoleDoctor, Active: true}

	require.NoError(t, uc.RemoveUser(context.Background(), "usr-1"))
	assert.Equal(t, []string{"p-1"}, accounts.deleted)

	stored, err := users.GetByID(context.Background(), "usr-1")
	require.NoError(t, err)
	assert.False(t, stored.Active)
}
