package admin

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/repository"
	"github.com/medipro/backend/usecase"
)

// AccountProvisioner is the slice of the credential store the admin flows
// need: creating and removing authentication principals.
type AccountProvisioner interface {
	CreateUser(ctx context.Context, email, password string) (*domain.Principal, error)
	DeleteUser(ctx context.Context, principalID string) error
}

// IdentityInvalidator drops a cached identity record after an admin
// mutation so the change takes effect before the cache TTL elapses.
type IdentityInvalidator interface {
	Invalidate(ctx context.Context, principalID string) error
}

type UseCase struct {
	accounts AccountProvisioner
	users    repository.UserRepository
	cache    IdentityInvalidator
	outbox   usecase.NotificationOutbox
	logger   *zap.Logger
}

func New(
	accounts AccountProvisioner,
	users repository.UserRepository,
	cache IdentityInvalidator,
	notifications usecase.NotificationOutbox,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		accounts: accounts,
		users:    users,
		cache:    cache,
		outbox:   notifications,
		logger:   logger,
	}
}

func (uc *UseCase) ListUsers(ctx context.Context) ([]domain.User, error) {
	return uc.users.List(ctx)
}

// InviteUser provisions a credential-store account, writes the matching
// directory record, and queues an invitation notice.
func (uc *UseCase) InviteUser(ctx context.Context, email, password, displayName string, role domain.Role) (*domain.User, error) {
	if email == "" || password == "" || !role.Valid() {
		return nil, domain.ErrInvalidPayload
	}

	principal, err := uc.accounts.CreateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:          uuid.NewString(),
		PrincipalID: principal.ID,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		Active:      true,
	}
	if err := uc.users.Upsert(ctx, user); err != nil {
		// The principal exists without a directory record; roll it back so
		// the invite can be retried cleanly.
		if delErr := uc.accounts.DeleteUser(ctx, principal.ID); delErr != nil {
			uc.logger.Error("failed to roll back orphaned principal",
				zap.String("principal_id", principal.ID), zap.Error(delErr))
		}
		return nil, err
	}

	uc.notify(ctx, usecase.NoticeAccountInvite, user)
	uc.logger.Info("user invited", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// SetRole changes a user's role and invalidates the cached identity.
func (uc *UseCase) SetRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidPayload
	}
	if err := uc.users.SetRole(ctx, id, role); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, user.PrincipalID)
	return user, nil
}

// SetActive activates or deactivates an account. Deactivation invalidates
// the cached identity immediately and queues a notice; the session
// provider treats the inactive record as "no session" from then on.
func (uc *UseCase) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	if err := uc.users.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, user.PrincipalID)
	if !active {
		uc.notify(ctx, usecase.NoticeAccountDeactivated, user)
	}
	return user, nil
}

// RemoveUser deletes the authentication principal and deactivates the
// directory record. The record is kept for audit rather than deleted.
func (uc *UseCase) RemoveUser(ctx context.Context, id string) error {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.accounts.DeleteUser(ctx, user.PrincipalID); err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}
	if err := uc.users.SetActive(ctx, id, false); err != nil {
		return err
	}
	uc.invalidate(ctx, user.PrincipalID)
	return nil
}

func (uc *UseCase) invalidate(ctx context.Context, principalID string) {
	if uc.cache == nil || principalID == "" {
		return
	}
	if err := uc.cache.Invalidate(ctx, principalID); err != nil {
		uc.logger.Warn("failed to invalidate cached identity",
			zap.String("principal_id", principalID), zap.Error(err))
	}
}

func (uc *UseCase) notify(ctx context.Context, kind string, user *domain.User) {
	if uc.outbox == nil {
		return
	}
	if err := uc.outbox.QueueAccountNotice(ctx, kind, user); err != nil {
		uc.logger.Error("failed to queue account notice",
			zap.String("kind", kind), zap.String("user_id", user.ID), zap.Error(err))
	}
}
