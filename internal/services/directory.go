package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/repository"
	sessionUC "github.com/medipro/backend/usecase/session"
)

// IdentityCache is the cache surface the directory needs.
type IdentityCache interface {
	Get(ctx context.Context, principalID string) (*domain.User, error)
	Put(ctx context.Context, user *domain.User) error
}

// CachedDirectory resolves principals to identity records, serving from
// the cache when possible. Cache failures fall through to the directory;
// the cache is never load-bearing.
type CachedDirectory struct {
	users  repository.UserRepository
	cache  IdentityCache
	logger *zap.Logger
}

func NewCachedDirectory(users repository.UserRepository, cache IdentityCache, logger *zap.Logger) *CachedDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDirectory{
		users:  users,
		cache:  cache,
		logger: logger,
	}
}

func (d *CachedDirectory) ResolveByPrincipal(ctx context.Context, principalID string) (*domain.User, error) {
	if principalID == "" {
		return nil, domain.ErrUserNotFound
	}

	if d.cache != nil {
		if user, err := d.cache.Get(ctx, principalID); err == nil {
			return user, nil
		}
	}

	user, err := d.users.GetByPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.Put(ctx, user); err != nil {
			d.logger.Warn("failed to cache identity", zap.String("principal_id", principalID), zap.Error(err))
		}
	}
	return user, nil
}

var _ sessionUC.UserDirectory = (*CachedDirectory)(nil)
