package repository

import (
	"context"

	"github.com/medipro/backend/domain"
)

// UserRepository is the user directory: it resolves authentication
// principals to full identity records and carries the admin mutations.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPrincipal(ctx context.Context, principalID string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	SetActive(ctx context.Context, id string, active bool) error
}
