package users

import (
	"context"

	"github.com/dmitrijs2005/rustytech/internal/server/models"
)

// Repository persists user accounts. Lookups by email and username match the
// normalized (upper-cased) forms. Missing rows yield common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, normalizedEmail string) (*models.User, error)
	GetByUserName(ctx context.Context, normalizedUserName string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
