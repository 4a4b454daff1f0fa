// Package roles stores roles and their assignment to users.
package roles

import (
	"context"

	"github.com/dmitrijs2005/rustytech/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, role *models.Role) (*models.Role, error)
	GetByID(ctx context.Context, id string) (*models.Role, error)
	GetByName(ctx context.Context, normalizedName string) (*models.Role, error)
	List(ctx context.Context) ([]*models.Role, error)
	Delete(ctx context.Context, id string) error

	AddToUser(ctx context.Context, userID, roleID string) error
	RemoveFromUser(ctx context.Context, userID, roleID string) error
	ListForUser(ctx context.Context, userID string) ([]*models.Role, error)
}
