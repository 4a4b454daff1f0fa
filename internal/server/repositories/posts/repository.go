// Package posts stores blog, image and video posts in a single table keyed
// by post type.
package posts

import (
	"context"

	"github.com/dmitrijs2005/rustytech/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)

	// List returns posts with the given publish state, newest first.
	List(ctx context.Context, published bool) ([]*models.Post, error)
	ListAll(ctx context.Context) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Post, error)

	// Update rewrites title, content, plain text and updated_at.
	Update(ctx context.Context, post *models.Post) error

	// TogglePublished flips is_published and returns the new value.
	TogglePublished(ctx context.Context, id string) (bool, error)

	// Delete removes the post; its keyword links cascade.
	Delete(ctx context.Context, id string) error

	// Search returns published posts whose title contains query, ignoring
	// case, newest first.
	Search(ctx context.Context, query string) ([]*models.Post, error)
}
