// Package keywords stores normalized keywords and their links to posts.
package keywords

import (
	"context"

	"github.com/dmitrijs2005/rustytech/internal/server/models"
)

type Repository interface {
	// GetOrCreate returns the keyword with the given normalized text,
	// inserting it when absent.
	GetOrCreate(ctx context.Context, text string) (*models.Keyword, error)
	List(ctx context.Context) ([]*models.Keyword, error)
	ListForPost(ctx context.Context, postID string) ([]*models.Keyword, error)
	Attach(ctx context.Context, postID, keywordID string) error
	Detach(ctx context.Context, postID, keywordID string) error
}
