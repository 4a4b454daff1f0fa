// Package logins records successful sign-ins.
package logins

import (
	"context"

	"github.com/dmitrijs2005/rustytech/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, info *models.LoginInfo) error
}
