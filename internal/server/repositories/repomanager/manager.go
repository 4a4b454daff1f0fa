package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/rustytech/internal/dbx"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/keywords"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/logins"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/posts"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/roles"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// use the same repositories with *sql.DB or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	Logins(db dbx.DBTX) logins.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Posts(db dbx.DBTX) posts.Repository
	Keywords(db dbx.DBTX) keywords.Repository
}
