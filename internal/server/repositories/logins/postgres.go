package logins

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/rustytech/internal/dbx"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, info *models.LoginInfo) error {
	query := `INSERT INTO logins (user_id, login_time, provider) VALUES ($1, $2, $3) RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, info.UserID, info.LoginTime, info.Provider).Scan(&info.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
