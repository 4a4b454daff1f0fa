package keywords

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

func (r *PostgresRepository) GetOrCreate(ctx context.Context, text string) (*models.Keyword, error) {
	query :=
		`INSERT INTO keywords (text) VALUES ($1)
		 ON CONFLICT (text) DO UPDATE SET text = EXCLUDED.text
		 RETURNING id`

	k := &models.Keyword{Text: text}
	if err := r.db.QueryRowContext(ctx, query, text).Scan(&k.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return k, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Keyword, error) {
	return r.list(ctx, `SELECT id, text FROM keywords ORDER BY text`)
}

func (r *PostgresRepository) ListForPost(ctx context.Context, postID string) ([]*models.Keyword, error) {
	query :=
		`SELECT k.id, k.text FROM keywords k
		 JOIN post_keywords pk ON pk.keyword_id = k.id
		 WHERE pk.post_id = $1
		 ORDER BY k.text`
	return r.list(ctx, query, postID)
}

func (r *PostgresRepository) Attach(ctx context.Context, postID, keywordID string) error {
	query := `INSERT INTO post_keywords (post_id, keyword_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, postID, keywordID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Detach(ctx context.Context, postID, keywordID string) error {
	query := `DELETE FROM post_keywords WHERE post_id = $1 AND keyword_id = $2`
	if _, err := r.db.ExecContext(ctx, query, postID, keywordID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Keyword, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Keyword
	for rows.Next() {
		k := &models.Keyword{}
		if err := rows.Scan(&k.ID, &k.Text); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
