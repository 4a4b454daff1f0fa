package posts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/dbx"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
)

const selectPost = `SELECT id, user_id, post_type, title, content, plain_text_content, is_published,
		image_urls, image_url, video_url, created_at, updated_at
	 FROM posts`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`INSERT INTO posts (user_id, post_type, title, content, plain_text_content, is_published,
		    image_urls, image_url, video_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`

	imageURLs, err := encodeURLs(post.ImageURLs)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, query,
		post.UserID, string(post.Type), post.Title, post.Content, post.PlainTextContent, post.IsPublished,
		imageURLs, post.ImageURL, post.VideoURL, post.CreatedAt, post.UpdatedAt,
	).Scan(&post.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, selectPost+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

func (r *PostgresRepository) List(ctx context.Context, published bool) ([]*models.Post, error) {
	return r.list(ctx, selectPost+` WHERE is_published = $1 ORDER BY created_at DESC`, published)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Post, error) {
	return r.list(ctx, selectPost+` ORDER BY created_at DESC`)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	return r.list(ctx, selectPost+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) error {
	query :=
		`UPDATE posts SET title = $2, content = $3, plain_text_content = $4, updated_at = $5
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, post.ID, post.Title, post.Content, post.PlainTextContent, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) TogglePublished(ctx context.Context, id string) (bool, error) {
	query := `UPDATE posts SET is_published = NOT is_published WHERE id = $1 RETURNING is_published`

	var published bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&published); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return published, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Search(ctx context.Context, query string) ([]*models.Post, error) {
	pattern := "%" + likeEscaper.Replace(query) + "%"
	return r.list(ctx, selectPost+` WHERE is_published AND title ILIKE $1 ESCAPE '\' ORDER BY created_at DESC`, pattern)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*models.Post, error) {
	p := &models.Post{}
	var postType string
	var imageURLs []byte

	err := row.Scan(&p.ID, &p.UserID, &postType, &p.Title, &p.Content, &p.PlainTextContent, &p.IsPublished,
		&imageURLs, &p.ImageURL, &p.VideoURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Type = models.PostType(postType)
	if len(imageURLs) > 0 {
		if err := json.Unmarshal(imageURLs, &p.ImageURLs); err != nil {
			return nil, fmt.Errorf("decode image_urls: %w", err)
		}
	}
	return p, nil
}

func encodeURLs(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return "", fmt.Errorf("encode image_urls: %w", err)
	}
	return string(b), nil
}
