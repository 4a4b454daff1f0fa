// Package users provides the PostgreSQL-backed user account repository.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/dbx"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
)

const selectUser = `SELECT id, email, normalized_email, username, normalized_username,
		password_hash, password_salt, birth_year, verification_token, verified_at,
		email_confirmed, reset_token, reset_token_expires, two_factor_enabled, created_at
	 FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, normalized_email, username, normalized_username,
		    password_hash, password_salt, birth_year, verification_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.NormalizedEmail, user.UserName, user.NormalizedUserName,
		user.PasswordHash, user.PasswordSalt, user.BirthYear, user.VerificationToken,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, normalizedEmail string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE normalized_email = $1`, normalizedEmail)
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, normalizedUserName string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE normalized_username = $1`, normalizedUserName)
}

func (r *PostgresRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE verification_token = $1`, token)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET email = $2, normalized_email = $3, username = $4, normalized_username = $5,
		    password_hash = $6, password_salt = $7, birth_year = $8, verification_token = $9,
		    verified_at = $10, email_confirmed = $11, reset_token = $12, reset_token_expires = $13,
		    two_factor_enabled = $14
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.NormalizedEmail, user.UserName, user.NormalizedUserName,
		user.PasswordHash, user.PasswordSalt, user.BirthYear, user.VerificationToken,
		user.VerifiedAt, user.EmailConfirmed, user.ResetToken, user.ResetTokenExpires,
		user.TwoFactorEnabled,
	)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return requireOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var verifiedAt, resetExpires sql.NullTime

	err := row.Scan(&u.ID, &u.Email, &u.NormalizedEmail, &u.UserName, &u.NormalizedUserName,
		&u.PasswordHash, &u.PasswordSalt, &u.BirthYear, &u.VerificationToken, &verifiedAt,
		&u.EmailConfirmed, &u.ResetToken, &resetExpires, &u.TwoFactorEnabled, &u.CreatedAt)
	if err != nil {
		return nil, err
	}

	u.VerifiedAt = timePtr(verifiedAt)
	u.ResetTokenExpires = timePtr(resetExpires)
	return u, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
