package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/logging"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/repomanager"
)

// UserService is the read/delete side of the user directory.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	posts       *PostService
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, posts *PostService, l logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, posts: posts, log: l}
}

func (s *UserService) GetAll(ctx context.Context) ([]UserDTO, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]UserDTO, 0, len(users))
	for _, u := range users {
		result = append(result, UserDTO{ID: u.ID, Email: u.Email})
	}
	return result, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*UserDTO, error) {
	if id == "" {
		return nil, badRequest(common.MsgIDRequiredLower)
	}
	if !validID(id) {
		return nil, notFound(common.MsgUserNotFound)
	}
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound(common.MsgUserNotFound)
		}
		return nil, err
	}
	return &UserDTO{ID: u.ID, Email: u.Email}, nil
}

// Delete removes the user. Posts, roles, logins and refresh tokens go with
// it through ON DELETE CASCADE.
func (s *UserService) Delete(ctx context.Context, id string) (ResponseBase, error) {
	if id == "" {
		return ResponseBase{}, badRequest(common.MsgIDRequiredLower)
	}
	if !validID(id) {
		return ResponseBase{}, notFound(common.MsgUserNotFound)
	}
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, notFound(common.MsgUserNotFound)
		}
		return ResponseBase{}, err
	}
	s.log.Info(ctx, "user deleted", "user_id", id)
	return ok(common.MsgUserDeleted), nil
}

// GetUserPosts lists every post of the user, published or not.
func (s *UserService) GetUserPosts(ctx context.Context, userID string) ([]*PostDTO, error) {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.posts.ListByUser(ctx, userID)
}
