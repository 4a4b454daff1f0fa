package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/repomanager"
)

type RoleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRoleService(db *sql.DB, m repomanager.RepositoryManager) *RoleService {
	return &RoleService{db: db, repomanager: m}
}

func toRoleDTO(r *models.Role) RoleDTO {
	return RoleDTO{ID: r.ID, RoleName: r.Name}
}

func (s *RoleService) CreateRole(ctx context.Context, name string) (ResponseBase, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ResponseBase{}, badRequest(common.MsgRoleNameRequired)
	}

	repo := s.repomanager.Roles(s.db)
	if _, err := repo.GetByName(ctx, normalize(name)); err == nil {
		return ResponseBase{}, reject(common.ErrorAlreadyExists, common.MsgRoleExists)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return ResponseBase{}, err
	}

	if _, err := repo.Create(ctx, &models.Role{Name: name, NormalizedName: normalize(name)}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return ResponseBase{}, reject(common.ErrorAlreadyExists, common.MsgRoleExists)
		}
		return ResponseBase{}, err
	}
	return ok(common.MsgRoleCreated), nil
}

func (s *RoleService) GetAllRoles(ctx context.Context) ([]RoleDTO, error) {
	roles, err := s.repomanager.Roles(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]RoleDTO, 0, len(roles))
	for _, r := range roles {
		result = append(result, toRoleDTO(r))
	}
	return result, nil
}

func (s *RoleService) GetRoleByID(ctx context.Context, id string) (*RoleDTO, error) {
	if id == "" {
		return nil, badRequest(common.MsgIDRequiredLower)
	}
	if !validID(id) {
		return nil, notFound(common.MsgRoleNotFound)
	}
	r, err := s.repomanager.Roles(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound(common.MsgRoleNotFound)
		}
		return nil, err
	}
	dto := toRoleDTO(r)
	return &dto, nil
}

func (s *RoleService) GetRoleByName(ctx context.Context, name string) (*RoleDTO, error) {
	if strings.TrimSpace(name) == "" {
		return nil, badRequest(common.MsgRoleNameRequired)
	}
	r, err := s.repomanager.Roles(s.db).GetByName(ctx, normalize(name))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound(common.MsgRoleNotFound)
		}
		return nil, err
	}
	dto := toRoleDTO(r)
	return &dto, nil
}

// GetUserRoles returns the role names assigned to the user.
func (s *RoleService) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	if _, err := s.lookupUser(ctx, userID); err != nil {
		return nil, err
	}
	roles, err := s.repomanager.Roles(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

func (s *RoleService) AddRoleToUser(ctx context.Context, req RoleRequest) (ResponseBase, error) {
	role, err := s.resolve(ctx, req)
	if err != nil {
		return ResponseBase{}, err
	}
	if err := s.repomanager.Roles(s.db).AddToUser(ctx, req.UserID, role.ID); err != nil {
		return ResponseBase{}, err
	}
	return ok(common.MsgRoleAddedToUser), nil
}

func (s *RoleService) RemoveRoleFromUser(ctx context.Context, req RoleRequest) (ResponseBase, error) {
	role, err := s.resolve(ctx, req)
	if err != nil {
		return ResponseBase{}, err
	}
	if err := s.repomanager.Roles(s.db).RemoveFromUser(ctx, req.UserID, role.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, notFound(common.MsgRoleNotFound)
		}
		return ResponseBase{}, err
	}
	return ok(common.MsgRoleRemoved), nil
}

func (s *RoleService) DeleteRole(ctx context.Context, id string) (ResponseBase, error) {
	if id == "" {
		return ResponseBase{}, badRequest(common.MsgIDRequiredLower)
	}
	if !validID(id) {
		return ResponseBase{}, notFound(common.MsgRoleNotFound)
	}
	if err := s.repomanager.Roles(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, notFound(common.MsgRoleNotFound)
		}
		return ResponseBase{}, err
	}
	return ok(common.MsgRoleDeleted), nil
}

// resolve validates a user/role pair and returns the role.
func (s *RoleService) resolve(ctx context.Context, req RoleRequest) (*models.Role, error) {
	if strings.TrimSpace(req.RoleName) == "" || req.UserID == "" {
		return nil, badRequest(common.MsgBadRequest)
	}
	if _, err := s.lookupUser(ctx, req.UserID); err != nil {
		return nil, err
	}
	role, err := s.repomanager.Roles(s.db).GetByName(ctx, normalize(req.RoleName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound(common.MsgRoleNotFound)
		}
		return nil, err
	}
	return role, nil
}

func (s *RoleService) lookupUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, badRequest(common.MsgUserIDRequired)
	}
	if !validID(userID) {
		return nil, notFound(common.MsgUserNotFound)
	}
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound(common.MsgUserNotFound)
		}
		return nil, err
	}
	return u, nil
}
