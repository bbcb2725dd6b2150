package service

import (
	"context"
	"errors"
	"fmt"

	"userdesk/pkg/hash"
	"userdesk/services/api/internal/models"
	"userdesk/services/api/internal/policy"
	"userdesk/services/api/internal/repo"
	"userdesk/services/api/internal/transport"
)

// Actor is the authenticated principal performing an admin operation.
type Actor struct {
	ID   uint
	Role string
}

type UserService struct {
	Repo *repo.UserRepo
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.Repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, actor Actor, req transport.RegisterRequest) (*models.User, error) {
	if !policy.Allow(policy.ActionCreateUser, actor.Role, false) {
		return nil, ErrForbidden
	}

	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if !models.ValidRole(req.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}
	if len(req.Name) < 2 {
		return nil, fmt.Errorf("%w: name must be at least 2 characters", ErrValidation)
	}
	if !validEmail(req.Email) {
		return nil, fmt.Errorf("%w: email is malformed", ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: &pwHash,
		Role:         req.Role,
	}
	if err := s.Repo.Create(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, actor Actor, id uint, req transport.UpdateUserRequest) (*models.User, error) {
	self := actor.ID == id
	if !policy.Allow(policy.ActionUpdateUser, actor.Role, self) {
		return nil, ErrForbidden
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && *req.Role != user.Role {
		if !models.ValidRole(*req.Role) {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *req.Role)
		}
		if !policy.Allow(policy.ActionChangeRole, actor.Role, self) {
			return nil, ErrForbidden
		}
		user.Role = *req.Role
	}

	if req.Email != nil && *req.Email != user.Email {
		if !validEmail(*req.Email) {
			return nil, fmt.Errorf("%w: email is malformed", ErrValidation)
		}
		if _, err := s.Repo.ByEmail(ctx, *req.Email); err == nil {
			return nil, ErrConflict
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		user.Email = *req.Email
	}

	if req.Name != nil {
		if len(*req.Name) < 2 {
			return nil, fmt.Errorf("%w: name must be at least 2 characters", ErrValidation)
		}
		user.Name = *req.Name
	}

	if req.Password != nil {
		if len(*req.Password) < 6 {
			return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
		}
		pwHash, err := hash.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &pwHash
	}

	if err := s.Repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !policy.Allow(policy.ActionDeleteUser, actor.Role, actor.ID == id) {
		return ErrForbidden
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
