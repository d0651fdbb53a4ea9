package service

import (
	"context"
	"strings"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type UserInput struct {
	Username string
	Email    *string
	FullName *string
}

type UserPatch struct {
	Username *string
	Email    *string
	FullName *string
}

// UserService exposes CRUD over users. Removing a user removes its tasks.
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Create(ctx context.Context, input UserInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, invalid("username", "is required")
	}
	user := model.User{Username: username, Email: input.Email, FullName: input.FullName}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert creates the user or refreshes email and full name of an existing one.
func (s *UserService) Upsert(ctx context.Context, input UserInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, invalid("username", "is required")
	}
	return s.repo.UpsertByUsername(ctx, username, input.Email, input.FullName)
}

func (s *UserService) FindAll(ctx context.Context) ([]model.User, error) {
	return s.repo.ListAll(ctx)
}

func (s *UserService) FindOne(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if isRecordNotFound(err) {
		return nil, notFound("User", id)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if isRecordNotFound(err) {
		return nil, &NotFoundError{Resource: "User", Key: username}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, patch UserPatch) (*model.User, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("User", id)
	}

	changes := make(map[string]any)
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username == "" {
			return nil, invalid("username", "must not be empty")
		}
		changes["username"] = username
	}
	if patch.Email != nil {
		changes["email"] = *patch.Email
	}
	if patch.FullName != nil {
		changes["full_name"] = *patch.FullName
	}
	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, err
	}
	return s.FindOne(ctx, id)
}

func (s *UserService) Remove(ctx context.Context, id uint) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound("User", id)
	}
	return nil
}
