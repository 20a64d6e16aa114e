package service

import (
	"context"
	"errors"

	"github.com/abisalde/storefront-auth/internal/auth/repository"
	customErrors "github.com/abisalde/storefront-auth/internal/errors"
	"github.com/abisalde/storefront-auth/internal/model"
)

func (s *AuthService) FindUsers(ctx context.Context, pagination *model.PaginationInput) (*model.UserPage, error) {
	page, err := s.userRepo.FindAllUsers(ctx, pagination)
	if errors.Is(err, repository.ErrInvalidCursor) {
		return nil, customErrors.InvalidCursor
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "list users")
	}
	return page, nil
}

func (s *AuthService) UpdateUserStatus(ctx context.Context, userID, status string) (*model.PublicUser, error) {
	parsed, err := model.ParseUserStatus(status)
	if err != nil {
		return nil, customErrors.InvalidStatus
	}

	err = s.userRepo.UpdateStatus(ctx, userID, parsed)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, customErrors.UserNotFound
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "update status %s", userID)
	}

	s.log.Info(ctx, "user status changed", "user_id", userID, "status", parsed)
	return s.Profile(ctx, userID)
}
