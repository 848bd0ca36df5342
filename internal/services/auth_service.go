package services

import (
	"context"
	"errors"
	"time"

	"admin_console/internal/auth"
	"admin_console/internal/dto"
	"admin_console/internal/logger"
	"admin_console/internal/models"
	"admin_console/internal/repositories"
	"admin_console/pkg/apperrors"
)

type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	ParseToken(token string) (*auth.Claims, error)
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
	tokens   *auth.TokenManager
}

func NewAuthService(userRepo repositories.UserRepository, tokens *auth.TokenManager) AuthService {
	return &AuthServiceImpl{userRepo: userRepo, tokens: tokens}
}

// Login - аутентификация пользователя
func (s *AuthServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.DatabaseError(err, "Login failed")
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.NewForbiddenError("Account is inactive")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email, user.Name, string(user.Role), user.Department)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "User logged in", "user_id", user.ID, "role", user.Role)
	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC().Truncate(time.Second),
		User:        dto.NewUserResponse(user),
	}, nil
}

func (s *AuthServiceImpl) ParseToken(token string) (*auth.Claims, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
