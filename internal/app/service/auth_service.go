package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeapt/internal/common"
	"codeapt/internal/common/security"
	"codeapt/internal/domain/model"
	"codeapt/internal/domain/repository"
	"codeapt/internal/platform/logger"

	"github.com/google/uuid"
)

// UserCreatedHook runs after a user row is committed.
type UserCreatedHook interface {
	AfterUserCreated(ctx context.Context, user *model.User) error
}

type AuthService struct {
	userRepo repository.UserRepository
	hooks    []UserCreatedHook
}

func NewAuthService(userRepo repository.UserRepository, hooks ...UserCreatedHook) *AuthService {
	return &AuthService{userRepo: userRepo, hooks: hooks}
}

type SignupRequest struct {
	Username string `json:"username" validate:"notblank,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	LoginField string `json:"login_field" validate:"required"` // Can be username or email
	Password   string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           model.RoleUser, // Default role
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo might return common.ErrConflict
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	for _, h := range s.hooks {
		if err := h.AfterUserCreated(ctx, user); err != nil {
			logger.Log.WithField("user_id", user.ID).WithError(err).Error("post-signup hook failed")
		}
	}

	token, err := security.GenerateToken(security.Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = "" // Clear password before returning
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.LoginField == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	// Try finding by email first, then by username
	user, err := s.userRepo.FindByEmail(ctx, req.LoginField)
	if errors.Is(err, common.ErrNotFound) {
		user, err = s.userRepo.FindByUsername(ctx, req.LoginField)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(security.Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}
