package service

import (
	"context"
	"errors"
	"strings"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
	"codeapt/internal/domain/repository"
)

type ProfileService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
}

func NewProfileService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo, profileRepo: profileRepo}
}

// AfterUserCreated gives every new user a default profile.
func (s *ProfileService) AfterUserCreated(ctx context.Context, user *model.User) error {
	return s.profileRepo.Create(ctx, model.NewProfile(user))
}

type ProfileView struct {
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Profile  *model.Profile `json:"profile"`
}

// Get returns the caller's profile, creating the default one if the signup
// hook never ran.
func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileView, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.profileRepo.FindByUserID(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		if err := s.AfterUserCreated(ctx, user); err != nil {
			return nil, common.Errorf("failed to create profile: %w", err)
		}
		p, err = s.profileRepo.FindByUserID(ctx, userID)
	}
	if err != nil {
		return nil, common.Errorf("failed to load profile: %w", err)
	}
	return &ProfileView{Username: user.Username, Email: user.Email, Profile: p}, nil
}

type UpdateProfileRequest struct {
	Email       string `json:"email" validate:"required,email"`
	FullName    string `json:"full_name" validate:"max=100"`
	CollegeName string `json:"college_name" validate:"max=200"`
	PhoneNumber string `json:"phone_number" validate:"max=15"`
	Bio         string `json:"bio" validate:"max=500"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

func (s *ProfileService) Update(ctx context.Context, userID string, req UpdateProfileRequest) (*ProfileView, error) {
	view, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.Email)
	if email != view.Email {
		if err := s.userRepo.UpdateEmail(ctx, userID, email); err != nil {
			return nil, err
		}
		view.Email = email
	}

	p := view.Profile
	p.FullName = strings.TrimSpace(req.FullName)
	p.CollegeName = strings.TrimSpace(req.CollegeName)
	p.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	p.Bio = strings.TrimSpace(req.Bio)
	if req.AvatarURL != "" {
		p.AvatarURL = req.AvatarURL
	}
	if err := s.profileRepo.Update(ctx, p); err != nil {
		return nil, common.Errorf("failed to update profile: %w", err)
	}
	return view, nil
}
