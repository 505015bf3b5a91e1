package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"nisser/internal/model"
	"nisser/internal/repository"
)

// InviteRedeemer is the part of InviteService registration depends on.
type InviteRedeemer interface {
	RedeemOnRegister(ctx context.Context, code string, newUserID int64) error
}

// UserService handles business logic for user operations
type UserService struct {
	repo    repository.UserRepository
	invites InviteRedeemer
	log     *zap.Logger
}

func NewUserService(repo repository.UserRepository, invites InviteRedeemer, log *zap.Logger) *UserService {
	return &UserService{
		repo:    repo,
		invites: invites,
		log:     log.Named("user"),
	}
}

// Register creates a new account. An invite code, when present, is redeemed
// afterwards; a failed redemption is logged and never fails the registration.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:          email,
		PasswordHashed: string(hashedPassword),
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = &name
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if code := strings.TrimSpace(req.InviteCode); code != "" && s.invites != nil {
		if err := s.invites.RedeemOnRegister(ctx, code, user.ID); err != nil {
			s.log.Warn("invite redemption failed",
				zap.Int64("user_id", user.ID),
				zap.Error(err))
		}
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Don't reveal whether the email exists or not
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetPublicProfile returns the public identity of a user.
func (s *UserService) GetPublicProfile(ctx context.Context, id int64) (*model.UserSummary, error) {
	return s.repo.GetSummary(ctx, id)
}

// UpdateProfile sets the caller's name, and the image when one is given.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.UserSummary, error) {
	var image *string
	if req.Image != "" {
		image = &req.Image
	}

	user, err := s.repo.UpdateProfile(ctx, userID, strings.TrimSpace(req.Name), image)
	if err != nil {
		return nil, err
	}
	summary := user.Summary()
	return &summary, nil
}

// Search matches user names. A blank query matches nobody.
func (s *UserService) Search(ctx context.Context, query string) ([]model.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.UserSummary{}, nil
	}
	return s.repo.Search(ctx, query, model.UserSearchLimit)
}

func (s *UserService) CompleteOnboarding(ctx context.Context, userID int64, req *model.CompleteOnboardingRequest) error {
	return s.repo.CompleteOnboarding(ctx, userID, req.Interests, strings.TrimSpace(req.Bio), req.Notifications)
}
