package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// UserSearchLimit caps user search results.
const UserSearchLimit = 10

// User represents a user in the system
type User struct {
	ID                         int64          `db:"id" json:"id"`
	Email                      string         `db:"email" json:"email"`
	PasswordHashed             string         `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Name                       *string        `db:"name" json:"name"`
	Image                      *string        `db:"image" json:"image"`
	Bio                        *string        `db:"bio" json:"bio"`
	Interests                  pq.StringArray `db:"interests" json:"interests"`
	NotificationsEnabled       bool           `db:"notifications_enabled" json:"notifications_enabled"`
	HasCompletedOnboarding     bool           `db:"has_completed_onboarding" json:"has_completed_onboarding"`
	HasAccess                  bool           `db:"has_access" json:"has_access"`
	AvailableForRecommendation bool           `db:"available_for_recommendation" json:"available_for_recommendation"`
	CreatedAt                  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time      `db:"updated_at" json:"updated_at"`
}

// Summary returns the public identity of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Image: u.Image}
}

// UserSummary is the public identity shown next to content, notifications and lists.
type UserSummary struct {
	ID    int64   `db:"id" json:"id"`
	Name  *string `db:"name" json:"name"`
	Image *string `db:"image" json:"image"`
}

// RegisteredUser is the registration response body.
type RegisteredUser struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Name       string `json:"name" validate:"max=100"`
	InviteCode string `json:"inviteCode" validate:"omitempty,max=64"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest edits the caller's display identity.
// An empty image keeps the current one.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Image string `json:"image" validate:"omitempty,url,max=2048"`
}

// CompleteOnboardingRequest is sent once at the end of the onboarding flow.
type CompleteOnboardingRequest struct {
	Interests     []string `json:"interests" validate:"max=20,dive,max=50"`
	Bio           string   `json:"bio" validate:"max=500"`
	Notifications bool     `json:"notifications"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to create a user with a taken email
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
