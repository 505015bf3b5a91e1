package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nisser/internal/config"
	"nisser/internal/model"
)

// AuthService issues signed access tokens. Verification happens in the auth middleware.
type AuthService struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		secret: []byte(cfg.JWTSecret),
		maxAge: time.Duration(cfg.AccessTokenMaxAge) * time.Second,
		now:    time.Now,
	}
}

// GenerateAccessToken signs an HS256 token carrying the user id.
func (s *AuthService) GenerateAccessToken(userID int64) (*model.AccessToken, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.maxAge).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &model.AccessToken{Token: signed, ExpiresIn: int(s.maxAge.Seconds())}, nil
}
