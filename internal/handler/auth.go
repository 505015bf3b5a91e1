package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

// AccessTokenCookie carries the session for browser clients.
const AccessTokenCookie = "access_token"

type accountService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.User, error)
}

type tokenIssuer interface {
	GenerateAccessToken(userID int64) (*model.AccessToken, error)
}

// AuthHandler groups registration, login and logout.
type AuthHandler struct {
	users        accountService
	tokens       tokenIssuer
	secureCookie bool
	log          *zap.Logger
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(users accountService, tokens tokenIssuer, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		tokens:       tokens,
		secureCookie: secureCookie,
		log:          log.Named("auth"),
	}
}

// Register creates an account and redeems the optional invite code.
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		writeError(w, h.log, err, "register")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user": model.RegisteredUser{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}

// Login verifies credentials, returns an access token and sets it as a cookie.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.Login(r.Context(), &req)
	if err != nil {
		writeError(w, h.log, err, "login")
		return
	}

	token, err := h.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		writeError(w, h.log, err, "issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token.Token,
		Path:     "/",
		MaxAge:   token.ExpiresIn,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{
		AccessToken: token.Token,
		ExpiresIn:   token.ExpiresIn,
		User:        user.Summary(),
	})
}

// Logout clears the session cookie. Bearer tokens simply expire.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteSuccess(w)
}
