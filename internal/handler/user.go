package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

type profileService interface {
	GetPublicProfile(ctx context.Context, id int64) (*model.UserSummary, error)
	UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.UserSummary, error)
	Search(ctx context.Context, query string) ([]model.UserSummary, error)
	CompleteOnboarding(ctx context.Context, userID int64, req *model.CompleteOnboardingRequest) error
}

type progressService interface {
	Get(ctx context.Context, userID int64) (*model.ProgressResponse, error)
}

// UserHandler serves profiles, search, onboarding and progress.
type UserHandler struct {
	users    profileService
	progress progressService
	log      *zap.Logger
}

func NewUserHandler(users profileService, progress progressService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		progress: progress,
		log:      log.Named("user"),
	}
}

// GetProfile returns the public identity of a user.
// GET /user/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.users.GetPublicProfile(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "get profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// UpdateProfile edits the caller's name and image.
// PUT /user
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		writeError(w, h.log, err, "update profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// Search matches users by name.
// GET /user/search?q=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	users, err := h.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.log, err, "search users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": nonNil(users)})
}

// POST /user/complete-onboarding
func (h *UserHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CompleteOnboardingRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.users.CompleteOnboarding(r.Context(), userID, &req); err != nil {
		writeError(w, h.log, err, "complete onboarding")
		return
	}
	httputil.WriteSuccess(w)
}

// Progress returns goal completion, resistance level and the leaderboard.
// GET /user/progress
func (h *UserHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	progress, err := h.progress.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "get progress")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, progress)
}
