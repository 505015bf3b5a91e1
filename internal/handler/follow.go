package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

type followService interface {
	SubmitRequest(ctx context.Context, requesterID, recipientID int64) error
	Respond(ctx context.Context, recipientID, requestID int64, accept bool) error
	Unfollow(ctx context.Context, followerID, followingID int64) error
	Status(ctx context.Context, followerID, followingID int64) (bool, error)
	RequestStatus(ctx context.Context, requesterID, recipientID int64) (bool, error)
	Suggestions(ctx context.Context, userID int64) ([]model.UserSummary, error)
	PendingRequests(ctx context.Context, userID int64) ([]model.FollowRequest, error)
	Followers(ctx context.Context, userID int64) ([]model.UserSummary, error)
	Following(ctx context.Context, userID int64) ([]model.UserSummary, error)
}

type FollowHandler struct {
	follows followService
	log     *zap.Logger
}

func NewFollowHandler(follows followService, log *zap.Logger) *FollowHandler {
	return &FollowHandler{
		follows: follows,
		log:     log.Named("follow"),
	}
}

// SubmitRequest asks the recipient for permission to follow them.
// POST /follow/request
func (h *FollowHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.SubmitFollowRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.follows.SubmitRequest(r.Context(), userID, req.RecipientID); err != nil {
		writeError(w, h.log, err, "submit follow request")
		return
	}
	httputil.WriteSuccess(w)
}

// Respond accepts or declines a pending request addressed to the caller.
// POST /follow/respond
func (h *FollowHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.RespondFollowRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.follows.Respond(r.Context(), userID, req.RequestID, *req.Accept); err != nil {
		writeError(w, h.log, err, "respond to follow request")
		return
	}
	httputil.WriteSuccess(w)
}

// Unfollow removes the caller's edge to the target. Missing edges are not an error.
// DELETE /follow/{id}
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.follows.Unfollow(r.Context(), userID, targetID); err != nil {
		writeError(w, h.log, err, "unfollow")
		return
	}
	httputil.WriteSuccess(w)
}

// Status reports whether the caller follows the target.
// GET /follow/status/{id}
func (h *FollowHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	following, err := h.follows.Status(r.Context(), userID, targetID)
	if err != nil {
		writeError(w, h.log, err, "follow status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"isFollowing": following,
	})
}

// RequestStatus reports whether the caller has a pending request to the target.
// GET /follow/request/status/{id}
func (h *FollowHandler) RequestStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	pending, err := h.follows.RequestStatus(r.Context(), userID, targetID)
	if err != nil {
		writeError(w, h.log, err, "follow request status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"hasPendingRequest": pending,
	})
}

// GET /follow/suggestions
func (h *FollowHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	users, err := h.follows.Suggestions(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "follow suggestions")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"suggestions": nonNil(users),
	})
}

// PendingRequests lists requests waiting for the caller's answer.
// GET /follow/requests
func (h *FollowHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	requests, err := h.follows.PendingRequests(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "pending follow requests")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"requests": nonNil(requests),
	})
}

// GET /follow/followers
func (h *FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	users, err := h.follows.Followers(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "followers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"followers": nonNil(users),
	})
}

// GET /follow/following
func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	users, err := h.follows.Following(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "following")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"following": nonNil(users),
	})
}
