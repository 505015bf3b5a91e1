package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

type feedPostService interface {
	Create(ctx context.Context, userID int64, req *model.CreateFeedPostRequest) (*model.FeedPost, error)
	List(ctx context.Context, userID int64) ([]model.FeedPost, error)
	Delete(ctx context.Context, userID, postID int64) error
}

type FeedPostHandler struct {
	posts feedPostService
	log   *zap.Logger
}

func NewFeedPostHandler(posts feedPostService, log *zap.Logger) *FeedPostHandler {
	return &FeedPostHandler{
		posts: posts,
		log:   log.Named("feed_post"),
	}
}

// Create publishes a recommendation request to the caller's followers.
// POST /feed/posts
func (h *FeedPostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateFeedPostRequest
	if !decode(w, r, &req) {
		return
	}

	post, err := h.posts.Create(r.Context(), userID, &req)
	if err != nil {
		writeError(w, h.log, err, "create feed post")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{"post": post})
}

// List returns posts by the caller and the users they follow.
// GET /feed/posts
func (h *FeedPostHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "list feed posts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": nonNil(posts)})
}

// DELETE /feed/posts/{id}
func (h *FeedPostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), userID, postID); err != nil {
		writeError(w, h.log, err, "delete feed post")
		return
	}
	httputil.WriteSuccess(w)
}
