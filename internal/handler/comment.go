package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

type commentService interface {
	List(ctx context.Context, reviewID int64) ([]model.Comment, error)
	Create(ctx context.Context, userID, reviewID int64, content string) (*model.Comment, error)
	Update(ctx context.Context, userID, commentID int64, content string) (*model.Comment, error)
	Delete(ctx context.Context, userID, commentID int64) error
}

type CommentHandler struct {
	comments commentService
	log      *zap.Logger
}

func NewCommentHandler(comments commentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		log:      log.Named("comment"),
	}
}

// List returns the comments of a review, oldest first.
// GET /reviews/comments?reviewId=
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	reviewID, err := httputil.ParseID(r.URL.Query().Get("reviewId"))
	if err != nil {
		httputil.WriteBadRequest(w, "reviewId is required")
		return
	}

	comments, err := h.comments.List(r.Context(), reviewID)
	if err != nil {
		writeError(w, h.log, err, "list comments")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"comments": nonNil(comments),
	})
}

// POST /reviews/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if !decode(w, r, &req) {
		return
	}

	comment, err := h.comments.Create(r.Context(), userID, req.ReviewID, req.Content)
	if err != nil {
		writeError(w, h.log, err, "create comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"comment": comment,
	})
}

// Update edits a comment. Only its author may do so.
// PUT /reviews/comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.UpdateCommentRequest
	if !decode(w, r, &req) {
		return
	}

	if _, err := h.comments.Update(r.Context(), userID, commentID, req.Content); err != nil {
		writeError(w, h.log, err, "update comment")
		return
	}
	httputil.WriteSuccess(w)
}

// Delete removes a comment. The author and the review owner may do so.
// DELETE /reviews/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.comments.Delete(r.Context(), userID, commentID); err != nil {
		writeError(w, h.log, err, "delete comment")
		return
	}
	httputil.WriteSuccess(w)
}
