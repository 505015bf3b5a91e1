package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

type reviewService interface {
	Create(ctx context.Context, userID int64, req *model.ReviewRequest) (*model.Review, error)
	Get(ctx context.Context, reviewID int64) (*model.Review, error)
	Update(ctx context.Context, userID, reviewID int64, req *model.ReviewRequest) (*model.Review, error)
	Delete(ctx context.Context, userID, reviewID int64) error
	ListByUser(ctx context.Context, viewerID, ownerID int64) ([]model.Review, error)
	Feed(ctx context.Context, userID int64) ([]model.Review, error)
	ToggleUseful(ctx context.Context, userID, reviewID int64) (bool, error)
	UsefulStatus(ctx context.Context, userID, reviewID int64) (bool, error)
}

type ReviewHandler struct {
	reviews reviewService
	log     *zap.Logger
}

func NewReviewHandler(reviews reviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		log:     log.Named("review"),
	}
}

// Create stores a review and notifies the author's followers.
// POST /reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.ReviewRequest
	if !decode(w, r, &req) {
		return
	}

	review, err := h.reviews.Create(r.Context(), userID, &req)
	if err != nil {
		writeError(w, h.log, err, "create review")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"review":  review,
	})
}

// GET /reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	reviewID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	review, err := h.reviews.Get(r.Context(), reviewID)
	if err != nil {
		writeError(w, h.log, err, "get review")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"review":  review,
	})
}

// Update replaces the review fields and its preference tags. Owner only.
// PUT /reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reviewID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.ReviewRequest
	if !decode(w, r, &req) {
		return
	}

	review, err := h.reviews.Update(r.Context(), userID, reviewID, &req)
	if err != nil {
		writeError(w, h.log, err, "update review")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"review":  review,
	})
}

// DELETE /reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reviewID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.reviews.Delete(r.Context(), userID, reviewID); err != nil {
		writeError(w, h.log, err, "delete review")
		return
	}
	httputil.WriteSuccess(w)
}

// Feed returns recent reviews from the caller and everyone they follow.
// GET /reviews/feed
func (h *ReviewHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	reviews, err := h.reviews.Feed(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "review feed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reviews": nonNil(reviews),
	})
}

// ListByUser returns a user's reviews. The caller must follow them.
// GET /reviews/user/{id}
func (h *ReviewHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ownerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	reviews, err := h.reviews.ListByUser(r.Context(), userID, ownerID)
	if err != nil {
		writeError(w, h.log, err, "list user reviews")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reviews": nonNil(reviews),
	})
}

// ToggleUseful marks the review useful, or clears an existing mark.
// POST /reviews/useful
func (h *ReviewHandler) ToggleUseful(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UsefulRequest
	if !decode(w, r, &req) {
		return
	}

	marked, err := h.reviews.ToggleUseful(r.Context(), userID, req.ReviewID)
	if err != nil {
		writeError(w, h.log, err, "toggle useful")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"marked": marked})
}

// GET /reviews/useful/status/{id}
func (h *ReviewHandler) UsefulStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reviewID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	marked, err := h.reviews.UsefulStatus(r.Context(), userID, reviewID)
	if err != nil {
		writeError(w, h.log, err, "useful status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"isMarked": marked,
	})
}
