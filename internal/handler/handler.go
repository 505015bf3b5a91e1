// Package handler holds the HTTP endpoints. Handlers decode and validate the
// request, call one service method and map domain errors to the error envelope.
package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
	"nisser/internal/transport/http/middleware"
)

// requireUser reads the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return 0, false
	}
	return userID, true
}

// pathID parses the named URL parameter or writes a 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := httputil.PathID(r, name)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid ID")
		return 0, false
	}
	return id, true
}

// decode reads and validates a JSON body or writes a 400.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := httputil.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// writeError maps a service error onto the error envelope. Anything that is
// not a known domain error is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error, op string) {
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid email or password")

	case errors.Is(err, model.ErrForbidden),
		errors.Is(err, model.ErrMustFollowToView):
		httputil.WriteForbidden(w, err.Error())

	case errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrRequestNotFound),
		errors.Is(err, model.ErrReviewNotFound),
		errors.Is(err, model.ErrCommentNotFound),
		errors.Is(err, model.ErrFeedPostNotFound):
		httputil.WriteNotFound(w, err.Error())

	case errors.Is(err, model.ErrAlreadyFollowing),
		errors.Is(err, model.ErrRequestAlreadyPending),
		errors.Is(err, model.ErrRequestNotPending),
		errors.Is(err, model.ErrEmailExists):
		httputil.WriteConflict(w, err.Error())

	case errors.Is(err, model.ErrCannotFollowSelf),
		errors.Is(err, model.ErrCannotMarkOwnReview),
		errors.Is(err, model.ErrInviteInvalid),
		errors.Is(err, model.ErrPreferenceNotFound):
		httputil.WriteBadRequest(w, err.Error())

	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")

	default:
		log.Error(op+" failed", zap.Error(err))
		httputil.WriteInternalError(w, "Something went wrong")
	}
}

// nonNil keeps empty lists encoding as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
