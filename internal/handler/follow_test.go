package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

type fakeFollowService struct {
	submitted [][2]int64
	responded []bool
	submitErr error
	following bool
	pending   bool
	requests  []model.FollowRequest
}

func (f *fakeFollowService) SubmitRequest(ctx context.Context, requesterID, recipientID int64) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, [2]int64{requesterID, recipientID})
	return nil
}

func (f *fakeFollowService) Respond(ctx context.Context, recipientID, requestID int64, accept bool) error {
	f.responded = append(f.responded, accept)
	return nil
}

func (f *fakeFollowService) Unfollow(ctx context.Context, followerID, followingID int64) error {
	return nil
}

func (f *fakeFollowService) Status(ctx context.Context, followerID, followingID int64) (bool, error) {
	return f.following, nil
}

func (f *fakeFollowService) RequestStatus(ctx context.Context, requesterID, recipientID int64) (bool, error) {
	return f.pending, nil
}

func (f *fakeFollowService) Suggestions(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return nil, nil
}

func (f *fakeFollowService) PendingRequests(ctx context.Context, userID int64) ([]model.FollowRequest, error) {
	return f.requests, nil
}

func (f *fakeFollowService) Followers(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return []model.UserSummary{{ID: 2}}, nil
}

func (f *fakeFollowService) Following(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return nil, nil
}

func TestFollowHandler_SubmitRequest(t *testing.T) {
	svc := &fakeFollowService{}
	h := NewFollowHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.SubmitRequest(rec, newRequest(http.MethodPost, "/follow/request", `{"recipientId":9}`, 1, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
	assert.Equal(t, [][2]int64{{1, 9}}, svc.submitted)
}

func TestFollowHandler_SubmitRequestRejections(t *testing.T) {
	tests := []struct {
		name   string
		userID int64
		body   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", 0, `{"recipientId":9}`, nil, http.StatusUnauthorized, httputil.ErrCodeUnauthorized},
		{"missing recipient", 1, `{}`, nil, http.StatusBadRequest, httputil.ErrCodeBadRequest},
		{"malformed body", 1, `{"recipientId":`, nil, http.StatusBadRequest, httputil.ErrCodeBadRequest},
		{"already pending", 1, `{"recipientId":9}`, model.ErrRequestAlreadyPending, http.StatusBadRequest, httputil.ErrCodeConflict},
		{"already following", 1, `{"recipientId":9}`, model.ErrAlreadyFollowing, http.StatusBadRequest, httputil.ErrCodeConflict},
		{"self", 1, `{"recipientId":1}`, model.ErrCannotFollowSelf, http.StatusBadRequest, httputil.ErrCodeBadRequest},
		{"unknown user", 1, `{"recipientId":9}`, model.ErrUserNotFound, http.StatusNotFound, httputil.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewFollowHandler(&fakeFollowService{submitErr: tt.err}, zap.NewNop())

			rec := httptest.NewRecorder()
			h.SubmitRequest(rec, newRequest(http.MethodPost, "/follow/request", tt.body, tt.userID, nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestFollowHandler_RespondRequiresAccept(t *testing.T) {
	svc := &fakeFollowService{}
	h := NewFollowHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Respond(rec, newRequest(http.MethodPost, "/follow/respond", `{"requestId":3}`, 1, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// false is a valid answer, not a missing one
	rec = httptest.NewRecorder()
	h.Respond(rec, newRequest(http.MethodPost, "/follow/respond", `{"requestId":3,"accept":false}`, 1, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{false}, svc.responded)
}

func TestFollowHandler_Status(t *testing.T) {
	h := NewFollowHandler(&fakeFollowService{following: true, pending: true}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Status(rec, newRequest(http.MethodGet, "/follow/status/4", "", 1, map[string]string{"id": "4"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["isFollowing"])

	rec = httptest.NewRecorder()
	h.RequestStatus(rec, newRequest(http.MethodGet, "/follow/request/status/4", "", 1, map[string]string{"id": "4"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["hasPendingRequest"])
}

func TestFollowHandler_UnfollowBadID(t *testing.T) {
	h := NewFollowHandler(&fakeFollowService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Unfollow(rec, newRequest(http.MethodDelete, "/follow/abc", "", 1, map[string]string{"id": "abc"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFollowHandler_EmptyListsAreArrays(t *testing.T) {
	h := NewFollowHandler(&fakeFollowService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.PendingRequests(rec, newRequest(http.MethodGet, "/follow/requests", "", 1, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"requests":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Followers(rec, newRequest(http.MethodGet, "/follow/followers", "", 1, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["followers"], 1)
}
